package handlers

import (
	"errors"

	"github.com/campuslink/alumninet/internal/services"
	"github.com/campuslink/alumninet/pkg/response"
	"github.com/gin-gonic/gin"
)

// fail maps service sentinel errors onto the HTTP error taxonomy and
// writes the response.
func fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrIdentityConflict):
		response.Error(c, response.NewConflict(err.Error()))
	case errors.Is(err, services.ErrUnauthorized):
		response.Error(c, response.NewForbidden(err.Error()))
	case errors.Is(err, services.ErrNotFound):
		response.Error(c, response.NewNotFound(err.Error()))
	case errors.Is(err, services.ErrNoOpTransition):
		// Single-target operator mistakes surface as not-found.
		response.Error(c, response.NewNotFound("no pending record matched the target"))
	case errors.Is(err, services.ErrBadAction):
		response.Error(c, response.NewBadRequest(err.Error()))
	default:
		response.Error(c, response.NewUnavailable("store unavailable, retry later"))
	}
}
