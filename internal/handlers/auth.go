package handlers

import (
	"github.com/campuslink/alumninet/internal/middleware"
	"github.com/campuslink/alumninet/internal/services"
	"github.com/campuslink/alumninet/pkg/response"
	"github.com/gin-gonic/gin"
)

// AuthHandler exposes the identity surface: who am I, and the
// allow-listed self-service profile update.
type AuthHandler struct {
	identity *services.IdentityService
}

func NewAuthHandler(identity *services.IdentityService) *AuthHandler {
	return &AuthHandler{identity: identity}
}

// Me returns the member record the caller's assertion resolved to,
// including its approval state so clients can render the pending page.
func (h *AuthHandler) Me(c *gin.Context) {
	member := middleware.GetMember(c)
	if member == nil {
		response.Unauthorized(c, "not authenticated")
		return
	}
	response.Success(c, member)
}

// UpdateProfile applies the member-editable profile fields.
func (h *AuthHandler) UpdateProfile(c *gin.Context) {
	member := middleware.GetMember(c)
	if member == nil {
		response.Unauthorized(c, "not authenticated")
		return
	}

	var req services.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	updated, err := h.identity.UpdateProfile(member, &req)
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	response.Success(c, updated)
}
