package handlers

import (
	"github.com/campuslink/alumninet/internal/services"
	"github.com/campuslink/alumninet/pkg/response"
	"github.com/gin-gonic/gin"
)

// ModerationLogHandler exposes read access to the ledger. There is no
// write surface here: entries are appended by the state machines only.
type ModerationLogHandler struct {
	ledger *services.ModerationLogService
}

func NewModerationLogHandler(ledger *services.ModerationLogService) *ModerationLogHandler {
	return &ModerationLogHandler{ledger: ledger}
}

// List returns ledger entries, newest first.
func (h *ModerationLogHandler) List(c *gin.Context) {
	var req services.ModerationLogListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	resp, err := h.ledger.List(&req)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, resp)
}
