package handlers

import (
	"strconv"

	"github.com/campuslink/alumninet/internal/middleware"
	"github.com/campuslink/alumninet/internal/services"
	"github.com/campuslink/alumninet/pkg/response"
	"github.com/gin-gonic/gin"
)

// MemberAdminHandler is the admin surface over membership approval.
type MemberAdminHandler struct {
	approval *services.ApprovalService
}

func NewMemberAdminHandler(approval *services.ApprovalService) *MemberAdminHandler {
	return &MemberAdminHandler{approval: approval}
}

// List shows member records, defaulting to the pending queue when no
// state filter is given.
func (h *MemberAdminHandler) List(c *gin.Context) {
	var req services.MemberListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	resp, err := h.approval.ListMembers(&req)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, resp)
}

type transitionRequest struct {
	Reason string `json:"reason"`
}

// Approve transitions one pending member to approved.
func (h *MemberAdminHandler) Approve(c *gin.Context) {
	h.transition(c, services.ActionApprove)
}

// Reject transitions one pending member to rejected.
func (h *MemberAdminHandler) Reject(c *gin.Context) {
	h.transition(c, services.ActionReject)
}

func (h *MemberAdminHandler) transition(c *gin.Context, action string) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "invalid member id")
		return
	}

	var req transitionRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, err.Error())
			return
		}
	}

	actor := middleware.GetMember(c)
	member, err := h.approval.TransitionMember(actor, uint(id), action, req.Reason)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, member)
}

type bulkMemberRequest struct {
	IDs    []uint `json:"ids" binding:"required"`
	Action string `json:"action" binding:"required"`
	Reason string `json:"reason"`
}

// Bulk applies one action to a set of members, atomically per target.
func (h *MemberAdminHandler) Bulk(c *gin.Context) {
	var req bulkMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	actor := middleware.GetMember(c)
	modified, err := h.approval.BulkTransitionMembers(actor, req.IDs, req.Action, req.Reason)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, gin.H{"modified_count": modified})
}
