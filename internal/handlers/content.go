package handlers

import (
	"strconv"

	"github.com/campuslink/alumninet/internal/middleware"
	"github.com/campuslink/alumninet/internal/services"
	"github.com/campuslink/alumninet/pkg/response"
	"github.com/gin-gonic/gin"
)

// ContentHandler is the pass-through CRUD surface for jobs, stories and
// events. Posting requires the alumni role plus an approved record;
// that gate lives in the route setup, with a second check here for the
// role half.
type ContentHandler struct {
	content *services.ContentService
}

func NewContentHandler(content *services.ContentService) *ContentHandler {
	return &ContentHandler{content: content}
}

func (h *ContentHandler) CreateJob(c *gin.Context) {
	member := middleware.GetMember(c)
	if !member.CanPost() {
		response.Forbidden(c, "posting requires an approved alumni account")
		return
	}

	var req services.CreateJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	job, err := h.content.CreateJob(member, &req)
	if err != nil {
		fail(c, err)
		return
	}
	response.Created(c, job)
}

func (h *ContentHandler) ListJobs(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	items, total, err := h.content.ListJobs(page, pageSize)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, gin.H{"items": items, "total": total})
}

func (h *ContentHandler) DeleteJob(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "invalid job id")
		return
	}

	member := middleware.GetMember(c)
	if err := h.content.DeleteJob(member, uint(id)); err != nil {
		fail(c, err)
		return
	}
	response.Success(c, gin.H{"message": "job deleted"})
}

func (h *ContentHandler) CreateStory(c *gin.Context) {
	member := middleware.GetMember(c)
	if !member.CanPost() {
		response.Forbidden(c, "posting requires an approved alumni account")
		return
	}

	var req services.CreateStoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	story, err := h.content.CreateStory(member, &req)
	if err != nil {
		fail(c, err)
		return
	}
	response.Created(c, story)
}

func (h *ContentHandler) ListStories(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	items, total, err := h.content.ListStories(page, pageSize)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, gin.H{"items": items, "total": total})
}

func (h *ContentHandler) CreateEvent(c *gin.Context) {
	member := middleware.GetMember(c)

	var req services.CreateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	event, err := h.content.CreateEvent(member, &req)
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	response.Created(c, event)
}

func (h *ContentHandler) ListEvents(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	items, total, err := h.content.ListEvents(page, pageSize)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, gin.H{"items": items, "total": total})
}
