package handlers

import (
	"strconv"
	"time"

	"github.com/campuslink/alumninet/internal/middleware"
	"github.com/campuslink/alumninet/internal/models"
	"github.com/campuslink/alumninet/internal/services"
	"github.com/campuslink/alumninet/pkg/response"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const maxUploadBytes = 32 << 20 // 32 MiB

// MediaHandler covers the upload seam and the moderation surface for
// media submissions.
type MediaHandler struct {
	db         *gorm.DB
	moderation *services.MediaModerationService
	storage    *services.MediaStorage
	joiner     *services.ListingJoiner
}

func NewMediaHandler(db *gorm.DB, moderation *services.MediaModerationService, storage *services.MediaStorage, joiner *services.ListingJoiner) *MediaHandler {
	return &MediaHandler{db: db, moderation: moderation, storage: storage, joiner: joiner}
}

// Upload accepts one multipart file, stores the bytes in the object
// store and queues a pending submission. Only the locator is kept.
func (h *MediaHandler) Upload(c *gin.Context) {
	member := middleware.GetMember(c)

	file, err := c.FormFile("file")
	if err != nil {
		response.BadRequest(c, "file is required")
		return
	}
	if file.Size > maxUploadBytes {
		response.BadRequest(c, "file exceeds the upload size limit")
		return
	}
	title := c.PostForm("title")

	src, err := file.Open()
	if err != nil {
		response.BadRequest(c, "could not read upload")
		return
	}
	defer src.Close()

	contentType := file.Header.Get("Content-Type")
	locator, err := h.storage.Put(c.Request.Context(), src, file.Size, file.Filename, contentType)
	if err != nil {
		response.Error(c, response.NewUnavailable("object storage unavailable"))
		return
	}

	submission, err := h.moderation.CreateSubmission(member, title, locator, contentType)
	if err != nil {
		fail(c, err)
		return
	}
	response.Created(c, submission)
}

// ListSubmissions is the admin review queue.
func (h *MediaHandler) ListSubmissions(c *gin.Context) {
	var req services.MediaListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	resp, err := h.moderation.ListSubmissions(&req)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, resp)
}

type mediaDecisionRequest struct {
	Notes    string `json:"notes"`
	Year     int    `json:"year"`
	Category string `json:"category"`
}

// Approve publishes one pending submission.
func (h *MediaHandler) Approve(c *gin.Context) {
	h.transition(c, services.ActionApprove)
}

// Reject declines one pending submission.
func (h *MediaHandler) Reject(c *gin.Context) {
	h.transition(c, services.ActionReject)
}

func (h *MediaHandler) transition(c *gin.Context, action string) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "invalid media id")
		return
	}

	var req mediaDecisionRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, err.Error())
			return
		}
	}

	actor := middleware.GetMember(c)
	submission, err := h.moderation.TransitionMedia(actor, uint(id), action, req.Notes, services.PublishOptions{
		Year:     req.Year,
		Category: req.Category,
	})
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, submission)
}

type bulkMediaRequest struct {
	IDs      []uint `json:"ids" binding:"required"`
	Action   string `json:"action" binding:"required"`
	Notes    string `json:"notes"`
	Year     int    `json:"year"`
	Category string `json:"category"`
}

// Bulk applies one decision to many submissions.
func (h *MediaHandler) Bulk(c *gin.Context) {
	var req bulkMediaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	actor := middleware.GetMember(c)
	result, err := h.moderation.BulkTransitionMedia(actor, req.IDs, req.Action, req.Notes, services.PublishOptions{
		Year:     req.Year,
		Category: req.Category,
	})
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, result)
}

// ListPublished returns community-visible media enriched with
// contributor details.
func (h *MediaHandler) ListPublished(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	items, total, err := h.moderation.ListPublished(page, pageSize)
	if err != nil {
		fail(c, err)
		return
	}

	rows := make([]services.ListingRow, len(items))
	for i, item := range items {
		rows[i] = services.ListingRow{
			Payload:   item,
			AuthorKey: strconv.FormatUint(uint64(item.ContributedBy), 10),
		}
	}
	enriched, err := h.joiner.JoinListing(rows, services.KeyMemberID)
	if err != nil {
		fail(c, err)
		return
	}

	response.Success(c, gin.H{
		"items": enriched,
		"total": total,
	})
}

// DownloadURL returns a short-lived read URL for one published medium.
func (h *MediaHandler) DownloadURL(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "invalid media id")
		return
	}

	var medium models.PublishedMedium
	if err := h.db.First(&medium, id).Error; err != nil {
		response.NotFound(c, "media not found")
		return
	}

	url, err := h.storage.PresignGet(c.Request.Context(), medium.Locator, 15*time.Minute)
	if err != nil {
		response.Error(c, response.NewUnavailable("object storage unavailable"))
		return
	}
	response.Success(c, gin.H{"url": url})
}
