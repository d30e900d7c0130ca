package services

import (
	"errors"
	"time"

	"github.com/campuslink/alumninet/internal/models"
	"github.com/campuslink/alumninet/pkg/logger"
	"gorm.io/gorm"
)

// MediaModerationService reviews uploaded media. Approval spawns
// exactly one PublishedMedium per submission; the spawn and the state
// transition share one database transaction so a submission can not end
// up approved but unpublished. Across a batch the coordinator stays
// best-effort: a failing item is logged and skipped, the rest proceed.
type MediaModerationService struct {
	db       *gorm.DB
	ledger   *ModerationLogService
	notifier Notifier
}

func NewMediaModerationService(db *gorm.DB, ledger *ModerationLogService, notifier Notifier) *MediaModerationService {
	return &MediaModerationService{db: db, ledger: ledger, notifier: notifier}
}

// PublishOptions carries the catalog fields an admin assigns when
// approving media for publication.
type PublishOptions struct {
	Year     int    `json:"year"`
	Category string `json:"category"`
}

// TransitionMedia applies one admin decision to a single submission.
func (s *MediaModerationService) TransitionMedia(actor *models.Member, mediaID uint, action, notes string, opts PublishOptions) (*models.MediaSubmission, error) {
	if !actor.IsAdmin() {
		return nil, ErrUnauthorized
	}
	if action != ActionApprove && action != ActionReject {
		return nil, ErrBadAction
	}

	applied, _, err := s.transitionOne(actor, mediaID, action, notes, opts)
	if err != nil {
		return nil, err
	}
	if !applied {
		var exists int64
		if err := s.db.Model(&models.MediaSubmission{}).Where("id = ?", mediaID).Count(&exists).Error; err != nil {
			return nil, err
		}
		if exists == 0 {
			return nil, ErrNotFound
		}
		return nil, ErrNoOpTransition
	}

	var submission models.MediaSubmission
	if err := s.db.First(&submission, mediaID).Error; err != nil {
		return nil, err
	}

	actionKind := models.ActionMediaApprove
	if action == ActionReject {
		actionKind = models.ActionMediaReject
	}
	targetID := submission.ID
	s.appendLedger(&models.ModerationLogEntry{
		ActorID:    actor.ID,
		ActionKind: actionKind,
		TargetKind: models.TargetMedia,
		TargetID:   &targetID,
		Details: models.EncodeDetails(models.LedgerDetails{
			Count:     1,
			TargetIDs: []uint{submission.ID},
			Reason:    notes,
		}),
	})
	s.notifyUploaders([]models.MediaSubmission{submission}, action, notes)

	return &submission, nil
}

// BulkTransitionResult reports what a media batch actually did.
type BulkTransitionResult struct {
	ModifiedCount  int64 `json:"modified_count"`
	PublishedCount int64 `json:"published_count"`
}

// BulkTransitionMedia applies one decision to many submissions,
// atomically per target. Concurrent duplicate batches are idempotent:
// only items still pending are touched. One ledger entry summarizes the
// whole call.
func (s *MediaModerationService) BulkTransitionMedia(actor *models.Member, mediaIDs []uint, action, notes string, opts PublishOptions) (*BulkTransitionResult, error) {
	if !actor.IsAdmin() {
		return nil, ErrUnauthorized
	}
	if action != ActionApprove && action != ActionReject {
		return nil, ErrBadAction
	}

	result := &BulkTransitionResult{}
	if len(mediaIDs) == 0 {
		return result, nil
	}

	var transitioned []uint
	for _, id := range mediaIDs {
		applied, published, err := s.transitionOne(actor, id, action, notes, opts)
		if err != nil {
			// Best-effort across the batch: skip, keep going,
			// report only what succeeded.
			logger.Warnf("[Moderation] media %d skipped in batch: %v", id, err)
			continue
		}
		if applied {
			result.ModifiedCount++
			transitioned = append(transitioned, id)
		}
		if published {
			result.PublishedCount++
		}
	}

	actionKind := models.ActionMediaBulkApprove
	if action == ActionReject {
		actionKind = models.ActionMediaBulkReject
	}
	s.appendLedger(&models.ModerationLogEntry{
		ActorID:    actor.ID,
		ActionKind: actionKind,
		TargetKind: models.TargetMedia,
		Details: models.EncodeDetails(models.LedgerDetails{
			Count:     int(result.ModifiedCount),
			TargetIDs: mediaIDs,
			Reason:    notes,
		}),
	})

	if len(transitioned) > 0 {
		var changed []models.MediaSubmission
		if err := s.db.Where("id IN ?", transitioned).Find(&changed).Error; err == nil {
			s.notifyUploaders(changed, action, notes)
		}
	}

	return result, nil
}

// transitionOne moves a single submission out of pending. The
// conditional update and the PublishedMedium insert run in one
// transaction; applied is false when the submission was not pending
// (or does not exist).
func (s *MediaModerationService) transitionOne(actor *models.Member, mediaID uint, action, notes string, opts PublishOptions) (applied, published bool, err error) {
	now := time.Now()

	state := models.StateApproved
	if action == ActionReject {
		state = models.StateRejected
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.MediaSubmission{}).
			Where("id = ? AND moderation_state = ?", mediaID, models.StatePending).
			Updates(map[string]interface{}{
				"moderation_state": state,
				"moderation_notes": SanitizePlain(notes),
				"moderator_id":     actor.ID,
				"moderated_at":     now,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		applied = true

		if action != ActionApprove {
			return nil
		}

		var submission models.MediaSubmission
		if err := tx.First(&submission, mediaID).Error; err != nil {
			return err
		}

		year := opts.Year
		if year == 0 {
			year = now.Year()
		}
		medium := models.PublishedMedium{
			Title:         submission.Title,
			Locator:       submission.Locator,
			Year:          year,
			Category:      opts.Category,
			ContributedBy: submission.UploaderID,
		}
		if err := tx.Create(&medium).Error; err != nil {
			return err
		}
		published = true
		return nil
	})
	if err != nil {
		return false, false, err
	}
	return applied, published, nil
}

func (s *MediaModerationService) appendLedger(entry *models.ModerationLogEntry) {
	if err := s.ledger.Write(entry); err != nil {
		logger.Error().
			Err(err).
			Str("action", entry.ActionKind).
			Uint("actor", entry.ActorID).
			Msg("moderation ledger write failed after applied transition")
	}
}

func (s *MediaModerationService) notifyUploaders(submissions []models.MediaSubmission, action, notes string) {
	if s.notifier == nil || len(submissions) == 0 {
		return
	}

	kind := "media_approved"
	if action == ActionReject {
		kind = "media_rejected"
	}

	ids := make([]uint, 0, len(submissions))
	for _, sub := range submissions {
		ids = append(ids, sub.UploaderID)
	}

	var uploaders []models.Member
	if err := s.db.Where("id IN ?", ids).Find(&uploaders).Error; err != nil {
		logger.Warnf("[Moderation] uploader lookup for notices failed: %v", err)
		return
	}
	byID := make(map[uint]models.Member, len(uploaders))
	for _, m := range uploaders {
		byID[m.ID] = m
	}

	for _, sub := range submissions {
		uploader, ok := byID[sub.UploaderID]
		if !ok {
			continue
		}
		notice := &DecisionNotice{
			MemberID:    uploader.ID,
			Email:       uploader.Email,
			DisplayName: uploader.DisplayName,
			Kind:        kind,
			Subject:     sub.Title,
			Reason:      notes,
		}
		if err := s.notifier.Notify(notice); err != nil {
			logger.Warnf("[Moderation] notice for member %d dropped: %v", uploader.ID, err)
		}
	}
}

// CreateSubmission records a new upload in the pending queue.
func (s *MediaModerationService) CreateSubmission(uploader *models.Member, title, locator, contentType string) (*models.MediaSubmission, error) {
	submission := models.MediaSubmission{
		UploaderID:      uploader.ID,
		Title:           SanitizePlain(title),
		Locator:         locator,
		ContentType:     contentType,
		ModerationState: models.StatePending,
	}
	if err := s.db.Create(&submission).Error; err != nil {
		return nil, err
	}
	return &submission, nil
}

type MediaListRequest struct {
	Page     int    `form:"page"`
	PageSize int    `form:"page_size"`
	State    string `form:"state"`
}

type MediaListResponse struct {
	Total    int64                    `json:"total"`
	Page     int                      `json:"page"`
	PageSize int                      `json:"page_size"`
	Items    []models.MediaSubmission `json:"items"`
}

// ListSubmissions is the admin review queue over media submissions.
func (s *MediaModerationService) ListSubmissions(req *MediaListRequest) (*MediaListResponse, error) {
	if req.Page <= 0 {
		req.Page = 1
	}
	if req.PageSize <= 0 || req.PageSize > 100 {
		req.PageSize = 20
	}

	query := s.db.Model(&models.MediaSubmission{})
	if req.State != "" {
		query = query.Where("moderation_state = ?", req.State)
	}

	var total int64
	query.Count(&total)

	var items []models.MediaSubmission
	offset := (req.Page - 1) * req.PageSize
	if err := query.Order("created_at ASC").Offset(offset).Limit(req.PageSize).Find(&items).Error; err != nil {
		return nil, err
	}

	return &MediaListResponse{
		Total:    total,
		Page:     req.Page,
		PageSize: req.PageSize,
		Items:    items,
	}, nil
}

// ListPublished returns community-visible media, newest first.
func (s *MediaModerationService) ListPublished(page, pageSize int) ([]models.PublishedMedium, int64, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}

	var total int64
	s.db.Model(&models.PublishedMedium{}).Count(&total)

	var items []models.PublishedMedium
	if err := s.db.Order("created_at DESC").Offset((page - 1) * pageSize).Limit(pageSize).Find(&items).Error; err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// GetSubmission loads one submission by id.
func (s *MediaModerationService) GetSubmission(id uint) (*models.MediaSubmission, error) {
	var submission models.MediaSubmission
	if err := s.db.First(&submission, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &submission, nil
}
