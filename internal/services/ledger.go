package services

import (
	"github.com/campuslink/alumninet/internal/models"
	"gorm.io/gorm"
)

// ModerationLogService is the append-only ledger of administrative
// actions. It exposes Write and paginated reads; nothing in the service
// (or the migration surface) can update or delete an entry.
type ModerationLogService struct {
	db *gorm.DB
}

func NewModerationLogService(db *gorm.DB) *ModerationLogService {
	return &ModerationLogService{db: db}
}

// Write appends one entry with a server-assigned id and timestamp.
func (s *ModerationLogService) Write(entry *models.ModerationLogEntry) error {
	entry.ID = 0
	return s.db.Create(entry).Error
}

type ModerationLogListRequest struct {
	Page       int    `form:"page"`
	PageSize   int    `form:"page_size"`
	TargetKind string `form:"target_kind"`
	ActionKind string `form:"action_kind"`
	ActorID    *uint  `form:"actor_id"`
}

type ModerationLogListResponse struct {
	Total    int64                       `json:"total"`
	Page     int                         `json:"page"`
	PageSize int                         `json:"page_size"`
	Items    []models.ModerationLogEntry `json:"items"`
}

// List returns ledger entries newest first.
func (s *ModerationLogService) List(req *ModerationLogListRequest) (*ModerationLogListResponse, error) {
	if req.Page <= 0 {
		req.Page = 1
	}
	if req.PageSize <= 0 || req.PageSize > 100 {
		req.PageSize = 20
	}

	query := s.db.Model(&models.ModerationLogEntry{})

	if req.TargetKind != "" {
		query = query.Where("target_kind = ?", req.TargetKind)
	}
	if req.ActionKind != "" {
		query = query.Where("action_kind = ?", req.ActionKind)
	}
	if req.ActorID != nil {
		query = query.Where("actor_id = ?", *req.ActorID)
	}

	var total int64
	query.Count(&total)

	var entries []models.ModerationLogEntry
	offset := (req.Page - 1) * req.PageSize
	if err := query.Order("created_at DESC, id DESC").Offset(offset).Limit(req.PageSize).Find(&entries).Error; err != nil {
		return nil, err
	}

	return &ModerationLogListResponse{
		Total:    total,
		Page:     req.Page,
		PageSize: req.PageSize,
		Items:    entries,
	}, nil
}
