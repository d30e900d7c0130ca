package services

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/campuslink/alumninet/internal/models"
	"gorm.io/gorm"
)

// ContentService is the thin persistence layer for jobs, stories and
// events. It is deliberately pass-through: the interesting logic lives
// in the approval gate (middleware) and the listing joiner.
type ContentService struct {
	db     *gorm.DB
	joiner *ListingJoiner
}

func NewContentService(db *gorm.DB, joiner *ListingJoiner) *ContentService {
	return &ContentService{db: db, joiner: joiner}
}

// --- Jobs (author keyed by internal member id) ---

type CreateJobRequest struct {
	Title       string `json:"title" binding:"required"`
	Company     string `json:"company"`
	Location    string `json:"location"`
	Description string `json:"description"`
	ApplyURL    string `json:"apply_url"`
}

func (s *ContentService) CreateJob(author *models.Member, req *CreateJobRequest) (*models.JobPost, error) {
	job := models.JobPost{
		Title:       SanitizePlain(req.Title),
		Company:     SanitizePlain(req.Company),
		Location:    SanitizePlain(req.Location),
		Description: SanitizeBody(req.Description),
		ApplyURL:    req.ApplyURL,
		PostedBy:    author.ID,
	}
	if err := s.db.Create(&job).Error; err != nil {
		return nil, err
	}
	return &job, nil
}

// ListJobs returns jobs enriched with poster details. Jobs whose poster
// record has been removed are dropped from the listing.
func (s *ContentService) ListJobs(page, pageSize int) ([]EnrichedRow, int64, error) {
	page, pageSize = normalizePage(page, pageSize)

	var total int64
	s.db.Model(&models.JobPost{}).Count(&total)

	var jobs []models.JobPost
	if err := s.db.Order("created_at DESC").Offset((page - 1) * pageSize).Limit(pageSize).Find(&jobs).Error; err != nil {
		return nil, 0, err
	}

	rows := make([]ListingRow, len(jobs))
	for i, job := range jobs {
		rows[i] = ListingRow{
			Payload:   job,
			AuthorKey: strconv.FormatUint(uint64(job.PostedBy), 10),
		}
	}

	enriched, err := s.joiner.JoinListing(rows, KeyMemberID)
	if err != nil {
		return nil, 0, err
	}
	return enriched, total, nil
}

func (s *ContentService) DeleteJob(actor *models.Member, id uint) error {
	var job models.JobPost
	if err := s.db.First(&job, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}
	if job.PostedBy != actor.ID && !actor.IsAdmin() {
		return ErrUnauthorized
	}
	return s.db.Delete(&job).Error
}

// --- Stories (author keyed by external subject id) ---

type CreateStoryRequest struct {
	Title string `json:"title" binding:"required"`
	Body  string `json:"body"`
}

func (s *ContentService) CreateStory(author *models.Member, req *CreateStoryRequest) (*models.Story, error) {
	if author.SubjectID == nil {
		// Stories key their author by subject id; a member created
		// through import with no linked identity can not own one yet.
		return nil, ErrUnauthorized
	}

	story := models.Story{
		Title:         SanitizePlain(req.Title),
		Body:          SanitizeBody(req.Body),
		AuthorSubject: *author.SubjectID,
	}
	if err := s.db.Create(&story).Error; err != nil {
		return nil, err
	}
	return &story, nil
}

// ListStories returns stories enriched with author details, resolved
// through the subject-id key.
func (s *ContentService) ListStories(page, pageSize int) ([]EnrichedRow, int64, error) {
	page, pageSize = normalizePage(page, pageSize)

	var total int64
	s.db.Model(&models.Story{}).Count(&total)

	var stories []models.Story
	if err := s.db.Order("created_at DESC").Offset((page - 1) * pageSize).Limit(pageSize).Find(&stories).Error; err != nil {
		return nil, 0, err
	}

	rows := make([]ListingRow, len(stories))
	for i, story := range stories {
		rows[i] = ListingRow{
			Payload:   story,
			AuthorKey: story.AuthorSubject,
		}
	}

	enriched, err := s.joiner.JoinListing(rows, KeySubject)
	if err != nil {
		return nil, 0, err
	}
	return enriched, total, nil
}

// --- Events ---

type CreateEventRequest struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`
	Venue       string `json:"venue"`
	StartsAt    string `json:"starts_at"` // RFC 3339
}

func (s *ContentService) CreateEvent(author *models.Member, req *CreateEventRequest) (*models.Event, error) {
	event := models.Event{
		Title:       SanitizePlain(req.Title),
		Description: SanitizeBody(req.Description),
		Venue:       SanitizePlain(req.Venue),
		CreatedBy:   author.ID,
	}
	if req.StartsAt != "" {
		startsAt, err := time.Parse(time.RFC3339, req.StartsAt)
		if err != nil {
			return nil, fmt.Errorf("invalid starts_at: %w", err)
		}
		event.StartsAt = startsAt
	}

	if err := s.db.Create(&event).Error; err != nil {
		return nil, err
	}
	return &event, nil
}

// ListEvents returns upcoming events enriched with organizer details.
func (s *ContentService) ListEvents(page, pageSize int) ([]EnrichedRow, int64, error) {
	page, pageSize = normalizePage(page, pageSize)

	var total int64
	s.db.Model(&models.Event{}).Count(&total)

	var events []models.Event
	if err := s.db.Order("starts_at ASC").Offset((page - 1) * pageSize).Limit(pageSize).Find(&events).Error; err != nil {
		return nil, 0, err
	}

	rows := make([]ListingRow, len(events))
	for i, event := range events {
		rows[i] = ListingRow{
			Payload:   event,
			AuthorKey: strconv.FormatUint(uint64(event.CreatedBy), 10),
		}
	}

	enriched, err := s.joiner.JoinListing(rows, KeyMemberID)
	if err != nil {
		return nil, 0, err
	}
	return enriched, total, nil
}

func normalizePage(page, pageSize int) (int, int) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	return page, pageSize
}
