package services

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/campuslink/alumninet/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// newTestDB opens an isolated in-memory database with the full schema.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}

	if err := db.AutoMigrate(
		&models.Member{},
		&models.MediaSubmission{},
		&models.PublishedMedium{},
		&models.ModerationLogEntry{},
		&models.JobPost{},
		&models.Story{},
		&models.Event{},
	); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return db
}

func seedAdmin(t *testing.T, db *gorm.DB) *models.Member {
	t.Helper()

	now := time.Now()
	subject := "adm-subject"
	admin := models.Member{
		SubjectID:     &subject,
		Email:         "admin@alumni.test",
		DisplayName:   "Admin",
		Role:          models.RoleAdmin,
		ApprovalState: models.StateApproved,
		ApprovedAt:    &now,
	}
	if err := db.Create(&admin).Error; err != nil {
		t.Fatalf("seed admin: %v", err)
	}
	admin.ApprovedBy = &admin.ID
	if err := db.Model(&admin).Update("approved_by", admin.ID).Error; err != nil {
		t.Fatalf("seed admin approver: %v", err)
	}
	return &admin
}

func seedMember(t *testing.T, db *gorm.DB, email, subject, state string) *models.Member {
	t.Helper()

	member := models.Member{
		Email:         email,
		DisplayName:   "Member " + email,
		Role:          models.RoleAlumni,
		ApprovalState: state,
	}
	if subject != "" {
		member.SubjectID = &subject
	}
	if err := db.Create(&member).Error; err != nil {
		t.Fatalf("seed member %s: %v", email, err)
	}
	return &member
}

func seedSubmission(t *testing.T, db *gorm.DB, uploaderID uint, title, state string) *models.MediaSubmission {
	t.Helper()

	sub := models.MediaSubmission{
		UploaderID:      uploaderID,
		Title:           title,
		Locator:         "submissions/" + title + ".jpg",
		ContentType:     "image/jpeg",
		ModerationState: state,
	}
	if err := db.Create(&sub).Error; err != nil {
		t.Fatalf("seed submission %s: %v", title, err)
	}
	return &sub
}

func countLedger(t *testing.T, db *gorm.DB) int64 {
	t.Helper()

	var n int64
	if err := db.Model(&models.ModerationLogEntry{}).Count(&n).Error; err != nil {
		t.Fatalf("count ledger: %v", err)
	}
	return n
}

// captureNotifier records notices instead of delivering them.
type captureNotifier struct {
	mu      sync.Mutex
	notices []*DecisionNotice
}

func (c *captureNotifier) Notify(notice *DecisionNotice) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.notices = append(c.notices, notice)
	return nil
}

func (c *captureNotifier) IsAsync() bool { return false }
func (c *captureNotifier) Close() error  { return nil }

func (c *captureNotifier) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.notices)
}

func (c *captureNotifier) last() *DecisionNotice {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.notices) == 0 {
		return nil
	}
	return c.notices[len(c.notices)-1]
}
