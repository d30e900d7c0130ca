package models

import (
	"fmt"

	"github.com/campuslink/alumninet/internal/config"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

func InitDB(cfg *config.DatabaseConfig) error {
	var dialector gorm.Dialector

	switch cfg.Driver {
	case "sqlite":
		dialector = sqlite.Open(cfg.DSN)
	case "mysql":
		dialector = mysql.Open(cfg.DSN)
	case "postgres":
		dialector = postgres.Open(cfg.DSN)
	default:
		return fmt.Errorf("unsupported database driver: %s", cfg.Driver)
	}

	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	}

	db, err := gorm.Open(dialector, gormConfig)
	if err != nil {
		return fmt.Errorf("failed to connect database: %w", err)
	}

	DB = db
	return nil
}

func AutoMigrate() error {
	return DB.AutoMigrate(
		&Member{},
		&MediaSubmission{},
		&PublishedMedium{},
		&ModerationLogEntry{},
		&JobPost{},
		&Story{},
		&Event{},
	)
}

func GetDB() *gorm.DB {
	return DB
}

// SeedAdminIfMissing creates the bootstrap admin member when no admin
// exists yet. The admin arrives pre-approved so the moderation surface
// is reachable on a fresh install.
func SeedAdminIfMissing(email string) error {
	var count int64
	DB.Model(&Member{}).Where("role = ?", RoleAdmin).Count(&count)
	if count > 0 {
		return nil
	}

	admin := Member{
		Email:         email,
		DisplayName:   "Administrator",
		Role:          RoleAdmin,
		ApprovalState: StateApproved,
	}
	if err := DB.Create(&admin).Error; err != nil {
		return err
	}

	// Self-approval so the seeded record carries an approver and
	// timestamp like every other approved member.
	now := DB.NowFunc()
	return DB.Model(&admin).Updates(map[string]interface{}{
		"approved_by": admin.ID,
		"approved_at": now,
	}).Error
}
