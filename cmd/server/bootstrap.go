package main

import (
	"context"
	"time"

	"github.com/campuslink/alumninet/internal/config"
	"github.com/campuslink/alumninet/internal/handlers"
	"github.com/campuslink/alumninet/internal/models"
	"github.com/campuslink/alumninet/internal/services"
	"github.com/campuslink/alumninet/internal/utils"
	"github.com/campuslink/alumninet/pkg/logger"
)

// appServices holds all initialized services and handlers needed by the application.
type appServices struct {
	identityService *services.IdentityService
	notifier        services.Notifier
	worker          *services.NoticeWorker

	authHandler    *handlers.AuthHandler
	memberHandler  *handlers.MemberAdminHandler
	mediaHandler   *handlers.MediaHandler
	ledgerHandler  *handlers.ModerationLogHandler
	contentHandler *handlers.ContentHandler
}

// bootstrap initializes all application dependencies: database,
// storage, queue, services.
func bootstrap(cfg *config.Config) *appServices {
	utils.SetAssertionSecret(cfg.Auth.AssertionSecret)
	utils.SetAssertionExpectations(cfg.Auth.Issuer, cfg.Auth.Audience)

	if err := models.InitDB(&cfg.Database); err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	if err := models.AutoMigrate(); err != nil {
		logger.Fatalf("Failed to migrate database: %v", err)
	}
	if err := models.SeedAdminIfMissing(cfg.Auth.AdminEmail); err != nil {
		logger.Warn().Err(err).Msg("Failed to seed admin member")
	}

	db := models.GetDB()

	storage, err := services.NewMediaStorage(&cfg.Storage)
	if err != nil {
		logger.Fatalf("Failed to initialize object storage: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := storage.EnsureBucket(ctx); err != nil {
		logger.Warn().Err(err).Msg("Could not verify media bucket; uploads may fail until it exists")
	}

	mailer := services.NewMailer(&cfg.SMTP)

	// Decision notices ride the Redis queue when available; otherwise
	// they are delivered on their own goroutine. Either way the state
	// machines never wait on delivery.
	notifier := services.NewNotifier(&cfg.Redis)
	if inline, ok := notifier.(*services.InlineNotifier); ok {
		inline.SetDeliverer(mailer.Deliver)
	}

	var worker *services.NoticeWorker
	if cfg.Redis.Enabled && notifier.IsAsync() {
		worker = services.NewNoticeWorker(&cfg.Redis)
		if worker != nil {
			worker.SetDeliverer(mailer.Deliver)
			if err := worker.Start(); err != nil {
				logger.Warn().Err(err).Msg("Notice worker failed to start; decisions will still be recorded")
				worker = nil
			}
		}
	}

	identityService := services.NewIdentityService(db)
	ledgerService := services.NewModerationLogService(db)
	approvalService := services.NewApprovalService(db, ledgerService, notifier)
	moderationService := services.NewMediaModerationService(db, ledgerService, notifier)
	joiner := services.NewListingJoiner(db)
	contentService := services.NewContentService(db, joiner)

	return &appServices{
		identityService: identityService,
		notifier:        notifier,
		worker:          worker,

		authHandler:    handlers.NewAuthHandler(identityService),
		memberHandler:  handlers.NewMemberAdminHandler(approvalService),
		mediaHandler:   handlers.NewMediaHandler(db, moderationService, storage, joiner),
		ledgerHandler:  handlers.NewModerationLogHandler(ledgerService),
		contentHandler: handlers.NewContentHandler(contentService),
	}
}

// shutdown gracefully stops background components.
func (s *appServices) shutdown() {
	if s.worker != nil {
		s.worker.Stop()
	}
	if s.notifier != nil {
		s.notifier.Close()
	}
	logger.Info().Msg("Shutdown complete")
}
