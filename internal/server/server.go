package server

import (
	"time"

	"github.com/Kyz7/rbac-console/internal/access"
	"github.com/Kyz7/rbac-console/internal/console"
	"github.com/Kyz7/rbac-console/internal/metrics"
	"github.com/Kyz7/rbac-console/internal/notify"
	"github.com/Kyz7/rbac-console/internal/storage"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type Deps struct {
	DB      *gorm.DB
	Logger  *logrus.Logger
	Storage storage.Storage
	Gate    access.Gate
	// Notifier receives every console event. Defaults to the log and the
	// console_events outbox.
	Notifier   notify.Notifier
	SessionTTL time.Duration
	// Metrics, when set, counts events and capability checks and is
	// served on /metrics.
	Metrics *metrics.Metrics
}

func New(deps Deps) *fiber.App {
	app := fiber.New(fiber.Config{
		BodyLimit: 10 * 1024 * 1024,
	})

	if local, ok := deps.Storage.(*storage.Local); ok {
		app.Static("/uploads", local.BaseDir(), fiber.Static{
			Compress:  true,
			ByteRange: true,
			Browse:    false,
			MaxAge:    3600,
		})
	}

	if deps.Notifier == nil {
		deps.Notifier = notify.Fanout{
			notify.Log{Logger: deps.Logger},
			notify.Outbox{DB: deps.DB, Logger: deps.Logger},
		}
	}
	if deps.SessionTTL == 0 {
		deps.SessionTTL = 30 * time.Minute
	}
	if deps.Metrics != nil {
		deps.Gate = deps.Metrics.Gate(deps.Gate)
		deps.Notifier = notify.Fanout{deps.Notifier, deps.Metrics}
	}

	sessions := console.NewRegistry(console.Deps{
		DB:       deps.DB,
		Gate:     deps.Gate,
		Storage:  deps.Storage,
		Notifier: deps.Notifier,
		Logger:   deps.Logger,
	}, deps.SessionTTL)

	if deps.Metrics != nil {
		deps.Metrics.TrackSessions(sessions.Len)
		app.Get("/metrics", adaptor.HTTPHandler(deps.Metrics.Handler()))
	}

	SetupRoutes(app, newHandler(deps, sessions))

	return app
}
