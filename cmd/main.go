package main

import (
	"context"
	"os"
	"time"

	"github.com/Kyz7/rbac-console/internal/access"
	"github.com/Kyz7/rbac-console/internal/config"
	"github.com/Kyz7/rbac-console/internal/database"
	"github.com/Kyz7/rbac-console/internal/metrics"
	"github.com/Kyz7/rbac-console/internal/notify"
	"github.com/Kyz7/rbac-console/internal/role"
	"github.com/Kyz7/rbac-console/internal/server"
	"github.com/Kyz7/rbac-console/internal/storage"
	"github.com/Kyz7/rbac-console/internal/utils"
)

func main() {
	cfg := config.Load()
	log := cfg.NewLogger()

	if err := utils.ValidateJWTSecret(); err != nil {
		log.Fatal("❌ JWT Configuration Error: ", err)
	}
	utils.LoadJWTSecret()
	log.Info("✅ JWT secret validated")

	requiredEnvVars := map[string]string{
		"DB_HOST":     os.Getenv("DB_HOST"),
		"DB_NAME":     os.Getenv("DB_NAME"),
		"DB_USER":     os.Getenv("DB_USER"),
		"DB_PASSWORD": os.Getenv("DB_PASSWORD"),
	}

	for key, value := range requiredEnvVars {
		if value == "" {
			log.Fatalf("❌ Required environment variable %s is not set", key)
		}
	}
	log.Info("✅ Required environment variables validated")

	// ========== DATABASE SETUP ==========
	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatal("❌ Database connection failed: ", err)
	}

	if err := database.Migrate(db, log); err != nil {
		log.Fatal("❌ Migration failed: ", err)
	}

	log.Info("🔍 Running SQL migrations for association indexes...")
	if err := database.RunMigrations(db, "./migrations", log); err != nil {
		log.Warnf("⚠️  SQL migrations failed: %v", err)
		log.Warn("⚠️  Permission lookups may be slow")
	} else {
		log.Info("✅ SQL migrations completed successfully")
	}

	// ========== STORAGE SETUP ==========
	dirs := storage.Directories{storage.ProfilePicture: cfg.ProfilePicturePath}

	var files storage.Storage
	if cfg.UseS3 && cfg.S3Bucket != "" && cfg.S3Region != "" {
		s3Store, err := storage.NewS3(cfg.S3Bucket, cfg.S3Region, dirs, log)
		if err != nil {
			log.Warn("⚠️  S3 initialization failed: ", err)
			log.Warn("⚠️  Falling back to local storage")
		} else {
			log.Infof("☁️  Using S3: %s (region: %s)", cfg.S3Bucket, cfg.S3Region)
			files = s3Store
		}
	} else if cfg.UseS3 {
		log.Warn("⚠️  USE_S3=true but S3_BUCKET or S3_REGION not configured")
		log.Warn("⚠️  Falling back to local storage")
	}

	if files == nil {
		local, err := storage.NewLocal(cfg.UploadDir, dirs, log)
		if err != nil {
			log.Fatal("❌ Failed to initialize local storage: ", err)
		}
		log.Infof("💾 Using LOCAL storage mode (%s)", cfg.UploadDir)
		files = local
	}

	// ========== SEED DEFAULT DATA ==========
	if err := role.SeedDefaults(context.Background(), db, log); err != nil {
		log.Warn("⚠️  Failed to seed capabilities: ", err)
	} else {
		log.Info("✅ Capabilities and default roles seeded")
	}

	// ========== BACKGROUND JOBS ==========
	outbox := notify.Outbox{DB: db, Logger: log}
	go func() {
		ticker := time.NewTicker(1 * time.Hour)
		defer ticker.Stop()

		for range ticker.C {
			removed, err := outbox.Prune(context.Background(), cfg.OutboxRetention)
			if err != nil {
				log.WithError(err).Error("prune console events")
				continue
			}
			if removed > 0 {
				log.Infof("🧹 Cleaned up %d old console events", removed)
			}
		}
	}()

	// ========== START SERVER ==========
	app := server.New(server.Deps{
		DB:         db,
		Logger:     log,
		Storage:    files,
		Gate:       access.NewPermissionGate(db, cfg.CapabilityCacheTTL, log),
		Notifier:   notify.Fanout{notify.Log{Logger: log}, outbox},
		SessionTTL: cfg.ConsoleSessionTTL,
		Metrics:    metrics.New(),
	})

	log.Infof("🚀 RBAC console starting on %s", cfg.ServerAddr)
	log.Infof("💾 Storage Mode: %s", files.Mode())
	log.Info("🔐 JWT Authentication: Enabled")
	log.Infof("📈 Metrics: %s/metrics", cfg.ServerAddr)

	if err := app.Listen(cfg.ServerAddr); err != nil {
		log.Fatal("❌ Failed to start server: ", err)
	}
}
