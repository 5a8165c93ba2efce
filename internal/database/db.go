package database

import (
	"fmt"

	"github.com/Kyz7/rbac-console/internal/config"
	"github.com/Kyz7/rbac-console/internal/models"
	"github.com/sirupsen/logrus"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func Connect(cfg *config.Config) (*gorm.DB, error) {
	dsn := fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		cfg.DBHost, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBPort,
	)

	return gorm.Open(postgres.Open(dsn), &gorm.Config{})
}

// Models lists every table the console owns, join tables are derived from
// the many2many tags.
func Models() []interface{} {
	return []interface{}{
		&models.Permission{},
		&models.Role{},
		&models.User{},
		&models.ConsoleEvent{},
	}
}

func Migrate(db *gorm.DB, logger *logrus.Logger) error {
	if err := db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	logger.Info("Database migrated successfully")
	return nil
}
