package pkg

import (
	"fmt"

	"github.com/SAP-F-2025/lesson-service/internal/config"
	"github.com/SAP-F-2025/lesson-service/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func InitDatabase(cfg *config.Config) (*gorm.DB, error) {
	logLevel := logger.Info
	if cfg.IsProduction() {
		logLevel = logger.Warn
	}

	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{
		Logger:         logger.Default.LogMode(logLevel),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return db, nil
}

// MigrateDatabase creates or updates the catalogue tables
func MigrateDatabase(db *gorm.DB) error {
	if err := db.AutoMigrate(&models.Challenge{}); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}
