package infra

import (
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"resteasy/internal/config"
	"resteasy/internal/models/db_models"
)

func InitPostgresql(cfg *config.Config, logger *zap.Logger) *gorm.DB {
	db, err := gorm.Open(postgres.Open(cfg.PostgresURL), &gorm.Config{})
	if err != nil {
		logger.Fatal("error connecting to database", zap.Error(err))
	}

	if err := db.AutoMigrate(
		&db_models.Assessment{},
		&db_models.AssessmentSchema{},
		&db_models.AssessmentAnswer{},
		&db_models.ProfileIntake{},
		&db_models.Conversation{},
		&db_models.ConversationMessage{},
		&db_models.RemyPreference{},
		&db_models.VaultDocument{},
		&db_models.VaultDocumentExclusion{},
		&db_models.Event{},
	); err != nil {
		logger.Fatal("error migrating database schema", zap.Error(err))
	}

	return db
}

func ClosePostgresql(db *gorm.DB, logger *zap.Logger) {
	sqlDB, err := db.DB()
	if err != nil {
		logger.Warn("error getting database instance", zap.Error(err))
		return
	}
	if err := sqlDB.Close(); err != nil {
		logger.Warn("error closing database connection", zap.Error(err))
	}
}
