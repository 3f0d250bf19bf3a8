package database

import (
	"taskmind/internal/model"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewConnection initializes a new connection pool using GORM
func NewConnection(dsn string, production bool) (*gorm.DB, error) {
	level := logger.Info
	if production {
		level = logger.Warn
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: newZapGormLogger(zap.L(), level),
	})
	if err != nil {
		return nil, err
	}

	if err := Migrate(db); err != nil {
		zap.L().Warn("failed to auto-migrate models", zap.Error(err))
	}

	return db, nil
}

// Migrate creates or updates every table the service owns.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.Profile{},
		&model.Task{},
		&model.Submission{},
		&model.Transaction{},
		&model.Setting{},
		&model.AuditLog{},
	)
}
