package config

import (
	"errors"
	"os"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/mockmate/mockmate/internal/models"
)

var PostgresDB *gorm.DB

func InitPostgres() error {
	uri := os.Getenv("POSTGRES_URI")
	if uri == "" {
		return errors.New("POSTGRES_URI environment variable is not set")
	}
	db, err := gorm.Open(postgres.Open(uri), &gorm.Config{})
	if err != nil {
		return err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return err
	}

	// Connection Pooling settings
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)
	sqlDB.SetConnMaxIdleTime(5 * time.Minute)

	if err := migrate(db); err != nil {
		return err
	}

	PostgresDB = db
	return nil
}

func migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.InterviewSession{},
		&models.InterviewQuestion{},
		&models.InterviewAnswer{},
	); err != nil {
		return err
	}

	// one active session per user, enforced by the database as well as the
	// advisory lock in the repository
	return db.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS uidx_interview_sessions_user_active
		ON interview_sessions (user_id)
		WHERE status IN ('PREPARING', 'IN_PROGRESS')
	`).Error
}
