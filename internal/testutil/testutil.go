// Package testutil provides the shared fixtures for service and
// handler tests: an in-memory SQLite database migrated with the full
// schema, a baseline config, and a mailer that records instead of
// sending.
package testutil

import (
	"sync"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/campusworks/accounts-api/internal/config"
	"github.com/campusworks/accounts-api/internal/mailer"
	"github.com/campusworks/accounts-api/internal/models"
)

func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	// A second connection would get its own empty :memory: database.
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	err = db.AutoMigrate(
		&models.User{},
		&models.AdminProfile{},
		&models.TeacherProfile{},
		&models.StudentProfile{},
		&models.OTPNumber{},
		&models.BlacklistedToken{},
		&models.SystemLog{},
	)
	if err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	return db
}

func NewConfig() *config.Config {
	return &config.Config{
		JWTSecret:         "test-signing-key",
		JWTAccessExpiry:   time.Hour,
		JWTRefreshExpiry:  24 * time.Hour,
		JWTVerifyExpiry:   time.Hour,
		RotateRefresh:     true,
		OTPExpiry:         10 * time.Minute,
		OTPDigits:         6,
		PasswordMinLength: 8,
	}
}

// RecordingMailer satisfies mailer.Mailer and keeps every enqueued
// message for assertions.
type RecordingMailer struct {
	mu       sync.Mutex
	Messages []mailer.Message
}

func (m *RecordingMailer) Enqueue(msg mailer.Message) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Messages = append(m.Messages, msg)
}

func (m *RecordingMailer) Sent() []mailer.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]mailer.Message, len(m.Messages))
	copy(out, m.Messages)
	return out
}

// LastOTP returns the passcode from the most recent OTP mail, or "".
func (m *RecordingMailer) LastOTP() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.Messages) - 1; i >= 0; i-- {
		if m.Messages[i].Kind == mailer.KindOTP {
			return m.Messages[i].Data["otp"]
		}
	}
	return ""
}
