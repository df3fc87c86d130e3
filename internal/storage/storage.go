// Package storage provides launch tracking using GORM and SQLite
package storage

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Sentinel errors following Dave Cheney's principle: define errors as values
var (
	ErrNilLaunch = errors.New("launch cannot be nil")
	ErrNotFound  = errors.New("launch not found")
)

// Launch represents one attempted invocation of the downstream script.
type Launch struct {
	ID uint `gorm:"primaryKey"`

	// What was launched
	Environment    string `gorm:"not null;index"`
	Mode           string `gorm:"not null"` // direct or manager
	PythonVersion  string
	Script         string `gorm:"not null"`
	Args           string // space-joined downstream argument list
	MissingModules string // space-joined, empty when the probe passed

	// Outcome
	ExitCode  int       `gorm:"not null"`
	StartedAt time.Time `gorm:"not null;index"`
	Duration  int64     // milliseconds

	CreatedAt time.Time
	UpdatedAt time.Time
}

// SetArgs stores the downstream argument list space-joined.
func (l *Launch) SetArgs(args []string) {
	l.Args = strings.Join(args, " ")
}

// SetMissingModules stores the missing-module list space-joined.
func (l *Launch) SetMissingModules(missing []string) {
	l.MissingModules = strings.Join(missing, " ")
}

// Store defines the interface for launch storage operations
type Store interface {
	Close() error
	RecordLaunch(*Launch) error
	ListRecent(limit int) ([]*Launch, error)
	GetStats() (map[string]interface{}, error)
}

// DB wraps gorm.DB with our launch operations
type DB struct {
	db *gorm.DB
}

// Config holds database configuration
type Config struct {
	DatabasePath string
	LogLevel     string // silent, error, warn, info
}

// InitDB initializes the database connection and runs migrations
func InitDB(cfg Config) (*DB, error) {
	logLevel := logger.Silent
	switch cfg.LogLevel {
	case "error":
		logLevel = logger.Error
	case "warn":
		logLevel = logger.Warn
	case "info":
		logLevel = logger.Info
	}

	db, err := gorm.Open(sqlite.Open(cfg.DatabasePath), &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Auto-migrate schema
	if err := db.AutoMigrate(&Launch{}); err != nil {
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}

	return &DB{db: db}, nil
}

// Close closes the database connection
func (d *DB) Close() error {
	sqlDB, err := d.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying SQL DB: %w", err)
	}
	if err := sqlDB.Close(); err != nil {
		return fmt.Errorf("failed to close database connection: %w", err)
	}
	return nil
}

// RecordLaunch creates a new launch record
func (d *DB) RecordLaunch(launch *Launch) error {
	if launch == nil {
		return ErrNilLaunch
	}
	if err := d.db.Create(launch).Error; err != nil {
		return fmt.Errorf("failed to record launch: %w", err)
	}
	return nil
}

// ListRecent returns the most recent launches, newest first.
func (d *DB) ListRecent(limit int) ([]*Launch, error) {
	var launches []*Launch
	q := d.db.Order("started_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&launches).Error; err != nil {
		return nil, fmt.Errorf("failed to list launches: %w", err)
	}
	return launches, nil
}

// GetStats returns aggregate launch statistics
func (d *DB) GetStats() (map[string]interface{}, error) {
	stats := make(map[string]interface{})

	var total int64
	if err := d.db.Model(&Launch{}).Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count launches: %w", err)
	}
	stats["total_launches"] = total

	var succeeded int64
	if err := d.db.Model(&Launch{}).Where("exit_code = ?", 0).Count(&succeeded).Error; err != nil {
		return nil, fmt.Errorf("failed to count successful launches: %w", err)
	}
	stats["successful_launches"] = succeeded
	stats["failed_launches"] = total - succeeded

	return stats, nil
}
