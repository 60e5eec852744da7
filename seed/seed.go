// Package seed runs versioned, idempotent data mutations exactly once per
// environment, tracking completed runs in the application database.
package seed

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
)

// Seed represents a versioned, idempotent mutation that should run once per environment.
type Seed struct {
	ID          string
	Description string
	Run         func(ctx context.Context) error
}

// Record tracks the execution metadata for a seed.
type Record struct {
	ID          string    `gorm:"primaryKey"`
	Application string    `gorm:"index"`
	Description string
	AppliedAt   time.Time
}

// Tracker persists which seeds have executed.
type Tracker interface {
	HasRun(ctx context.Context, id string) (bool, error)
	MarkRun(ctx context.Context, record Record) error
}

// Apply executes the provided seeds exactly once per tracker.
func Apply(ctx context.Context, tracker Tracker, seeds []Seed, application string) error {
	if tracker == nil {
		return errors.New("seed tracker is required")
	}

	for i, s := range seeds {
		if s.ID == "" {
			return fmt.Errorf("seed at index %d missing ID", i)
		}
		if s.Run == nil {
			return fmt.Errorf("seed %s missing Run function", s.ID)
		}

		ran, err := tracker.HasRun(ctx, s.ID)
		if err != nil {
			return fmt.Errorf("check seed %s status: %w", s.ID, err)
		}
		if ran {
			continue
		}

		if err := ctx.Err(); err != nil {
			return err
		}

		if err := s.Run(ctx); err != nil {
			return fmt.Errorf("seed %s failed: %w", s.ID, err)
		}

		record := Record{
			ID:          s.ID,
			Application: application,
			Description: s.Description,
			AppliedAt:   time.Now().UTC(),
		}
		if err := tracker.MarkRun(ctx, record); err != nil {
			return fmt.Errorf("mark seed %s as complete: %w", s.ID, err)
		}
	}

	return nil
}

const defaultTableName = "_seeds"

// GormTracker stores seed records in a relational table.
type GormTracker struct {
	db    *gorm.DB
	table string
}

// GormTrackerOption configures a GormTracker.
type GormTrackerOption func(*gormTrackerConfig)

type gormTrackerConfig struct {
	tableName string
}

// WithTableName overrides the default table name used by GormTracker.
func WithTableName(name string) GormTrackerOption {
	return func(cfg *gormTrackerConfig) {
		if trimmed := strings.TrimSpace(name); trimmed != "" {
			cfg.tableName = trimmed
		}
	}
}

// NewGormTracker creates a tracker that records seed executions in the given
// database, creating the tracking table when missing.
func NewGormTracker(db *gorm.DB, opts ...GormTrackerOption) (*GormTracker, error) {
	if db == nil {
		return nil, errors.New("gorm session is required")
	}

	cfg := gormTrackerConfig{tableName: defaultTableName}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.tableName == "" {
		cfg.tableName = defaultTableName
	}

	if err := db.Table(cfg.tableName).AutoMigrate(&Record{}); err != nil {
		return nil, fmt.Errorf("migrate seed table %s: %w", cfg.tableName, err)
	}
	return &GormTracker{db: db, table: cfg.tableName}, nil
}

// HasRun reports whether a seed with the provided ID is already recorded.
func (t *GormTracker) HasRun(ctx context.Context, id string) (bool, error) {
	if t == nil || t.db == nil {
		return false, errors.New("gorm tracker is not initialized")
	}

	var count int64
	err := t.db.WithContext(ctx).Table(t.table).Where("id = ?", id).Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("query seed %s: %w", id, err)
	}
	return count > 0, nil
}

// MarkRun inserts the provided record into the backing table.
func (t *GormTracker) MarkRun(ctx context.Context, record Record) error {
	if t == nil || t.db == nil {
		return errors.New("gorm tracker is not initialized")
	}
	if record.ID == "" {
		return errors.New("seed record ID is required")
	}

	if err := t.db.WithContext(ctx).Table(t.table).Create(&record).Error; err != nil {
		return fmt.Errorf("insert seed record %s: %w", record.ID, err)
	}
	return nil
}
