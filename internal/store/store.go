// Package store persists a summary of every audit run in SQLite.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"calaudit/internal/audit"
	appLog "calaudit/internal/log"
)

// ErrRunNotFound is returned by Get for an unknown run id.
var ErrRunNotFound = errors.New("audit run not found")

const defaultListLimit = 50

// Run is the stored summary of one audit.
type Run struct {
	ID             string    `gorm:"primaryKey;size:36"  json:"id"`
	Filename       string    `gorm:"size:255"            json:"filename"`
	SourceID       string    `gorm:"size:64;index"       json:"source_id,omitempty"`
	Source         string    `gorm:"size:16;not null"    json:"source"`
	TotalEvents    int       `gorm:"not null"            json:"total_events"`
	FilteredEvents int       `gorm:"not null"            json:"filtered_events"`
	TotalHours     float64   `gorm:"not null"            json:"total_hours"`
	TotalMeetings  int       `gorm:"not null"            json:"total_meetings"`
	AvgDuration    float64   `gorm:"not null"            json:"avg_duration"`
	RecurringPct   float64   `gorm:"not null"            json:"recurring_pct"`
	Warnings       string    `gorm:"type:text"           json:"-"`
	CreatedAt      time.Time `gorm:"not null;index"      json:"created_at"`
}

// WarningList splits the stored warnings back into a slice.
func (r Run) WarningList() []string {
	if r.Warnings == "" {
		return []string{}
	}
	return strings.Split(r.Warnings, "\n")
}

// NewRun summarizes rep under a fresh id.
func NewRun(filename string, rep audit.Report) *Run {
	return &Run{
		ID:             uuid.NewString(),
		Filename:       filename,
		Source:         string(rep.Source),
		TotalEvents:    rep.TotalEvents,
		FilteredEvents: rep.FilteredEvents,
		TotalHours:     rep.KPIs.TotalHours,
		TotalMeetings:  rep.KPIs.TotalMeetings,
		AvgDuration:    rep.KPIs.AvgDuration,
		RecurringPct:   rep.KPIs.RecurringPct,
		Warnings:       strings.Join(rep.Warnings, "\n"),
	}
}

// Open connects to the SQLite database at path and migrates the schema.
// ":memory:" gives a private in-memory database.
func Open(path string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", path, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql.DB: %w", err)
	}
	// SQLite allows a single writer; an in-memory database exists per connection.
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&Run{}); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}

	appLog.Info("database ready", "path", path)
	return db, nil
}

// RunRepository reads and writes audit runs.
type RunRepository interface {
	Save(ctx context.Context, run *Run) error
	List(ctx context.Context, limit int) ([]Run, error)
	Get(ctx context.Context, id string) (*Run, error)
}

type runRepo struct {
	db *gorm.DB
}

// NewRunRepo returns a RunRepository backed by db.
func NewRunRepo(db *gorm.DB) RunRepository {
	return &runRepo{db: db}
}

func (r *runRepo) Save(ctx context.Context, run *Run) error {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}
	if err := r.db.WithContext(ctx).Create(run).Error; err != nil {
		return fmt.Errorf("save run: %w", err)
	}
	return nil
}

// List returns the most recent runs first.
func (r *runRepo) List(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	runs := make([]Run, 0)
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&runs).Error
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	return runs, nil
}

func (r *runRepo) Get(ctx context.Context, id string) (*Run, error) {
	var run Run
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&run).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrRunNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get run %s: %w", id, err)
	}
	return &run, nil
}
