// Package refresh re-audits configured calendar sources on a cron schedule
// and keeps the latest report per source in memory.
package refresh

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"calaudit/internal/audit"
	"calaudit/internal/config"
	"calaudit/internal/fetch"
	appLog "calaudit/internal/log"
	"calaudit/internal/store"
	"calaudit/internal/telemetry"
)

// ErrUnknownSource is returned for a source id that is not configured.
var ErrUnknownSource = errors.New("unknown source")

// Snapshot is the latest report of one source.
type Snapshot struct {
	Report    audit.Report `json:"report"`
	RunID     string       `json:"run_id,omitempty"`
	UpdatedAt time.Time    `json:"updated_at"`
	FromCache bool         `json:"from_cache"`
}

// Refresher owns the configured sources and their latest reports.
type Refresher struct {
	sources []config.SourceConfig
	base    audit.Options
	fetcher *fetch.Fetcher
	repo    store.RunRepository

	mu     sync.RWMutex
	latest map[string]Snapshot

	cronMu sync.Mutex
	cron   *cron.Cron
}

// New creates a Refresher. repo may be nil, in which case runs are not
// persisted.
func New(sources []config.SourceConfig, base audit.Options, fetcher *fetch.Fetcher, repo store.RunRepository) *Refresher {
	if fetcher == nil {
		fetcher = fetch.NewFetcher("")
	}
	return &Refresher{
		sources: append([]config.SourceConfig(nil), sources...),
		base:    base,
		fetcher: fetcher,
		repo:    repo,
		latest:  make(map[string]Snapshot, len(sources)),
	}
}

// RefreshAll re-audits every source. One failing source does not stop the
// others; their errors are joined.
func (r *Refresher) RefreshAll(ctx context.Context) error {
	start := time.Now()
	var errs []error
	for _, src := range r.sources {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		if _, err := r.refresh(ctx, src); err != nil {
			telemetry.RecordRefreshFailure(src.ID)
			appLog.Error("refresh failed", err, "id", src.ID)
			errs = append(errs, fmt.Errorf("source %s: %w", src.ID, err))
		}
	}
	appLog.Info("refresh completed", "sources", len(r.sources), "failed", len(errs), "elapsed", time.Since(start).String())
	return errors.Join(errs...)
}

// RefreshOne re-audits the source with the given id.
func (r *Refresher) RefreshOne(ctx context.Context, id string) (Snapshot, error) {
	for _, src := range r.sources {
		if src.ID == id {
			return r.refresh(ctx, src)
		}
	}
	return Snapshot{}, ErrUnknownSource
}

// Latest returns the most recent snapshot of a source.
func (r *Refresher) Latest(id string) (Snapshot, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	snap, ok := r.latest[id]
	return snap, ok
}

// Start schedules RefreshAll according to schedule (standard 5-field cron). Runs
// never overlap; a run still in progress causes the next tick to be skipped.
func (r *Refresher) Start(schedule string) error {
	r.cronMu.Lock()
	defer r.cronMu.Unlock()
	if r.cron != nil {
		return errors.New("refresher already started")
	}

	logger := cronLogger{}
	c := cron.New(cron.WithLogger(logger), cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)))
	if _, err := c.AddFunc(schedule, func() {
		_ = r.RefreshAll(context.Background())
	}); err != nil {
		return fmt.Errorf("invalid refresh schedule %q: %w", schedule, err)
	}
	c.Start()
	r.cron = c

	appLog.Info("refresh scheduled", "cron", schedule, "sources", len(r.sources))
	return nil
}

// Stop halts the schedule and waits for a running refresh to finish.
func (r *Refresher) Stop() {
	r.cronMu.Lock()
	c := r.cron
	r.cron = nil
	r.cronMu.Unlock()
	if c == nil {
		return
	}
	<-c.Stop().Done()
}

func (r *Refresher) refresh(ctx context.Context, src config.SourceConfig) (Snapshot, error) {
	content, filename, fromCache, err := r.load(ctx, src)
	if err != nil {
		return Snapshot{}, err
	}

	override, err := audit.ParseSource(src.Source)
	if err != nil {
		return Snapshot{}, err
	}
	opts := r.base
	opts.Source = override

	rep := audit.Run(content, filename, opts)
	telemetry.RecordAudit(string(rep.Source), rep.TotalEvents, rep.FilteredEvents, len(rep.Warnings))

	snap := Snapshot{Report: rep, UpdatedAt: time.Now().UTC(), FromCache: fromCache}
	if r.repo != nil {
		run := store.NewRun(filename, rep)
		run.SourceID = src.ID
		if err := r.repo.Save(ctx, run); err != nil {
			appLog.Error("refresh run not saved", err, "id", src.ID)
		} else {
			snap.RunID = run.ID
		}
	}

	r.mu.Lock()
	r.latest[src.ID] = snap
	r.mu.Unlock()
	return snap, nil
}

func (r *Refresher) load(ctx context.Context, src config.SourceConfig) ([]byte, string, bool, error) {
	if src.Path != "" {
		content, err := os.ReadFile(src.Path)
		if err != nil {
			return nil, "", false, fmt.Errorf("read %s: %w", src.Path, err)
		}
		return content, filepath.Base(src.Path), false, nil
	}

	res, err := r.fetcher.FetchOne(ctx, fetch.Source{ID: src.ID, URL: src.URL})
	if err != nil {
		return nil, "", false, err
	}
	return res.Body, res.Filename, res.FromCache, nil
}

// cronLogger routes cron's own logging into the application logger.
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	appLog.Debug("cron: "+msg, keysAndValues...)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	appLog.Error("cron: "+msg, err, keysAndValues...)
}
