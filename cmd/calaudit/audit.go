package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"calaudit/internal/audit"
	"calaudit/internal/config"
	"calaudit/internal/export"
	"calaudit/internal/filter"
	appLog "calaudit/internal/log"
	"calaudit/internal/store"
)

type auditFlags struct {
	source        string
	includeAllDay bool
	minDuration   int
	exclude       string
	top           int
	longThreshold int
	asJSON        bool
	xlsxPath      string
	save          bool
}

func newAuditCmd() *cobra.Command {
	var f auditFlags
	cmd := &cobra.Command{
		Use:   "audit FILE",
		Short: "Audit one calendar export",
		Long: `Audit one Outlook CSV, Google Calendar CSV or ICS export and print the
meeting load report. Filter defaults come from the config file when it exists.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAudit(cmd, args[0], f)
		},
	}
	fl := cmd.Flags()
	fl.StringVar(&f.source, "source", "auto", "CSV source: auto, outlook or google")
	fl.BoolVar(&f.includeAllDay, "include-all-day", false, "Keep all-day events")
	fl.IntVar(&f.minDuration, "min-duration", 0, "Drop meetings shorter than this many minutes")
	fl.StringVar(&f.exclude, "exclude", "", "Comma-separated subject keywords to drop")
	fl.IntVar(&f.top, "top", 0, "Rows in the ranked tables")
	fl.IntVar(&f.longThreshold, "long-threshold", 0, "Minutes above which a meeting counts as long")
	fl.BoolVar(&f.asJSON, "json", false, "Print the report as JSON")
	fl.StringVar(&f.xlsxPath, "xlsx", "", "Also write the report workbook to this path")
	fl.BoolVar(&f.save, "save", false, "Record the run in the audit history database")
	return cmd
}

func runAudit(cmd *cobra.Command, path string, f auditFlags) error {
	cfg, err := loadOptionalConfig(cmd)
	if err != nil {
		return err
	}

	opts, err := auditOptions(cmd, cfg, f)
	if err != nil {
		return err
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read export: %w", err)
	}
	filename := filepath.Base(path)
	rep := audit.Run(content, filename, opts)

	if f.save && !rep.Empty() {
		db, err := store.Open(cfg.Database)
		if err != nil {
			return err
		}
		if sqlDB, err := db.DB(); err == nil {
			defer sqlDB.Close()
		}
		run := store.NewRun(filename, rep)
		if err := store.NewRunRepo(db).Save(cmd.Context(), run); err != nil {
			return err
		}
		appLog.Info("audit run saved", "id", run.ID, "database", cfg.Database)
	}

	if f.xlsxPath != "" {
		if rep.Empty() {
			return errors.New("no events to export")
		}
		buf, err := export.Workbook(rep)
		if err != nil {
			return err
		}
		if err := os.WriteFile(f.xlsxPath, buf.Bytes(), 0o644); err != nil {
			return fmt.Errorf("write workbook: %w", err)
		}
		appLog.Info("workbook written", "path", f.xlsxPath)
	}

	out := cmd.OutOrStdout()
	if f.asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(rep)
	}
	return writeReport(out, filename, rep)
}

// auditOptions starts from the config defaults and applies the flags the user
// actually set.
func auditOptions(cmd *cobra.Command, cfg *config.Config, f auditFlags) (audit.Options, error) {
	opts := audit.Options{
		Filters:       cfg.Filters.Options(),
		TopN:          cfg.TopN,
		LongThreshold: cfg.LongMeetingThreshold,
	}

	src, err := audit.ParseSource(f.source)
	if err != nil {
		return opts, err
	}
	opts.Source = src

	fl := cmd.Flags()
	if fl.Changed("include-all-day") {
		opts.Filters.ExcludeAllDay = !f.includeAllDay
	}
	if fl.Changed("min-duration") {
		if f.minDuration < 0 {
			return opts, fmt.Errorf("--min-duration must not be negative")
		}
		opts.Filters.MinDuration = f.minDuration
	}
	if fl.Changed("exclude") {
		opts.Filters.ExcludeKeywords = filter.ParseKeywords(f.exclude)
	}
	if fl.Changed("top") {
		if f.top <= 0 {
			return opts, fmt.Errorf("--top must be positive")
		}
		opts.TopN = f.top
	}
	if fl.Changed("long-threshold") {
		if f.longThreshold <= 0 {
			return opts, fmt.Errorf("--long-threshold must be positive")
		}
		opts.LongThreshold = f.longThreshold
	}
	return opts, nil
}

// loadOptionalConfig reads the config file when it exists. Unlike serve, a
// one-off audit never writes a default file.
func loadOptionalConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg := config.DefaultConfig()
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			loaded, err := config.Load(path)
			if err != nil {
				return nil, err
			}
			cfg = loaded
		} else if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("stat config: %w", err)
		}
	}
	applyLogging(cmd, cfg)
	return cfg, nil
}

// applyLogging initializes the logger from config, honoring --log-level.
func applyLogging(cmd *cobra.Command, cfg *config.Config) {
	lvl := cfg.Log.Level
	if v, _ := cmd.Flags().GetString("log-level"); v != "" {
		lvl = v
	}
	if err := appLog.Init(appLog.Level(strings.ToUpper(lvl)), cfg.Log.Format); err != nil {
		appLog.Error("logger init failed; keeping default", err)
	}
}
