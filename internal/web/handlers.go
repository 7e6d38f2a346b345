package web

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"calaudit/internal/audit"
	"calaudit/internal/export"
	"calaudit/internal/filter"
	"calaudit/internal/ingest"
	appLog "calaudit/internal/log"
	"calaudit/internal/store"
	"calaudit/internal/telemetry"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// auditResponse is the payload of POST /api/audit.
type auditResponse struct {
	RunID  string       `json:"run_id,omitempty"`
	Report audit.Report `json:"report"`
}

// runView is a stored run with its warnings expanded.
type runView struct {
	store.Run
	Warnings []string `json:"warnings"`
}

func newRunView(r store.Run) runView {
	return runView{Run: r, Warnings: r.WarningList()}
}

func (s *Server) handleHealth(c *gin.Context) {
	c.String(http.StatusOK, "OK")
}

// handleAudit audits an uploaded export.
//
// POST /api/audit (multipart)
//   - file:             the export (.csv or .ics)
//   - source:           auto | outlook | google
//   - exclude_all_day:  bool, defaults to the configured filter
//   - min_duration:     minutes
//   - exclude_keywords: comma-separated
//   - top_n:            size of ranked tables
func (s *Server) handleAudit(c *gin.Context) {
	filename, rep, ok := s.auditUpload(c)
	if !ok {
		return
	}

	resp := auditResponse{Report: rep}
	if s.runs != nil && !rep.Empty() {
		run := store.NewRun(filename, rep)
		if err := s.runs.Save(c.Request.Context(), run); err != nil {
			appLog.Error("api audit: save run failed", err, "file", filename)
		} else {
			resp.RunID = run.ID
		}
	}
	success(c, resp)
}

// handleAuditXLSX audits an uploaded export and returns the workbook.
func (s *Server) handleAuditXLSX(c *gin.Context) {
	filename, rep, ok := s.auditUpload(c)
	if !ok {
		return
	}
	if rep.Empty() {
		badRequest(c, "no events to export", strings.Join(rep.Warnings, "; "))
		return
	}

	buf, err := export.Workbook(rep)
	if err != nil {
		appLog.Error("api audit xlsx: workbook failed", err, "file", filename)
		internalError(c, "failed to build workbook")
		return
	}

	base := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Disposition", "attachment; filename*=UTF-8''"+url.QueryEscape(export.Filename(base)))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

// auditUpload reads the multipart upload and runs the audit. It writes the
// error response itself and returns ok=false on failure.
func (s *Server) auditUpload(c *gin.Context) (string, audit.Report, bool) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, MaxUploadBytes+1<<20)

	fh, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			fail(c, http.StatusRequestEntityTooLarge, CodeTooLarge, "upload too large", "")
			return "", audit.Report{}, false
		}
		badRequest(c, "file is required", err.Error())
		return "", audit.Report{}, false
	}
	if fh.Size > MaxUploadBytes {
		fail(c, http.StatusRequestEntityTooLarge, CodeTooLarge, "upload too large", "")
		return "", audit.Report{}, false
	}

	opts, err := s.formOptions(c)
	if err != nil {
		badRequest(c, "invalid audit options", err.Error())
		return "", audit.Report{}, false
	}

	f, err := fh.Open()
	if err != nil {
		internalError(c, "failed to open upload")
		return "", audit.Report{}, false
	}
	defer f.Close()

	content, err := io.ReadAll(io.LimitReader(f, MaxUploadBytes))
	if err != nil {
		internalError(c, "failed to read upload")
		return "", audit.Report{}, false
	}

	rep := audit.Run(content, fh.Filename, opts)
	telemetry.RecordAudit(string(rep.Source), rep.TotalEvents, rep.FilteredEvents, len(rep.Warnings))
	return fh.Filename, rep, true
}

// formOptions starts from the configured defaults and applies the form
// fields that are present.
func (s *Server) formOptions(c *gin.Context) (audit.Options, error) {
	opts := audit.Options{
		Filters:       s.cfg.Filters.Options(),
		TopN:          s.cfg.TopN,
		LongThreshold: s.cfg.LongMeetingThreshold,
	}

	src, err := audit.ParseSource(c.PostForm("source"))
	if err != nil {
		return opts, err
	}
	opts.Source = src

	if v, ok := c.GetPostForm("exclude_all_day"); ok && v != "" {
		opts.Filters.ExcludeAllDay = ingest.ParseBool(v)
	}
	if v, ok := c.GetPostForm("min_duration"); ok && v != "" {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil || n < 0 {
			return opts, fmt.Errorf("min_duration must be a non-negative integer, got %q", v)
		}
		opts.Filters.MinDuration = n
	}
	if v, ok := c.GetPostForm("exclude_keywords"); ok {
		opts.Filters.ExcludeKeywords = filter.ParseKeywords(v)
	}
	if v, ok := c.GetPostForm("top_n"); ok && v != "" {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil || n <= 0 {
			return opts, fmt.Errorf("top_n must be a positive integer, got %q", v)
		}
		opts.TopN = n
	}
	return opts, nil
}

// handleListRuns returns recent audit runs.
//
// GET /api/runs?limit=50
func (s *Server) handleListRuns(c *gin.Context) {
	if s.runs == nil {
		fail(c, http.StatusServiceUnavailable, CodeUnavailable, "audit history disabled", "")
		return
	}
	limit := 0
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			badRequest(c, "invalid limit", v)
			return
		}
		limit = n
	}

	runs, err := s.runs.List(c.Request.Context(), limit)
	if err != nil {
		appLog.Error("api runs: list failed", err)
		internalError(c, "failed to list runs")
		return
	}
	views := make([]runView, 0, len(runs))
	for _, r := range runs {
		views = append(views, newRunView(r))
	}
	success(c, views)
}

// handleGetRun returns one stored run.
func (s *Server) handleGetRun(c *gin.Context) {
	if s.runs == nil {
		fail(c, http.StatusServiceUnavailable, CodeUnavailable, "audit history disabled", "")
		return
	}
	run, err := s.runs.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, store.ErrRunNotFound) {
			notFound(c, "audit run not found")
			return
		}
		appLog.Error("api runs: get failed", err, "id", c.Param("id"))
		internalError(c, "failed to load run")
		return
	}
	success(c, newRunView(*run))
}

// handleSourceReport returns the latest scheduled report of a configured
// source.
func (s *Server) handleSourceReport(c *gin.Context) {
	if s.snapshots == nil {
		fail(c, http.StatusServiceUnavailable, CodeUnavailable, "scheduled refresh disabled", "")
		return
	}
	snap, ok := s.snapshots.Latest(c.Param("id"))
	if !ok {
		notFound(c, "no report for source yet")
		return
	}
	success(c, snap)
}
