package refresh

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"calaudit/internal/audit"
	"calaudit/internal/config"
	"calaudit/internal/fetch"
	"calaudit/internal/model"
	"calaudit/internal/store"
)

const googleCSV = `Subject,Start Date,Start Time,End Date,End Time,All Day Event,Description,Location,Private
Planning,2024-01-15,14:00,2024-01-15,15:00,False,,HQ,False
`

const teamICS = "BEGIN:VCALENDAR\r\nVERSION:2.0\r\nPRODID:-//t//EN\r\n" +
	"BEGIN:VEVENT\r\nUID:1\r\nSUMMARY:Standup\r\nDTSTART:20240115T090000Z\r\nDTEND:20240115T091500Z\r\nRRULE:FREQ=DAILY\r\nEND:VEVENT\r\n" +
	"END:VCALENDAR\r\n"

func TestRefreshAll(t *testing.T) {
	dir := t.TempDir()
	csvPath := filepath.Join(dir, "mine.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte(googleCSV), 0o600))

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(teamICS))
	}))
	defer srv.Close()

	db, err := store.Open(":memory:")
	require.NoError(t, err)
	repo := store.NewRunRepo(db)

	r := New([]config.SourceConfig{
		{ID: "mine", Path: csvPath},
		{ID: "team", URL: srv.URL + "/team.ics"},
		{ID: "gone", Path: filepath.Join(dir, "missing.csv")},
	}, audit.DefaultOptions(), fetch.NewFetcher(filepath.Join(dir, "cache")), repo)

	err = r.RefreshAll(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "source gone")

	mine, ok := r.Latest("mine")
	require.True(t, ok)
	assert.Equal(t, model.SourceGoogle, mine.Report.Source)
	assert.Equal(t, 1.0, mine.Report.KPIs.TotalHours)
	assert.NotEmpty(t, mine.RunID)

	team, ok := r.Latest("team")
	require.True(t, ok)
	assert.Equal(t, model.SourceICS, team.Report.Source)
	require.Len(t, team.Report.RecurrenceBreakdown, 1)
	assert.Equal(t, "DAILY", team.Report.RecurrenceBreakdown[0].Recurrence)

	_, ok = r.Latest("gone")
	assert.False(t, ok)

	runs, err := repo.List(context.Background(), 10)
	require.NoError(t, err)
	assert.Len(t, runs, 2)
}

func TestRefreshOne(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mine.csv")
	require.NoError(t, os.WriteFile(path, []byte(googleCSV), 0o600))

	r := New([]config.SourceConfig{{ID: "mine", Path: path, Source: "outlook"}}, audit.DefaultOptions(), nil, nil)

	snap, err := r.RefreshOne(context.Background(), "mine")
	require.NoError(t, err)
	assert.Equal(t, model.SourceOutlook, snap.Report.Source)
	assert.Contains(t, snap.Report.Warnings, "Using manual override: outlook (auto-detected: google)")
	assert.Empty(t, snap.RunID)

	_, err = r.RefreshOne(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrUnknownSource)
}

func TestStartStop(t *testing.T) {
	r := New(nil, audit.DefaultOptions(), nil, nil)

	assert.Error(t, r.Start("not a schedule"))

	require.NoError(t, r.Start("*/5 * * * *"))
	assert.Error(t, r.Start("*/5 * * * *"))
	r.Stop()
	r.Stop()
}
