package export

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pulverlogic/newsboard/internal/app"
	"github.com/pulverlogic/newsboard/internal/models"
)

type staticSummary struct {
	summary []models.ScholarSummary
	err     error
}

func (s staticSummary) Summary() ([]models.ScholarSummary, error) {
	return s.summary, s.err
}

type update struct {
	sheetID string
	rng     string
	values  [][]interface{}
}

type recordingWriter struct {
	updates []update
	err     error
}

func (w *recordingWriter) Update(sheetID, cellRange string, values [][]interface{}) error {
	w.updates = append(w.updates, update{sheetID, cellRange, values})
	return w.err
}

var summary = []models.ScholarSummary{
	{User: "gabe", LogsSubmitted: 1, RegularPoints: 1, BonusPoints: 12, TotalPoints: 13, TopSubject: "Education"},
	{User: "ana", BonusPoints: 10, TotalPoints: 10, TopSubject: "N/A"},
}

func newExporter(source Summarizer) *GSheetExporter {
	return &GSheetExporter{
		source:    source,
		scheduler: gocron.NewScheduler(time.Local),
		now:       func() time.Time { return time.Date(2024, 3, 5, 7, 0, 0, 0, time.Local) },
	}
}

func TestLeaderboardValues(t *testing.T) {
	values := leaderboardValues(summary)
	require.Len(t, values, 3)
	assert.Equal(t, leaderboardHeader, values[0])
	assert.Equal(t, []interface{}{1, "gabe", 1, 1, 12, 13, "Education"}, values[1])
	assert.Equal(t, []interface{}{2, "ana", 0, 0, 10, 10, "N/A"}, values[2])

	assert.Len(t, leaderboardValues(nil), 1)
}

func TestExport(t *testing.T) {
	e := newExporter(staticSummary{summary: summary})
	w := &recordingWriter{}

	err := e.Export(app.ExportConfig{SheetID: "sheet-1", SheetName: "Leaderboard", TimestampCell: "J1"}, w)
	require.NoError(t, err)
	require.Len(t, w.updates, 2)

	assert.Equal(t, "sheet-1", w.updates[0].sheetID)
	assert.Equal(t, "Leaderboard!A1", w.updates[0].rng)
	assert.Len(t, w.updates[0].values, 3)

	assert.Equal(t, "Leaderboard!J1", w.updates[1].rng)
	stamp, ok := w.updates[1].values[0][0].(string)
	require.True(t, ok)
	assert.True(t, strings.HasPrefix(stamp, "UPD: 5 March 07:00 "), stamp)
}

func TestExport_NoTimestampCell(t *testing.T) {
	e := newExporter(staticSummary{summary: summary})
	w := &recordingWriter{}

	require.NoError(t, e.Export(app.ExportConfig{SheetID: "s", StartCell: "B3"}, w))
	require.Len(t, w.updates, 1)
	assert.Equal(t, "B3", w.updates[0].rng)
}

func TestExport_Errors(t *testing.T) {
	e := newExporter(staticSummary{err: errors.New("disk on fire")})
	err := e.Export(app.ExportConfig{SheetID: "s"}, &recordingWriter{})
	assert.ErrorContains(t, err, "disk on fire")

	e = newExporter(staticSummary{summary: summary})
	err = e.Export(app.ExportConfig{SheetID: "s"}, &recordingWriter{err: errors.New("quota")})
	assert.ErrorContains(t, err, "failed to write leaderboard")
}

func TestNewGSheetExporter_NoExports(t *testing.T) {
	e, err := NewGSheetExporter(&app.Config{}, staticSummary{})
	require.NoError(t, err)
	require.NotNil(t, e)
	e.Start()
	e.Stop()
}
