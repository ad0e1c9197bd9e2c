package csvfile

import (
	"encoding/csv"
	"fmt"
	"io"
	"sync"

	"github.com/pulverlogic/newsboard/internal/models"
	"github.com/pulverlogic/newsboard/internal/store"
)

// LogFile is the scholar log table. The mutex serializes writers inside
// this process only; another process rewriting the same file still wins
// silently.
//
// Rows are rewritten from the cells read, so only the row being added or
// reviewed changes on disk.
type LogFile struct {
	path string
	mu   sync.Mutex
}

func NewLogFile(path string) *LogFile {
	return &LogFile{path: path}
}

func (f *LogFile) Path() string {
	return f.path
}

func (f *LogFile) Load() ([]models.LogEntry, error) {
	t, err := readTable(f.path)
	if err != nil {
		return nil, err
	}
	return decodeLogs(t), nil
}

func (f *LogFile) Append(entry models.LogEntry) ([]models.LogEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	t, err := readTable(f.path)
	if err != nil {
		return nil, err
	}
	entries := decodeLogs(t)
	entry.Row = len(entries)
	entries = append(entries, entry)
	t.records = append(t.records, encodeLog(nil, entry))

	if err := f.write(t); err != nil {
		return nil, err
	}
	return entries, nil
}

// Save replaces the table. An entry whose Row still points at the same
// user and title keeps that row's cells and extra columns.
func (f *LogFile) Save(entries []models.LogEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	t, err := readTable(f.path)
	if err != nil {
		return err
	}
	records := make([]record, 0, len(entries))
	for _, e := range entries {
		var base record
		if e.Row >= 0 && e.Row < len(t.records) {
			if old := t.records[e.Row]; old["user"] == e.User && old["title"] == e.Title {
				base = old
			}
		}
		records = append(records, encodeLog(base, e))
	}
	t.records = records
	return f.write(t)
}

func (f *LogFile) Review(row int, update models.ReviewUpdate) (*models.LogEntry, error) {
	if err := update.Validate(); err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	t, err := readTable(f.path)
	if err != nil {
		return nil, err
	}
	if row < 0 || row >= len(t.records) {
		return nil, fmt.Errorf("%w: %d", store.ErrRowNotFound, row)
	}

	entry := decodeLog(row, t.records[row])
	entry.Apply(update)
	t.records[row] = encodeLog(t.records[row], entry)

	if err := f.write(t); err != nil {
		return nil, err
	}
	return &entry, nil
}

func (f *LogFile) write(t table) error {
	t.withColumns(store.LogColumns)
	return writeTable(f.path, t)
}

// WriteLogs encodes entries in the log file layout, header included.
func WriteLogs(w io.Writer, entries []models.LogEntry) error {
	t := table{header: store.LogColumns}
	for _, e := range entries {
		t.records = append(t.records, encodeLog(nil, e))
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(t.header); err != nil {
		return err
	}
	return cw.WriteAll(t.rows())
}

func decodeLogs(t table) []models.LogEntry {
	entries := make([]models.LogEntry, 0, len(t.records))
	for i, rec := range t.records {
		entries = append(entries, decodeLog(i, rec))
	}
	return entries
}

// encodeLog writes e over a copy of base. Cells that already read back as
// the entry's value are left as they were.
func encodeLog(base record, e models.LogEntry) record {
	rec := base.clone()
	rec["user"] = e.User
	rec["title"] = e.Title
	rec["link"] = e.Link
	rec["notes"] = e.Notes
	rec.setTimestamp("timestamp", e.Timestamp)
	rec.setInt("points_awarded", e.PointsAwarded)
	rec["admin_notes"] = e.AdminNotes
	if !rec.keep("subject", func(raw string) bool { return decodeSubject(raw) == e.Subject }) {
		rec["subject"] = e.Subject
	}
	if !rec.keep("status", func(raw string) bool { return decodeStatus(raw) == e.Status }) {
		rec["status"] = string(e.Status)
	}
	return rec
}

func decodeSubject(raw string) string {
	if raw == "" {
		return models.UnspecifiedSubject
	}
	return raw
}

func decodeStatus(raw string) models.Status {
	status, err := models.ParseStatus(raw)
	if err != nil {
		return models.StatusPending
	}
	return status
}

func decodeLog(row int, rec record) models.LogEntry {
	return models.LogEntry{
		Row:           row,
		User:          rec["user"],
		Title:         rec["title"],
		Link:          rec["link"],
		Notes:         rec["notes"],
		Timestamp:     models.ParseTimestamp(rec["timestamp"]),
		PointsAwarded: rec.intValue("points_awarded"),
		AdminNotes:    rec["admin_notes"],
		Subject:       decodeSubject(rec["subject"]),
		Status:        decodeStatus(rec["status"]),
	}
}
