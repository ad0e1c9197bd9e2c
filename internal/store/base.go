package store

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/jmoiron/sqlx"
	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/pulverlogic/newsboard/internal/models"
)

// BaseStore provides common functionality for different DB implementations.
// Row positions are derived from id order, so they stay stable as long as
// rows are only appended.
type BaseStore struct {
	DB        *sqlx.DB
	Converter func(string) string

	mu sync.Mutex
}

func (s *BaseStore) Close() error {
	if s.DB != nil {
		return s.DB.Close()
	}
	return nil
}

func (s *BaseStore) Logs() LogStore {
	return &logTable{s: s}
}

func (s *BaseStore) Bonuses() BonusStore {
	return &bonusTable{s: s}
}

// ApplyMigrations applies SQL migrations from a directory in name order, translating dialect if needed
func (s *BaseStore) ApplyMigrations(dir string, translateSQL func(string) string) error {
	files, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("failed to read migrations directory: %w", err)
	}

	names := make([]string, 0, len(files))
	for _, file := range files {
		if strings.HasSuffix(file.Name(), ".sql") {
			names = append(names, file.Name())
		}
	}
	sort.Strings(names)

	for _, name := range names {
		content, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return fmt.Errorf("failed to read migration %s: %w", name, err)
		}

		sql := string(content)
		if translateSQL != nil {
			sql = translateSQL(sql)
		}

		logger.Debug.Printf("Applying migration: %s", name)
		if _, err := s.DB.Exec(sql); err != nil {
			return fmt.Errorf("failed to apply migration %s: %w", name, err)
		}
	}

	return nil
}

const (
	selectLogs = `
		SELECT id, username, title, link, notes, created_at, points_awarded, admin_notes, subject, status
		FROM scholar_logs
		ORDER BY id ASC
	`
	insertLog = `
		INSERT INTO scholar_logs (username, title, link, notes, created_at, points_awarded, admin_notes, subject, status)
		VALUES (:username, :title, :link, :notes, :created_at, :points_awarded, :admin_notes, :subject, :status)
	`
	selectBonuses = `
		SELECT id, username, bonus_type, points, notes, created_at, admin
		FROM bonus_logs
		ORDER BY id ASC
	`
	insertBonus = `
		INSERT INTO bonus_logs (username, bonus_type, points, notes, created_at, admin)
		VALUES (:username, :bonus_type, :points, :notes, :created_at, :admin)
	`
)

type logTable struct {
	s *BaseStore
}

func (t *logTable) Load() ([]models.LogEntry, error) {
	var rows []logRow
	if err := t.s.DB.Select(&rows, selectLogs); err != nil {
		return nil, fmt.Errorf("failed to load scholar logs: %w", err)
	}

	entries := make([]models.LogEntry, 0, len(rows))
	for i, r := range rows {
		entries = append(entries, r.entry(i))
	}
	return entries, nil
}

func (t *logTable) Append(entry models.LogEntry) ([]models.LogEntry, error) {
	t.s.mu.Lock()
	_, err := t.s.DB.NamedExec(insertLog, newLogRow(entry))
	t.s.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("failed to append scholar log: %w", err)
	}
	return t.Load()
}

func (t *logTable) Save(entries []models.LogEntry) error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()

	tx, err := t.s.DB.Beginx()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM scholar_logs`); err != nil {
		return fmt.Errorf("failed to clear scholar logs: %w", err)
	}
	for _, e := range entries {
		if _, err := tx.NamedExec(insertLog, newLogRow(e)); err != nil {
			return fmt.Errorf("failed to save scholar log: %w", err)
		}
	}
	return tx.Commit()
}

func (t *logTable) Review(row int, update models.ReviewUpdate) (*models.LogEntry, error) {
	if err := update.Validate(); err != nil {
		return nil, err
	}

	t.s.mu.Lock()
	defer t.s.mu.Unlock()

	tx, err := t.s.DB.Beginx()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var ids []int64
	if err := tx.Select(&ids, `SELECT id FROM scholar_logs ORDER BY id ASC`); err != nil {
		return nil, fmt.Errorf("failed to list scholar log ids: %w", err)
	}
	if row < 0 || row >= len(ids) {
		return nil, fmt.Errorf("%w: %d", ErrRowNotFound, row)
	}

	var current logRow
	query := t.s.Converter(`
		SELECT id, username, title, link, notes, created_at, points_awarded, admin_notes, subject, status
		FROM scholar_logs
		WHERE id = ?
	`)
	if err := tx.Get(&current, query, ids[row]); err != nil {
		return nil, fmt.Errorf("failed to get scholar log %d: %w", row, err)
	}

	entry := current.entry(row)
	entry.Apply(update)

	updated := newLogRow(entry)
	updated.ID = current.ID
	_, err = tx.NamedExec(`
		UPDATE scholar_logs
		SET points_awarded = :points_awarded,
			subject = :subject,
			status = :status,
			admin_notes = :admin_notes
		WHERE id = :id
	`, updated)
	if err != nil {
		return nil, fmt.Errorf("failed to update scholar log %d: %w", row, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit review: %w", err)
	}
	return &entry, nil
}

type bonusTable struct {
	s *BaseStore
}

func (t *bonusTable) Load() ([]models.BonusEntry, error) {
	var rows []bonusRow
	if err := t.s.DB.Select(&rows, selectBonuses); err != nil {
		return nil, fmt.Errorf("failed to load bonus logs: %w", err)
	}

	entries := make([]models.BonusEntry, 0, len(rows))
	for _, r := range rows {
		entries = append(entries, r.entry())
	}
	return entries, nil
}

func (t *bonusTable) Append(entry models.BonusEntry) ([]models.BonusEntry, error) {
	t.s.mu.Lock()
	_, err := t.s.DB.NamedExec(insertBonus, newBonusRow(entry))
	t.s.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("failed to append bonus log: %w", err)
	}
	return t.Load()
}

func (t *bonusTable) Save(entries []models.BonusEntry) error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()

	tx, err := t.s.DB.Beginx()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM bonus_logs`); err != nil {
		return fmt.Errorf("failed to clear bonus logs: %w", err)
	}
	for _, e := range entries {
		if _, err := tx.NamedExec(insertBonus, newBonusRow(e)); err != nil {
			return fmt.Errorf("failed to save bonus log: %w", err)
		}
	}
	return tx.Commit()
}
