package store

import (
	"errors"

	"github.com/pulverlogic/newsboard/internal/models"
)

var ErrRowNotFound = errors.New("row not found")

// LogStore holds scholar log entries. Loads return the whole table; every
// mutation rewrites the whole table.
type LogStore interface {
	Load() ([]models.LogEntry, error)
	Append(entry models.LogEntry) ([]models.LogEntry, error)
	Save(entries []models.LogEntry) error
	Review(row int, update models.ReviewUpdate) (*models.LogEntry, error)
}

type BonusStore interface {
	Load() ([]models.BonusEntry, error)
	Append(entry models.BonusEntry) ([]models.BonusEntry, error)
	Save(entries []models.BonusEntry) error
}

type Backend interface {
	Logs() LogStore
	Bonuses() BonusStore
	Close() error
}
