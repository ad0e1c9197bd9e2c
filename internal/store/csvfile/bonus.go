package csvfile

import (
	"sync"

	"github.com/pulverlogic/newsboard/internal/models"
	"github.com/pulverlogic/newsboard/internal/store"
)

type BonusFile struct {
	path string
	mu   sync.Mutex
}

func NewBonusFile(path string) *BonusFile {
	return &BonusFile{path: path}
}

func (f *BonusFile) Path() string {
	return f.path
}

func (f *BonusFile) Load() ([]models.BonusEntry, error) {
	t, err := readTable(f.path)
	if err != nil {
		return nil, err
	}
	return decodeBonuses(t), nil
}

func (f *BonusFile) Append(entry models.BonusEntry) ([]models.BonusEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	t, err := readTable(f.path)
	if err != nil {
		return nil, err
	}
	entries := append(decodeBonuses(t), entry)
	t.records = append(t.records, encodeBonus(nil, entry))

	if err := f.write(t); err != nil {
		return nil, err
	}
	return entries, nil
}

// Save replaces the table. Bonuses have no row identity, so a row's cells
// are kept only when the entry at the same position matches it.
func (f *BonusFile) Save(entries []models.BonusEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	t, err := readTable(f.path)
	if err != nil {
		return err
	}
	records := make([]record, 0, len(entries))
	for i, e := range entries {
		var base record
		if i < len(t.records) {
			if old := t.records[i]; old["user"] == e.User && old["bonus_type"] == e.BonusType {
				base = old
			}
		}
		records = append(records, encodeBonus(base, e))
	}
	t.records = records
	return f.write(t)
}

func (f *BonusFile) write(t table) error {
	t.withColumns(store.BonusColumns)
	return writeTable(f.path, t)
}

func decodeBonuses(t table) []models.BonusEntry {
	entries := make([]models.BonusEntry, 0, len(t.records))
	for _, rec := range t.records {
		entries = append(entries, models.BonusEntry{
			User:      rec["user"],
			BonusType: rec["bonus_type"],
			Points:    rec.intValue("points"),
			Notes:     rec["notes"],
			Timestamp: models.ParseTimestamp(rec["timestamp"]),
			Admin:     rec["admin"],
		})
	}
	return entries
}

func encodeBonus(base record, e models.BonusEntry) record {
	rec := base.clone()
	rec["user"] = e.User
	rec["bonus_type"] = e.BonusType
	rec.setInt("points", e.Points)
	rec["notes"] = e.Notes
	rec.setTimestamp("timestamp", e.Timestamp)
	rec["admin"] = e.Admin
	return rec
}
