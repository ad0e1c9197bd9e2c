package csvfile

import (
	"sync"

	"github.com/pulverlogic/newsboard/internal/models"
)

var ArchiveColumns = []string{"Date", "Source", "Title", "Link", "Subject"}

// Archive is the daily headline archive, deduplicated on (Date, Title).
type Archive struct {
	path string
	mu   sync.Mutex
}

func NewArchive(path string) *Archive {
	return &Archive{path: path}
}

func (a *Archive) Path() string {
	return a.path
}

func (a *Archive) Load() ([]models.Headline, error) {
	t, err := readTable(a.path)
	if err != nil {
		return nil, err
	}
	return decodeHeadlines(t), nil
}

func decodeHeadlines(t table) []models.Headline {
	headlines := make([]models.Headline, 0, len(t.records))
	for _, rec := range t.records {
		headlines = append(headlines, models.Headline{
			Date:    rec["Date"],
			Source:  rec["Source"],
			Title:   rec["Title"],
			Link:    rec["Link"],
			Subject: rec["Subject"],
		})
	}
	return headlines
}

// Merge appends the headlines not already archived and returns how many were new.
func (a *Archive) Merge(headlines []models.Headline) (int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	t, err := readTable(a.path)
	if err != nil {
		return 0, err
	}
	existing := decodeHeadlines(t)

	type key struct{ date, title string }
	seen := make(map[key]bool, len(existing)+len(headlines))
	for _, h := range existing {
		seen[key{h.Date, h.Title}] = true
	}

	added := 0
	for _, h := range headlines {
		k := key{h.Date, h.Title}
		if seen[k] {
			continue
		}
		seen[k] = true
		t.records = append(t.records, record{
			"Date":    h.Date,
			"Source":  h.Source,
			"Title":   h.Title,
			"Link":    h.Link,
			"Subject": h.Subject,
		})
		added++
	}

	t.withColumns(ArchiveColumns)
	if err := writeTable(a.path, t); err != nil {
		return 0, err
	}
	return added, nil
}
