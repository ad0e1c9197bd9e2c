package feeds

import (
	"context"
	"fmt"
	"time"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/pulverlogic/newsboard/internal/models"
	"github.com/pulverlogic/newsboard/internal/subjects"
)

const DayLayout = "2006-01-02"

type Archive interface {
	Load() ([]models.Headline, error)
	Merge(headlines []models.Headline) (int, error)
	Path() string
}

// SyncRequester is told when the archive file changed.
type SyncRequester interface {
	RequestSync(message string)
}

type Refresher struct {
	Fetcher *Fetcher
	Sources []Source
	Tagger  *subjects.Tagger
	Archive Archive
	Sync    SyncRequester
	Now     func() time.Time
}

// Refresh archives today's headlines and returns how many were new.
func (r *Refresher) Refresh(ctx context.Context) (int, error) {
	now := time.Now
	if r.Now != nil {
		now = r.Now
	}
	day := now().Format(DayLayout)

	articles := r.Fetcher.FetchAll(ctx, r.Sources)
	headlines := Headlines(articles, day, func(title string) (string, float64) {
		m := r.Tagger.Classify(title)
		return m.Subject, m.Confidence
	})

	added, err := r.Archive.Merge(headlines)
	if err != nil {
		return 0, fmt.Errorf("failed to archive headlines: %w", err)
	}
	logger.Info.Printf("Archived %d new headlines for %s", added, day)

	if added > 0 && r.Sync != nil {
		r.Sync.RequestSync(fmt.Sprintf("Update RSS archive %s", day))
	}
	return added, nil
}

// Today returns the archived headlines dated now, optionally limited to
// the given subjects.
func Today(archive []models.Headline, now time.Time, only []string) []models.Headline {
	day := now.Format(DayLayout)
	want := make(map[string]bool, len(only))
	for _, s := range only {
		want[s] = true
	}

	var out []models.Headline
	for _, h := range archive {
		if h.Date != day {
			continue
		}
		if len(want) > 0 && !want[h.Subject] {
			continue
		}
		out = append(out, h)
	}
	return out
}
