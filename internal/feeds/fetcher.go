// Package feeds pulls headlines from RSS sources into the daily archive.
package feeds

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/mmcdole/gofeed"
	"github.com/shrimpsizemoose/trekker/logger"
	"golang.org/x/sync/errgroup"

	"github.com/pulverlogic/newsboard/internal/models"
)

const (
	DefaultLimit       = 10
	DefaultConcurrency = 4
	DefaultTimeout     = 15 * time.Second
)

// Article is one feed item before it is tagged and dated.
type Article struct {
	Source    string
	Title     string
	Link      string
	Published string
}

type Fetcher struct {
	Client      *http.Client
	Limit       int
	Concurrency int
	Excluded    []string
}

func NewFetcher(timeout time.Duration) *Fetcher {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Fetcher{
		Client:      &http.Client{Timeout: timeout},
		Limit:       DefaultLimit,
		Concurrency: DefaultConcurrency,
		Excluded:    DefaultExcludedDomains,
	}
}

// Fetch returns at most Limit items of one feed, skipping excluded domains.
func (f *Fetcher) Fetch(ctx context.Context, src Source) ([]Article, error) {
	parser := gofeed.NewParser()
	if f.Client != nil {
		parser.Client = f.Client
	}

	feed, err := parser.ParseURLWithContext(src.URL, ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", src.Name, err)
	}

	limit := f.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}

	var out []Article
	for i, item := range feed.Items {
		if i >= limit {
			break
		}
		if item == nil || Excluded(item.Link, f.Excluded) {
			continue
		}
		title := strings.TrimSpace(item.Title)
		if title == "" {
			continue
		}
		out = append(out, Article{
			Source:    src.Name,
			Title:     title,
			Link:      item.Link,
			Published: item.Published,
		})
	}
	return out, nil
}

// FetchAll fetches every source. A failing source is logged and counts
// as zero articles. Output keeps the source order.
func (f *Fetcher) FetchAll(ctx context.Context, sources []Source) []Article {
	results := make([][]Article, len(sources))

	limit := f.Concurrency
	if limit <= 0 {
		limit = DefaultConcurrency
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	var mu sync.Mutex
	failed := 0
	for i, src := range sources {
		g.Go(func() error {
			articles, err := f.Fetch(gctx, src)
			if err != nil {
				logger.Error.Printf("Feed %s skipped: %v", src.Name, err)
				mu.Lock()
				failed++
				mu.Unlock()
				return nil
			}
			results[i] = articles
			return nil
		})
	}
	_ = g.Wait()

	var all []Article
	for _, r := range results {
		all = append(all, r...)
	}
	logger.Info.Printf("Fetched %d articles from %d sources (%d failed)", len(all), len(sources), failed)
	return all
}

// Headlines dates and tags fetched articles.
func Headlines(articles []Article, day string, tag func(string) (string, float64)) []models.Headline {
	out := make([]models.Headline, 0, len(articles))
	for _, a := range articles {
		subject, confidence := tag(a.Title)
		out = append(out, models.Headline{
			Date:       day,
			Source:     a.Source,
			Title:      a.Title,
			Link:       a.Link,
			Published:  a.Published,
			Subject:    subject,
			Confidence: confidence,
		})
	}
	return out
}
