package feeds

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pulverlogic/newsboard/internal/models"
	"github.com/pulverlogic/newsboard/internal/store/csvfile"
	"github.com/pulverlogic/newsboard/internal/subjects"
)

const rssTemplate = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
<channel>
<title>%s</title>
<link>https://example.com</link>
<description>test feed</description>
%s
</channel>
</rss>`

func item(title, link string) string {
	return fmt.Sprintf("<item><title>%s</title><link>%s</link><pubDate>Tue, 05 Mar 2024 10:00:00 GMT</pubDate></item>", title, link)
}

func newFeedServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/politics", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		fmt.Fprintf(w, rssTemplate, "Politics",
			item("Senate passes education bill", "https://www.example.com/a")+
				item("Paywalled scoop", "https://www.nytimes.com/scoop")+
				item("School board meets", "https://news.example.org/b"))
	})
	mux.HandleFunc("/world", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		fmt.Fprintf(w, rssTemplate, "World", item("Missile strike reported", "https://example.net/c"))
	})
	mux.HandleFunc("/broken", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusInternalServerError)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestExcluded(t *testing.T) {
	tests := []struct {
		link string
		want bool
	}{
		{"https://www.nytimes.com/2024/03/05/x.html", true},
		{"https://markets.ft.com/data", true},
		{"https://www.economist.com/", true},
		{"https://example.com/ft.com", false},
		{"https://softcom.example/", false},
		{"not a url %%", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Excluded(tt.link, DefaultExcludedDomains), tt.link)
	}
}

func TestFetch(t *testing.T) {
	srv := newFeedServer(t)
	f := NewFetcher(5 * time.Second)

	articles, err := f.Fetch(context.Background(), Source{Name: "Politics", URL: srv.URL + "/politics"})
	require.NoError(t, err)
	require.Len(t, articles, 2)
	assert.Equal(t, "Senate passes education bill", articles[0].Title)
	assert.Equal(t, "Politics", articles[0].Source)
	assert.NotEmpty(t, articles[0].Published)

	f.Limit = 1
	articles, err = f.Fetch(context.Background(), Source{Name: "Politics", URL: srv.URL + "/politics"})
	require.NoError(t, err)
	assert.Len(t, articles, 1)

	_, err = f.Fetch(context.Background(), Source{Name: "Broken", URL: srv.URL + "/broken"})
	assert.Error(t, err)
}

func TestFetchAll_SwallowsFailures(t *testing.T) {
	srv := newFeedServer(t)
	f := NewFetcher(5 * time.Second)

	articles := f.FetchAll(context.Background(), []Source{
		{Name: "Politics", URL: srv.URL + "/politics"},
		{Name: "Broken", URL: srv.URL + "/broken"},
		{Name: "World", URL: srv.URL + "/world"},
	})
	require.Len(t, articles, 3)
	assert.Equal(t, "Politics", articles[0].Source)
	assert.Equal(t, "World", articles[2].Source)
}

type syncRecorder struct {
	messages []string
}

func (s *syncRecorder) RequestSync(message string) {
	s.messages = append(s.messages, message)
}

func TestRefresh(t *testing.T) {
	srv := newFeedServer(t)
	archive := csvfile.NewArchive(filepath.Join(t.TempDir(), "rss_archive.csv"))
	recorder := &syncRecorder{}
	now := time.Date(2024, 3, 5, 8, 0, 0, 0, time.Local)

	r := &Refresher{
		Fetcher: NewFetcher(5 * time.Second),
		Sources: []Source{
			{Name: "Politics", URL: srv.URL + "/politics"},
			{Name: "World", URL: srv.URL + "/world"},
		},
		Tagger:  subjects.Default(),
		Archive: archive,
		Sync:    recorder,
		Now:     func() time.Time { return now },
	}

	added, err := r.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, added)
	assert.Equal(t, []string{"Update RSS archive 2024-03-05"}, recorder.messages)

	added, err = r.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, added)
	assert.Len(t, recorder.messages, 1)

	all, err := archive.Load()
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "The Legislative Branch", all[0].Subject)
	assert.Equal(t, "International Conflicts", all[2].Subject)

	today := Today(all, now, []string{"International Conflicts"})
	require.Len(t, today, 1)
	assert.Equal(t, "Missile strike reported", today[0].Title)
	assert.Empty(t, Today(all, now.AddDate(0, 0, 1), nil))
}

func TestLoadCatalog(t *testing.T) {
	dir := t.TempDir()

	path := filepath.Join(dir, "feeds.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
sources:
  - name: Local
    url: https://local.example/rss
`), 0o644))
	c, err := LoadCatalog(path)
	require.NoError(t, err)
	assert.Equal(t, []Source{{Name: "Local", URL: "https://local.example/rss"}}, c.Sources)
	assert.Equal(t, DefaultExcludedDomains, c.ExcludedDomains)

	cleared := filepath.Join(dir, "cleared.yaml")
	require.NoError(t, os.WriteFile(cleared, []byte(`
sources:
  - name: Local
    url: https://local.example/rss
excluded_domains: []
`), 0o644))
	c, err = LoadCatalog(cleared)
	require.NoError(t, err)
	assert.Empty(t, c.ExcludedDomains)

	empty := filepath.Join(dir, "empty.yaml")
	require.NoError(t, os.WriteFile(empty, []byte("sources: []\n"), 0o644))
	_, err = LoadCatalog(empty)
	assert.Error(t, err)
}

func TestHeadlines(t *testing.T) {
	got := Headlines([]Article{{Source: "NPR", Title: "x", Link: "l"}}, "2024-03-05", func(string) (string, float64) {
		return "Education", 0.5
	})
	assert.Equal(t, []models.Headline{{Date: "2024-03-05", Source: "NPR", Title: "x", Link: "l", Subject: "Education", Confidence: 0.5}}, got)
}
