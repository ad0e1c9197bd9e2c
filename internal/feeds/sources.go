package feeds

import (
	"fmt"
	"net/url"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

type Source struct {
	Name string `yaml:"name"`
	URL  string `yaml:"url"`
}

var DefaultSources = []Source{
	{Name: "NPR", URL: "https://www.npr.org/rss/rss.php?id=1001"},
	{Name: "Reuters", URL: "http://feeds.reuters.com/reuters/topNews"},
	{Name: "BBC News", URL: "http://feeds.bbci.co.uk/news/rss.xml"},
	{Name: "CNN", URL: "http://rss.cnn.com/rss/edition.rss"},
	{Name: "The Guardian", URL: "https://www.theguardian.com/world/rss"},
	{Name: "Al Jazeera", URL: "https://www.aljazeera.com/xml/rss/all.xml"},
	{Name: "Fox News", URL: "http://feeds.foxnews.com/foxnews/latest"},
	{Name: "Bloomberg", URL: "https://www.bloomberg.com/feeds/bbiz.xml"},
	{Name: "The Washington Post", URL: "http://feeds.washingtonpost.com/rss/national"},
	{Name: "ABC News", URL: "https://abcnews.go.com/abcnews/topstories"},
	{Name: "CBS News", URL: "https://www.cbsnews.com/latest/rss/main"},
	{Name: "NBC News", URL: "http://feeds.nbcnews.com/nbcnews/public/news"},
	{Name: "USA Today", URL: "http://rssfeeds.usatoday.com/usatoday-NewsTopStories"},
	{Name: "Politico", URL: "https://www.politico.com/rss/politics08.xml"},
	{Name: "The Hill", URL: "https://thehill.com/rss/syndicator/19110"},
	{Name: "Time", URL: "http://feeds2.feedburner.com/time/topstories"},
	{Name: "Newsweek", URL: "https://www.newsweek.com/rss"},
	{Name: "The Atlantic", URL: "https://www.theatlantic.com/feed/all/"},
	{Name: "Sky News", URL: "https://feeds.skynews.com/feeds/rss/home.xml"},
	{Name: "Axios", URL: "https://www.axios.com/rss"},
}

// DefaultExcludedDomains are paywalled sites whose links are dropped.
var DefaultExcludedDomains = []string{"economist.com", "ft.com", "nytimes.com"}

type Catalog struct {
	Sources         []Source `yaml:"sources"`
	ExcludedDomains []string `yaml:"excluded_domains"`
}

func DefaultCatalog() Catalog {
	return Catalog{Sources: DefaultSources, ExcludedDomains: DefaultExcludedDomains}
}

// LoadCatalog reads a YAML source list. An omitted excluded_domains key
// keeps the default list; an explicit empty list clears it.
func LoadCatalog(path string) (Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Catalog{}, fmt.Errorf("failed to read feed catalog: %w", err)
	}

	var raw struct {
		Sources         []Source  `yaml:"sources"`
		ExcludedDomains *[]string `yaml:"excluded_domains"`
	}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return Catalog{}, fmt.Errorf("failed to parse feed catalog: %w", err)
	}
	if len(raw.Sources) == 0 {
		return Catalog{}, fmt.Errorf("feed catalog %s has no sources", path)
	}
	for _, s := range raw.Sources {
		if s.Name == "" || s.URL == "" {
			return Catalog{}, fmt.Errorf("feed catalog %s: source needs name and url", path)
		}
	}

	c := Catalog{Sources: raw.Sources, ExcludedDomains: DefaultExcludedDomains}
	if raw.ExcludedDomains != nil {
		c.ExcludedDomains = *raw.ExcludedDomains
	}
	return c, nil
}

// Excluded reports whether link points into one of the excluded domains.
func Excluded(link string, domains []string) bool {
	u, err := url.Parse(link)
	if err != nil {
		return false
	}
	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	for _, d := range domains {
		d = strings.ToLower(d)
		if host == d || strings.HasSuffix(host, "."+d) {
			return true
		}
	}
	return false
}
