// Package subjects maps headlines onto the fixed set of class subjects by
// keyword substring matching.
package subjects

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

const General = "General"

type Policy string

const (
	// PolicyFirstMatch picks the first category, in catalog order, with any keyword hit.
	PolicyFirstMatch Policy = "first-match"
	// PolicyBestConfidence picks the category with the highest share of its keywords present.
	PolicyBestConfidence Policy = "best-confidence"
)

type Category struct {
	Name     string   `yaml:"name"`
	Keywords []string `yaml:"keywords"`
}

type Match struct {
	Subject    string  `json:"subject"`
	Confidence float64 `json:"confidence"`
	Matched    int     `json:"matched"`
}

var DefaultCategories = []Category{
	{Name: "The Executive Branch", Keywords: []string{"president", "white house", "executive", "biden"}},
	{Name: "The Legislative Branch", Keywords: []string{"congress", "senate", "house", "bill"}},
	{Name: "The Judicial Branch", Keywords: []string{"court", "judge", "justice", "ruling"}},
	{Name: "Education", Keywords: []string{"education", "school", "student", "teacher"}},
	{Name: "Technology", Keywords: []string{"ai", "tech", "data", "software"}},
	{Name: "Business & the Economy", Keywords: []string{"inflation", "market", "finance", "jobs"}},
	{Name: "World Leaders", Keywords: []string{"putin", "xi", "modi", "zelensky"}},
	{Name: "International Conflicts", Keywords: []string{"war", "missile", "invasion", "conflict"}},
	{Name: "Business & Commerce", Keywords: []string{"merger", "startup", "stock", "company"}},
	{Name: "The Global Economy", Keywords: []string{"global", "exports", "imports", "trade"}},
	{Name: "Human Rights", Keywords: []string{"rights", "freedom", "protest", "oppression"}},
}

type Tagger struct {
	categories []Category
	policy     Policy
}

func New(categories []Category, policy Policy) (*Tagger, error) {
	if policy == "" {
		policy = PolicyFirstMatch
	}
	if policy != PolicyFirstMatch && policy != PolicyBestConfidence {
		return nil, fmt.Errorf("unknown tagging policy %q", policy)
	}
	if len(categories) == 0 {
		return nil, fmt.Errorf("subject catalog is empty")
	}

	normalized := make([]Category, 0, len(categories))
	for _, c := range categories {
		if c.Name == "" {
			return nil, fmt.Errorf("subject catalog has a category without a name")
		}
		kws := make([]string, 0, len(c.Keywords))
		for _, kw := range c.Keywords {
			if kw = strings.ToLower(strings.TrimSpace(kw)); kw != "" {
				kws = append(kws, kw)
			}
		}
		normalized = append(normalized, Category{Name: c.Name, Keywords: kws})
	}

	return &Tagger{categories: normalized, policy: policy}, nil
}

func Default() *Tagger {
	t, _ := New(DefaultCategories, PolicyFirstMatch)
	return t
}

// LoadCatalog reads an ordered list of categories from YAML:
//
//	- name: Education
//	  keywords: [school, teacher]
func LoadCatalog(path string) ([]Category, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading subject catalog: %w", err)
	}

	var categories []Category
	if err := yaml.Unmarshal(data, &categories); err != nil {
		return nil, fmt.Errorf("error parsing subject catalog %s: %w", path, err)
	}
	return categories, nil
}

func (t *Tagger) Policy() Policy {
	return t.policy
}

func (t *Tagger) Tag(title string) string {
	return t.Classify(title).Subject
}

func (t *Tagger) Classify(title string) Match {
	scores := t.Scores(title)

	switch t.policy {
	case PolicyBestConfidence:
		best := Match{Subject: General}
		for _, m := range scores {
			if m.Confidence > best.Confidence {
				best = m
			}
		}
		return best
	default:
		for _, m := range scores {
			if m.Matched > 0 {
				return m
			}
		}
		return Match{Subject: General}
	}
}

// Scores returns one match per category in catalog order.
func (t *Tagger) Scores(title string) []Match {
	lower := strings.ToLower(title)

	matches := make([]Match, 0, len(t.categories))
	for _, c := range t.categories {
		m := Match{Subject: c.Name}
		for _, kw := range c.Keywords {
			if strings.Contains(lower, kw) {
				m.Matched++
			}
		}
		if len(c.Keywords) > 0 {
			m.Confidence = float64(m.Matched) / float64(len(c.Keywords))
		}
		matches = append(matches, m)
	}
	return matches
}

// Subjects lists every tag the tagger can produce, General last.
func (t *Tagger) Subjects() []string {
	out := make([]string, 0, len(t.categories)+1)
	for _, c := range t.categories {
		out = append(out, c.Name)
	}
	return append(out, General)
}
