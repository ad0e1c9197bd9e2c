package models

// Headline is one archived RSS item. Date is the archive day (YYYY-MM-DD),
// not the publication time.
type Headline struct {
	Date       string  `json:"date"`
	Source     string  `json:"source"`
	Title      string  `json:"title"`
	Link       string  `json:"link"`
	Published  string  `json:"published,omitempty"`
	Subject    string  `json:"subject"`
	Confidence float64 `json:"confidence,omitempty"`
}
