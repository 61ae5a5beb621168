package model

import "time"

// AnalyticsSnapshot holds the totals recorded at the end of the previous
// analytics computation. It is the baseline for the next percentage
// change and is stored separately from the detection snapshots.
type AnalyticsSnapshot struct {
	Contacts       int       `json:"contacts"`
	PortfolioItems int       `json:"portfolioItems"`
	PageVisits     int       `json:"pageVisits"`
	RecordedAt     time.Time `json:"recordedAt"`
}

// Analytics is the result of one analytics computation.
type Analytics struct {
	Contacts       int `json:"contacts"`
	PortfolioItems int `json:"portfolioItems"`
	PageVisits     int `json:"pageVisits"`

	// Percentage change against the previous baseline, one decimal place.
	ContactsChange  float64 `json:"contactsChange"`
	PortfolioChange float64 `json:"portfolioChange"`
	VisitsChange    float64 `json:"visitsChange"`

	ComputedAt time.Time `json:"computedAt"`

	// Error is non-empty when the computation failed and every metric
	// was zeroed.
	Error string `json:"error,omitempty"`
}

// Totals returns the counts of a as a baseline snapshot.
func (a Analytics) Totals() AnalyticsSnapshot {
	return AnalyticsSnapshot{
		Contacts:       a.Contacts,
		PortfolioItems: a.PortfolioItems,
		PageVisits:     a.PageVisits,
		RecordedAt:     a.ComputedAt,
	}
}
