package service

import (
	"time"

	"github.com/godilite/lighthouse-monitor/internal/history"
)

// SendPolicy decides when the rendered report is emailed.
type SendPolicy string

const (
	// PolicyOnAlert sends only when at least one decision triggered.
	PolicyOnAlert SendPolicy = "on-alert"
	// PolicyAlways sends whenever at least one URL produced a measurement.
	PolicyAlways SendPolicy = "always"
)

// AlertDecision is the outcome of comparing one category of one URL against
// its previous measurement. Derived every run, never persisted.
type AlertDecision struct {
	URL       string
	Category  string
	Previous  int
	Current   int
	Delta     int
	Triggered bool
}

// URLResult is everything one pass learned about one URL.
type URLResult struct {
	URL       string
	Scores    history.ScoreSet     // nil when the fetch failed
	Previous  *history.Measurement // nil on the first-ever measurement
	Decisions []AlertDecision
	Err       error // fetch failure, nil otherwise
}

// Fetched reports whether this URL produced a measurement this run.
func (r URLResult) Fetched() bool { return r.Err == nil }

// RunSummary describes one completed pass for logging and exit handling.
type RunSummary struct {
	RunID           string
	StartedAt       time.Time
	FinishedAt      time.Time
	Results         []URLResult
	AlertCount      int
	FetchFailures   int
	EmailSent       bool
	NotificationErr string // distinguishes "send failed" from "no alert needed"
	Persisted       bool
	TextReport      string
}
