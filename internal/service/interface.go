package service

import (
	"context"

	"github.com/godilite/lighthouse-monitor/internal/history"
	"github.com/godilite/lighthouse-monitor/internal/notify"
)

// Auditor runs one Lighthouse audit. Any implementation satisfying it is
// acceptable: direct API client, cached decorator, or a test double.
type Auditor interface {
	Audit(ctx context.Context, target string) (history.ScoreSet, error)
}

// HistoryRepository defines the persistence operations the service needs.
// Load yields an empty History when no prior state exists.
type HistoryRepository interface {
	Load(ctx context.Context) (history.History, error)
	Save(ctx context.Context, h history.History) error
}

// Mailer delivers the rendered report.
type Mailer interface {
	Configured() bool
	Send(ctx context.Context, email notify.Email) error
}
