package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/godilite/lighthouse-monitor/internal/history"
	"github.com/godilite/lighthouse-monitor/internal/notify"
	"github.com/godilite/lighthouse-monitor/internal/report"
)

const (
	storeTimeout = 5 * time.Second
	sendTimeout  = 45 * time.Second
)

var (
	// ErrPersistence marks a failed history save. The run is unsuccessful
	// even when everything before it worked: the next run would lose
	// continuity.
	ErrPersistence = errors.New("history persistence failure")

	// ErrNotification marks a failed email send. Recoverable: the
	// measurements stand and history is still persisted.
	ErrNotification = errors.New("notification failure")
)

// Settings are the resolved configuration values the monitor acts on.
type Settings struct {
	URLs       []string
	Categories []string
	Threshold  int
	Policy     SendPolicy
}

// MonitorService drives one monitoring pass: fetch each URL in configured
// order, compare against the stored history, email the report according to
// the send policy, persist the updated history.
type MonitorService struct {
	audits   Auditor
	store    HistoryRepository
	mailer   Mailer
	settings Settings
	logger   *zap.Logger
	dryRun   bool
	now      func() time.Time
	render   func([]report.Page, time.Time) (string, error)
}

type Option func(*MonitorService)

// WithDryRun renders and logs but skips both the email send and the
// history save.
func WithDryRun() Option {
	return func(s *MonitorService) { s.dryRun = true }
}

// WithClock overrides the time source. Tests use it for stable timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *MonitorService) { s.now = now }
}

// NewMonitorService creates a new MonitorService instance.
func NewMonitorService(audits Auditor, store HistoryRepository, mailer Mailer, settings Settings, logger *zap.Logger, opts ...Option) *MonitorService {
	if audits == nil {
		panic("auditor must not be nil")
	}
	if store == nil {
		panic("history repository must not be nil")
	}
	if mailer == nil {
		panic("mailer must not be nil")
	}
	if logger == nil {
		l, _ := zap.NewProduction()
		logger = l
	}
	if settings.Policy == "" {
		settings.Policy = PolicyOnAlert
	}

	s := &MonitorService{
		audits:   audits,
		store:    store,
		mailer:   mailer,
		settings: settings,
		logger:   logger.Named("monitor"),
		now:      time.Now,
		render:   report.Render,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RunOnce executes one full pass and returns its summary. Per-URL fetch
// failures and a failed send are recorded on the summary, not returned; the
// returned error is non-nil only when the updated history cannot be
// persisted or the context dies.
func (s *MonitorService) RunOnce(ctx context.Context) (*RunSummary, error) {
	summary := &RunSummary{
		RunID:     uuid.NewString(),
		StartedAt: s.now().UTC(),
	}
	logger := s.logger.With(zap.String("run_id", summary.RunID))

	logger.Info("run starting",
		zap.Int("urls", len(s.settings.URLs)),
		zap.Strings("categories", s.settings.Categories),
		zap.Int("threshold", s.settings.Threshold),
		zap.String("policy", string(s.settings.Policy)),
		zap.Bool("dry_run", s.dryRun))

	loadCtx, cancel := context.WithTimeout(ctx, storeTimeout)
	hist, err := s.store.Load(loadCtx)
	cancel()
	if err != nil {
		return summary, fmt.Errorf("%w: load: %v", ErrPersistence, err)
	}

	updated := hist
	for _, target := range s.settings.URLs {
		result := URLResult{URL: target}

		scores, err := s.audits.Audit(ctx, target)
		if err != nil {
			if ctx.Err() != nil {
				return summary, ctx.Err()
			}
			logger.Error("fetch failed, continuing with remaining urls",
				zap.String("url", target),
				zap.Error(err))
			result.Err = err
			summary.FetchFailures++
			summary.Results = append(summary.Results, result)
			continue
		}

		measurement := history.Measurement{
			URL:       target,
			Timestamp: s.now().UTC(),
			Scores:    scores,
		}
		if prev, ok := updated.Latest(target); ok {
			result.Previous = &prev
		}

		result.Scores = scores
		result.Decisions = Decide(result.Previous, measurement, s.settings.Threshold, s.settings.Categories)
		updated = updated.Record(measurement)

		for _, d := range result.Decisions {
			if d.Triggered {
				summary.AlertCount++
				logger.Warn("score change beyond threshold",
					zap.String("url", d.URL),
					zap.String("category", d.Category),
					zap.Int("previous", d.Previous),
					zap.Int("current", d.Current),
					zap.Int("delta", d.Delta))
			}
		}

		summary.Results = append(summary.Results, result)
	}

	pages := s.reportPages(summary.Results)
	summary.TextReport = report.RenderText(pages, s.now().UTC())

	s.deliver(ctx, logger, summary, pages)

	if s.dryRun {
		logger.Info("dry run, skipping history save")
	} else {
		saveCtx, cancel := context.WithTimeout(ctx, storeTimeout)
		err = s.store.Save(saveCtx, updated)
		cancel()
		if err != nil {
			return summary, fmt.Errorf("%w: save: %v", ErrPersistence, err)
		}
		summary.Persisted = true
	}

	summary.FinishedAt = s.now().UTC()
	logger.Info("run complete",
		zap.Duration("took", summary.FinishedAt.Sub(summary.StartedAt)),
		zap.Int("alerts", summary.AlertCount),
		zap.Int("fetch_failures", summary.FetchFailures),
		zap.Bool("email_sent", summary.EmailSent),
		zap.Bool("persisted", summary.Persisted))

	return summary, nil
}

// deliver applies the send policy and records the outcome on the summary.
// Send failures are reported, never fatal: the measurements stand.
func (s *MonitorService) deliver(ctx context.Context, logger *zap.Logger, summary *RunSummary, pages []report.Page) {
	measured := 0
	for _, r := range summary.Results {
		if r.Fetched() {
			measured++
		}
	}

	var shouldSend bool
	switch s.settings.Policy {
	case PolicyAlways:
		shouldSend = measured > 0
	default:
		shouldSend = summary.AlertCount > 0
	}

	if !shouldSend {
		logger.Info("email not needed",
			zap.String("policy", string(s.settings.Policy)),
			zap.Int("alerts", summary.AlertCount))
		return
	}
	if s.dryRun {
		logger.Info("dry run, skipping email send")
		return
	}
	if !s.mailer.Configured() {
		summary.NotificationErr = "smtp not configured"
		logger.Warn("email needed but smtp is not configured, skipping send")
		return
	}

	html, err := s.render(pages, s.now().UTC())
	if err != nil {
		wrapped := fmt.Errorf("%w: %v", ErrNotification, err)
		summary.NotificationErr = wrapped.Error()
		logger.Error("report rendering failed", zap.Error(wrapped))
		return
	}

	email := notify.Email{
		Subject:  report.Subject(summary.AlertCount),
		TextBody: summary.TextReport,
		HTMLBody: html,
	}

	sendCtx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()

	if err := s.mailer.Send(sendCtx, email); err != nil {
		wrapped := fmt.Errorf("%w: %v", ErrNotification, err)
		summary.NotificationErr = wrapped.Error()
		logger.Error("email send failed, history will still be persisted", zap.Error(wrapped))
		return
	}

	summary.EmailSent = true
}

// reportPages maps per-URL results into renderer input, preserving the
// configured URL order.
func (s *MonitorService) reportPages(results []URLResult) []report.Page {
	pages := make([]report.Page, 0, len(results))

	for _, r := range results {
		page := report.Page{URL: r.URL}
		if r.Err != nil {
			page.Err = r.Err.Error()
			pages = append(pages, page)
			continue
		}

		page.Baseline = r.Previous == nil

		decisionByCategory := make(map[string]AlertDecision, len(r.Decisions))
		for _, d := range r.Decisions {
			decisionByCategory[d.Category] = d
		}

		for _, category := range orderedCategories(r.Scores, s.settings.Categories) {
			score, ok := r.Scores[category]
			if !ok {
				continue
			}
			row := report.Row{Category: category, Current: score}
			if d, ok := decisionByCategory[category]; ok {
				row.Previous = d.Previous
				row.HasPrevious = true
				row.Delta = d.Delta
				row.Triggered = d.Triggered
			}
			page.Rows = append(page.Rows, row)
		}

		pages = append(pages, page)
	}

	return pages
}

// HistoryFor returns the most recent stored measurements for a URL, newest
// last, capped at limit when limit is positive.
func (s *MonitorService) HistoryFor(ctx context.Context, target string, limit int) ([]history.Measurement, error) {
	loadCtx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()

	hist, err := s.store.Load(loadCtx)
	if err != nil {
		return nil, fmt.Errorf("%w: load: %v", ErrPersistence, err)
	}

	seq := hist[target]
	if limit > 0 && len(seq) > limit {
		seq = seq[len(seq)-limit:]
	}
	return seq, nil
}

// Snapshot returns the whole stored history.
func (s *MonitorService) Snapshot(ctx context.Context) (history.History, error) {
	loadCtx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()

	hist, err := s.store.Load(loadCtx)
	if err != nil {
		return nil, fmt.Errorf("%w: load: %v", ErrPersistence, err)
	}
	return hist, nil
}
