package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/godilite/lighthouse-monitor/internal/history"
	"github.com/godilite/lighthouse-monitor/internal/repository/models"
)

// SQLiteHistoryRepository persists History in a sqlite database, one row per
// category score. Save rewrites the whole table inside a single transaction,
// which gives the same all-or-nothing property as the file backend's
// temp-and-rename.
type SQLiteHistoryRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewSQLiteHistoryRepository(db *sql.DB, logger *zap.Logger) *SQLiteHistoryRepository {
	if db == nil {
		panic("db must not be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SQLiteHistoryRepository{db: db, logger: logger.Named("history-sqlite")}
}

// Init creates the measurements table when it does not exist yet.
func (r *SQLiteHistoryRepository) Init(ctx context.Context) error {
	const schema = `
		CREATE TABLE IF NOT EXISTS measurements (
			url         TEXT    NOT NULL,
			seq         INTEGER NOT NULL,
			recorded_at TEXT    NOT NULL,
			category    TEXT    NOT NULL,
			score       INTEGER NOT NULL,
			PRIMARY KEY (url, seq, category)
		);
	`
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create measurements table: %w", err)
	}
	return nil
}

// Load reassembles History from the stored rows. Query failures yield an
// empty History, matching the file backend: a run must be able to start
// from nothing.
func (r *SQLiteHistoryRepository) Load(ctx context.Context) (history.History, error) {
	const query = `
		SELECT url, seq, recorded_at, category, score
		FROM measurements
		ORDER BY url, seq, category
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		r.logger.Warn("history query failed, starting empty", zap.Error(err))
		return history.History{}, nil
	}
	defer rows.Close()

	h := history.History{}
	var cur *history.Measurement
	curSeq := -1

	flush := func() {
		if cur != nil {
			h[cur.URL] = append(h[cur.URL], *cur)
			cur = nil
		}
	}

	for rows.Next() {
		var row models.ScoreRow
		var recordedAt string
		if err := rows.Scan(&row.URL, &row.Seq, &recordedAt, &row.Category, &row.Score); err != nil {
			return nil, fmt.Errorf("scan measurement row: %w", err)
		}
		ts, err := time.Parse(time.RFC3339Nano, recordedAt)
		if err != nil {
			return nil, fmt.Errorf("parse measurement timestamp %q: %w", recordedAt, err)
		}

		if cur == nil || cur.URL != row.URL || curSeq != row.Seq {
			flush()
			cur = &history.Measurement{
				URL:       row.URL,
				Timestamp: ts,
				Scores:    history.ScoreSet{},
			}
			curSeq = row.Seq
		}
		// Rows with an empty category name are markers for scoreless
		// measurements and carry no score.
		if row.Category != "" {
			cur.Scores[row.Category] = row.Score
		}
	}
	flush()

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate measurements: %w", err)
	}
	return h, nil
}

// Save replaces the stored history with h in one transaction.
func (r *SQLiteHistoryRepository) Save(ctx context.Context, h history.History) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin history save: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM measurements`); err != nil {
		return fmt.Errorf("clear measurements: %w", err)
	}

	const insert = `
		INSERT INTO measurements (url, seq, recorded_at, category, score)
		VALUES (?, ?, ?, ?, ?)
	`
	stmt, err := tx.PrepareContext(ctx, insert)
	if err != nil {
		return fmt.Errorf("prepare measurement insert: %w", err)
	}
	defer stmt.Close()

	for url, seq := range h {
		for i, m := range seq {
			ts := m.Timestamp.Format(time.RFC3339Nano)
			if len(m.Scores) == 0 {
				// A scoreless measurement keeps one marker row with an
				// empty category name; Load rebuilds it without scores.
				if _, err := stmt.ExecContext(ctx, url, i, ts, "", 0); err != nil {
					return fmt.Errorf("insert measurement row: %w", err)
				}
				continue
			}
			for category, score := range m.Scores {
				if _, err := stmt.ExecContext(ctx, url, i, ts, category, score); err != nil {
					return fmt.Errorf("insert measurement row: %w", err)
				}
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit history save: %w", err)
	}

	r.logger.Debug("history saved", zap.Int("urls", len(h)))
	return nil
}
