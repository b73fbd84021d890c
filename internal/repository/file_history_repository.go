package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/godilite/lighthouse-monitor/internal/history"
	"github.com/godilite/lighthouse-monitor/internal/repository/models"
)

// FileHistoryRepository persists History as a single JSON document. Saves are
// atomic: the document is written to a temp file in the same directory and
// renamed over the old one, so a reader never sees a partial write.
type FileHistoryRepository struct {
	path   string
	logger *zap.Logger
}

func NewFileHistoryRepository(path string, logger *zap.Logger) *FileHistoryRepository {
	if path == "" {
		panic("history file path must not be empty")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FileHistoryRepository{
		path:   path,
		logger: logger.Named("history-file"),
	}
}

// Load reads the history document. A missing or unreadable file yields an
// empty History, not an error: the monitor must work on a fresh checkout,
// and a corrupt file should not block the current run from measuring.
func (r *FileHistoryRepository) Load(ctx context.Context) (history.History, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(r.path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			r.logger.Warn("history file unreadable, starting empty",
				zap.String("path", r.path),
				zap.Error(err))
		}
		return history.History{}, nil
	}

	var doc models.HistoryDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		r.logger.Warn("history file malformed, starting empty",
			zap.String("path", r.path),
			zap.Error(err))
		return history.History{}, nil
	}

	return historyFromDocument(doc), nil
}

// Save writes the full history document, replacing prior state.
func (r *FileHistoryRepository) Save(ctx context.Context, h history.History) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.MarshalIndent(documentFromHistory(h), "", "  ")
	if err != nil {
		return fmt.Errorf("encode history: %w", err)
	}

	dir := filepath.Dir(r.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create history directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(r.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp history file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write history: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp history file: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("chmod history file: %w", err)
	}

	if err := os.Rename(tmpName, r.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace history file: %w", err)
	}

	r.logger.Debug("history saved",
		zap.String("path", r.path),
		zap.Int("urls", len(h)))
	return nil
}

func documentFromHistory(h history.History) models.HistoryDocument {
	doc := models.HistoryDocument{URLs: make(map[string][]models.MeasurementRecord, len(h))}
	for url, seq := range h {
		records := make([]models.MeasurementRecord, 0, len(seq))
		for _, m := range seq {
			records = append(records, models.MeasurementRecord{
				Timestamp: m.Timestamp,
				Scores:    m.Scores,
			})
		}
		doc.URLs[url] = records
	}
	return doc
}

func historyFromDocument(doc models.HistoryDocument) history.History {
	h := make(history.History, len(doc.URLs))
	for url, records := range doc.URLs {
		seq := make([]history.Measurement, 0, len(records))
		for _, rec := range records {
			scores := rec.Scores
			if scores == nil {
				scores = map[string]int{}
			}
			seq = append(seq, history.Measurement{
				URL:       url,
				Timestamp: rec.Timestamp,
				Scores:    scores,
			})
		}
		h[url] = seq
	}
	return h
}
