package mocks

import (
	"context"

	"github.com/godilite/lighthouse-monitor/internal/history"
)

// MockHistoryRepository is a mock implementation of the HistoryRepository
// interface for testing the service layer. The zero value behaves like an
// empty, writable store: Load yields an empty History and Save succeeds.
type MockHistoryRepository struct {
	LoadFunc func(ctx context.Context) (history.History, error)
	SaveFunc func(ctx context.Context, h history.History) error

	// Saved holds the last history passed to Save.
	Saved history.History
	// SaveCalls counts Save invocations.
	SaveCalls int
}

// Load implements the HistoryRepository interface
func (m *MockHistoryRepository) Load(ctx context.Context) (history.History, error) {
	if m.LoadFunc != nil {
		return m.LoadFunc(ctx)
	}
	return history.History{}, nil
}

// Save implements the HistoryRepository interface
func (m *MockHistoryRepository) Save(ctx context.Context, h history.History) error {
	m.Saved = h
	m.SaveCalls++
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, h)
	}
	return nil
}
