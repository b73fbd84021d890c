package mocks

import (
	"context"
	"errors"

	"github.com/godilite/lighthouse-monitor/internal/history"
)

// MockAuditor is a mock implementation of the Auditor interface for testing
// the service layer.
type MockAuditor struct {
	AuditFunc func(ctx context.Context, target string) (history.ScoreSet, error)

	// Calls records the audited URLs in order.
	Calls []string
}

// Audit implements the Auditor interface
func (m *MockAuditor) Audit(ctx context.Context, target string) (history.ScoreSet, error) {
	m.Calls = append(m.Calls, target)
	if m.AuditFunc != nil {
		return m.AuditFunc(ctx, target)
	}
	return nil, errors.New("AuditFunc not implemented")
}
