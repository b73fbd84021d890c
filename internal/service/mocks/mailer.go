package mocks

import (
	"context"

	"github.com/godilite/lighthouse-monitor/internal/notify"
)

// MockMailer is a mock implementation of the Mailer interface for testing
// the service layer. The zero value reports itself configured and accepts
// every send.
type MockMailer struct {
	ConfiguredFunc func() bool
	SendFunc       func(ctx context.Context, email notify.Email) error

	// Sent holds every email passed to Send, in order.
	Sent []notify.Email
}

// Configured implements the Mailer interface
func (m *MockMailer) Configured() bool {
	if m.ConfiguredFunc != nil {
		return m.ConfiguredFunc()
	}
	return true
}

// Send implements the Mailer interface
func (m *MockMailer) Send(ctx context.Context, email notify.Email) error {
	m.Sent = append(m.Sent, email)
	if m.SendFunc != nil {
		return m.SendFunc(ctx, email)
	}
	return nil
}
