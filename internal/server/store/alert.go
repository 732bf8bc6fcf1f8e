package store

import (
	"context"

	"github.com/ojudge/identity/internal/logging"
)

// Alerter is the operator-facing escalation channel used when a
// compensating rollback fails and the identity and credential stores may
// disagree. Concrete channels (pager, chat, ticket) are collaborators;
// the default implementation below only logs.
type Alerter interface {
	Notify(ctx context.Context, msg string, args ...any)
}

// LogAlerter raises alerts through the structured logger with a marker
// field so downstream log routing can page on it.
type LogAlerter struct {
	logger logging.Logger
}

func NewLogAlerter(logger logging.Logger) *LogAlerter {
	return &LogAlerter{logger: logger.With("alert", true)}
}

func (a *LogAlerter) Notify(ctx context.Context, msg string, args ...any) {
	a.logger.Error(ctx, msg, args...)
}
