package notify

import (
	"context"

	"github.com/dtroode/securemail-server/internal/logger"
	"github.com/dtroode/securemail-server/internal/model"
)

var _ model.Notifier = (*Log)(nil)

// Log writes notifications to the application log. Meant for local development.
type Log struct {
	logger *logger.Logger
}

// NewLog creates a Log notifier.
func NewLog(logger *logger.Logger) *Log {
	return &Log{logger: logger}
}

func (l *Log) Notify(ctx context.Context, to, subject, body string) error {
	l.logger.InfoContext(ctx, "Notification",
		"to", to,
		"subject", subject,
		"body", body)
	return nil
}
