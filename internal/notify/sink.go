package notify

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/satohidetada/my-flea-app/internal/models"
)

// Sink delivers a notification somewhere. Deliver must be safe to call more
// than once for the same notification: queued delivery retries on failure.
type Sink interface {
	Deliver(ctx context.Context, n *models.Notification) error
}

// LoggingSink only logs notifications. main adds it at debug level to trace deliveries.
type LoggingSink struct {
	log logrus.FieldLogger
}

// NewLoggingSink creates a LoggingSink.
func NewLoggingSink(log logrus.FieldLogger) *LoggingSink {
	return &LoggingSink{log: log}
}

// Deliver logs the notification.
func (s *LoggingSink) Deliver(ctx context.Context, n *models.Notification) error {
	s.log.WithFields(logrus.Fields{
		"notification_id":   n.ID.String(),
		"notification_type": n.Type,
		"user_id":           n.UserID.String(),
		"link":              n.Link,
	}).Debugf("Notification: %s", n.Title)
	return nil
}
