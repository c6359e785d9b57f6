package notify

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/satohidetada/my-flea-app/internal/metrics"
	"github.com/satohidetada/my-flea-app/internal/models"
)

// DefaultTimeout bounds a single emission.
const DefaultTimeout = 5 * time.Second

// Notifier emits notifications after an operation has committed. Emission is
// best effort: failures are logged and counted, never returned.
type Notifier struct {
	sink    Sink
	log     logrus.FieldLogger
	timeout time.Duration
	now     func() time.Time
}

// NewNotifier creates a Notifier delivering to sink.
func NewNotifier(sink Sink, log logrus.FieldLogger) *Notifier {
	return &Notifier{sink: sink, log: log, timeout: DefaultTimeout, now: time.Now}
}

// Notify stamps and delivers each notification. The caller's cancellation is
// not propagated: a client that disconnects right after a purchase still gets
// its notifications sent.
func (n *Notifier) Notify(ctx context.Context, notes ...*models.Notification) {
	if n == nil || n.sink == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), n.timeout)
	defer cancel()

	for _, note := range notes {
		if note == nil || note.UserID.IsZero() {
			continue
		}
		note.GenIDIfEmpty()
		if note.CreatedAt.IsZero() {
			note.CreatedAt = n.now().UTC()
		}
		if err := n.sink.Deliver(ctx, note); err != nil {
			metrics.NotificationFailures.WithLabelValues(string(note.Type)).Inc()
			n.log.WithError(err).WithFields(logrus.Fields{
				"notification_id":   note.ID.String(),
				"notification_type": note.Type,
				"user_id":           note.UserID.String(),
			}).Error("Failed to deliver notification")
		}
	}
}
