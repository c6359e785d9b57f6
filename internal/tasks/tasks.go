package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/satohidetada/my-flea-app/internal/models"
	"github.com/satohidetada/my-flea-app/internal/notify"
)

// TaskType defines the type of a background task.
const (
	TypeNotificationDeliver = "notification:deliver"
)

// Queue names and their priorities.
const (
	QueueCritical = "critical"
	QueueDefault  = "default"
)

// DefaultMaxRetry is how often a failed delivery is retried before it is archived.
const DefaultMaxRetry = 10

// --- Task Client (Enqueuing tasks) ---

// IAsynqClient is the part of *asynq.Client the queue sink needs.
type IAsynqClient interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// RedisOpt converts a go-redis client's connection settings for asynq.
func RedisOpt(rdb *redis.Client) asynq.RedisClientOpt {
	opts := rdb.Options()
	return asynq.RedisClientOpt{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	}
}

// NewClient creates an asynq client sharing rdb's connection settings.
func NewClient(rdb *redis.Client) *asynq.Client {
	return asynq.NewClient(RedisOpt(rdb))
}

// NotificationTaskPayload is the payload of TypeNotificationDeliver.
type NotificationTaskPayload struct {
	Notification models.Notification `json:"notification"`
}

// NewNotificationDeliverTask builds a delivery task. The notification id doubles
// as the task id so the same notification is never queued twice.
func NewNotificationDeliverTask(n *models.Notification) (*asynq.Task, error) {
	payload, err := json.Marshal(NotificationTaskPayload{Notification: *n})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal notification task payload: %w", err)
	}
	return asynq.NewTask(TypeNotificationDeliver, payload,
		asynq.TaskID("notification:"+n.ID.String()),
		asynq.Queue(QueueCritical),
		asynq.MaxRetry(DefaultMaxRetry),
		asynq.Timeout(30*time.Second),
	), nil
}

// QueueSink is a notify.Sink that hands notifications to the background worker.
type QueueSink struct {
	client IAsynqClient
}

// NewQueueSink creates a QueueSink.
func NewQueueSink(client IAsynqClient) *QueueSink {
	return &QueueSink{client: client}
}

// Deliver enqueues the notification. A notification already in the queue
// counts as delivered.
func (s *QueueSink) Deliver(ctx context.Context, n *models.Notification) error {
	task, err := NewNotificationDeliverTask(n)
	if err != nil {
		return err
	}
	if _, err := s.client.EnqueueContext(ctx, task); err != nil {
		if errors.Is(err, asynq.ErrTaskIDConflict) || errors.Is(err, asynq.ErrDuplicateTask) {
			return nil
		}
		return fmt.Errorf("failed to enqueue notification %s: %w", n.ID.String(), err)
	}
	return nil
}

// --- Task Server (Processing tasks) ---

// TaskProcessor handles the processing of tasks.
type TaskProcessor struct {
	sink notify.Sink
	log  logrus.FieldLogger
}

// NewTaskProcessor creates a TaskProcessor delivering to sink.
func NewTaskProcessor(sink notify.Sink, log logrus.FieldLogger) *TaskProcessor {
	return &TaskProcessor{sink: sink, log: log}
}

// SetupServer configures an asynq server and its handlers. The caller starts
// it with srv.Start(mux) and stops it with srv.Shutdown().
func SetupServer(rdb *redis.Client, processor *TaskProcessor, log logrus.FieldLogger) (*asynq.Server, *asynq.ServeMux) {
	srv := asynq.NewServer(
		RedisOpt(rdb),
		asynq.Config{
			Queues: map[string]int{
				QueueCritical: 6,
				QueueDefault:  3,
			},
			Logger:   log.WithField("component", "asynq"),
			LogLevel: asynq.WarnLevel,
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				retried, _ := asynq.GetRetryCount(ctx)
				maxRetry, _ := asynq.GetMaxRetry(ctx)
				log.WithError(err).WithFields(logrus.Fields{
					"task_type": task.Type(),
					"retry":     retried,
					"max_retry": maxRetry,
				}).Warn("Task failed")
			}),
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeNotificationDeliver, processor.HandleNotificationDeliverTask)
	log.Info("Registered background task handlers")
	return srv, mux
}

// --- Task Handlers ---

// HandleNotificationDeliverTask delivers a queued notification to the sink.
// Sink errors are returned so asynq retries; malformed payloads are dropped.
func (p *TaskProcessor) HandleNotificationDeliverTask(ctx context.Context, t *asynq.Task) error {
	var payload NotificationTaskPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal notification task payload: %v: %w", err, asynq.SkipRetry)
	}
	n := &payload.Notification
	if n.ID.IsZero() || n.UserID.IsZero() {
		return fmt.Errorf("notification task without id or recipient: %w", asynq.SkipRetry)
	}

	entry := p.log.WithFields(logrus.Fields{
		"notification_id":   n.ID.String(),
		"notification_type": n.Type,
		"user_id":           n.UserID.String(),
	})
	if err := p.sink.Deliver(ctx, n); err != nil {
		entry.WithError(err).Warn("Notification delivery failed")
		return err
	}
	entry.Debug("Notification delivered")
	return nil
}
