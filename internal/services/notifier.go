package services

import (
	"context"
	"encoding/json"

	"github.com/campuslink/alumninet/internal/config"
	"github.com/campuslink/alumninet/pkg/logger"
	"github.com/hibiken/asynq"
)

const TaskTypeDecisionNotice = "notify:decision"

// DecisionNotice is the payload sent to a member after an admin decided
// on their membership or media submission.
type DecisionNotice struct {
	MemberID    uint   `json:"member_id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	Kind        string `json:"kind"` // member_approved, member_rejected, media_approved, media_rejected
	Subject     string `json:"subject,omitempty"`
	Reason      string `json:"reason,omitempty"`
}

// Notifier delivers decision notices. Delivery is fire-and-forget: the
// approval flow never waits on it and a delivery failure never
// propagates into a state transition.
type Notifier interface {
	Notify(notice *DecisionNotice) error
	IsAsync() bool
	Close() error
}

// NewNotifier returns a Redis-backed queue when enabled, otherwise an
// in-process notifier running deliveries on their own goroutine.
func NewNotifier(cfg *config.RedisConfig) Notifier {
	if cfg.Enabled {
		queue, err := newQueueNotifier(cfg)
		if err == nil {
			logger.Infof("[Notifier] async queue initialized at %s", cfg.Addr)
			return queue
		}
		logger.Warnf("[Notifier] Redis unavailable, falling back to in-process delivery: %v", err)
	}
	return newInlineNotifier()
}

// QueueNotifier enqueues notices on asynq for the worker to deliver.
type QueueNotifier struct {
	client *asynq.Client
}

func newQueueNotifier(cfg *config.RedisConfig) (*QueueNotifier, error) {
	redisOpt := asynq.RedisClientOpt{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	}

	client := asynq.NewClient(redisOpt)

	// Verify the connection before trusting the queue.
	inspector := asynq.NewInspector(redisOpt)
	defer inspector.Close()
	if _, err := inspector.Queues(); err != nil {
		client.Close()
		return nil, err
	}

	return &QueueNotifier{client: client}, nil
}

func (q *QueueNotifier) Notify(notice *DecisionNotice) error {
	payload, err := json.Marshal(notice)
	if err != nil {
		return err
	}

	t := asynq.NewTask(TaskTypeDecisionNotice, payload)
	info, err := q.client.Enqueue(t,
		asynq.Queue("default"),
		asynq.MaxRetry(3),
	)
	if err != nil {
		return err
	}

	logger.Infof("[Notifier] notice enqueued: id=%s kind=%s member=%d", info.ID, notice.Kind, notice.MemberID)
	return nil
}

func (q *QueueNotifier) IsAsync() bool { return true }

func (q *QueueNotifier) Close() error { return q.client.Close() }

// InlineNotifier delivers on a fresh goroutine when no queue is
// configured, keeping the caller non-blocking either way.
type InlineNotifier struct {
	deliver func(context.Context, *DecisionNotice) error
}

func newInlineNotifier() *InlineNotifier {
	return &InlineNotifier{}
}

// SetDeliverer sets the delivery function (normally Mailer.Deliver).
func (n *InlineNotifier) SetDeliverer(deliver func(context.Context, *DecisionNotice) error) {
	n.deliver = deliver
}

func (n *InlineNotifier) Notify(notice *DecisionNotice) error {
	if n.deliver == nil {
		logger.Debug().Str("kind", notice.Kind).Msg("no deliverer configured, notice dropped")
		return nil
	}

	go func() {
		if err := n.deliver(context.Background(), notice); err != nil {
			logger.Warnf("[Notifier] delivery failed: %v", err)
		}
	}()

	return nil
}

func (n *InlineNotifier) IsAsync() bool { return false }

func (n *InlineNotifier) Close() error { return nil }
