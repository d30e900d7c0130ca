package services

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/campuslink/alumninet/internal/config"
	"github.com/campuslink/alumninet/pkg/logger"
	"github.com/hibiken/asynq"
)

// NoticeWorker consumes decision notices from the Redis queue and hands
// them to the mailer.
type NoticeWorker struct {
	server  *asynq.Server
	mux     *asynq.ServeMux
	deliver func(context.Context, *DecisionNotice) error
	wg      sync.WaitGroup
	running bool
	mu      sync.Mutex
}

func NewNoticeWorker(cfg *config.RedisConfig) *NoticeWorker {
	if !cfg.Enabled {
		return nil
	}

	redisOpt := asynq.RedisClientOpt{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	}

	server := asynq.NewServer(
		redisOpt,
		asynq.Config{
			Concurrency: 5,
			Queues: map[string]int{
				"default": 1,
			},
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				logger.Warnf("[NoticeWorker] error processing task %s: %v", task.Type(), err)
			}),
		},
	)

	return &NoticeWorker{
		server: server,
		mux:    asynq.NewServeMux(),
	}
}

// SetDeliverer sets the delivery function invoked per notice.
func (w *NoticeWorker) SetDeliverer(deliver func(context.Context, *DecisionNotice) error) {
	w.deliver = deliver
}

func (w *NoticeWorker) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return nil
	}

	w.mux.HandleFunc(TaskTypeDecisionNotice, w.handleNotice)

	w.running = true
	w.wg.Add(1)

	go func() {
		defer w.wg.Done()
		logger.Infof("[NoticeWorker] starting")
		if err := w.server.Run(w.mux); err != nil {
			logger.Errorf("[NoticeWorker] server error: %v", err)
		}
	}()

	return nil
}

func (w *NoticeWorker) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.running {
		return
	}

	w.server.Shutdown()
	w.running = false
	w.wg.Wait()
	logger.Infof("[NoticeWorker] shutdown complete")
}

func (w *NoticeWorker) handleNotice(ctx context.Context, t *asynq.Task) error {
	var notice DecisionNotice
	if err := json.Unmarshal(t.Payload(), &notice); err != nil {
		logger.Warnf("[NoticeWorker] bad payload: %v", err)
		return err
	}

	if w.deliver == nil {
		logger.Warnf("[NoticeWorker] no deliverer set, dropping notice for member %d", notice.MemberID)
		return nil
	}

	return w.deliver(ctx, &notice)
}
