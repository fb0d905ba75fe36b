package queue

import (
	"context"
	"encoding/json"
	"time"

	perr "quickgithub/internal/platform/errors"
	"quickgithub/internal/platform/logger"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
)

type taskPayload struct {
	RepoID   string `json:"repo_id"`
	Owner    string `json:"owner"`
	Repo     string `json:"repo"`
	FullName string `json:"full_name"`
	AgentSDK string `json:"agent_sdk,omitempty"`
}

type taskClient interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
	Close() error
}

// Asynq enqueues straight into the worker's asynq queue
type Asynq struct {
	c       taskClient
	timeout time.Duration
	log     logger.Logger
}

// NewAsynq shares rdb with the rest of the process; Close leaves rdb open
func NewAsynq(rdb redis.UniversalClient, timeout time.Duration) *Asynq {
	return &Asynq{
		c:       asynq.NewClientFromRedisClient(rdb),
		timeout: timeout,
		log:     *logger.Named("queue"),
	}
}

// TaskOptions are the retry and retention settings of every indexing task
func TaskOptions() []asynq.Option {
	return []asynq.Option{
		asynq.Queue("default"),
		asynq.MaxRetry(5),
		asynq.Timeout(30 * time.Minute),
		asynq.Retention(24 * time.Hour),
	}
}

// Enqueue implements Enqueuer
func (a *Asynq) Enqueue(ctx context.Context, j Job) (rc Receipt, err error) {
	if err := validate(j); err != nil {
		return Receipt{}, err
	}
	start := time.Now()
	defer func() { err = observe(ModeAsynq, start, err) }()

	payload, err := json.Marshal(taskPayload(j))
	if err != nil {
		return Receipt{}, perr.Wrap(err, perr.ErrorCodeUnknown, "marshal task payload")
	}

	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	info, err := a.c.EnqueueContext(ctx, asynq.NewTask(TaskTypeIndexRepo, payload), TaskOptions()...)
	if err != nil {
		return Receipt{}, perr.Wrap(err, perr.ErrorCodeUnavailable, "asynq enqueue failed")
	}
	a.log.Info().Str("repo", j.FullName).Str("task_id", info.ID).Str("queue", info.Queue).Msg("indexing task queued")
	return Receipt{TaskID: info.ID, Queue: info.Queue}, nil
}

// Close releases the asynq client
func (a *Asynq) Close() error { return a.c.Close() }
