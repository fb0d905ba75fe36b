// Package queue hands indexing jobs to the documentation worker
//
// Two transports exist: asynq writes the task straight into the worker's redis queue,
// http posts it to the worker's /enqueue endpoint. Both return once the job is durable on the worker side.
package queue

import (
	"context"
	"time"

	perr "quickgithub/internal/platform/errors"
	"quickgithub/internal/platform/metrics"
)

// TaskTypeIndexRepo is the task type the worker's mux listens for
const TaskTypeIndexRepo = "index_repo"

// Modes
const (
	ModeAsynq = "asynq"
	ModeHTTP  = "http"
)

// Job is one indexing run handed to the worker
type Job struct {
	RepoID   string
	Owner    string
	Repo     string
	FullName string
	// AgentSDK selects the worker engine (openai, claude)
	AgentSDK string
}

// Receipt identifies the queued task on the worker side
type Receipt struct {
	TaskID string `json:"taskId"`
	Queue  string `json:"queue"`
}

// Enqueuer is implemented by both transports
type Enqueuer interface {
	Enqueue(ctx context.Context, j Job) (Receipt, error)
}

func validate(j Job) error {
	if j.RepoID == "" || j.Owner == "" || j.Repo == "" {
		return perr.InvalidArgf("repoId, owner and repo are required")
	}
	return nil
}

// observe records the handoff latency; returns err unchanged
func observe(transport string, start time.Time, err error) error {
	result := "ok"
	if err != nil {
		result = "error"
	}
	metrics.EnqueueDuration.WithLabelValues(transport, result).Observe(time.Since(start).Seconds())
	return err
}
