package queue

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	perr "quickgithub/internal/platform/errors"
	"quickgithub/internal/platform/logger"

	"github.com/cenkalti/backoff/v5"
)

// HTTPOptions configures the HTTP transport
type HTTPOptions struct {
	// BaseURL is the worker api root, e.g. http://worker:8080
	BaseURL string
	// Timeout bounds the whole enqueue including retries
	Timeout    time.Duration
	MaxTries   uint
	RetryBase  time.Duration
	HTTPClient *http.Client
}

type enqueueRequest struct {
	RepoID   string `json:"repoId"`
	Owner    string `json:"owner"`
	Repo     string `json:"repo"`
	FullName string `json:"fullName"`
	AgentSDK string `json:"agentSdk,omitempty"`
}

// HTTP posts jobs to the worker's /enqueue endpoint
type HTTP struct {
	opts HTTPOptions
	url  string
	log  logger.Logger
}

// NewHTTP builds the transport; BaseURL is required
func NewHTTP(o HTTPOptions) *HTTP {
	if strings.TrimSpace(o.BaseURL) == "" {
		panic("queue: worker base url is required")
	}
	if o.Timeout <= 0 {
		o.Timeout = 10 * time.Second
	}
	if o.MaxTries == 0 {
		o.MaxTries = 3
	}
	if o.RetryBase <= 0 {
		o.RetryBase = 200 * time.Millisecond
	}
	if o.HTTPClient == nil {
		o.HTTPClient = &http.Client{}
	}
	return &HTTP{
		opts: o,
		url:  strings.TrimRight(o.BaseURL, "/") + "/enqueue",
		log:  *logger.Named("queue"),
	}
}

// Enqueue implements Enqueuer
func (h *HTTP) Enqueue(ctx context.Context, j Job) (rc Receipt, err error) {
	if err := validate(j); err != nil {
		return Receipt{}, err
	}
	start := time.Now()
	defer func() { err = observe(ModeHTTP, start, err) }()

	body, err := json.Marshal(enqueueRequest(j))
	if err != nil {
		return Receipt{}, perr.Wrap(err, perr.ErrorCodeUnknown, "marshal enqueue request")
	}

	ctx, cancel := context.WithTimeout(ctx, h.opts.Timeout)
	defer cancel()

	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = h.opts.RetryBase
	eb.MaxInterval = 2 * time.Second

	rc, err = backoff.Retry(ctx, func() (Receipt, error) { return h.post(ctx, body) },
		backoff.WithBackOff(eb),
		backoff.WithMaxTries(h.opts.MaxTries),
		backoff.WithNotify(func(err error, next time.Duration) {
			h.log.Warn().Err(err).Str("repo", j.FullName).Dur("retry_in", next).Msg("worker enqueue retrying")
		}),
	)
	if err != nil {
		return Receipt{}, perr.Wrap(err, perr.ErrorCodeUnavailable, "worker enqueue failed")
	}
	h.log.Info().Str("repo", j.FullName).Str("task_id", rc.TaskID).Str("queue", rc.Queue).Msg("indexing task queued")
	return rc, nil
}

// post makes one attempt; 4xx answers are permanent
func (h *HTTP) post(ctx context.Context, body []byte) (Receipt, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.url, bytes.NewReader(body))
	if err != nil {
		return Receipt{}, backoff.Permanent(err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.opts.HTTPClient.Do(req)
	if err != nil {
		return Receipt{}, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		err := fmt.Errorf("worker answered %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
		if resp.StatusCode < 500 {
			return Receipt{}, backoff.Permanent(err)
		}
		return Receipt{}, err
	}

	var out Receipt
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<16)).Decode(&out); err != nil {
		return Receipt{}, backoff.Permanent(fmt.Errorf("decode worker receipt: %w", err))
	}
	return out, nil
}
