package http

import (
	"encoding/json"
	"errors"
	stdhttp "net/http"
	"sync"
)

// ErrStreamUnsupported means the writer chain cannot flush
var ErrStreamUnsupported = errors.New("http: response writer does not support streaming")

// Stream writes server-sent events as `data: <json>\n\n` frames, flushing each one
type Stream struct {
	mu sync.Mutex
	w  stdhttp.ResponseWriter
	rc *stdhttp.ResponseController
}

// NewStream sends the event-stream headers and a 200
// Call it before writing anything else to w
func NewStream(w stdhttp.ResponseWriter) (*Stream, error) {
	rc := stdhttp.NewResponseController(w)

	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	w.WriteHeader(stdhttp.StatusOK)

	if err := rc.Flush(); err != nil {
		if errors.Is(err, stdhttp.ErrNotSupported) {
			return nil, ErrStreamUnsupported
		}
		return nil, err
	}
	return &Stream{w: w, rc: rc}, nil
}

// Send marshals v into one data frame and flushes it
// An error means the client is gone or v is not serializable
func (s *Stream) Send(v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	buf := make([]byte, 0, len(b)+8)
	buf = append(buf, "data: "...)
	buf = append(buf, b...)
	buf = append(buf, '\n', '\n')
	if _, err := s.w.Write(buf); err != nil {
		return err
	}
	return s.rc.Flush()
}
