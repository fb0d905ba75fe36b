package net

import (
	"net/http"

	perr "quickgithub/internal/platform/errors"
)

// Wire is the envelope transports write
type Wire struct {
	StatusCode int            `json:"status_code"`
	Status     string         `json:"status"`
	Code       perr.ErrorCode `json:"code,omitempty"`
	Error      string         `json:"error,omitempty"`
	RequestID  string         `json:"request_id,omitempty"`
	Data       any            `json:"data,omitempty"`
}

// HTTPStatus maps an error to a status; nil is 200
func HTTPStatus(err error) int {
	if err == nil {
		return http.StatusOK
	}
	return perr.HTTPStatus(err)
}

// OK builds a 200 envelope
func OK(data any, reqID string) (int, Wire) { return Status(http.StatusOK, data, reqID) }

// Accepted builds a 202 envelope
func Accepted(data any, reqID string) (int, Wire) { return Status(http.StatusAccepted, data, reqID) }

// Status builds a success envelope with an explicit status
func Status(status int, data any, reqID string) (int, Wire) {
	return status, Wire{
		StatusCode: status,
		Status:     http.StatusText(status),
		RequestID:  reqID,
		Data:       data,
	}
}

// Error builds an error envelope
// A payload attached with perr.WithData travels in Data so clients can act on it (e.g. a statusUrl on 409)
func Error(err error, reqID string) (int, Wire) {
	if err == nil {
		return OK(nil, reqID)
	}
	status := perr.HTTPStatus(err)
	w := perr.WireFrom(err)
	out := Wire{
		StatusCode: status,
		Status:     http.StatusText(status),
		Code:       w.Code,
		Error:      w.Message,
		RequestID:  reqID,
	}
	if d, ok := perr.DataOf(err); ok {
		out.Data = d
	}
	return status, out
}
