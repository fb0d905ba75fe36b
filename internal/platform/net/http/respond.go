// Package http is the transport layer modules mount on: a chi-backed router facade,
// the JSON envelope, return-style handlers and the server-sent events writer
package http

import (
	"encoding/json"
	stdhttp "net/http"

	perr "quickgithub/internal/platform/errors"
	pnet "quickgithub/internal/platform/net"
)

// Envelope is the body of every JSON response
type Envelope = pnet.Wire

// JSON writes v with status
func JSON(w stdhttp.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// RespondError writes the error envelope for err
func RespondError(w stdhttp.ResponseWriter, r *stdhttp.Request, err error) {
	status, body := pnet.Error(err, pnet.RequestID(r.Context()))
	JSON(w, status, body)
}

// Response is what return-style handlers produce
// A non-nil error Body wins over Status
type Response struct {
	Status int
	Body   any
	Header stdhttp.Header
}

// Handle adapts a Response-returning func to a Handler
func Handle(h func(r *stdhttp.Request) Response) Handler {
	return func(w stdhttp.ResponseWriter, r *stdhttp.Request) { h(r).write(w, r) }
}

func (resp Response) write(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	for k, vv := range resp.Header {
		for _, v := range vv {
			w.Header().Add(k, v)
		}
	}

	if err, ok := resp.Body.(error); ok && err != nil {
		RespondError(w, r, err)
		return
	}

	status := resp.Status
	if status == 0 {
		status = stdhttp.StatusOK
	}
	if status == stdhttp.StatusNoContent {
		w.WriteHeader(status)
		return
	}
	_, body := pnet.Status(status, resp.Body, pnet.RequestID(r.Context()))
	JSON(w, status, body)
}

// OK is a 200
func OK(data any) Response { return Response{Status: stdhttp.StatusOK, Body: data} }

// Accepted is a 202; work was queued, not done
func Accepted(data any) Response { return Response{Status: stdhttp.StatusAccepted, Body: data} }

// NoContent is a 204
func NoContent() Response { return Response{Status: stdhttp.StatusNoContent} }

// Error maps err to status and envelope
func Error(err error) Response {
	if err == nil {
		err = perr.Internalf("nil error response")
	}
	return Response{Body: err}
}
