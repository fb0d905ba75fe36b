package errors

import (
	stderrs "errors"
	"fmt"
	"net/http"
	"testing"
)

func TestHTTPStatusCodeMapping(t *testing.T) {
	cases := []struct {
		code ErrorCode
		want int
	}{
		{ErrorCodeNotFound, http.StatusNotFound},
		{ErrorCodeInvalidArgument, http.StatusUnprocessableEntity},
		{ErrorCodeDuplicateKey, http.StatusConflict},
		{ErrorCodeConflict, http.StatusConflict},
		{ErrorCodeValidation, http.StatusBadRequest},
		{ErrorCodeJSON, http.StatusBadRequest},
		{ErrorCodeUnauthorized, http.StatusUnauthorized},
		{ErrorCodeForbidden, http.StatusForbidden},
		{ErrorCodeTooManyRequests, http.StatusTooManyRequests},
		{ErrorCodeUnavailable, http.StatusServiceUnavailable},
		{ErrorCodeBadGateway, http.StatusBadGateway},
		{ErrorCodeDB, http.StatusInternalServerError},
		{ErrorCodePanic, http.StatusInternalServerError},
		{ErrorCodeUnknown, http.StatusInternalServerError},
		{9999, http.StatusInternalServerError},
	}
	for _, c := range cases {
		if got := HTTPStatusCode(c.code); got != c.want {
			t.Fatalf("HTTPStatusCode(%v) = %d, want %d", c.code, got, c.want)
		}
	}
}

func TestErrorBasics(t *testing.T) {
	var e *Error
	if e.Error() != "<nil>" {
		t.Fatalf("nil *Error render = %q", e.Error())
	}

	src := stderrs.New("root")
	w := Wrapf(src, ErrorCodeForbidden, "nope %s", "here")
	if want := "nope here: root"; w.Error() != want {
		t.Fatalf("Wrapf().Error = %q, want %q", w.Error(), want)
	}
	if got, ok := As(w); !ok || got.Code() != ErrorCodeForbidden || got.Message() != "nope here" {
		t.Fatalf("As() mismatch")
	}
	if _, ok := As(src); ok {
		t.Fatalf("As() true for foreign error")
	}
	if stderrs.Unwrap(w) != src {
		t.Fatalf("Wrapf lost the cause")
	}

	deep := fmt.Errorf("level2: %w", fmt.Errorf("level1: %w", src))
	if got := Root(deep); got != src {
		t.Fatalf("Root() = %v", got)
	}
	if WrapIf(nil, ErrorCodeDB, "x") != nil {
		t.Fatalf("WrapIf(nil) should be nil")
	}
}

func TestMutatorsAreCopyOnWrite(t *testing.T) {
	base := New(ErrorCodeInvalidArgument, "oops")
	f := WithField(base, "owner")
	o := WithOp(f, "submit")

	if fe, _ := As(f); fe.Field() != "owner" {
		t.Fatalf("WithField lost")
	}
	if oe, _ := As(o); oe.Op() != "submit" || oe.Field() != "owner" {
		t.Fatalf("WithOp lost state")
	}
	if b, _ := As(base); b.Field() != "" || b.Op() != "" {
		t.Fatalf("original mutated")
	}

	foreign := stderrs.New("x")
	if WithField(foreign, "f") != foreign || WithData(foreign, 1) != foreign {
		t.Fatalf("foreign errors must pass through")
	}
}

func TestWithDataSurvivesWrapping(t *testing.T) {
	type conflict struct{ RepoID string }
	err := WithData(Conflictf("Indexing already in progress"), conflict{RepoID: "r1"})

	d, ok := DataOf(fmt.Errorf("outer: %w", err))
	if !ok {
		t.Fatalf("DataOf missed payload")
	}
	if c, _ := d.(conflict); c.RepoID != "r1" {
		t.Fatalf("payload = %#v", d)
	}
	if _, ok := DataOf(Conflictf("bare")); ok {
		t.Fatalf("no payload expected")
	}
	if _, ok := DataOf(nil); ok {
		t.Fatalf("nil has no payload")
	}
	if wire := WireFrom(err); wire.Message != "Indexing already in progress" || wire.Code != ErrorCodeConflict {
		t.Fatalf("wire = %+v", wire)
	}
}

func TestWireFrom(t *testing.T) {
	if wf := WireFrom(nil); wf != (Wire{}) {
		t.Fatalf("WireFrom(nil) = %+v", wf)
	}
	if wf := WireFrom(stderrs.New("boom")); wf.Code != ErrorCodeUnknown || wf.Message != "boom" {
		t.Fatalf("WireFrom(foreign) = %+v", wf)
	}
	st, wire := HTTP(BadGatewayf("Could not verify repository"))
	if st != http.StatusBadGateway || wire.Message != "Could not verify repository" {
		t.Fatalf("HTTP() = %d %+v", st, wire)
	}
	if st, _ := HTTP(nil); st != http.StatusOK {
		t.Fatalf("HTTP(nil) = %d", st)
	}
}

func TestSugarCodes(t *testing.T) {
	cases := map[ErrorCode]error{
		ErrorCodeNotFound:        NotFoundf("x"),
		ErrorCodeInvalidArgument: InvalidArgf("x"),
		ErrorCodeValidation:      Validationf("x"),
		ErrorCodeJSON:            JSONErrf("x"),
		ErrorCodeUnauthorized:    Unauthorizedf("x"),
		ErrorCodeForbidden:       Forbiddenf("x"),
		ErrorCodeConflict:        Conflictf("x"),
		ErrorCodeUnavailable:     Unavailablef("x"),
		ErrorCodeBadGateway:      BadGatewayf("x"),
		ErrorCodeTooManyRequests: TooManyRequestsf("x"),
		ErrorCodeUnknown:         Internalf("x"),
	}
	for code, err := range cases {
		if !IsCode(err, code) {
			t.Fatalf("code %v mismatch: %v", code, CodeOf(err))
		}
	}
	if !IsCode(ErrNotFound, ErrorCodeNotFound) {
		t.Fatalf("ErrNotFound code mismatch")
	}
}
