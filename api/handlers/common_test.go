package handlers

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"github.com/epihelix/epihelix/types"
)

func TestWriteErrorStatusMapping(t *testing.T) {
	t.Parallel()

	cases := []struct {
		code types.ErrorCode
		want int
	}{
		{types.ErrInvalidRequest, http.StatusBadRequest},
		{types.ErrNotFound, http.StatusNotFound},
		{types.ErrRetrieval, http.StatusServiceUnavailable},
		{types.ErrEmbeddingUnavailable, http.StatusServiceUnavailable},
		{types.ErrRerankUnavailable, http.StatusServiceUnavailable},
		{types.ErrGeneration, http.StatusBadGateway},
		{types.ErrTimeout, http.StatusGatewayTimeout},
		{types.ErrUpstream, http.StatusBadGateway},
		{types.ErrInternal, http.StatusInternalServerError},
	}

	for _, tc := range cases {
		rec := httptest.NewRecorder()
		WriteError(rec, types.NewError(tc.code, "boom"), zap.NewNop())
		if rec.Code != tc.want {
			t.Errorf("%s: status = %d, want %d", tc.code, rec.Code, tc.want)
		}
		envelope := decodeEnvelope(t, rec, nil)
		if envelope.Success || envelope.Error == nil || envelope.Error.Code != string(tc.code) {
			t.Errorf("%s: bad envelope %+v", tc.code, envelope)
		}
	}
}

func TestWriteErrorWrapsUnknownErrors(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	WriteError(rec, errors.New("sql: connection reset"), zap.NewNop())

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	envelope := decodeEnvelope(t, rec, nil)
	if envelope.Error.Code != "INTERNAL_ERROR" {
		t.Fatalf("code = %s", envelope.Error.Code)
	}
	// raw error text must not leak to the client
	if envelope.Error.Message != "internal error" {
		t.Fatalf("leaked message: %q", envelope.Error.Message)
	}
}

func TestWriteErrorHonorsExplicitStatus(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	WriteError(rec, types.NewError(types.ErrInvalidRequest, "nope").WithHTTPStatus(http.StatusTeapot), zap.NewNop())
	if rec.Code != http.StatusTeapot {
		t.Fatalf("status = %d, want explicit 418", rec.Code)
	}
}

func TestWriteSuccessEnvelope(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	WriteSuccess(rec, map[string]string{"hello": "world"})

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json; charset=utf-8" {
		t.Errorf("content type = %q", ct)
	}
	envelope := decodeEnvelope(t, rec, nil)
	if !envelope.Success || envelope.Timestamp.IsZero() {
		t.Fatalf("bad envelope: %+v", envelope)
	}
}
