package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	apperrors "courtbook/pkg/errors"
	"courtbook/pkg/logger"
)

func decodeRejection(t *testing.T, rec *httptest.ResponseRecorder) apperrors.ErrorResponse {
	t.Helper()
	var resp apperrors.ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return resp
}

func TestRecovery(t *testing.T) {
	handler := Recovery(logger.Discard())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	if got := decodeRejection(t, rec).Code; got != apperrors.CodeInternal {
		t.Errorf("code = %s, want %s", got, apperrors.CodeInternal)
	}
}

func TestRequestLogging_RequestID(t *testing.T) {
	var seen string
	handler := RequestLogging(logger.Discard())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestID(r.Context())
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if seen == "" || rec.Header().Get(RequestIDHeader) != seen {
		t.Errorf("generated id %q, header %q", seen, rec.Header().Get(RequestIDHeader))
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "abc")
	handler.ServeHTTP(httptest.NewRecorder(), req)
	if seen != "abc" {
		t.Errorf("request id = %q, want the caller's abc", seen)
	}

	if got := RequestID(context.Background()); got != "" {
		t.Errorf("RequestID(empty ctx) = %q", got)
	}
}

func TestContentTypeValidation(t *testing.T) {
	tests := []struct {
		name        string
		method      string
		body        string
		contentType string
		wantStatus  int
	}{
		{name: "json body", method: http.MethodPost, body: "{}", contentType: "application/json", wantStatus: http.StatusOK},
		{name: "json with charset", method: http.MethodPatch, body: "{}", contentType: "application/json; charset=utf-8", wantStatus: http.StatusOK},
		{name: "text body", method: http.MethodPost, body: "{}", contentType: "text/plain", wantStatus: http.StatusUnsupportedMediaType},
		{name: "missing header", method: http.MethodPut, body: "{}", wantStatus: http.StatusUnsupportedMediaType},
		{name: "bodiless action", method: http.MethodPost, wantStatus: http.StatusOK},
		{name: "read", method: http.MethodGet, contentType: "text/plain", wantStatus: http.StatusOK},
	}

	handler := ContentTypeValidation(logger.Discard())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/api/v1/bookings", strings.NewReader(tt.body))
			if tt.contentType != "" {
				req.Header.Set("Content-Type", tt.contentType)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}
}

func TestMaxRequestSize(t *testing.T) {
	var readErr error
	handler := MaxRequestSize(8)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var v map[string]any
		readErr = json.NewDecoder(r.Body).Decode(&v)
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"notes":"far too long"}`)))
	if readErr == nil {
		t.Error("oversized body was read without error")
	}
}

func TestRequestTimeout(t *testing.T) {
	release := make(chan struct{})
	defer close(release)

	slow := RequestTimeout(20 * time.Millisecond)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-release:
		}
		w.WriteHeader(http.StatusCreated)
	}))

	rec := httptest.NewRecorder()
	slow.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
	if got := decodeRejection(t, rec).Code; got != apperrors.CodeUnavailable {
		t.Errorf("code = %s, want %s", got, apperrors.CodeUnavailable)
	}

	fast := RequestTimeout(time.Second)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))
	rec = httptest.NewRecorder()
	fast.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusCreated {
		t.Errorf("status = %d, want 201", rec.Code)
	}
}

func TestUserRateLimiter_SlidingWindow(t *testing.T) {
	limiter := NewUserRateLimiter(2, time.Minute, nil, logger.Discard())
	defer limiter.Stop()

	clock := time.Date(2026, 10, 20, 9, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return clock }

	if !limiter.Allow("user:1") || !limiter.Allow("user:1") {
		t.Fatal("first two requests rejected")
	}
	if limiter.Allow("user:1") {
		t.Error("third request in window allowed")
	}
	if !limiter.Allow("user:2") {
		t.Error("other user shares the budget")
	}
	if !limiter.Allow("") {
		t.Error("empty key must never be limited")
	}

	clock = clock.Add(time.Minute)
	if !limiter.Allow("user:1") {
		t.Error("request after the window rejected")
	}
}

func TestUserRateLimit_SkipsReads(t *testing.T) {
	limiter := NewUserRateLimiter(1, time.Minute, DefaultUserExtractor, logger.Discard())
	defer limiter.Stop()

	handler := UserRateLimit(limiter)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	serve := func(method string) int {
		req := httptest.NewRequest(method, "/api/v1/bookings", nil)
		req.Header.Set(UserIDHeader, "7")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}

	if got := serve(http.MethodPost); got != http.StatusOK {
		t.Fatalf("first write status = %d", got)
	}
	if got := serve(http.MethodPost); got != http.StatusTooManyRequests {
		t.Errorf("second write status = %d, want 429", got)
	}
	for range 3 {
		if got := serve(http.MethodGet); got != http.StatusOK {
			t.Errorf("read status = %d, want 200", got)
		}
	}
}

func TestDefaultUserExtractor(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.RemoteAddr = "10.0.0.1:5000"
	if got := DefaultUserExtractor(req); got != "addr:10.0.0.1:5000" {
		t.Errorf("without header = %q", got)
	}
	req.Header.Set(UserIDHeader, "42")
	if got := DefaultUserExtractor(req); got != "user:42" {
		t.Errorf("with header = %q", got)
	}
}

func TestIdempotency(t *testing.T) {
	store := NewInMemoryIdempotencyStore(time.Hour)
	defer store.Stop()

	var calls atomic.Int32
	handler := Idempotency(store, logger.Discard())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := calls.Add(1)
		if r.URL.Path == "/fail" {
			w.WriteHeader(http.StatusConflict)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]int32{"call": n})
	}))

	serve := func(method, path, key string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, nil)
		if key != "" {
			req.Header.Set(IdempotencyHeader, key)
		}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	first := serve(http.MethodPost, "/api/v1/bookings", "k1")
	replay := serve(http.MethodPost, "/api/v1/bookings", "k1")
	if calls.Load() != 1 {
		t.Fatalf("handler ran %d times, want 1", calls.Load())
	}
	if replay.Code != http.StatusCreated || replay.Body.String() != first.Body.String() {
		t.Errorf("replay = %d %q, want %d %q", replay.Code, replay.Body.String(), first.Code, first.Body.String())
	}
	if replay.Header().Get("Idempotent-Replay") != "true" {
		t.Error("replay is not marked")
	}

	serve(http.MethodPost, "/api/v1/bookings/1/cancel", "k1")
	if calls.Load() != 2 {
		t.Error("same key on another path was replayed")
	}

	serve(http.MethodPost, "/api/v1/bookings", "")
	serve(http.MethodPatch, "/api/v1/bookings", "k1")
	if calls.Load() != 4 {
		t.Errorf("handler ran %d times, want 4", calls.Load())
	}

	serve(http.MethodPost, "/fail", "k2")
	serve(http.MethodPost, "/fail", "k2")
	if calls.Load() != 6 {
		t.Error("failed response was cached")
	}
}

func TestInMemoryIdempotencyStore_Expiry(t *testing.T) {
	store := NewInMemoryIdempotencyStore(time.Minute)
	defer store.Stop()

	clock := time.Date(2026, 10, 20, 9, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return clock }

	ctx := context.Background()
	if err := store.Set(ctx, "k", &CachedResponse{StatusCode: http.StatusCreated}); err != nil {
		t.Fatalf("Set() failed: %v", err)
	}
	if _, found, _ := store.Get(ctx, "k"); !found {
		t.Fatal("fresh entry not found")
	}

	clock = clock.Add(2 * time.Minute)
	if _, found, _ := store.Get(ctx, "k"); found {
		t.Error("expired entry still served")
	}
}
