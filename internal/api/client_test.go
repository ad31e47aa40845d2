package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/yungbote/learnbridge/internal/platform/logger"
)

func testClient(t *testing.T, handler http.Handler, opts Options) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	opts.BaseURL = srv.URL
	c, err := New(opts, logger.NewNop())
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return c
}

func TestBearerHeader(t *testing.T) {
	var gotAuth string
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`{}`))
	}), Options{TokenSource: func() string { return "tok-123" }})

	var out map[string]any
	if err := c.get(context.Background(), "/me", &out); err != nil {
		t.Fatalf("get: %v", err)
	}
	if gotAuth != "Bearer tok-123" {
		t.Fatalf("Authorization = %q", gotAuth)
	}
}

func TestNoAuthHeaderWithoutToken(t *testing.T) {
	var gotAuth string
	var set bool
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth, set = r.Header.Get("Authorization"), r.Header.Get("Authorization") != ""
		w.Write([]byte(`{}`))
	}), Options{})

	var out map[string]any
	if err := c.get(context.Background(), "/courses", &out); err != nil {
		t.Fatalf("get: %v", err)
	}
	if set {
		t.Fatalf("unexpected Authorization header %q", gotAuth)
	}
}

func TestUnauthorizedHookFires(t *testing.T) {
	var hookCalls int32
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"expired token"}}`, http.StatusUnauthorized)
	}), Options{
		OnUnauthorized: func() { atomic.AddInt32(&hookCalls, 1) },
		MaxRetries:     3,
	})

	err := c.get(context.Background(), "/me", &struct{}{})
	if !IsUnauthorized(err) {
		t.Fatalf("want 401 error, got %v", err)
	}
	// 401 is final: no retries, hook runs exactly once per response.
	if n := atomic.LoadInt32(&hookCalls); n != 1 {
		t.Fatalf("hook fired %d times, want 1", n)
	}
}

func TestForbiddenIsTyped(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"not enrolled"}`, http.StatusForbidden)
	}), Options{})

	_, err := c.GetProgress(context.Background(), "go-basics")
	if !IsForbidden(err) {
		t.Fatalf("want 403 error, got %v", err)
	}
}

func TestGetRetriesServerErrors(t *testing.T) {
	var calls int32
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`[]`))
	}), Options{MaxRetries: 3})

	if _, err := c.ListCourses(context.Background()); err != nil {
		t.Fatalf("get after retries: %v", err)
	}
	if n := atomic.LoadInt32(&calls); n != 3 {
		t.Fatalf("server saw %d calls, want 3", n)
	}
}

func TestMutationsDoNotRetry(t *testing.T) {
	var calls int32
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.Error(w, "boom", http.StatusInternalServerError)
	}), Options{MaxRetries: 3})

	if err := c.CompleteLesson(context.Background(), 42); err == nil {
		t.Fatal("want error")
	}
	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Fatalf("server saw %d calls, want 1", n)
	}
}

func TestClientErrorsAreFinal(t *testing.T) {
	var calls int32
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.Error(w, `{"error":{"message":"no such course","code":"not_found"}}`, http.StatusNotFound)
	}), Options{MaxRetries: 3})

	_, err := c.GetCourse(context.Background(), "nope")
	if !IsNotFound(err) {
		t.Fatalf("want 404 error, got %v", err)
	}
	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Fatalf("server saw %d calls, want 1", n)
	}
}

func TestErrorEnvelopeParsed(t *testing.T) {
	err := parseHTTPError(http.StatusBadRequest, []byte(`{"error":{"message":"bad slug","code":"invalid"}}`))
	herr, ok := err.(*HTTPError)
	if !ok {
		t.Fatalf("want *HTTPError, got %T", err)
	}
	if herr.Message != "bad slug" || herr.Code != "invalid" {
		t.Fatalf("parsed = %+v", herr)
	}

	err = parseHTTPError(http.StatusBadGateway, []byte("<html>gateway</html>"))
	herr = err.(*HTTPError)
	if herr.StatusCode != http.StatusBadGateway || herr.Message != "" {
		t.Fatalf("plain body parse = %+v", herr)
	}
}
