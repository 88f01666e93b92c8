package api_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"taskcli/internal/api"
	"taskcli/internal/apperr"
	"taskcli/internal/credstore"
)

func newClient(t *testing.T, srv *httptest.Server, creds *credstore.Store) *api.Client {
	t.Helper()
	c, err := api.NewWithTokenSource(srv.URL, 5*time.Second, api.NewTokenSource(creds), false)
	if err != nil {
		t.Fatalf("NewWithTokenSource: %v", err)
	}
	return c
}

func TestBearerHeaderAttached(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	creds := credstore.New(t.TempDir())
	if err := creds.Set(credstore.KeyToken, "t1"); err != nil {
		t.Fatalf("Set: %v", err)
	}

	c := newClient(t, srv, creds)
	var out []any
	if err := c.Get(context.Background(), "/api/tasks", &out); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if gotAuth != "Bearer t1" {
		t.Errorf("expected Authorization %q, got %q", "Bearer t1", gotAuth)
	}
}

func TestNoTokenRequestsUnauthenticated(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := newClient(t, srv, credstore.New(t.TempDir()))
	if err := c.Post(context.Background(), "/api/auth/login", map[string]string{"email": "a@b.com"}, nil); err != nil {
		t.Fatalf("Post: %v", err)
	}
	if gotAuth != "" {
		t.Errorf("expected no Authorization header, got %q", gotAuth)
	}
}

func TestTokenReadPerRequest(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	creds := credstore.New(t.TempDir())
	c := newClient(t, srv, creds)

	if err := c.Get(context.Background(), "/x", nil); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if gotAuth != "" {
		t.Fatalf("expected unauthenticated first request, got %q", gotAuth)
	}

	// Token stored after the client was built is picked up on the
	// next request, no rebuild needed.
	if err := creds.Set(credstore.KeyToken, "t2"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := c.Get(context.Background(), "/x", nil); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if gotAuth != "Bearer t2" {
		t.Errorf("expected Authorization %q, got %q", "Bearer t2", gotAuth)
	}
}

func TestRequestIDHeader(t *testing.T) {
	var first, second string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if first == "" {
			first = r.Header.Get("X-Request-ID")
		} else {
			second = r.Header.Get("X-Request-ID")
		}
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := newClient(t, srv, credstore.New(t.TempDir()))
	ctx := context.Background()
	if err := c.Get(ctx, "/x", nil); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if err := c.Get(ctx, "/x", nil); err != nil {
		t.Fatalf("Get: %v", err)
	}

	if first == "" || second == "" {
		t.Fatal("expected X-Request-ID on every request")
	}
	if first == second {
		t.Error("expected a fresh request id per request")
	}
}

func TestNon2xxCarriesStatusAndBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		w.Write([]byte(`{"error":"email already registered"}`))
	}))
	defer srv.Close()

	c := newClient(t, srv, credstore.New(t.TempDir()))
	err := c.Post(context.Background(), "/api/users", map[string]string{"email": "a@b.com"}, nil)
	if err == nil {
		t.Fatal("expected error")
	}
	if !apperr.IsType(err, apperr.HTTP) {
		t.Fatalf("expected HTTP error, got %v", err)
	}
	if got := apperr.HTTPStatus(err); got != 409 {
		t.Errorf("expected status 409, got %d", got)
	}

	var ae *apperr.Error
	if !errors.As(err, &ae) {
		t.Fatal("expected *apperr.Error")
	}
	if ae.Body != `{"error":"email already registered"}` {
		t.Errorf("expected response body carried verbatim, got %q", ae.Body)
	}
}

func TestConnectionFailureIsNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // refuse connections

	c := newClient(t, srv, credstore.New(t.TempDir()))
	err := c.Get(context.Background(), "/api/tasks", nil)
	if !apperr.IsType(err, apperr.Network) {
		t.Errorf("expected Network error, got %v", err)
	}
}

func TestTimeoutIsNetworkError(t *testing.T) {
	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.Write([]byte(`[]`))
	}))
	defer slow.Close()

	c, err := api.NewWithTokenSource(slow.URL, 20*time.Millisecond, api.NewTokenSource(credstore.New(t.TempDir())), false)
	if err != nil {
		t.Fatalf("NewWithTokenSource: %v", err)
	}
	err = c.Get(context.Background(), "/api/tasks", nil)
	if !apperr.IsType(err, apperr.Network) {
		t.Errorf("expected Network error on timeout, got %v", err)
	}
	if err == nil || !strings.Contains(err.Error(), "timed out") {
		t.Errorf("expected timeout reported as such, got %v", err)
	}
}

func TestDecodesResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id":7,"title":"Buy milk","description":"","completed":false}`))
	}))
	defer srv.Close()

	c := newClient(t, srv, credstore.New(t.TempDir()))
	var out struct {
		ID    int    `json:"id"`
		Title string `json:"title"`
	}
	if err := c.Get(context.Background(), "/api/tasks/7", &out); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if out.ID != 7 || out.Title != "Buy milk" {
		t.Errorf("unexpected decode result: %+v", out)
	}
}

func TestInvalidBaseURL(t *testing.T) {
	_, err := api.NewWithTokenSource("not-a-url", time.Second, api.NewTokenSource(credstore.New(t.TempDir())), false)
	if !apperr.IsType(err, apperr.Config) {
		t.Errorf("expected Config error, got %v", err)
	}
}
