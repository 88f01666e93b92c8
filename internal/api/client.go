// Package api implements the HTTP transport for the task-management
// REST API: a fixed base URL, a fixed per-request timeout, and bearer
// token injection from the credential store.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"taskcli/internal/apperr"
	"taskcli/internal/config"
	"taskcli/internal/credstore"
)

// Transport is the verb-level interface the stores depend on. A 2xx
// response is decoded into out (which may be nil); any other outcome is
// an apperr error.
type Transport interface {
	Get(ctx context.Context, path string, out any) error
	Post(ctx context.Context, path string, body, out any) error
	Put(ctx context.Context, path string, body, out any) error
	Delete(ctx context.Context, path string) error
}

// ErrNoToken is returned by the credential token source when no token
// is stored. The client treats it as "send the request unauthenticated".
var ErrNoToken = errors.New("no stored token")

// credTokenSource reads the bearer token from the credential store on
// every call, so a login or logout in the same process is picked up
// without rebuilding the client.
type credTokenSource struct {
	creds *credstore.Store
}

// NewTokenSource returns an oauth2.TokenSource backed by the credential
// store.
func NewTokenSource(creds *credstore.Store) oauth2.TokenSource {
	return &credTokenSource{creds: creds}
}

func (s *credTokenSource) Token() (*oauth2.Token, error) {
	tok, ok, err := s.creds.Get(credstore.KeyToken)
	if err != nil {
		return nil, err
	}
	if !ok || tok == "" {
		return nil, ErrNoToken
	}
	return &oauth2.Token{AccessToken: tok, TokenType: "Bearer"}, nil
}

// Client implements Transport over net/http.
type Client struct {
	base   *url.URL
	http   *http.Client
	tokens oauth2.TokenSource
	debug  *log.Logger
}

// New creates a Client from config and the credential store. The base
// URL must be configured.
func New(cfg *config.Config, creds *credstore.Store) (*Client, error) {
	base, err := cfg.RequireBaseURL()
	if err != nil {
		return nil, err
	}
	return NewWithTokenSource(base, cfg.API.Timeout, NewTokenSource(creds), cfg.Debug)
}

// NewWithTokenSource creates a Client with an explicit token source
// (used by tests against httptest servers).
func NewWithTokenSource(baseURL string, timeout time.Duration, tokens oauth2.TokenSource, debug bool) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, apperr.New(apperr.Config, "invalid API base URL: "+baseURL)
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	c := &Client{
		base:   u,
		http:   &http.Client{Timeout: timeout},
		tokens: tokens,
	}
	if debug {
		c.debug = log.New(log.Writer(), "api: ", 0)
	}
	return c, nil
}

// Get implements Transport.
func (c *Client) Get(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodGet, path, nil, out)
}

// Post implements Transport.
func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPost, path, body, out)
}

// Put implements Transport.
func (c *Client) Put(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPut, path, body, out)
}

// Delete implements Transport.
func (c *Client) Delete(ctx context.Context, path string) error {
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	u := c.base.JoinPath(path)

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return apperr.Wrap(apperr.Unknown, "encode request body", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reqBody)
	if err != nil {
		return apperr.Wrap(apperr.Unknown, "build request", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	// The token lookup completes before dispatch; without a stored
	// token the request goes out unauthenticated.
	tok, err := c.tokens.Token()
	switch {
	case err == nil:
		tok.SetAuthHeader(req)
	case errors.Is(err, ErrNoToken):
		// unauthenticated
	default:
		return err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if c.debug != nil {
			c.debug.Printf("%s %s -> %v", method, path, err)
		}
		msg := fmt.Sprintf("%s %s failed", method, path)
		var nerr net.Error
		if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &nerr) && nerr.Timeout()) {
			msg = fmt.Sprintf("%s %s timed out", method, path)
		}
		return apperr.Wrap(apperr.Network, msg, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return apperr.Wrap(apperr.Network, fmt.Sprintf("%s %s: read response", method, path), err)
	}
	if c.debug != nil {
		c.debug.Printf("%s %s -> %d (%d bytes)", method, path, resp.StatusCode, len(data))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return apperr.NewHTTP(resp.StatusCode, string(data),
			fmt.Sprintf("%s %s: %s", method, path, resp.Status))
	}

	if out != nil && len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return apperr.Wrap(apperr.Unknown, fmt.Sprintf("%s %s: decode response", method, path), err)
		}
	}
	return nil
}
