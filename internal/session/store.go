// Package session holds the in-memory authenticated-user state: who is
// logged in, hydrated from the credential store at startup and mutated
// by the login/register/logout flows. Consumers read snapshots and
// subscribe to transitions.
package session

import (
	"context"
	"encoding/json"
	"sync"

	"taskcli/internal/api"
	"taskcli/internal/apperr"
	"taskcli/internal/credstore"
)

// User is the authenticated principal.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// loginResponse is the POST /api/auth/login success payload.
type loginResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// Store is the session state container. A nil current user means
// unauthenticated.
type Store struct {
	mu      sync.Mutex
	user    *User
	busy    int
	subs    map[int]func(*User)
	nextSub int

	creds     *credstore.Store
	transport api.Transport
}

// New creates a Store and hydrates it from the credential store. A
// persisted user record is trusted without a server round-trip; the
// token is proven stale only when a request fails.
func New(creds *credstore.Store, transport api.Transport) (*Store, error) {
	s := &Store{
		creds:     creds,
		transport: transport,
		subs:      make(map[int]func(*User)),
	}

	raw, ok, err := creds.Get(credstore.KeyUser)
	if err != nil {
		return nil, err
	}
	if ok {
		var u User
		if err := json.Unmarshal([]byte(raw), &u); err != nil {
			return nil, apperr.Wrap(apperr.Storage, "decode stored user", err)
		}
		s.user = &u
	}
	return s, nil
}

// CurrentUser returns a copy of the authenticated user, or nil.
func (s *Store) CurrentUser() *User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

// Loading reports whether a login or register call is in flight.
func (s *Store) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.busy > 0
}

// Subscribe registers fn to be called on every session transition with
// the new user (nil on logout). Returns an unsubscribe func.
// Transitions are delivered before the triggering operation returns.
func (s *Store) Subscribe(fn func(*User)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, id)
	}
}

// setUser stores the new user and notifies subscribers. Subscribers run
// outside the lock so they can read back into the store.
func (s *Store) setUser(u *User) {
	s.mu.Lock()
	s.user = u
	fns := make([]func(*User), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		var copied *User
		if u != nil {
			c := *u
			copied = &c
		}
		fn(copied)
	}
}

func (s *Store) beginOp() {
	s.mu.Lock()
	s.busy++
	s.mu.Unlock()
}

func (s *Store) endOp() {
	s.mu.Lock()
	s.busy--
	s.mu.Unlock()
}

// Token returns the persisted session token, if any.
func (s *Store) Token() (string, bool, error) {
	return s.creds.Get(credstore.KeyToken)
}

// Login authenticates against POST /api/auth/login. On success the
// token and user are persisted and the store transitions to
// authenticated; subscribers observe the transition before Login
// returns. On failure the state is left unchanged and the error is
// returned for the caller to present.
func (s *Store) Login(ctx context.Context, email, password string) error {
	s.beginOp()
	defer s.endOp()

	var resp loginResponse
	err := s.transport.Post(ctx, "/api/auth/login", map[string]string{
		"email":    email,
		"password": password,
	}, &resp)
	if err != nil {
		return err
	}

	userJSON, err := json.Marshal(resp.User)
	if err != nil {
		return apperr.Wrap(apperr.Storage, "encode user", err)
	}
	if err := s.creds.Set(credstore.KeyToken, resp.Token); err != nil {
		return err
	}
	if err := s.creds.Set(credstore.KeyUser, string(userJSON)); err != nil {
		return err
	}

	u := resp.User
	s.setUser(&u)
	return nil
}

// Register creates an account via POST /api/users. It never mutates
// session state (no auto-login); the caller redirects to login on
// success. A server-provided error payload travels back verbatim in
// the HTTP error body.
func (s *Store) Register(ctx context.Context, email, password string) error {
	s.beginOp()
	defer s.endOp()

	return s.transport.Post(ctx, "/api/users", map[string]string{
		"email":    email,
		"password": password,
	}, nil)
}

// Logout clears the persisted token and user and transitions to
// unauthenticated. Idempotent: logging out while logged out is fine.
func (s *Store) Logout() error {
	if err := s.creds.RemoveAll(credstore.KeyToken, credstore.KeyUser); err != nil {
		return err
	}
	s.setUser(nil)
	return nil
}
