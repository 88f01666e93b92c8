package session_test

import (
	"context"
	"testing"

	"taskcli/internal/apperr"
	"taskcli/internal/credstore"
	"taskcli/internal/session"
	"taskcli/internal/testutil"
)

func newStore(t *testing.T, ft *testutil.FakeTransport) (*session.Store, *credstore.Store) {
	t.Helper()
	creds := credstore.New(t.TempDir())
	s, err := session.New(creds, ft)
	if err != nil {
		t.Fatalf("session.New: %v", err)
	}
	return s, creds
}

func TestHydrateUnauthenticated(t *testing.T) {
	s, _ := newStore(t, testutil.NewFakeTransport())
	if s.CurrentUser() != nil {
		t.Error("expected no user on empty credential store")
	}
}

func TestHydrateFromPersistedUser(t *testing.T) {
	creds := credstore.New(t.TempDir())
	if err := creds.Set(credstore.KeyToken, "t1"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := creds.Set(credstore.KeyUser, `{"id":"42","email":"a@b.com"}`); err != nil {
		t.Fatalf("Set: %v", err)
	}

	ft := testutil.NewFakeTransport()
	s, err := session.New(creds, ft)
	if err != nil {
		t.Fatalf("session.New: %v", err)
	}

	u := s.CurrentUser()
	if u == nil {
		t.Fatal("expected hydrated user")
	}
	if u.ID != "42" || u.Email != "a@b.com" {
		t.Errorf("unexpected user: %+v", u)
	}
	// Hydration trusts the stored record: no server round-trip.
	if len(ft.Requests) != 0 {
		t.Errorf("expected no requests during hydration, got %v", ft.Requests)
	}
}

func TestLoginSuccess(t *testing.T) {
	ft := testutil.NewFakeTransport()
	ft.AddUser("42", "a@b.com", "x", "t1")
	s, creds := newStore(t, ft)

	if err := s.Login(context.Background(), "a@b.com", "x"); err != nil {
		t.Fatalf("Login: %v", err)
	}

	u := s.CurrentUser()
	if u == nil || u.ID != "42" || u.Email != "a@b.com" {
		t.Errorf("unexpected user after login: %+v", u)
	}

	tok, ok, err := creds.Get(credstore.KeyToken)
	if err != nil || !ok {
		t.Fatalf("expected persisted token, ok=%v err=%v", ok, err)
	}
	if tok != "t1" {
		t.Errorf("expected token %q, got %q", "t1", tok)
	}
	if !creds.Has(credstore.KeyUser) {
		t.Error("expected persisted user record")
	}
}

func TestLoginFailureLeavesStateUnchanged(t *testing.T) {
	ft := testutil.NewFakeTransport()
	ft.AddUser("42", "a@b.com", "x", "t1")
	s, creds := newStore(t, ft)

	err := s.Login(context.Background(), "a@b.com", "wrong")
	if err == nil {
		t.Fatal("expected login failure")
	}
	if apperr.HTTPStatus(err) != 401 {
		t.Errorf("expected 401, got %v", err)
	}
	if s.CurrentUser() != nil {
		t.Error("expected unauthenticated state after failed login")
	}
	if creds.Has(credstore.KeyToken) || creds.Has(credstore.KeyUser) {
		t.Error("expected nothing persisted after failed login")
	}
}

func TestLoginNotifiesBeforeReturn(t *testing.T) {
	ft := testutil.NewFakeTransport()
	ft.AddUser("42", "a@b.com", "x", "t1")
	s, _ := newStore(t, ft)

	var seen *session.User
	s.Subscribe(func(u *session.User) { seen = u })

	if err := s.Login(context.Background(), "a@b.com", "x"); err != nil {
		t.Fatalf("Login: %v", err)
	}
	if seen == nil || seen.ID != "42" {
		t.Errorf("subscriber must observe the transition before Login returns, saw %+v", seen)
	}
}

func TestRegisterDoesNotLogIn(t *testing.T) {
	ft := testutil.NewFakeTransport()
	s, creds := newStore(t, ft)

	if err := s.Register(context.Background(), "new@b.com", "pw"); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if s.CurrentUser() != nil {
		t.Error("register must not authenticate")
	}
	if creds.Has(credstore.KeyToken) {
		t.Error("register must not persist a token")
	}
}

func TestRegisterSurfacesServerError(t *testing.T) {
	ft := testutil.NewFakeTransport()
	ft.AddUser("1", "taken@b.com", "pw", "t")
	s, _ := newStore(t, ft)

	err := s.Register(context.Background(), "taken@b.com", "pw")
	if err == nil {
		t.Fatal("expected conflict")
	}
	if apperr.HTTPStatus(err) != 409 {
		t.Errorf("expected 409, got %v", err)
	}
}

func TestLogoutClearsEverything(t *testing.T) {
	ft := testutil.NewFakeTransport()
	ft.AddUser("42", "a@b.com", "x", "t1")
	s, creds := newStore(t, ft)

	if err := s.Login(context.Background(), "a@b.com", "x"); err != nil {
		t.Fatalf("Login: %v", err)
	}

	var notified bool
	var last *session.User
	s.Subscribe(func(u *session.User) {
		notified = true
		last = u
	})

	if err := s.Logout(); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if s.CurrentUser() != nil {
		t.Error("expected unauthenticated after logout")
	}
	if creds.Has(credstore.KeyToken) || creds.Has(credstore.KeyUser) {
		t.Error("expected credentials removed")
	}
	if !notified || last != nil {
		t.Errorf("expected subscribers notified with nil user, notified=%v last=%+v", notified, last)
	}
}

func TestLogoutIdempotent(t *testing.T) {
	s, _ := newStore(t, testutil.NewFakeTransport())

	if err := s.Logout(); err != nil {
		t.Fatalf("logout while logged out: %v", err)
	}
	if err := s.Logout(); err != nil {
		t.Fatalf("second logout: %v", err)
	}
}

func TestUnsubscribe(t *testing.T) {
	ft := testutil.NewFakeTransport()
	ft.AddUser("42", "a@b.com", "x", "t1")
	s, _ := newStore(t, ft)

	calls := 0
	unsub := s.Subscribe(func(*session.User) { calls++ })
	unsub()

	if err := s.Login(context.Background(), "a@b.com", "x"); err != nil {
		t.Fatalf("Login: %v", err)
	}
	if calls != 0 {
		t.Errorf("expected no calls after unsubscribe, got %d", calls)
	}
}

func TestCurrentUserReturnsCopy(t *testing.T) {
	ft := testutil.NewFakeTransport()
	ft.AddUser("42", "a@b.com", "x", "t1")
	s, _ := newStore(t, ft)

	if err := s.Login(context.Background(), "a@b.com", "x"); err != nil {
		t.Fatalf("Login: %v", err)
	}

	u := s.CurrentUser()
	u.Email = "mutated@b.com"
	if s.CurrentUser().Email != "a@b.com" {
		t.Error("snapshot mutation must not leak into the store")
	}
}
