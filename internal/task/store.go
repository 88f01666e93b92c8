// Package task maintains the authenticated user's task collection and
// mediates all task mutations through the transport. Local state is
// always normalized to the server's authoritative response: an
// optimistic guess never survives a contradicting reply.
package task

import (
	"context"
	"fmt"
	"sync"

	"taskcli/internal/api"
	"taskcli/internal/apperr"
	"taskcli/internal/session"
)

// Task is a single task item. Identity is server-assigned; the client
// never invents an id.
type Task struct {
	ID          int    `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Completed   bool   `json:"completed"`
}

// Fields carries a partial update. Nil fields keep the local value;
// the merged object is always sent as a full PUT.
type Fields struct {
	Title       *string
	Description *string
	Completed   *bool
}

// payload is the create/update request body. The API scopes tasks by
// owner, so every mutation is stamped with the user's id.
type payload struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Completed   bool   `json:"completed"`
	UserID      string `json:"userId"`
}

// Store owns the task collection for the current session. It observes
// the session store and clears the collection whenever the user becomes
// absent, so a stale list from a previous session is never shown.
type Store struct {
	mu    sync.Mutex
	tasks []Task
	user  *session.User
	busy  int
	subs  map[int]func([]Task)
	next  int

	transport api.Transport
	unsub     func()
}

// New creates a Store bound to the given session. The subscription is
// taken at construction; Close releases it.
func New(sess *session.Store, transport api.Transport) *Store {
	s := &Store{
		transport: transport,
		user:      sess.CurrentUser(),
		subs:      make(map[int]func([]Task)),
	}
	s.unsub = sess.Subscribe(s.onSession)
	return s
}

// Close detaches the store from the session store.
func (s *Store) Close() {
	if s.unsub != nil {
		s.unsub()
		s.unsub = nil
	}
}

// onSession reacts to session transitions. A vanished user empties the
// collection; in-flight requests are not cancelled.
func (s *Store) onSession(u *session.User) {
	s.mu.Lock()
	s.user = u
	var notify []func([]Task)
	if u == nil {
		s.tasks = nil
		for _, fn := range s.subs {
			notify = append(notify, fn)
		}
	}
	s.mu.Unlock()
	for _, fn := range notify {
		fn(nil)
	}
}

// Tasks returns a copy of the collection in server order.
func (s *Store) Tasks() []Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Task, len(s.tasks))
	copy(out, s.tasks)
	return out
}

// Get returns the local copy of a task by id.
func (s *Store) Get(id int) (Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.tasks {
		if t.ID == id {
			return t, true
		}
	}
	return Task{}, false
}

// Loading reports whether any operation is in flight. The flag is
// shared across operations: overlapping calls show one busy indicator.
func (s *Store) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.busy > 0
}

// Subscribe registers fn to be called with a snapshot after every
// collection change. Returns an unsubscribe func.
func (s *Store) Subscribe(fn func([]Task)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.next
	s.next++
	s.subs[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, id)
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

func (s *Store) currentUser() *session.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user
}

// notifyLocked snapshots the collection and returns the subscriber
// calls to run after unlocking.
func (s *Store) notifyLocked() []func() {
	snap := make([]Task, len(s.tasks))
	copy(snap, s.tasks)
	calls := make([]func(), 0, len(s.subs))
	for _, fn := range s.subs {
		fn := fn
		calls = append(calls, func() { fn(snap) })
	}
	return calls
}

// FetchAll replaces the collection with GET /api/tasks. Without an
// authenticated user it performs no request and leaves the collection
// as-is. Safe to call repeatedly; each call replaces, never
// accumulates.
func (s *Store) FetchAll(ctx context.Context) error {
	if s.currentUser() == nil {
		return nil
	}

	s.beginOp()
	defer s.endOp()

	var tasks []Task
	if err := s.transport.Get(ctx, "/api/tasks", &tasks); err != nil {
		return err
	}

	s.mu.Lock()
	s.tasks = tasks
	calls := s.notifyLocked()
	s.mu.Unlock()
	for _, call := range calls {
		call()
	}
	return nil
}

// FetchOne reads a single task from GET /api/tasks/{id} without
// touching the collection. A 404 is a normal absent result, not an
// error.
func (s *Store) FetchOne(ctx context.Context, id int) (*Task, error) {
	s.beginOp()
	defer s.endOp()

	var t Task
	if err := s.transport.Get(ctx, fmt.Sprintf("/api/tasks/%d", id), &t); err != nil {
		if apperr.HTTPStatus(err) == 404 {
			return nil, nil
		}
		return nil, err
	}
	return &t, nil
}

// Create posts a new task and appends the server-returned record to the
// end of the collection. Requires an authenticated user; no request is
// sent without one.
func (s *Store) Create(ctx context.Context, title, description string, completed bool) (*Task, error) {
	u := s.currentUser()
	if u == nil {
		return nil, apperr.New(apperr.Precondition, "not logged in")
	}

	s.beginOp()
	defer s.endOp()

	var created Task
	err := s.transport.Post(ctx, "/api/tasks", payload{
		Title:       title,
		Description: description,
		Completed:   completed,
		UserID:      u.ID,
	}, &created)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.tasks = append(s.tasks, created)
	calls := s.notifyLocked()
	s.mu.Unlock()
	for _, call := range calls {
		call()
	}
	return &created, nil
}

// Update merges fields over the local copy and sends the full object as
// PUT /api/tasks/{id}. On success the matching entry is replaced with
// the server's record; on failure local state is unchanged and the
// error is returned for the caller to present.
func (s *Store) Update(ctx context.Context, id int, fields Fields) (*Task, error) {
	u := s.currentUser()
	if u == nil {
		return nil, apperr.New(apperr.Precondition, "not logged in")
	}

	base, _ := s.Get(id)
	merged := payload{
		Title:       base.Title,
		Description: base.Description,
		Completed:   base.Completed,
		UserID:      u.ID,
	}
	if fields.Title != nil {
		merged.Title = *fields.Title
	}
	if fields.Description != nil {
		merged.Description = *fields.Description
	}
	if fields.Completed != nil {
		merged.Completed = *fields.Completed
	}

	s.beginOp()
	defer s.endOp()

	var updated Task
	if err := s.transport.Put(ctx, fmt.Sprintf("/api/tasks/%d", id), merged, &updated); err != nil {
		return nil, err
	}

	s.mu.Lock()
	for i := range s.tasks {
		if s.tasks[i].ID == id {
			s.tasks[i] = updated
			break
		}
	}
	calls := s.notifyLocked()
	s.mu.Unlock()
	for _, call := range calls {
		call()
	}
	return &updated, nil
}

// Delete removes a task server-side, then locally. The local entry is
// removed only after the server confirms; a failed delete leaves the
// collection untouched.
func (s *Store) Delete(ctx context.Context, id int) error {
	s.beginOp()
	defer s.endOp()

	if err := s.transport.Delete(ctx, fmt.Sprintf("/api/tasks/%d", id)); err != nil {
		return err
	}

	s.mu.Lock()
	for i := range s.tasks {
		if s.tasks[i].ID == id {
			s.tasks = append(s.tasks[:i], s.tasks[i+1:]...)
			break
		}
	}
	calls := s.notifyLocked()
	s.mu.Unlock()
	for _, call := range calls {
		call()
	}
	return nil
}

// ToggleCompletion inverts the completed flag of the locally known
// task via a full PUT, leaving other fields unchanged. The task must
// already be in the collection; it is not fetched first.
func (s *Store) ToggleCompletion(ctx context.Context, id int) (*Task, error) {
	t, ok := s.Get(id)
	if !ok {
		return nil, apperr.New(apperr.Precondition,
			fmt.Sprintf("task %d not loaded; list tasks first", id))
	}
	inverted := !t.Completed
	return s.Update(ctx, id, Fields{Completed: &inverted})
}
