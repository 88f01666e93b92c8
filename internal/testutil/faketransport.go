// Package testutil provides testing utilities.
package testutil

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"taskcli/internal/apperr"
	"taskcli/internal/task"
)

// FakeTransport is an in-memory stand-in for the remote API behind the
// api.Transport seam. It routes on method and path and answers with
// the same shapes the real API uses, going through JSON both ways so
// payload tags are exercised.
type FakeTransport struct {
	mu     sync.RWMutex
	users  map[string]fakeUser // email -> user
	tasks  []task.Task
	nextID int

	// Error injection for testing. Injected errors short-circuit the
	// matching operation.
	LoginErr    error
	RegisterErr error
	ListErr     error
	GetErr      error
	CreateErr   error
	UpdateErr   error
	DeleteErr   error

	// Requests records "METHOD path" for every call, in order.
	Requests []string
	// Bodies records the marshaled request body for each entry in
	// Requests ("" for bodyless calls), so tests can assert on wire
	// fields the typed handlers drop.
	Bodies []string
}

type fakeUser struct {
	ID       string
	Email    string
	Password string
	Token    string
}

// NewFakeTransport creates an empty FakeTransport.
func NewFakeTransport() *FakeTransport {
	return &FakeTransport{
		users:  make(map[string]fakeUser),
		nextID: 1,
	}
}

// AddUser registers an account that can log in. The token is what the
// fake login endpoint will issue.
func (f *FakeTransport) AddUser(id, email, password, token string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users[email] = fakeUser{ID: id, Email: email, Password: password, Token: token}
}

// AddTask seeds a task server-side and returns its assigned id.
func (f *FakeTransport) AddTask(title, description string, completed bool) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := f.nextID
	f.nextID++
	f.tasks = append(f.tasks, task.Task{ID: id, Title: title, Description: description, Completed: completed})
	return id
}

// Task returns the server-side copy of a task.
func (f *FakeTransport) Task(id int) (task.Task, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	for _, t := range f.tasks {
		if t.ID == id {
			return t, true
		}
	}
	return task.Task{}, false
}

// TaskCount returns the number of server-side tasks.
func (f *FakeTransport) TaskCount() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.tasks)
}

func (f *FakeTransport) record(method, path string, body any) {
	raw := ""
	if body != nil {
		if data, err := json.Marshal(body); err == nil {
			raw = string(data)
		}
	}
	f.mu.Lock()
	f.Requests = append(f.Requests, method+" "+path)
	f.Bodies = append(f.Bodies, raw)
	f.mu.Unlock()
}

// Get implements api.Transport.
func (f *FakeTransport) Get(ctx context.Context, path string, out any) error {
	f.record("GET", path, nil)
	switch {
	case path == "/api/tasks":
		if f.ListErr != nil {
			return f.ListErr
		}
		f.mu.RLock()
		tasks := make([]task.Task, len(f.tasks))
		copy(tasks, f.tasks)
		f.mu.RUnlock()
		return reply(tasks, out)

	case strings.HasPrefix(path, "/api/tasks/"):
		if f.GetErr != nil {
			return f.GetErr
		}
		id, err := taskID(path)
		if err != nil {
			return err
		}
		t, ok := f.Task(id)
		if !ok {
			return notFound(path)
		}
		return reply(t, out)
	}
	return notFound(path)
}

// Post implements api.Transport.
func (f *FakeTransport) Post(ctx context.Context, path string, body, out any) error {
	f.record("POST", path, body)
	switch path {
	case "/api/auth/login":
		if f.LoginErr != nil {
			return f.LoginErr
		}
		var creds struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		if err := reencode(body, &creds); err != nil {
			return err
		}
		f.mu.RLock()
		u, ok := f.users[creds.Email]
		f.mu.RUnlock()
		if !ok || u.Password != creds.Password {
			return apperr.NewHTTP(401, `{"error":"invalid credentials"}`, "POST /api/auth/login: 401 Unauthorized")
		}
		return reply(map[string]any{
			"token": u.Token,
			"user":  map[string]string{"id": u.ID, "email": u.Email},
		}, out)

	case "/api/users":
		if f.RegisterErr != nil {
			return f.RegisterErr
		}
		var creds struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		if err := reencode(body, &creds); err != nil {
			return err
		}
		f.mu.Lock()
		defer f.mu.Unlock()
		if _, exists := f.users[creds.Email]; exists {
			return apperr.NewHTTP(409, `{"error":"email already registered"}`, "POST /api/users: 409 Conflict")
		}
		id := strconv.Itoa(len(f.users) + 1)
		f.users[creds.Email] = fakeUser{ID: id, Email: creds.Email, Password: creds.Password}
		return reply(map[string]string{"id": id, "email": creds.Email}, out)

	case "/api/tasks":
		if f.CreateErr != nil {
			return f.CreateErr
		}
		var in task.Task
		if err := reencode(body, &in); err != nil {
			return err
		}
		f.mu.Lock()
		in.ID = f.nextID
		f.nextID++
		f.tasks = append(f.tasks, in)
		f.mu.Unlock()
		return reply(in, out)
	}
	return notFound(path)
}

// Put implements api.Transport.
func (f *FakeTransport) Put(ctx context.Context, path string, body, out any) error {
	f.record("PUT", path, body)
	if f.UpdateErr != nil {
		return f.UpdateErr
	}
	id, err := taskID(path)
	if err != nil {
		return err
	}
	var in task.Task
	if err := reencode(body, &in); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.tasks {
		if f.tasks[i].ID == id {
			in.ID = id
			f.tasks[i] = in
			return reply(in, out)
		}
	}
	return notFound(path)
}

// Delete implements api.Transport.
func (f *FakeTransport) Delete(ctx context.Context, path string) error {
	f.record("DELETE", path, nil)
	if f.DeleteErr != nil {
		return f.DeleteErr
	}
	id, err := taskID(path)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.tasks {
		if f.tasks[i].ID == id {
			f.tasks = append(f.tasks[:i], f.tasks[i+1:]...)
			return nil
		}
	}
	return notFound(path)
}

func taskID(path string) (int, error) {
	raw := strings.TrimPrefix(path, "/api/tasks/")
	id, err := strconv.Atoi(raw)
	if err != nil {
		return 0, notFound(path)
	}
	return id, nil
}

func notFound(path string) error {
	return apperr.NewHTTP(404, "", fmt.Sprintf("%s: 404 Not Found", path))
}

// reencode round-trips a value through JSON, the same translation the
// real transport performs.
func reencode(in, out any) error {
	data, err := json.Marshal(in)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}

// reply encodes resp into out when out is non-nil.
func reply(resp, out any) error {
	if out == nil {
		return nil
	}
	return reencode(resp, out)
}
