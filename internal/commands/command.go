// Package commands provides the command interface and implementations.
// Commands are the view layer: they read store snapshots, invoke store
// operations, and decide how failures are presented.
package commands

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"

	"taskcli/internal/apperr"
	"taskcli/internal/config"
	"taskcli/internal/exitcode"
	"taskcli/internal/session"
	"taskcli/internal/task"
)

// Command defines the interface for CLI commands.
type Command interface {
	// Name returns the primary command name.
	Name() string

	// Aliases returns alternative names for the command.
	Aliases() []string

	// Synopsis returns a short description for help output.
	Synopsis() string

	// Usage returns the usage string for help output.
	Usage() string

	// NeedsAuth returns true if the command requires an authenticated
	// session. Commands like help, version, login, register, logout
	// return false.
	NeedsAuth() bool

	// RegisterFlags registers command-specific flags.
	RegisterFlags(fs *flag.FlagSet)

	// Run executes the command.
	// cfg is always provided (config dir, API settings).
	// sess and tasks are the shared stores for this invocation.
	// args contains positional arguments after flag parsing.
	// Returns exit code.
	Run(ctx context.Context, cfg *config.Config, sess *session.Store, tasks *task.Store, args []string, out, errOut io.Writer) int
}

// fail prints err to errOut and maps it to an exit code.
func fail(errOut io.Writer, err error) int {
	var ae *apperr.Error
	if !errors.As(err, &ae) {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.BackendError
	}

	switch ae.Type {
	case apperr.Validation, apperr.Precondition:
		fmt.Fprintf(errOut, "error: %s\n", ae.Message)
		return exitcode.UserError
	case apperr.Config, apperr.Storage:
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.AuthError
	case apperr.HTTP:
		if ae.Status == 401 || ae.Status == 403 {
			msg := "session expired or invalid (run: taskcli login)"
			if strings.TrimSpace(ae.Body) != "" {
				msg = serverMessage(ae)
			}
			fmt.Fprintf(errOut, "error: %s\n", msg)
			return exitcode.AuthError
		}
		if ae.Status == 404 {
			fmt.Fprintln(errOut, "error: not found")
			return exitcode.UserError
		}
		fmt.Fprintf(errOut, "error: %s\n", serverMessage(ae))
		return exitcode.BackendError
	case apperr.Network:
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.BackendError
	default:
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.BackendError
	}
}

// serverMessage extracts a human-readable message from an HTTP error.
// The server's own error payload, when present, is surfaced verbatim.
func serverMessage(ae *apperr.Error) string {
	body := strings.TrimSpace(ae.Body)
	if body != "" {
		var payload struct {
			Error   string `json:"error"`
			Message string `json:"message"`
		}
		if err := json.Unmarshal([]byte(body), &payload); err == nil {
			if payload.Error != "" {
				return payload.Error
			}
			if payload.Message != "" {
				return payload.Message
			}
		}
		return body
	}
	return ae.Message
}
