package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"taskcli/internal/config"
	"taskcli/internal/exitcode"
	"taskcli/internal/session"
	"taskcli/internal/task"
)

func init() {
	Register(&DoneCmd{})
}

// DoneCmd toggles a task's completion. The inversion is of the last
// known server state, so the collection is refreshed first.
type DoneCmd struct{}

func (c *DoneCmd) Name() string      { return "done" }
func (c *DoneCmd) Aliases() []string { return []string{"toggle"} }
func (c *DoneCmd) Synopsis() string  { return "Toggle a task's completion" }
func (c *DoneCmd) Usage() string     { return "taskcli done <id>" }
func (c *DoneCmd) NeedsAuth() bool   { return true }

func (c *DoneCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *DoneCmd) Run(ctx context.Context, cfg *config.Config, sess *session.Store, tasks *task.Store, args []string, out, errOut io.Writer) int {
	id, ok := parseTaskID(args, errOut)
	if !ok {
		return exitcode.UserError
	}

	if _, known := tasks.Get(id); !known {
		if err := tasks.FetchAll(ctx); err != nil {
			return fail(errOut, err)
		}
	}

	updated, err := tasks.ToggleCompletion(ctx, id)
	if err != nil {
		return fail(errOut, err)
	}

	if !cfg.Quiet {
		state := "open"
		if updated.Completed {
			state = "done"
		}
		fmt.Fprintf(out, "task %d is %s\n", updated.ID, state)
	}
	return exitcode.Success
}
