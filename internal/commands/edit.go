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
	Register(&EditCmd{})
}

// EditCmd updates a task. Only fields given as flags change; the rest
// are read from the server before the update, so an edit from a fresh
// shell doesn't blank unrelated fields.
type EditCmd struct {
	title        string
	titleSet     bool
	desc         string
	descSet      bool
	completed    bool
	completedSet bool
}

func (c *EditCmd) Name() string      { return "edit" }
func (c *EditCmd) Aliases() []string { return []string{"update"} }
func (c *EditCmd) Synopsis() string  { return "Edit a task" }
func (c *EditCmd) Usage() string {
	return "taskcli edit [--title <text>] [--desc <text>] [--completed <bool>] <id>"
}
func (c *EditCmd) NeedsAuth() bool { return true }

func (c *EditCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.Func("title", "", func(v string) error {
		c.title, c.titleSet = v, true
		return nil
	})
	fs.Func("desc", "", func(v string) error {
		c.desc, c.descSet = v, true
		return nil
	})
	fs.BoolFunc("completed", "", func(v string) error {
		switch v {
		case "true", "1":
			c.completed = true
		case "false", "0":
			c.completed = false
		default:
			return fmt.Errorf("invalid value %q for --completed", v)
		}
		c.completedSet = true
		return nil
	})
}

func (c *EditCmd) Run(ctx context.Context, cfg *config.Config, sess *session.Store, tasks *task.Store, args []string, out, errOut io.Writer) int {
	id, ok := parseTaskID(args, errOut)
	if !ok {
		return exitcode.UserError
	}
	if !c.titleSet && !c.descSet && !c.completedSet {
		fmt.Fprintln(errOut, "error: nothing to change (use --title, --desc or --completed)")
		return exitcode.UserError
	}

	// Read-before-edit: hydrate the local copy so the merged PUT
	// carries the current values of untouched fields.
	if _, known := tasks.Get(id); !known {
		t, err := tasks.FetchOne(ctx, id)
		if err != nil {
			return fail(errOut, err)
		}
		if t == nil {
			fmt.Fprintf(errOut, "error: task not found: %d\n", id)
			return exitcode.UserError
		}
		if err := tasks.FetchAll(ctx); err != nil {
			return fail(errOut, err)
		}
	}

	var fields task.Fields
	if c.titleSet {
		fields.Title = &c.title
	}
	if c.descSet {
		fields.Description = &c.desc
	}
	if c.completedSet {
		fields.Completed = &c.completed
	}

	updated, err := tasks.Update(ctx, id, fields)
	if err != nil {
		return fail(errOut, err)
	}

	if !cfg.Quiet {
		fmt.Fprintf(out, "updated task %d\n", updated.ID)
	}
	return exitcode.Success
}
