package commands

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strconv"

	"taskcli/internal/config"
	"taskcli/internal/exitcode"
	"taskcli/internal/output"
	"taskcli/internal/session"
	"taskcli/internal/task"
)

func init() {
	Register(&ShowCmd{})
}

// ShowCmd fetches a single task by id. A missing task is a normal
// outcome, not a backend failure.
type ShowCmd struct{}

func (c *ShowCmd) Name() string      { return "show" }
func (c *ShowCmd) Aliases() []string { return []string{"get"} }
func (c *ShowCmd) Synopsis() string  { return "Show one task" }
func (c *ShowCmd) Usage() string     { return "taskcli show <id>" }
func (c *ShowCmd) NeedsAuth() bool   { return true }

func (c *ShowCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *ShowCmd) Run(ctx context.Context, cfg *config.Config, sess *session.Store, tasks *task.Store, args []string, out, errOut io.Writer) int {
	id, ok := parseTaskID(args, errOut)
	if !ok {
		return exitcode.UserError
	}

	t, err := tasks.FetchOne(ctx, id)
	if err != nil {
		return fail(errOut, err)
	}
	if t == nil {
		fmt.Fprintf(errOut, "error: task not found: %d\n", id)
		return exitcode.UserError
	}

	output.FormatTaskDetail(out, *t)
	return exitcode.Success
}

// parseTaskID parses the single positional id argument.
func parseTaskID(args []string, errOut io.Writer) (int, bool) {
	if len(args) != 1 {
		fmt.Fprintln(errOut, "error: task id required")
		return 0, false
	}
	id, err := strconv.Atoi(args[0])
	if err != nil || id < 0 {
		fmt.Fprintf(errOut, "error: invalid task id: %s\n", args[0])
		return 0, false
	}
	return id, true
}
