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
	Register(&HelpCmd{})
}

// HelpCmd implements the help command.
type HelpCmd struct{}

func (c *HelpCmd) Name() string      { return "help" }
func (c *HelpCmd) Aliases() []string { return nil }
func (c *HelpCmd) Synopsis() string  { return "Show help" }
func (c *HelpCmd) Usage() string     { return "taskcli help" }
func (c *HelpCmd) NeedsAuth() bool   { return false }

func (c *HelpCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *HelpCmd) Run(ctx context.Context, cfg *config.Config, sess *session.Store, tasks *task.Store, args []string, out, errOut io.Writer) int {
	fmt.Fprintln(out, "Usage: taskcli <command> [flags] [args]")
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Commands:")
	for _, cmd := range DefaultRegistry.All() {
		fmt.Fprintf(out, "  %-10s %s\n", cmd.Name(), cmd.Synopsis())
	}
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Common flags:")
	fmt.Fprintln(out, "  -config <dir>  Config directory (default: XDG config dir)")
	fmt.Fprintln(out, "  -quiet         Suppress informational output")
	fmt.Fprintln(out, "  -debug         Log API requests to stderr")
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Environment:")
	fmt.Fprintln(out, "  API_BASE_URL   Remote API endpoint (or set it in .env)")
	fmt.Fprintln(out, "  API_TIMEOUT    Request timeout (default 10s)")
	return exitcode.Success
}
