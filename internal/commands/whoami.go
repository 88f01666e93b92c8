package commands

import (
	"context"
	"flag"
	"fmt"
	"io"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"taskcli/internal/config"
	"taskcli/internal/exitcode"
	"taskcli/internal/session"
	"taskcli/internal/task"
)

func init() {
	Register(&WhoamiCmd{})
}

// WhoamiCmd prints the authenticated user. When the stored token is
// JWT-shaped its claims are shown for information only; the client
// never gates requests on them, a dead token is discovered when a
// request fails.
type WhoamiCmd struct{}

func (c *WhoamiCmd) Name() string      { return "whoami" }
func (c *WhoamiCmd) Aliases() []string { return []string{"status"} }
func (c *WhoamiCmd) Synopsis() string  { return "Show the current session" }
func (c *WhoamiCmd) Usage() string     { return "taskcli whoami [common flags]" }
func (c *WhoamiCmd) NeedsAuth() bool   { return true }

func (c *WhoamiCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *WhoamiCmd) Run(ctx context.Context, cfg *config.Config, sess *session.Store, tasks *task.Store, args []string, out, errOut io.Writer) int {
	u := sess.CurrentUser()
	fmt.Fprintf(out, "%s (id %s)\n", u.Email, u.ID)

	if cfg.Quiet {
		return exitcode.Success
	}

	tok, ok, err := sess.Token()
	if err != nil || !ok {
		return exitcode.Success
	}
	printTokenInfo(out, tok)
	return exitcode.Success
}

// printTokenInfo decodes a JWT without verifying it and prints the
// interesting claims. Opaque tokens are skipped silently.
func printTokenInfo(out io.Writer, raw string) {
	parser := jwt.NewParser()
	token, _, err := parser.ParseUnverified(raw, jwt.MapClaims{})
	if err != nil {
		return
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return
	}

	if sub, err := claims.GetSubject(); err == nil && sub != "" {
		fmt.Fprintf(out, "token subject: %s\n", sub)
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		fmt.Fprintf(out, "token expires: %s\n", exp.Format(time.RFC3339))
	}
}
