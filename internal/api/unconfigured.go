package api

import "context"

// Unconfigured is a Transport that fails every call with the same
// error. It stands in when no base URL is configured so offline
// commands (logout, whoami) still get working stores, and anything
// that actually needs the network reports the configuration problem.
type Unconfigured struct {
	Err error
}

func (u Unconfigured) Get(ctx context.Context, path string, out any) error        { return u.Err }
func (u Unconfigured) Post(ctx context.Context, path string, body, out any) error { return u.Err }
func (u Unconfigured) Put(ctx context.Context, path string, body, out any) error  { return u.Err }
func (u Unconfigured) Delete(ctx context.Context, path string) error              { return u.Err }
