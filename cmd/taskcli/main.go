// Package main is the entry point for the taskcli CLI.
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"taskcli/internal/api"
	"taskcli/internal/apperr"
	"taskcli/internal/cli"
	"taskcli/internal/commands"
	"taskcli/internal/config"
	"taskcli/internal/credstore"
	"taskcli/internal/session"
	"taskcli/internal/task"

	// Import all command packages to register them via init()
	_ "taskcli/internal/commands"
)

func main() {
	// Create context that cancels on interrupt
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		cancel()
	}()

	dispatcher := cli.NewDispatcher(commands.DefaultRegistry, buildStores)

	code := dispatcher.Run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	os.Exit(code)
}

// buildStores wires the production stores: file-backed credentials in
// the config dir, the HTTP transport over them, the session store
// hydrated from disk, and the task store subscribed to the session.
// A missing API_BASE_URL is deferred: offline commands still work and
// network calls report the configuration error.
func buildStores(ctx context.Context, cfg *config.Config) (*session.Store, *task.Store, error) {
	creds := credstore.New(cfg.Dir)

	var transport api.Transport
	client, err := api.New(cfg, creds)
	switch {
	case err == nil:
		transport = client
	case isConfigErr(err):
		transport = api.Unconfigured{Err: err}
	default:
		return nil, nil, err
	}

	sess, err := session.New(creds, transport)
	if err != nil {
		return nil, nil, err
	}
	return sess, task.New(sess, transport), nil
}

func isConfigErr(err error) bool {
	var ae *apperr.Error
	return errors.As(err, &ae) && ae.Type == apperr.Config
}
