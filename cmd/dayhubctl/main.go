package main

import (
	"context"
	"log"
	"log/slog"
	"os"

	"github.com/dayhubapp/dayhub/internal/admincli"
	"github.com/dayhubapp/dayhub/internal/authgate"
	"github.com/dayhubapp/dayhub/internal/authn"
	"github.com/dayhubapp/dayhub/internal/directory"
	"github.com/dayhubapp/dayhub/internal/docstore/postgres"
	"github.com/dayhubapp/dayhub/internal/flagx"
	"github.com/dayhubapp/dayhub/internal/logging"
	"github.com/dayhubapp/dayhub/internal/portal/config"
)

func main() {

	ctx := context.Background()
	cfg := config.LoadConfig()

	remote, err := postgres.Open(ctx, cfg.RemoteDSN)
	if err != nil {
		log.Fatalf("remote store: %v", err)
	}
	defer remote.Close()

	logger := logging.NewSlogLogger(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	// The CLI runs as the configured administrator identity; the gate
	// still checks it on every call.
	auth := authn.NewStatic(&authn.Identity{ID: "admin", Email: cfg.AdminEmail})
	gate := authgate.NewGate(remote, cfg.AdminEmail, logger)
	dir := directory.NewService(remote, auth, gate, logger)

	app := admincli.NewApp(dir, os.Stdout)

	// Strip config/connection flags already consumed by LoadConfig.
	args := commandArgs(os.Args[1:])

	if err := app.Run(ctx, args); err != nil {
		log.Fatalf("%v", err)
	}
}

// commandArgs removes the global flags (-c/-config, -d, -l, -e) so the
// remainder can be dispatched as a subcommand line.
func commandArgs(args []string) []string {
	consumed := map[string]bool{}
	for _, f := range []string{"-c", "-config", "-d", "-l", "-e"} {
		for _, a := range flagx.FilterArgs(args, []string{f}) {
			consumed[a] = true
		}
	}

	var rest []string
	for _, a := range args {
		if consumed[a] {
			continue
		}
		rest = append(rest, a)
	}
	return rest
}
