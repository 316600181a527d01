package config

import (
	"flag"
	"os"

	"github.com/dayhubapp/dayhub/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags:
//
//	-d string   PostgreSQL DSN of the remote document store
//	-l string   path to the local SQLite cache
//	-e string   administrator email
//
// The function filters os.Args to only include the flags it knows about,
// using flagx.FilterArgs, to avoid interference with other components.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-d", "-l", "-e"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.RemoteDSN, "d", cfg.RemoteDSN, "postgres dsn of the remote document store")
	fs.StringVar(&cfg.LocalDBPath, "l", cfg.LocalDBPath, "path to the local sqlite cache")
	fs.StringVar(&cfg.AdminEmail, "e", cfg.AdminEmail, "administrator email")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}
}
