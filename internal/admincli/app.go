// Package admincli implements the dayhubctl command surface over the
// user directory. Every command runs against the remote store with the
// configured administrator identity; destructive commands require an
// explicit confirmation flag.
package admincli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dayhubapp/dayhub/internal/directory"
	"github.com/dayhubapp/dayhub/internal/docval"
	"golang.org/x/term"
)

// readSecret is a test seam for term.ReadPassword.
var readSecret = func() ([]byte, error) {
	return term.ReadPassword(int(os.Stdin.Fd()))
}

type App struct {
	dir *directory.Service
	out io.Writer
}

func NewApp(dir *directory.Service, out io.Writer) *App {
	return &App{dir: dir, out: out}
}

func usage(w io.Writer) {
	fmt.Fprintln(w, `usage: dayhubctl <command> [flags]

commands:
  list                               list all users
  show       -id <id>                show one user
  status     -id <id> [flags]        toggle flags / lock / expiration
  assign-key -id <id> [-key <key>]   assign a license key (prompts if omitted)
  revoke-key -id <id>                revoke the license key
  create     -email <email> [flags]  create a profile
  delete     -id <id> -yes           hard-delete a user`)
}

// Run dispatches args (without the program name) to a command.
func (a *App) Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		usage(a.out)
		return fmt.Errorf("no command")
	}

	switch args[0] {
	case "list":
		return a.list(ctx)
	case "show":
		return a.show(ctx, args[1:])
	case "status":
		return a.status(ctx, args[1:])
	case "assign-key":
		return a.assignKey(ctx, args[1:])
	case "revoke-key":
		return a.revokeKey(ctx, args[1:])
	case "create":
		return a.create(ctx, args[1:])
	case "delete":
		return a.delete(ctx, args[1:])
	default:
		usage(a.out)
		return fmt.Errorf("unknown command: %s", args[0])
	}
}

func (a *App) list(ctx context.Context) error {
	records, err := a.dir.ListAll(ctx)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tEMAIL\tROLE\tSTORAGE\tFEATURE\tLOCKED\tEXPIRES")
	for _, rec := range records {
		expires := "-"
		if rec.ExpiresAt != nil {
			expires = rec.ExpiresAt.Format(time.RFC3339)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%v\t%v\t%v\t%s\n",
			rec.ID, rec.Email, rec.Role, rec.StorageEnabled, rec.ActiveFeatureEnabled, rec.Locked, expires)
	}
	return tw.Flush()
}

func (a *App) show(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("show", flag.ContinueOnError)
	id := fs.String("id", "", "user id")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *id == "" {
		return fmt.Errorf("show: -id is required")
	}

	rec, err := a.dir.Get(ctx, *id)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "id:       %s\n", rec.ID)
	fmt.Fprintf(a.out, "name:     %s\n", rec.DisplayName)
	fmt.Fprintf(a.out, "email:    %s\n", rec.Email)
	fmt.Fprintf(a.out, "role:     %s\n", rec.Role)
	fmt.Fprintf(a.out, "storage:  %v\n", rec.StorageEnabled)
	fmt.Fprintf(a.out, "feature:  %v\n", rec.ActiveFeatureEnabled)
	fmt.Fprintf(a.out, "locked:   %v", rec.Locked)
	if rec.LockReason != "" {
		fmt.Fprintf(a.out, " (%s)", rec.LockReason)
	}
	fmt.Fprintln(a.out)
	if rec.LicenseKey != "" {
		fmt.Fprintf(a.out, "key:      %s\n", rec.LicenseKey)
	}
	if rec.ExpiresAt != nil {
		fmt.Fprintf(a.out, "expires:  %s\n", rec.ExpiresAt.Format(time.RFC3339))
	}
	if !rec.LastLogin.IsZero() {
		fmt.Fprintf(a.out, "lastlogin: %s\n", rec.LastLogin.Format(time.RFC3339))
	}
	return nil
}

func (a *App) status(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("status", flag.ContinueOnError)
	id := fs.String("id", "", "user id")
	storage := fs.String("storage", "", "enable storage: true|false")
	feature := fs.String("feature", "", "enable active feature: true|false")
	lock := fs.Bool("lock", false, "lock the account")
	unlock := fs.Bool("unlock", false, "unlock the account")
	reason := fs.String("reason", "", "lock reason")
	expires := fs.String("expires", "", "expiration as RFC3339, or 'never'")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *id == "" {
		return fmt.Errorf("status: -id is required")
	}
	if *lock && *unlock {
		return fmt.Errorf("status: -lock and -unlock are mutually exclusive")
	}

	var patch directory.StatusPatch

	if *storage != "" {
		patch.StorageEnabled = docval.Set(*storage == "true")
	}
	if *feature != "" {
		patch.ActiveFeatureEnabled = docval.Set(*feature == "true")
	}
	if *lock {
		patch.Locked = docval.Set(true)
		if *reason != "" {
			patch.LockReason = docval.Set(*reason)
		}
	}
	if *unlock {
		patch.Locked = docval.Set(false)
		patch.LockReason = docval.Clear[string]()
	}
	switch {
	case *expires == "never":
		patch.ExpiresAt = docval.Clear[int64]()
	case *expires != "":
		t, err := time.Parse(time.RFC3339, *expires)
		if err != nil {
			return fmt.Errorf("status: bad -expires: %w", err)
		}
		patch.ExpiresAt = docval.Set(t.UnixMilli())
	}

	if err := a.dir.SetStatus(ctx, *id, patch); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "updated %s\n", *id)
	return nil
}

func (a *App) assignKey(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("assign-key", flag.ContinueOnError)
	id := fs.String("id", "", "user id")
	key := fs.String("key", "", "license key (prompted when omitted)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *id == "" {
		return fmt.Errorf("assign-key: -id is required")
	}

	k := *key
	if k == "" {
		fmt.Fprint(a.out, "Enter license key: ")
		secret, err := readSecret()
		fmt.Fprintln(a.out)
		if err != nil {
			return err
		}
		k = strings.TrimSpace(string(secret))
	}
	if k == "" {
		return fmt.Errorf("assign-key: empty key")
	}

	if err := a.dir.AssignKey(ctx, *id, k); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "key assigned to %s\n", *id)
	return nil
}

func (a *App) revokeKey(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("revoke-key", flag.ContinueOnError)
	id := fs.String("id", "", "user id")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *id == "" {
		return fmt.Errorf("revoke-key: -id is required")
	}

	if err := a.dir.RevokeKey(ctx, *id); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "key revoked for %s\n", *id)
	return nil
}

func (a *App) create(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("create", flag.ContinueOnError)
	id := fs.String("id", "", "user id (generated when omitted)")
	email := fs.String("email", "", "email")
	name := fs.String("name", "", "display name")
	role := fs.String("role", "", "role (default user)")
	storage := fs.Bool("storage", false, "enable storage")
	key := fs.String("key", "", "license key")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *email == "" {
		return fmt.Errorf("create: -email is required")
	}

	rec, err := a.dir.CreateProfile(ctx, directory.NewProfile{
		ID:             *id,
		Email:          *email,
		DisplayName:    *name,
		Role:           *role,
		StorageEnabled: *storage,
		LicenseKey:     *key,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "created %s\n", rec.ID)
	return nil
}

func (a *App) delete(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("delete", flag.ContinueOnError)
	id := fs.String("id", "", "user id")
	yes := fs.Bool("yes", false, "confirm deletion")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *id == "" {
		return fmt.Errorf("delete: -id is required")
	}
	if !*yes {
		return fmt.Errorf("delete: refusing without -yes (irreversible)")
	}

	if err := a.dir.DeleteUser(ctx, *id); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "deleted %s\n", *id)
	return nil
}
