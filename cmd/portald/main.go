// Package main is the entrypoint for the desktop-portal backend (binary
// name "portald").
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/morezero/desktop-portal/internal/config"
	"github.com/morezero/desktop-portal/internal/server"
	"github.com/morezero/desktop-portal/pkg/permissions"
)

const usage = `Usage: portald [command]
       portald serve                                Start the portal backend (bus, HTTP health).
       portald permissions list <table>             List resource ids in a permission table.
       portald permissions show <table> <id>        Show every app's permissions for a resource.
       portald permissions set <table> <id> <app> <perm>[,perm...]
                                                    Record an app's permissions for a resource.
       portald permissions delete <table> <id> [app]
                                                    Delete one app's entry, or the whole resource.

Commands:
  serve              (default) Start the portal backend.
  permissions list   List resource ids in a table.
  permissions show   Show recorded permissions for a resource.
  permissions set    Record permissions (e.g. "yes" or "no").
  permissions delete Delete a permission entry.

Environment: COMMS_URL, COMMS_EMBEDDED, PORTAL_MANIFEST_FILE, PORTAL_PERMISSION_DB, PORTAL_HTTP_ADDR, LOG_LEVEL. See README.
`

func main() {
	args := os.Args[1:]
	cmd := ""
	if len(args) > 0 && args[0] != "" {
		cmd = args[0]
	}

	switch cmd {
	case "permissions":
		if len(args) < 2 {
			log.Fatalf("portald permissions: require subcommand (list, show, set, delete)")
		}
		if err := runPermissions(args[1], args[2:]); err != nil {
			log.Fatalf("portald permissions %s: %v", args[1], err)
		}
		return
	case "help", "-h", "--help":
		fmt.Print(usage)
		return
	case "serve", "":
		// serve (explicit or default)
		break
	default:
		fmt.Fprintf(os.Stderr, "Unknown command %q.\n%s", cmd, usage)
		os.Exit(1)
	}

	if err := server.Run(); err != nil {
		log.Fatalf("portald: %v", err)
	}
}

func openStore(ctx context.Context) (*permissions.Store, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.ValidateForStore(); err != nil {
		return nil, err
	}
	return permissions.NewStore(ctx, cfg.PermissionDB)
}

func runPermissions(sub string, args []string) error {
	ctx := context.Background()
	store, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	switch sub {
	case "list":
		if len(args) < 1 {
			return fmt.Errorf("require <table>")
		}
		ids, err := store.List(ctx, args[0])
		if err != nil {
			return err
		}
		for _, id := range ids {
			fmt.Println(id)
		}
		return nil
	case "show":
		if len(args) < 2 {
			return fmt.Errorf("require <table> <id>")
		}
		byApp, err := store.Lookup(ctx, args[0], args[1])
		if err != nil {
			return err
		}
		for app, perms := range byApp {
			fmt.Printf("%s\t%s\n", app, strings.Join(perms, ","))
		}
		return nil
	case "set":
		if len(args) < 4 {
			return fmt.Errorf("require <table> <id> <app> <perm>[,perm...]")
		}
		perms := strings.Split(args[3], ",")
		return store.SetPermission(ctx, args[0], args[1], args[2], perms)
	case "delete":
		if len(args) < 2 {
			return fmt.Errorf("require <table> <id> [app]")
		}
		if len(args) >= 3 {
			return store.DeletePermission(ctx, args[0], args[1], args[2])
		}
		return store.Delete(ctx, args[0], args[1])
	default:
		return fmt.Errorf("unknown subcommand %q (use list, show, set, delete)", sub)
	}
}
