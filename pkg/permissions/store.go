// Package permissions persists the portal permission store: per-table,
// per-resource decisions recorded for each application, e.g. whether
// org.example.App may take non-interactive screenshots.
package permissions

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"
)

const logPrefix = "permissions:store"

// ErrNotFound is returned when no entry exists for the requested key.
var ErrNotFound = errors.New("no permission entry found")

// PermissionYes and PermissionNo are the conventional decision values; a
// table may store arbitrary strings beyond these.
const (
	PermissionYes = "yes"
	PermissionNo  = "no"
)

const schema = `
CREATE TABLE IF NOT EXISTS permissions (
	tbl   TEXT NOT NULL,
	id    TEXT NOT NULL,
	app   TEXT NOT NULL,
	perms TEXT NOT NULL,
	PRIMARY KEY (tbl, id, app)
);
`

// Store is the sqlite-backed permission store. Safe for concurrent use.
type Store struct {
	db *sql.DB
}

// NewStore opens (and if needed initializes) the permission database at
// dbPath. Use ":memory:" for an ephemeral store.
func NewStore(ctx context.Context, dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("%s - failed to open %s: %w", logPrefix, dbPath, err)
	}

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("%s - failed to apply %q: %w", logPrefix, pragma, err)
		}
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("%s - failed to initialize schema: %w", logPrefix, err)
	}

	return &Store{db: db}, nil
}

// Close releases the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// SetPermission records the permissions of app for the resource (table,
// id), replacing any previous entry.
func (s *Store) SetPermission(ctx context.Context, table, id, app string, perms []string) error {
	encoded, err := json.Marshal(perms)
	if err != nil {
		return fmt.Errorf("%s - failed to encode permissions: %w", logPrefix, err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO permissions (tbl, id, app, perms) VALUES (?, ?, ?, ?)
		 ON CONFLICT (tbl, id, app) DO UPDATE SET perms = excluded.perms`,
		table, id, app, string(encoded))
	if err != nil {
		return fmt.Errorf("%s - failed to set permission: %w", logPrefix, err)
	}
	return nil
}

// GetPermission returns the permissions of app for (table, id), or
// ErrNotFound.
func (s *Store) GetPermission(ctx context.Context, table, id, app string) ([]string, error) {
	var encoded string
	err := s.db.QueryRowContext(ctx,
		`SELECT perms FROM permissions WHERE tbl = ? AND id = ? AND app = ?`,
		table, id, app).Scan(&encoded)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%s - failed to get permission: %w", logPrefix, err)
	}
	return decodePerms(encoded)
}

// Lookup returns every app's permissions for the resource (table, id).
func (s *Store) Lookup(ctx context.Context, table, id string) (map[string][]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT app, perms FROM permissions WHERE tbl = ? AND id = ?`, table, id)
	if err != nil {
		return nil, fmt.Errorf("%s - failed to look up %s/%s: %w", logPrefix, table, id, err)
	}
	defer rows.Close()

	out := make(map[string][]string)
	for rows.Next() {
		var app, encoded string
		if err := rows.Scan(&app, &encoded); err != nil {
			return nil, fmt.Errorf("%s - failed to scan row: %w", logPrefix, err)
		}
		perms, err := decodePerms(encoded)
		if err != nil {
			return nil, err
		}
		out[app] = perms
	}
	return out, rows.Err()
}

// List returns the distinct resource ids present in a table.
func (s *Store) List(ctx context.Context, table string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT id FROM permissions WHERE tbl = ? ORDER BY id`, table)
	if err != nil {
		return nil, fmt.Errorf("%s - failed to list %s: %w", logPrefix, table, err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("%s - failed to scan row: %w", logPrefix, err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// DeletePermission removes app's entry for (table, id).
func (s *Store) DeletePermission(ctx context.Context, table, id, app string) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM permissions WHERE tbl = ? AND id = ? AND app = ?`, table, id, app)
	if err != nil {
		return fmt.Errorf("%s - failed to delete permission: %w", logPrefix, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes every entry for the resource (table, id).
func (s *Store) Delete(ctx context.Context, table, id string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM permissions WHERE tbl = ? AND id = ?`, table, id)
	if err != nil {
		return fmt.Errorf("%s - failed to delete %s/%s: %w", logPrefix, table, id, err)
	}
	return nil
}

// Check reports whether app is allowed the resource (table, id). found is
// false when no decision is recorded; the caller then falls back to asking
// the user.
func (s *Store) Check(ctx context.Context, table, id, app string) (allowed, found bool, err error) {
	perms, err := s.GetPermission(ctx, table, id, app)
	if errors.Is(err, ErrNotFound) {
		return false, false, nil
	}
	if err != nil {
		return false, false, err
	}
	for _, p := range perms {
		if p == PermissionYes {
			return true, true, nil
		}
	}
	return false, true, nil
}

func decodePerms(encoded string) ([]string, error) {
	var perms []string
	if err := json.Unmarshal([]byte(encoded), &perms); err != nil {
		return nil, fmt.Errorf("%s - failed to decode permissions: %w", logPrefix, err)
	}
	return perms, nil
}
