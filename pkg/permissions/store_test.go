package permissions

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(context.Background(), filepath.Join(t.TempDir(), "permissions.db"))
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSetAndGetPermission(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.SetPermission(ctx, "screenshot", "screenshot", "org.example.App", []string{PermissionYes}); err != nil {
		t.Fatalf("SetPermission failed: %v", err)
	}

	perms, err := store.GetPermission(ctx, "screenshot", "screenshot", "org.example.App")
	if err != nil {
		t.Fatalf("GetPermission failed: %v", err)
	}
	if len(perms) != 1 || perms[0] != PermissionYes {
		t.Errorf("expected [yes], got %v", perms)
	}
}

func TestGetPermissionNotFound(t *testing.T) {
	store := newTestStore(t)

	_, err := store.GetPermission(context.Background(), "screenshot", "screenshot", "org.example.Missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestSetPermissionReplaces(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.SetPermission(ctx, "screenshot", "screenshot", "org.example.App", []string{PermissionYes}); err != nil {
		t.Fatalf("SetPermission failed: %v", err)
	}
	if err := store.SetPermission(ctx, "screenshot", "screenshot", "org.example.App", []string{PermissionNo}); err != nil {
		t.Fatalf("SetPermission replace failed: %v", err)
	}

	perms, err := store.GetPermission(ctx, "screenshot", "screenshot", "org.example.App")
	if err != nil {
		t.Fatalf("GetPermission failed: %v", err)
	}
	if len(perms) != 1 || perms[0] != PermissionNo {
		t.Errorf("expected [no], got %v", perms)
	}
}

func TestLookupAndList(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	entries := []struct {
		table, id, app string
		perms          []string
	}{
		{"screenshot", "screenshot", "org.example.One", []string{PermissionYes}},
		{"screenshot", "screenshot", "org.example.Two", []string{PermissionNo}},
		{"wallpaper", "background", "org.example.One", []string{PermissionYes}},
	}
	for _, e := range entries {
		if err := store.SetPermission(ctx, e.table, e.id, e.app, e.perms); err != nil {
			t.Fatalf("SetPermission(%s/%s/%s) failed: %v", e.table, e.id, e.app, err)
		}
	}

	byApp, err := store.Lookup(ctx, "screenshot", "screenshot")
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if len(byApp) != 2 {
		t.Fatalf("expected 2 apps, got %d", len(byApp))
	}
	if byApp["org.example.One"][0] != PermissionYes {
		t.Errorf("expected yes for org.example.One, got %v", byApp["org.example.One"])
	}

	ids, err := store.List(ctx, "wallpaper")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(ids) != 1 || ids[0] != "background" {
		t.Errorf("expected [background], got %v", ids)
	}
}

func TestDeletePermission(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.SetPermission(ctx, "screenshot", "screenshot", "org.example.App", []string{PermissionYes}); err != nil {
		t.Fatalf("SetPermission failed: %v", err)
	}
	if err := store.DeletePermission(ctx, "screenshot", "screenshot", "org.example.App"); err != nil {
		t.Fatalf("DeletePermission failed: %v", err)
	}
	if err := store.DeletePermission(ctx, "screenshot", "screenshot", "org.example.App"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestDeleteResource(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for _, app := range []string{"org.example.One", "org.example.Two"} {
		if err := store.SetPermission(ctx, "screenshot", "screenshot", app, []string{PermissionYes}); err != nil {
			t.Fatalf("SetPermission failed: %v", err)
		}
	}
	if err := store.Delete(ctx, "screenshot", "screenshot"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	byApp, err := store.Lookup(ctx, "screenshot", "screenshot")
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if len(byApp) != 0 {
		t.Errorf("expected no entries after delete, got %v", byApp)
	}
}

func TestCheck(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.SetPermission(ctx, "screenshot", "screenshot", "org.example.Allowed", []string{PermissionYes}); err != nil {
		t.Fatalf("SetPermission failed: %v", err)
	}
	if err := store.SetPermission(ctx, "screenshot", "screenshot", "org.example.Denied", []string{PermissionNo}); err != nil {
		t.Fatalf("SetPermission failed: %v", err)
	}

	tests := []struct {
		name        string
		app         string
		wantAllowed bool
		wantFound   bool
	}{
		{"allowed app", "org.example.Allowed", true, true},
		{"denied app", "org.example.Denied", false, true},
		{"unknown app", "org.example.Unknown", false, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			allowed, found, err := store.Check(ctx, "screenshot", "screenshot", tc.app)
			if err != nil {
				t.Fatalf("Check failed: %v", err)
			}
			if allowed != tc.wantAllowed || found != tc.wantFound {
				t.Errorf("Check = (%t, %t), want (%t, %t)", allowed, found, tc.wantAllowed, tc.wantFound)
			}
		})
	}
}
