package manifest

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/morezero/desktop-portal/pkg/portal"
)

const logPrefix = "manifest:loader"

// Load reads the portal manifest from file paths or environment.
// It tries paths in order: first any paths passed in, then PORTAL_MANIFEST_FILE
// env, then defaults. So an explicit path (e.g. from a CLI flag) is tried
// before the env var.
func Load(paths ...string) (*Manifest, error) {
	// Build path list: passed paths first, then env, then defaults
	all := make([]string, 0, len(paths)+3)
	for _, p := range paths {
		if p != "" {
			all = append(all, p)
		}
	}
	if envPath := os.Getenv("PORTAL_MANIFEST_FILE"); envPath != "" {
		all = append(all, envPath)
	}
	all = append(all, "config/portal.json", "portal.json")
	paths = all

	for _, p := range paths {
		if p == "" {
			continue
		}

		data, err := os.ReadFile(p)
		if err != nil {
			continue
		}

		var m Manifest
		if err := json.Unmarshal(data, &m); err != nil {
			slog.Warn(fmt.Sprintf("%s - Failed to parse manifest file %s: %v", logPrefix, p, err))
			continue
		}
		if err := Validate(&m); err != nil {
			slog.Warn(fmt.Sprintf("%s - Rejecting manifest file %s: %v", logPrefix, p, err))
			continue
		}

		slog.Info(fmt.Sprintf("%s - Loaded manifest from %s", logPrefix, p))
		return &m, nil
	}

	slog.Info(fmt.Sprintf("%s - Using default manifest", logPrefix))
	return Default(), nil
}

// Default returns the embedded fallback manifest declaring every capability
// interface this backend ships reference implementations for.
func Default() *Manifest {
	return &Manifest{
		Name: "org.freedesktop.impl.portal.desktop.morezero",
		Interfaces: []string{
			portal.InterfaceWallpaper,
			portal.InterfaceScreenshot,
			portal.InterfaceAccount,
			portal.InterfaceScreencast,
		},
		UseIn:    []string{"gnome", "kde", "sway"},
		Priority: 0,
	}
}

// Validate checks the structural invariants of a manifest.
func Validate(m *Manifest) error {
	if m.Name == "" {
		return fmt.Errorf("%s - manifest name is required", logPrefix)
	}
	if len(m.Interfaces) == 0 {
		return fmt.Errorf("%s - manifest declares no interfaces", logPrefix)
	}
	seen := make(map[string]struct{}, len(m.Interfaces))
	for _, iface := range m.Interfaces {
		if iface == "" {
			return fmt.Errorf("%s - manifest declares an empty interface", logPrefix)
		}
		if _, dup := seen[iface]; dup {
			return fmt.Errorf("%s - manifest declares %s twice", logPrefix, iface)
		}
		seen[iface] = struct{}{}
	}
	return nil
}

// CheckAgainst verifies the manifest's declared interfaces against what the
// backend actually serves. Declared-but-unserved is an error; served but
// undeclared is only logged, the extra interface is still reachable.
func CheckAgainst(m *Manifest, served []string) error {
	have := make(map[string]struct{}, len(served))
	for _, iface := range served {
		have[iface] = struct{}{}
	}
	for _, iface := range m.Interfaces {
		if _, ok := have[iface]; !ok {
			return fmt.Errorf("%s - manifest declares %s but no implementation is registered", logPrefix, iface)
		}
	}
	for _, iface := range served {
		if !m.Implements(iface) {
			slog.Warn(fmt.Sprintf("%s - Serving %s which the manifest does not declare", logPrefix, iface))
		}
	}
	return nil
}
