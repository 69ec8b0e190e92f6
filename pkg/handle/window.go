package handle

import "strings"

// WindowKind tags which windowing system a WindowIdentifier refers to.
type WindowKind string

const (
	// WindowKindX11 identifies an X11 window by XID, "x11:XID".
	WindowKindX11 WindowKind = "x11"
	// WindowKindWayland identifies a Wayland surface by an xdg-foreign
	// export handle, "wayland:HANDLE".
	WindowKindWayland WindowKind = "wayland"
)

// WindowIdentifier is an opaque reference to the application window that
// triggered a call, so a backend can place its dialogs above the right
// surface. Deriving one from a GUI surface is the toolkit's job; the portal
// only carries it through.
type WindowIdentifier struct {
	Kind   WindowKind
	Handle string
}

// ParseMaybeWindow parses a "x11:..." or "wayland:..." identifier. An empty
// or unrecognized value yields nil: callers without a suitable handle send
// an empty string and backends fall back to non-modal presentation.
func ParseMaybeWindow(raw string) *WindowIdentifier {
	kind, rest, ok := strings.Cut(raw, ":")
	if !ok || rest == "" {
		return nil
	}
	switch WindowKind(kind) {
	case WindowKindX11, WindowKindWayland:
		return &WindowIdentifier{Kind: WindowKind(kind), Handle: rest}
	}
	return nil
}

func (w *WindowIdentifier) String() string {
	if w == nil {
		return ""
	}
	return string(w.Kind) + ":" + w.Handle
}
