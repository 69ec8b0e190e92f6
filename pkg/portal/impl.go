package portal

import (
	"context"

	"github.com/morezero/desktop-portal/pkg/handle"
)

// RequestImpl is the cancellation hook every capability implementation
// provides: CloseRequest runs when the client closes an in-flight Request.
// The implementation should stop producing side effects for that token
// where it can; the dispatcher discards the result either way.
type RequestImpl interface {
	CloseRequest(token handle.Token)
}

// SessionImpl is implemented by capabilities that create long-lived
// sessions and want to know when the client closed one. Backend-initiated
// closure must go through Backend.NotifySessionClosed instead of tearing
// the object down directly.
type SessionImpl interface {
	SessionClosed(token handle.Token)
}

// PermissionChecker is consulted by the dispatcher before invoking handlers
// that are subject to the permission store. found reports whether any
// decision is recorded for the app.
type PermissionChecker interface {
	Check(ctx context.Context, table, id, app string) (allowed, found bool, err error)
}

// VersionResult is the reply payload of the Version property member.
type VersionResult struct {
	Version uint32 `json:"version"`
}
