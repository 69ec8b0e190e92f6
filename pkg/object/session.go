package object

import (
	"sync/atomic"

	"github.com/morezero/desktop-portal/pkg/handle"
)

const (
	sessionOpen int32 = iota
	sessionClosed
)

// ClosedFunc observes a session's single transition to closed. byClient
// distinguishes an explicit client Close from a backend-initiated closure
// (revoked permission, resource loss); reason is only meaningful for the
// latter.
type ClosedFunc func(reason string, byClient bool)

// Session is the long-lived counterpart of Request, used by stateful
// capabilities such as capture sessions. Closure from either side funnels
// through one compare-and-swap, so the closed notification fires exactly
// once no matter who initiated it or how the two sides race.
type Session struct {
	token    handle.Token
	path     string
	version  uint32
	state    atomic.Int32
	onClosed ClosedFunc
}

// NewSession creates an open Session. version is the protocol revision of
// the owning capability interface and never changes afterwards. onClosed
// may be nil.
func NewSession(token handle.Token, path string, version uint32, onClosed ClosedFunc) *Session {
	return &Session{
		token:    token,
		path:     path,
		version:  version,
		onClosed: onClosed,
	}
}

// Token returns the handle token the session was opened with.
func (s *Session) Token() handle.Token {
	return s.token
}

// Path returns the object path the session is registered at.
func (s *Session) Path() string {
	return s.path
}

// Version returns the protocol revision fixed at construction.
func (s *Session) Version() uint32 {
	return s.version
}

// Closed reports whether the session has reached its terminal state.
func (s *Session) Closed() bool {
	return s.state.Load() == sessionClosed
}

// Close is the client-initiated closure. The first call transitions to
// closed and fires the closed notification; any further call observes
// ErrAlreadyClosed.
func (s *Session) Close() error {
	if !s.close("", true) {
		return ErrAlreadyClosed
	}
	return nil
}

// NotifyClosed is the backend-initiated closure, carrying a reason the
// client can show to the user. No-ops if the session is already closed.
// Reports whether this call performed the transition.
func (s *Session) NotifyClosed(reason string) bool {
	return s.close(reason, false)
}

func (s *Session) close(reason string, byClient bool) bool {
	if !s.state.CompareAndSwap(sessionOpen, sessionClosed) {
		return false
	}
	if s.onClosed != nil {
		s.onClosed(reason, byClient)
	}
	return true
}
