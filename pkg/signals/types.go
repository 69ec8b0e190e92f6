// Package signals defines the signal types a portal backend emits and the
// publisher interfaces used to deliver them over COMMS.
package signals

// SessionClosedEvent is emitted exactly once when a Session reaches its
// terminal state, whether the client closed it or the backend revoked it.
type SessionClosedEvent struct {
	Path      string `json:"path"`
	Token     string `json:"token"`
	Reason    string `json:"reason,omitempty"`
	Timestamp string `json:"timestamp"`
}
