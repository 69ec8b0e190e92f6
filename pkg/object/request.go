package object

import (
	"sync/atomic"

	"github.com/morezero/desktop-portal/pkg/handle"
)

// RequestState is the lifecycle state of a Request.
type RequestState int32

const (
	// RequestPending means the capability handler has not finished and the
	// client has not closed the request.
	RequestPending RequestState = iota
	// RequestAnswered means exactly one response envelope was delivered.
	RequestAnswered
	// RequestCancelled means the client closed the request first; any late
	// handler result is discarded.
	RequestCancelled
)

func (s RequestState) String() string {
	switch s {
	case RequestPending:
		return "pending"
	case RequestAnswered:
		return "answered"
	case RequestCancelled:
		return "cancelled"
	}
	return "unknown"
}

// Request correlates one in-flight capability call with its eventual
// outcome. The state cell is the single point of truth for the terminal
// transition: Answer and Cancel race, exactly one wins, the loser observes
// the terminal state and no-ops.
type Request struct {
	token   handle.Token
	path    string
	state   atomic.Int32
	done    chan struct{}
	cancel  func()
	onClose func()
}

// NewRequest creates a pending Request. cancel is invoked when the client
// wins the race (it cancels the handler's context); onClose is the
// capability implementation's cancellation hook and may be nil.
func NewRequest(token handle.Token, path string, cancel func(), onClose func()) *Request {
	return &Request{
		token:   token,
		path:    path,
		done:    make(chan struct{}),
		cancel:  cancel,
		onClose: onClose,
	}
}

// Token returns the handle token the request was opened with.
func (r *Request) Token() handle.Token {
	return r.token
}

// Path returns the object path the request is registered at.
func (r *Request) Path() string {
	return r.path
}

// State returns the current lifecycle state.
func (r *Request) State() RequestState {
	return RequestState(r.state.Load())
}

// Done is closed when the client cancels the request.
func (r *Request) Done() <-chan struct{} {
	return r.done
}

// Cancel performs the client-initiated terminal transition. It reports
// whether this call won; a request that was already answered or cancelled
// is left untouched. On a win the handler context is cancelled and the
// implementation's close hook runs.
func (r *Request) Cancel() bool {
	if !r.state.CompareAndSwap(int32(RequestPending), int32(RequestCancelled)) {
		return false
	}
	close(r.done)
	if r.cancel != nil {
		r.cancel()
	}
	if r.onClose != nil {
		r.onClose()
	}
	return true
}

// Answer performs the dispatcher-initiated terminal transition. It reports
// whether this call won; if the client cancelled first the envelope must be
// discarded by the caller.
func (r *Request) Answer() bool {
	return r.state.CompareAndSwap(int32(RequestPending), int32(RequestAnswered))
}
