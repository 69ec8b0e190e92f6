package object

import (
	"sync"
	"testing"

	"github.com/morezero/desktop-portal/pkg/handle"
)

func newTestRequest(cancel, onClose func()) *Request {
	tok := handle.Token("abc123")
	return NewRequest(tok, handle.RequestPath(":1.1", tok), cancel, onClose)
}

func TestRequestAnswerWins(t *testing.T) {
	r := newTestRequest(nil, nil)

	if r.State() != RequestPending {
		t.Fatalf("new request state = %v, want pending", r.State())
	}
	if !r.Answer() {
		t.Fatal("Answer on pending request lost")
	}
	if r.State() != RequestAnswered {
		t.Errorf("state after Answer = %v, want answered", r.State())
	}

	// The loser observes the terminal state and no-ops.
	if r.Cancel() {
		t.Error("Cancel won after Answer")
	}
	if r.Answer() {
		t.Error("second Answer won")
	}
}

func TestRequestCancelWins(t *testing.T) {
	var cancelled, notified bool
	r := newTestRequest(func() { cancelled = true }, func() { notified = true })

	if !r.Cancel() {
		t.Fatal("Cancel on pending request lost")
	}
	if r.State() != RequestCancelled {
		t.Errorf("state after Cancel = %v, want cancelled", r.State())
	}
	if !cancelled {
		t.Error("handler context cancel did not run")
	}
	if !notified {
		t.Error("implementation close hook did not run")
	}

	select {
	case <-r.Done():
	default:
		t.Error("Done channel not closed after Cancel")
	}

	if r.Answer() {
		t.Error("Answer won after Cancel; late result must be discarded")
	}
	if r.Cancel() {
		t.Error("second Cancel won")
	}
}

func TestRequestAnswerDoesNotRunHooks(t *testing.T) {
	var cancelled, notified bool
	r := newTestRequest(func() { cancelled = true }, func() { notified = true })

	r.Answer()
	if cancelled || notified {
		t.Error("Answer ran cancellation hooks")
	}
}

// Race Answer and Cancel repeatedly: exactly one side must win each round,
// and a Cancel win must never be followed by a successful Answer.
func TestRequestTerminalTransitionRace(t *testing.T) {
	const rounds = 500
	for i := 0; i < rounds; i++ {
		r := newTestRequest(func() {}, nil)

		var wg sync.WaitGroup
		var answered, cancelled bool
		wg.Add(2)
		go func() {
			defer wg.Done()
			answered = r.Answer()
		}()
		go func() {
			defer wg.Done()
			cancelled = r.Cancel()
		}()
		wg.Wait()

		if answered == cancelled {
			t.Fatalf("round %d: answered=%v cancelled=%v, want exactly one winner", i, answered, cancelled)
		}
		if answered && r.State() != RequestAnswered {
			t.Fatalf("round %d: Answer won but state = %v", i, r.State())
		}
		if cancelled && r.State() != RequestCancelled {
			t.Fatalf("round %d: Cancel won but state = %v", i, r.State())
		}
	}
}
