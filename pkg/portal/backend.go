package portal

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	comms "github.com/nats-io/nats.go"

	"github.com/morezero/desktop-portal/pkg/commsutil"
	"github.com/morezero/desktop-portal/pkg/handle"
	"github.com/morezero/desktop-portal/pkg/object"
	"github.com/morezero/desktop-portal/pkg/signals"
)

const backendLogPrefix = "portal:backend"

// maxSessionTombstones bounds the closed-session tombstone set of a
// long-running daemon.
const maxSessionTombstones = 1024

// Backend owns the shared bus connection identity and the immutable
// capability registry, and drives the Request/Session lifecycle for every
// inbound call. Build one with a Builder; registrations cannot change
// afterwards.
type Backend struct {
	name      string
	nc        *comms.Conn
	sub       *comms.Subscription
	cancel    context.CancelFunc
	arena     *object.Arena
	publisher signals.Publisher

	permissions PermissionChecker

	wallpaper  WallpaperImpl
	screenshot ScreenshotImpl
	account    AccountImpl
	screencast ScreencastImpl

	mu       sync.Mutex
	sessions map[handle.Token]*object.Session
	// closedSessions holds tombstone paths of sessions that reached their
	// terminal state, so a late Close can observe ALREADY_CLOSED instead of
	// NOT_FOUND. A tombstone is cleared when its path is reused, and the set
	// is bounded: past maxSessionTombstones the oldest entries are evicted
	// and a very old path answers NOT_FOUND again.
	closedSessions map[string]struct{}
	tombstoneOrder []string

	wg sync.WaitGroup
}

// Builder assembles a Backend: a well-known name plus one implementation
// per supported capability interface. Must be completed before the
// connection starts accepting calls.
type Builder struct {
	name        string
	wallpaper   WallpaperImpl
	screenshot  ScreenshotImpl
	account     AccountImpl
	screencast  ScreencastImpl
	permissions PermissionChecker
	publisher   signals.Publisher
}

// NewBuilder starts a builder for a backend serving the given well-known
// name.
func NewBuilder(wellKnownName string) *Builder {
	return &Builder{name: wellKnownName}
}

// Wallpaper registers the Wallpaper implementation.
func (b *Builder) Wallpaper(imp WallpaperImpl) *Builder {
	b.wallpaper = imp
	return b
}

// Screenshot registers the Screenshot implementation.
func (b *Builder) Screenshot(imp ScreenshotImpl) *Builder {
	b.screenshot = imp
	return b
}

// Account registers the Account implementation.
func (b *Builder) Account(imp AccountImpl) *Builder {
	b.account = imp
	return b
}

// Screencast registers the ScreenCast implementation.
func (b *Builder) Screencast(imp ScreencastImpl) *Builder {
	b.screencast = imp
	return b
}

// Permissions wires a permission store the dispatcher consults for gated
// capabilities. Optional.
func (b *Builder) Permissions(pc PermissionChecker) *Builder {
	b.permissions = pc
	return b
}

// Publisher overrides the signal publisher. Defaults to publishing on the
// bus connection, or to discarding signals when built without one.
func (b *Builder) Publisher(p signals.Publisher) *Builder {
	b.publisher = p
	return b
}

// Build assembles the Backend on the given bus connection. nc may be nil
// for in-process use (tests); Serve then refuses to start.
func (b *Builder) Build(nc *comms.Conn) (*Backend, error) {
	if b.name == "" {
		return nil, fmt.Errorf("%s - a well-known name is required", backendLogPrefix)
	}
	if b.wallpaper == nil && b.screenshot == nil && b.account == nil && b.screencast == nil {
		return nil, fmt.Errorf("%s - at least one capability implementation is required", backendLogPrefix)
	}

	publisher := b.publisher
	if publisher == nil {
		if nc != nil {
			publisher = signals.NewCommsPublisher(nc)
		} else {
			publisher = signals.NewNoopPublisher()
		}
	}

	return &Backend{
		name:           b.name,
		nc:             nc,
		arena:          object.NewArena(),
		publisher:      publisher,
		permissions:    b.permissions,
		wallpaper:      b.wallpaper,
		screenshot:     b.screenshot,
		account:        b.account,
		screencast:     b.screencast,
		sessions:       make(map[handle.Token]*object.Session),
		closedSessions: make(map[string]struct{}),
	}, nil
}

// Name returns the backend's well-known name.
func (b *Backend) Name() string {
	return b.name
}

// Interfaces lists the capability interfaces with a registered
// implementation.
func (b *Backend) Interfaces() []string {
	var out []string
	if b.wallpaper != nil {
		out = append(out, InterfaceWallpaper)
	}
	if b.screenshot != nil {
		out = append(out, InterfaceScreenshot)
	}
	if b.account != nil {
		out = append(out, InterfaceAccount)
	}
	if b.screencast != nil {
		out = append(out, InterfaceScreencast)
	}
	return out
}

// Serve subscribes to the backend's call subject. Every inbound call is
// dispatched to its own goroutine so no handler, however long it waits on
// the user, blocks the connection's event handling.
func (b *Backend) Serve(ctx context.Context) error {
	if b.nc == nil {
		return fmt.Errorf("%s - cannot serve without a bus connection", backendLogPrefix)
	}

	// Handler contexts descend from this one so Close can cancel every
	// in-flight call before waiting for it.
	ctx, cancel := context.WithCancel(ctx)
	b.cancel = cancel

	subject := commsutil.CallSubject(b.name)
	sub, err := b.nc.Subscribe(subject, func(msg *comms.Msg) {
		b.wg.Add(1)
		go func() {
			defer b.wg.Done()
			b.handleMessage(ctx, msg)
		}()
	})
	if err != nil {
		return fmt.Errorf("%s - failed to subscribe to %s: %w", backendLogPrefix, subject, err)
	}
	b.sub = sub

	slog.Info(fmt.Sprintf("%s - Serving %v on %s", backendLogPrefix, b.Interfaces(), subject))
	return nil
}

// Close stops accepting calls, cancels every in-flight request and waits
// for their replies to go out. A handler suspended on a dialog holds its
// Request open indefinitely; cancelling here is what lets shutdown finish
// while that handler's late result is discarded.
func (b *Backend) Close() error {
	if b.sub != nil {
		if err := b.sub.Unsubscribe(); err != nil {
			return fmt.Errorf("%s - failed to unsubscribe: %w", backendLogPrefix, err)
		}
		b.sub = nil
	}
	// Cancel the requests first so every pending call answers Cancelled,
	// then the serve context so parked handler goroutines unwind.
	b.arena.Range(func(obj object.Object) {
		if req, ok := obj.(*object.Request); ok {
			req.Cancel()
		}
	})
	if b.cancel != nil {
		b.cancel()
	}
	b.wg.Wait()
	return nil
}

// NotifySessionClosed is the backend-initiated session closure: capability
// implementations route their internal teardown (revoked permission, lost
// resource) through here rather than touching the object themselves. The
// closed notification carries reason to the client.
func (b *Backend) NotifySessionClosed(token handle.Token, reason string) error {
	b.mu.Lock()
	session, ok := b.sessions[token]
	b.mu.Unlock()
	if !ok {
		return NewPortalError(CodeNotFound, "unknown session: "+token.String())
	}
	session.NotifyClosed(reason)
	return nil
}

func (b *Backend) handleMessage(ctx context.Context, msg *comms.Msg) {
	var call CallRequest
	if err := commsutil.DecodePayload(msg.Data, &call); err != nil {
		slog.Error(fmt.Sprintf("%s - failed to decode call: %v", backendLogPrefix, err))
		b.respond(msg, errorReply("", CodeValidationError, "failed to decode call envelope"))
		return
	}

	b.respond(msg, b.route(ctx, &call))
}

func (b *Backend) respond(msg *comms.Msg, reply *CallReply) {
	data, err := commsutil.EncodePayload(reply)
	if err != nil {
		slog.Error(fmt.Sprintf("%s - failed to encode reply: %v", backendLogPrefix, err))
		return
	}
	if err := msg.Respond(data); err != nil {
		slog.Error(fmt.Sprintf("%s - failed to respond: %v", backendLogPrefix, err))
	}
}

// --- session registry ---

func (b *Backend) trackSession(s *object.Session) {
	if s.Closed() {
		return
	}
	b.mu.Lock()
	b.sessions[s.Token()] = s
	b.mu.Unlock()
	// The closed hook may have fired between the check and the insert; its
	// untrack would then have been a no-op.
	if s.Closed() {
		b.mu.Lock()
		delete(b.sessions, s.Token())
		b.mu.Unlock()
	}
}

func (b *Backend) lookupSession(token handle.Token) (*object.Session, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	s, ok := b.sessions[token]
	if !ok || s.Closed() {
		return nil, false
	}
	return s, true
}

func (b *Backend) clearClosedSession(path string) {
	b.mu.Lock()
	delete(b.closedSessions, path)
	b.mu.Unlock()
}

// recordClosedSession adds a tombstone, evicting the oldest entries past
// the bound. Order entries whose path was cleared by reuse are skipped
// when they surface at the front.
func (b *Backend) recordClosedSession(path string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.closedSessions[path]; !ok {
		b.closedSessions[path] = struct{}{}
		b.tombstoneOrder = append(b.tombstoneOrder, path)
	}
	for len(b.closedSessions) > maxSessionTombstones && len(b.tombstoneOrder) > 0 {
		oldest := b.tombstoneOrder[0]
		b.tombstoneOrder = b.tombstoneOrder[1:]
		delete(b.closedSessions, oldest)
	}
}

func (b *Backend) wasClosedSession(path string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.closedSessions[path]
	return ok
}

// sessionClosedFunc builds the hook observing a session's single terminal
// transition: unregister the object, record the tombstone, tell the
// implementation if the client initiated it, and emit the Closed signal.
func (b *Backend) sessionClosedFunc(imp SessionImpl, token handle.Token, path string) object.ClosedFunc {
	return func(reason string, byClient bool) {
		b.arena.Remove(path)
		b.mu.Lock()
		delete(b.sessions, token)
		b.mu.Unlock()
		b.recordClosedSession(path)

		if byClient && imp != nil {
			imp.SessionClosed(token)
		}

		event := &signals.SessionClosedEvent{
			Path:      path,
			Token:     token.String(),
			Reason:    reason,
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		}
		if err := b.publisher.PublishSessionClosed(context.Background(), event); err != nil {
			slog.Error(fmt.Sprintf("%s - failed to publish Closed for %s: %v", backendLogPrefix, path, err))
		}
		slog.Debug(fmt.Sprintf("%s - Session %s closed (byClient=%t reason=%q)", backendLogPrefix, path, byClient, reason))
	}
}
