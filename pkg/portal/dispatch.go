package portal

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/morezero/desktop-portal/pkg/commsutil"
	"github.com/morezero/desktop-portal/pkg/handle"
	"github.com/morezero/desktop-portal/pkg/object"
)

const dispatchLogPrefix = "portal:dispatch"

// Members of the per-object Request/Session interfaces, plus the version
// property member shared by every capability interface.
const (
	MemberClose   = "Close"
	MemberVersion = "Version"
)

// route resolves the target interface of a call. Dispatch is a closed
// match over the supported interfaces; there is no runtime registration.
func (b *Backend) route(ctx context.Context, call *CallRequest) *CallReply {
	slog.Debug(fmt.Sprintf("%s - iface=%s member=%s id=%s", dispatchLogPrefix, call.Interface, call.Member, call.ID))

	switch call.Interface {
	case InterfaceRequest:
		return b.routeRequestObject(call)
	case InterfaceSession:
		return b.routeSessionObject(call)
	case InterfaceWallpaper:
		return b.routeWallpaper(ctx, call)
	case InterfaceScreenshot:
		return b.routeScreenshot(ctx, call)
	case InterfaceAccount:
		return b.routeAccount(ctx, call)
	case InterfaceScreencast:
		return b.routeScreencast(ctx, call)
	default:
		return errorReply(call.ID, CodeUnknownInterface, "unknown interface: "+call.Interface)
	}
}

// callContext carries the validated inputs common to every capability
// call.
type callContext struct {
	token  handle.Token
	path   string
	appID  *handle.AppID
	window *handle.WindowIdentifier
}

// validateCall validates the token and app id of a capability call and
// derives the request path. Failures are returned synchronously; no object
// is created. A missing token is generated backend-side, a malformed one
// is rejected.
func (b *Backend) validateCall(call *CallRequest) (*callContext, *CallReply) {
	if call.Sender == "" {
		return nil, errorReply(call.ID, CodeValidationError, "sender identity is required")
	}

	var token handle.Token
	if call.HandleToken == "" {
		token = handle.GenerateToken()
	} else {
		t, err := handle.ParseToken(call.HandleToken)
		if err != nil {
			return nil, errorReply(call.ID, CodeValidationError, "invalid handle token: "+err.Error())
		}
		token = t
	}

	appID, err := handle.ParseMaybeAppID(call.AppID)
	if err != nil {
		return nil, errorReply(call.ID, CodeValidationError, "invalid app id: "+err.Error())
	}

	return &callContext{
		token:  token,
		path:   handle.RequestPath(call.Sender, token),
		appID:  appID,
		window: handle.ParseMaybeWindow(call.WindowIdentifier),
	}, nil
}

func decodeOptions(call *CallRequest, v interface{}) *CallReply {
	if len(call.Options) == 0 {
		return nil
	}
	if err := commsutil.DecodePayload(call.Options, v); err != nil {
		return errorReply(call.ID, CodeValidationError, "failed to parse options: "+err.Error())
	}
	return nil
}

// serveRequest runs one capability call through the Request lifecycle:
// register the object, run the handler, race its completion against a
// client Close, deliver exactly one outcome, unregister. The handler runs
// in its own goroutine so a Close can win even against a handler that
// ignores its context; a late result then lands in the buffered channel
// and is silently discarded.
func (b *Backend) serveRequest(ctx context.Context, call *CallRequest, cc *callContext, closeHook func(), invoke func(ctx context.Context) *Response) *CallReply {
	hctx, cancel := context.WithCancel(ctx)
	defer cancel()

	req := object.NewRequest(cc.token, cc.path, cancel, closeHook)
	if err := b.arena.Add(req); err != nil {
		return errorReply(call.ID, CodeAlreadyExists, "a request already exists at "+cc.path)
	}
	slog.Debug(fmt.Sprintf("%s - Serving request at %s", dispatchLogPrefix, cc.path))

	resultCh := make(chan *Response, 1)
	go func() {
		resp := invoke(hctx)
		if resp == nil {
			resp = Failed("handler returned no response")
		}
		resultCh <- resp
	}()

	var resp *Response
	select {
	case r := <-resultCh:
		if req.Answer() {
			resp = r
		} else {
			// Close won while the handler was finishing.
			resp = Cancelled()
		}
	case <-req.Done():
		resp = Cancelled()
	}

	b.arena.Remove(cc.path)
	slog.Debug(fmt.Sprintf("%s - Releasing request %s (%s)", dispatchLogPrefix, cc.path, resp.Code))
	return responseReply(call.ID, resp)
}

// routeRequestObject serves the per-request Close method. Closing a
// request that already reached its terminal state, or whose path is
// already gone, is a no-op, the protocol guarantees at most one effect.
func (b *Backend) routeRequestObject(call *CallRequest) *CallReply {
	if call.Member != MemberClose {
		return errorReply(call.ID, CodeUnknownMember, "unknown Request member: "+call.Member)
	}

	obj, ok := b.arena.Lookup(call.Path)
	if !ok {
		return okReply(call.ID)
	}
	req, ok := obj.(*object.Request)
	if !ok {
		return errorReply(call.ID, CodeNotFound, "not a request path: "+call.Path)
	}

	req.Cancel()
	return okReply(call.ID)
}

// routeSessionObject serves the per-session Close method and version
// property.
func (b *Backend) routeSessionObject(call *CallRequest) *CallReply {
	obj, ok := b.arena.Lookup(call.Path)
	if !ok {
		if b.wasClosedSession(call.Path) {
			return errorReply(call.ID, CodeAlreadyClosed, "session is already closed: "+call.Path)
		}
		return errorReply(call.ID, CodeNotFound, "no session at "+call.Path)
	}
	session, ok := obj.(*object.Session)
	if !ok {
		return errorReply(call.ID, CodeNotFound, "not a session path: "+call.Path)
	}

	switch call.Member {
	case MemberVersion:
		return resultReply(call.ID, VersionResult{Version: session.Version()})
	case MemberClose:
		if err := session.Close(); err != nil {
			return errorReply(call.ID, CodeAlreadyClosed, "session is already closed: "+call.Path)
		}
		return okReply(call.ID)
	default:
		return errorReply(call.ID, CodeUnknownMember, "unknown Session member: "+call.Member)
	}
}
