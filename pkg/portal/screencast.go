package portal

import (
	"context"

	"github.com/morezero/desktop-portal/pkg/handle"
	"github.com/morezero/desktop-portal/pkg/object"
)

const screencastVersion uint32 = 5

// SourceType is a bitflag of capture source kinds.
type SourceType uint32

const (
	SourceTypeMonitor SourceType = 1 << iota
	SourceTypeWindow
	SourceTypeVirtual
)

// CursorMode is a bitflag of cursor capture modes.
type CursorMode uint32

const (
	CursorModeHidden CursorMode = 1 << iota
	CursorModeEmbedded
	CursorModeMetadata
)

// CreateSessionOptions are the options of a CreateSession call. Currently
// empty.
type CreateSessionOptions struct{}

// SelectSourcesOptions are the options of a SelectSources call.
type SelectSourcesOptions struct {
	Types      *SourceType `json:"types,omitempty"`
	Multiple   *bool       `json:"multiple,omitempty"`
	CursorMode *CursorMode `json:"cursor_mode,omitempty"`
}

// StartCastOptions are the options of a Start call. Currently empty.
type StartCastOptions struct{}

// CreateSessionResults is the success payload of a CreateSession call.
type CreateSessionResults struct {
	SessionID string `json:"session_id"`
}

// Stream describes one started capture stream.
type Stream struct {
	NodeID   uint32  `json:"node_id"`
	Position []int32 `json:"position,omitempty"`
	Size     []int32 `json:"size,omitempty"`
}

// StartCastResults is the success payload of a Start call.
type StartCastResults struct {
	Streams []Stream `json:"streams"`
}

// BitflagResult is the reply payload of the source-type and cursor-mode
// property members.
type BitflagResult struct {
	Flags uint32 `json:"flags"`
}

// ScreencastImpl is the ScreenCast capability contract. Session state lives
// behind the session token: SelectSources and Start reference a session
// created earlier, and SessionClosed fires when the client closes one.
type ScreencastImpl interface {
	RequestImpl
	SessionImpl

	AvailableSourceTypes() SourceType
	AvailableCursorModes() CursorMode

	CreateSession(ctx context.Context, token, sessionToken handle.Token, appID *handle.AppID, opts CreateSessionOptions) *Response
	SelectSources(ctx context.Context, sessionToken handle.Token, appID *handle.AppID, opts SelectSourcesOptions) *Response
	Start(ctx context.Context, sessionToken handle.Token, appID *handle.AppID, window *handle.WindowIdentifier, opts StartCastOptions) *Response
}

func (b *Backend) routeScreencast(ctx context.Context, call *CallRequest) *CallReply {
	imp := b.screencast
	if imp == nil {
		return errorReply(call.ID, CodeUnknownInterface, "no ScreenCast implementation registered")
	}

	switch call.Member {
	case MemberVersion:
		return resultReply(call.ID, VersionResult{Version: screencastVersion})
	case "AvailableSourceTypes":
		return resultReply(call.ID, BitflagResult{Flags: uint32(imp.AvailableSourceTypes())})
	case "AvailableCursorModes":
		return resultReply(call.ID, BitflagResult{Flags: uint32(imp.AvailableCursorModes())})
	case "CreateSession":
		return b.screencastCreateSession(ctx, call, imp)
	case "SelectSources":
		var opts SelectSourcesOptions
		if reply := decodeOptions(call, &opts); reply != nil {
			return reply
		}
		cc, sessionToken, reply := b.validateSessionCall(call)
		if reply != nil {
			return reply
		}
		return b.serveRequest(ctx, call, cc,
			func() { imp.CloseRequest(cc.token) },
			func(hctx context.Context) *Response {
				return imp.SelectSources(hctx, sessionToken, cc.appID, opts)
			})
	case "Start":
		var opts StartCastOptions
		if reply := decodeOptions(call, &opts); reply != nil {
			return reply
		}
		cc, sessionToken, reply := b.validateSessionCall(call)
		if reply != nil {
			return reply
		}
		return b.serveRequest(ctx, call, cc,
			func() { imp.CloseRequest(cc.token) },
			func(hctx context.Context) *Response {
				return imp.Start(hctx, sessionToken, cc.appID, cc.window, opts)
			})
	default:
		return errorReply(call.ID, CodeUnknownMember, "unknown ScreenCast member: "+call.Member)
	}
}

// screencastCreateSession opens both a Request and a Session before the
// handler runs. If the client cancels the request, or the handler fails,
// the freshly created session is torn down again.
func (b *Backend) screencastCreateSession(ctx context.Context, call *CallRequest, imp ScreencastImpl) *CallReply {
	cc, reply := b.validateCall(call)
	if reply != nil {
		return reply
	}
	sessionToken, err := handle.ParseToken(call.SessionToken)
	if err != nil {
		return errorReply(call.ID, CodeValidationError, "invalid session token: "+err.Error())
	}

	session, reply := b.openSession(call, imp, sessionToken, screencastVersion)
	if reply != nil {
		return reply
	}

	out := b.serveRequest(ctx, call, cc,
		func() { imp.CloseRequest(cc.token) },
		func(hctx context.Context) *Response {
			return imp.CreateSession(hctx, cc.token, sessionToken, cc.appID, CreateSessionOptions{})
		})

	if out.Response == nil || out.Response.Code != ResponseSuccess {
		session.NotifyClosed("session creation aborted")
		return out
	}
	b.trackSession(session)
	if out.Response.Results == nil {
		out.Response.Results = CreateSessionResults{SessionID: sessionToken.String()}
	}
	return out
}

// validateSessionCall validates the common call fields plus the session
// token, and checks the referenced session is live.
func (b *Backend) validateSessionCall(call *CallRequest) (*callContext, handle.Token, *CallReply) {
	cc, reply := b.validateCall(call)
	if reply != nil {
		return nil, "", reply
	}
	sessionToken, err := handle.ParseToken(call.SessionToken)
	if err != nil {
		return nil, "", errorReply(call.ID, CodeValidationError, "invalid session token: "+err.Error())
	}
	if _, ok := b.lookupSession(sessionToken); !ok {
		return nil, "", errorReply(call.ID, CodeNotFound, "unknown session: "+sessionToken.String())
	}
	return cc, sessionToken, nil
}

// openSession registers a new Session object in the arena. A live object at
// the same path is a client protocol error; a closed tombstone there is
// cleared so the path can be reused.
func (b *Backend) openSession(call *CallRequest, imp SessionImpl, sessionToken handle.Token, version uint32) (*object.Session, *CallReply) {
	path := handle.SessionPath(call.Sender, sessionToken)
	session := object.NewSession(sessionToken, path, version, b.sessionClosedFunc(imp, sessionToken, path))
	if err := b.arena.Add(session); err != nil {
		return nil, errorReply(call.ID, CodeAlreadyExists, "a session already exists at "+path)
	}
	b.clearClosedSession(path)
	return session, nil
}
