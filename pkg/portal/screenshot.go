package portal

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/morezero/desktop-portal/pkg/handle"
)

const screenshotVersion uint32 = 2

// permission store table and id gating interactive screenshots.
const (
	screenshotPermissionTable = "screenshot"
	screenshotPermissionID    = "screenshot"
)

// ScreenshotOptions are the options of a Screenshot call.
type ScreenshotOptions struct {
	Modal       *bool `json:"modal,omitempty"`
	Interactive *bool `json:"interactive,omitempty"`
	// PermissionStoreChecked tells the backend the frontend already
	// consulted the permission store; when false the dispatcher checks it
	// before invoking the handler.
	PermissionStoreChecked *bool `json:"permission_store_checked,omitempty"`
}

// ColorOptions are the options of a PickColor call. Currently empty.
type ColorOptions struct{}

// ScreenshotResults is the success payload of a Screenshot call.
type ScreenshotResults struct {
	URI string `json:"uri"`
}

// ColorResults is the success payload of a PickColor call; Color is RGB in
// the [0, 1] range.
type ColorResults struct {
	Color [3]float64 `json:"color"`
}

// ScreenshotImpl is the Screenshot capability contract.
type ScreenshotImpl interface {
	RequestImpl

	Screenshot(ctx context.Context, token handle.Token, appID *handle.AppID, window *handle.WindowIdentifier, opts ScreenshotOptions) *Response
	PickColor(ctx context.Context, token handle.Token, appID *handle.AppID, window *handle.WindowIdentifier, opts ColorOptions) *Response
}

func (b *Backend) routeScreenshot(ctx context.Context, call *CallRequest) *CallReply {
	imp := b.screenshot
	if imp == nil {
		return errorReply(call.ID, CodeUnknownInterface, "no Screenshot implementation registered")
	}

	switch call.Member {
	case MemberVersion:
		return resultReply(call.ID, VersionResult{Version: screenshotVersion})
	case "Screenshot":
		var opts ScreenshotOptions
		if reply := decodeOptions(call, &opts); reply != nil {
			return reply
		}
		cc, reply := b.validateCall(call)
		if reply != nil {
			return reply
		}
		return b.serveRequest(ctx, call, cc,
			func() { imp.CloseRequest(cc.token) },
			func(hctx context.Context) *Response {
				if resp := b.checkScreenshotPermission(hctx, cc.appID, opts); resp != nil {
					return resp
				}
				return imp.Screenshot(hctx, cc.token, cc.appID, cc.window, opts)
			})
	case "PickColor":
		var opts ColorOptions
		if reply := decodeOptions(call, &opts); reply != nil {
			return reply
		}
		cc, reply := b.validateCall(call)
		if reply != nil {
			return reply
		}
		return b.serveRequest(ctx, call, cc,
			func() { imp.CloseRequest(cc.token) },
			func(hctx context.Context) *Response {
				return imp.PickColor(hctx, cc.token, cc.appID, cc.window, opts)
			})
	default:
		return errorReply(call.ID, CodeUnknownMember, "unknown Screenshot member: "+call.Member)
	}
}

// checkScreenshotPermission consults the permission store unless the
// frontend already did. A recorded denial answers the request with a
// failure envelope without invoking the handler; an unset entry falls
// through so the handler can ask the user.
func (b *Backend) checkScreenshotPermission(ctx context.Context, appID *handle.AppID, opts ScreenshotOptions) *Response {
	if b.permissions == nil || appID == nil {
		return nil
	}
	if opts.PermissionStoreChecked != nil && *opts.PermissionStoreChecked {
		return nil
	}
	allowed, found, err := b.permissions.Check(ctx, screenshotPermissionTable, screenshotPermissionID, appID.String())
	if err != nil {
		slog.Warn(fmt.Sprintf("%s - permission store check failed for %s: %v", dispatchLogPrefix, appID, err))
		return nil
	}
	if found && !allowed {
		return Failed(fmt.Sprintf("screenshot denied for %s by permission store", appID))
	}
	return nil
}
