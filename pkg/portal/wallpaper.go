package portal

import (
	"context"

	"github.com/morezero/desktop-portal/pkg/handle"
)

const wallpaperVersion uint32 = 1

// SetOn selects where a wallpaper is applied.
type SetOn string

const (
	SetOnBackground SetOn = "background"
	SetOnLockscreen SetOn = "lockscreen"
	SetOnBoth       SetOn = "both"
)

// WallpaperOptions are the options of a SetWallpaperURI call.
type WallpaperOptions struct {
	URI         string `json:"uri"`
	ShowPreview bool   `json:"show-preview"`
	SetOn       SetOn  `json:"set-on"`
}

// WallpaperImpl is the Wallpaper capability contract.
type WallpaperImpl interface {
	RequestImpl

	SetWallpaperURI(ctx context.Context, token handle.Token, appID *handle.AppID, window *handle.WindowIdentifier, opts WallpaperOptions) *Response
}

func (b *Backend) routeWallpaper(ctx context.Context, call *CallRequest) *CallReply {
	imp := b.wallpaper
	if imp == nil {
		return errorReply(call.ID, CodeUnknownInterface, "no Wallpaper implementation registered")
	}

	switch call.Member {
	case MemberVersion:
		return resultReply(call.ID, VersionResult{Version: wallpaperVersion})
	case "SetWallpaperURI":
		var opts WallpaperOptions
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
				return imp.SetWallpaperURI(hctx, cc.token, cc.appID, cc.window, opts)
			})
	default:
		return errorReply(call.ID, CodeUnknownMember, "unknown Wallpaper member: "+call.Member)
	}
}
