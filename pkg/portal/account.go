package portal

import (
	"context"

	"github.com/morezero/desktop-portal/pkg/handle"
)

const accountVersion uint32 = 1

// UserInformationOptions are the options of a GetUserInformation call.
// Reason is shown to the user in the access dialog.
type UserInformationOptions struct {
	Reason string `json:"reason,omitempty"`
}

// UserInformation is the success payload of a GetUserInformation call.
type UserInformation struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Image string `json:"image,omitempty"`
}

// AccountImpl is the Account capability contract.
type AccountImpl interface {
	RequestImpl

	GetUserInformation(ctx context.Context, token handle.Token, appID *handle.AppID, window *handle.WindowIdentifier, opts UserInformationOptions) *Response
}

func (b *Backend) routeAccount(ctx context.Context, call *CallRequest) *CallReply {
	imp := b.account
	if imp == nil {
		return errorReply(call.ID, CodeUnknownInterface, "no Account implementation registered")
	}

	switch call.Member {
	case MemberVersion:
		return resultReply(call.ID, VersionResult{Version: accountVersion})
	case "GetUserInformation":
		var opts UserInformationOptions
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
				return imp.GetUserInformation(hctx, cc.token, cc.appID, cc.window, opts)
			})
	default:
		return errorReply(call.ID, CodeUnknownMember, "unknown Account member: "+call.Member)
	}
}
