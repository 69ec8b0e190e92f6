// Package portal implements the request/session dispatch layer of a desktop
// portal backend: the wire envelopes, the object lifecycle around each
// capability call, and the dispatcher that routes inbound calls to
// registered capability implementations.
package portal

import "encoding/json"

// Portal interface names. Request and Session are the per-object
// interfaces; the rest are capability interfaces served at the backend's
// well-known name.
const (
	InterfaceRequest    = "org.freedesktop.impl.portal.Request"
	InterfaceSession    = "org.freedesktop.impl.portal.Session"
	InterfaceWallpaper  = "org.freedesktop.impl.portal.Wallpaper"
	InterfaceScreenshot = "org.freedesktop.impl.portal.Screenshot"
	InterfaceAccount    = "org.freedesktop.impl.portal.Account"
	InterfaceScreencast = "org.freedesktop.impl.portal.ScreenCast"
)

// CallRequest is the JSON envelope for an incoming method call. Sender is
// the caller's bus connection identity and participates in object path
// derivation; Path targets an existing Request/Session object and is only
// set for the per-object interfaces.
type CallRequest struct {
	ID               string          `json:"id"`
	Sender           string          `json:"sender"`
	Interface        string          `json:"iface"`
	Member           string          `json:"member"`
	Path             string          `json:"path,omitempty"`
	HandleToken      string          `json:"handleToken,omitempty"`
	SessionToken     string          `json:"sessionToken,omitempty"`
	AppID            string          `json:"appId,omitempty"`
	WindowIdentifier string          `json:"windowIdentifier,omitempty"`
	Options          json.RawMessage `json:"options,omitempty"`
}

// CallReply is the JSON envelope for a call's reply. Exactly one of
// Response (capability outcome), Result (member-specific data) or Error is
// populated; Ok mirrors Error being unset.
type CallReply struct {
	ID       string       `json:"id"`
	Ok       bool         `json:"ok"`
	Response *Response    `json:"response,omitempty"`
	Result   interface{}  `json:"result,omitempty"`
	Error    *ErrorDetail `json:"error,omitempty"`
}

// ErrorDetail holds structured error information for synchronous failures.
type ErrorDetail struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable"`
}

// ResponseCode tags the outcome of a capability call.
type ResponseCode uint32

const (
	// ResponseSuccess: the request was carried out; Results holds the
	// capability-specific payload.
	ResponseSuccess ResponseCode = 0
	// ResponseCancelled: the client closed the Request before the handler
	// finished. Not a handler failure.
	ResponseCancelled ResponseCode = 1
	// ResponseOther: the handler failed; Reason says why.
	ResponseOther ResponseCode = 2
)

func (c ResponseCode) String() string {
	switch c {
	case ResponseSuccess:
		return "success"
	case ResponseCancelled:
		return "cancelled"
	case ResponseOther:
		return "other"
	}
	return "unknown"
}

// Response is the tagged outcome delivered through a Request: either a
// success payload or a typed failure. A Request transitions to answered iff
// exactly one Response is published for it.
type Response struct {
	Code    ResponseCode `json:"code"`
	Results interface{}  `json:"results,omitempty"`
	Reason  string       `json:"reason,omitempty"`
}

// Success builds a success response carrying the given payload.
func Success(results interface{}) *Response {
	return &Response{Code: ResponseSuccess, Results: results}
}

// Cancelled builds the response delivered when the client closed the
// Request first.
func Cancelled() *Response {
	return &Response{Code: ResponseCancelled}
}

// Failed builds a failure response carrying the handler's reason.
func Failed(reason string) *Response {
	return &Response{Code: ResponseOther, Reason: reason}
}

// --- reply helpers ---

func errorReply(id, code, message string) *CallReply {
	return &CallReply{
		ID: id,
		Ok: false,
		Error: &ErrorDetail{
			Code:      code,
			Message:   message,
			Retryable: code == CodeInternalError,
		},
	}
}

func responseReply(id string, resp *Response) *CallReply {
	return &CallReply{ID: id, Ok: true, Response: resp}
}

func resultReply(id string, result interface{}) *CallReply {
	return &CallReply{ID: id, Ok: true, Result: result}
}

func okReply(id string) *CallReply {
	return &CallReply{ID: id, Ok: true}
}
