package portal

// Error codes returned synchronously to callers. Validation and dispatch
// failures use these; handler failures travel inside a response envelope
// instead and never surface here.
const (
	CodeValidationError  = "VALIDATION_ERROR"
	CodeAlreadyExists    = "ALREADY_EXISTS"
	CodeUnknownInterface = "UNKNOWN_INTERFACE"
	CodeUnknownMember    = "UNKNOWN_MEMBER"
	CodeNotFound         = "NOT_FOUND"
	CodeAlreadyClosed    = "ALREADY_CLOSED"
	CodeInternalError    = "INTERNAL_ERROR"
)

// PortalError is a structured protocol error.
type PortalError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *PortalError) Error() string {
	return e.Code + ": " + e.Message
}

// NewPortalError creates a new PortalError.
func NewPortalError(code, message string) *PortalError {
	return &PortalError{Code: code, Message: message}
}
