package commsutil

import "strings"

// Subject prefixes for the portal wire protocol.
const (
	callSubjectPrefix   = "portal.call."
	signalSubjectPrefix = "portal.signal."
)

// CallSubject builds the COMMS subject a portal backend serves its method
// calls on, from its well-known name.
func CallSubject(wellKnownName string) string {
	return callSubjectPrefix + wellKnownName
}

// SignalSubject builds the COMMS subject a signal for the object at the
// given path is published on. Path separators map to subject token
// separators; clients subscribe per object.
func SignalSubject(path string) string {
	trimmed := strings.Trim(path, "/")
	return signalSubjectPrefix + strings.ReplaceAll(trimmed, "/", ".")
}
