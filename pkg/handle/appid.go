package handle

import (
	"fmt"
	"strings"
)

// AppID is the identifier of the calling application, e.g.
// "org.example.App". The portal treats it as the sandbox identity used for
// permission checks and never interprets it beyond validation.
type AppID string

// ParseAppID validates raw as an application ID. Empty strings and strings
// containing path separators are rejected.
func ParseAppID(raw string) (AppID, error) {
	if raw == "" {
		return "", fmt.Errorf("app id must not be empty")
	}
	if strings.ContainsAny(raw, "/\\") {
		return "", fmt.Errorf("app id %q must not contain path separators", raw)
	}
	return AppID(raw), nil
}

// ParseMaybeAppID parses raw, treating the empty string as "no app id": a
// host application outside any sandbox is allowed to identify as nothing.
func ParseMaybeAppID(raw string) (*AppID, error) {
	if raw == "" {
		return nil, nil
	}
	id, err := ParseAppID(raw)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

func (a AppID) String() string {
	return string(a)
}
