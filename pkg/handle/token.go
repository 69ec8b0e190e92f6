// Package handle provides the validated identifiers used to derive portal
// object paths: handle tokens, application IDs, window identifiers and the
// caller-name sanitization rules.
package handle

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Token is a validated object path element identifying one Request or
// Session. It appears in the object path following the format
// {base}/request/SENDER/TOKEN, so it may only contain ASCII letters,
// digits and underscore.
type Token string

// InvalidTokenError reports the first character that made a token invalid,
// or an empty input.
type InvalidTokenError struct {
	Char  rune
	Empty bool
}

func (e *InvalidTokenError) Error() string {
	if e.Empty {
		return "handle token must not be empty"
	}
	return fmt.Sprintf("invalid character %q in handle token", e.Char)
}

// ParseToken validates raw as a handle token. Input is never coerced: any
// character outside [A-Za-z0-9_] fails, as does an empty string.
func ParseToken(raw string) (Token, error) {
	if raw == "" {
		return "", &InvalidTokenError{Empty: true}
	}
	for _, c := range raw {
		if !isTokenChar(c) {
			return "", &InvalidTokenError{Char: c}
		}
	}
	return Token(raw), nil
}

// GenerateToken returns a fresh backend-chosen token for calls that did not
// supply one.
func GenerateToken() Token {
	id := strings.ReplaceAll(uuid.NewString(), "-", "_")
	return Token("portald_" + id)
}

func (t Token) String() string {
	return string(t)
}

func isTokenChar(c rune) bool {
	switch {
	case c >= 'a' && c <= 'z':
		return true
	case c >= 'A' && c <= 'Z':
		return true
	case c >= '0' && c <= '9':
		return true
	case c == '_':
		return true
	}
	return false
}
