package handle

import (
	"fmt"
	"strings"
)

// BasePath is the object path under which every portal object lives.
const BasePath = "/org/freedesktop/portal/desktop"

// SanitizeSender maps a caller's bus connection name onto a valid object
// path element. Every byte outside [A-Za-z0-9] is replaced by '_' followed
// by its two-digit hex value, '_' included, so the mapping is injective and
// clients derive the same segment on their side:
//
//	"org.example.App" -> "org_2eexample_2eApp"
//	":1.42"           -> "_3a1_2e42"
func SanitizeSender(sender string) string {
	var b strings.Builder
	b.Grow(len(sender))
	for i := 0; i < len(sender); i++ {
		c := sender[i]
		if isPlainSenderByte(c) {
			b.WriteByte(c)
		} else {
			fmt.Fprintf(&b, "_%02x", c)
		}
	}
	return b.String()
}

// RequestPath derives the object path of a Request created for the given
// caller and token.
func RequestPath(sender string, token Token) string {
	return BasePath + "/request/" + SanitizeSender(sender) + "/" + token.String()
}

// SessionPath derives the object path of a Session created for the given
// caller and token.
func SessionPath(sender string, token Token) string {
	return BasePath + "/session/" + SanitizeSender(sender) + "/" + token.String()
}

func isPlainSenderByte(c byte) bool {
	switch {
	case c >= 'a' && c <= 'z':
		return true
	case c >= 'A' && c <= 'Z':
		return true
	case c >= '0' && c <= '9':
		return true
	}
	return false
}
