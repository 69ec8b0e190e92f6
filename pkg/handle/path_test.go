package handle

import "testing"

func TestSanitizeSender(t *testing.T) {
	tests := []struct {
		name   string
		sender string
		want   string
	}{
		{"app id", "org.example.App", "org_2eexample_2eApp"},
		{"unique bus name", ":1.42", "_3a1_2e42"},
		{"already clean", "client1", "client1"},
		{"underscore escaped too", "a_b", "a_5fb"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SanitizeSender(tt.sender); got != tt.want {
				t.Errorf("SanitizeSender(%q) = %q, want %q", tt.sender, got, tt.want)
			}
		})
	}
}

func TestSanitizeSenderInjective(t *testing.T) {
	// "a.b" must not collide with a sender that already contains the
	// escaped form literally.
	a := SanitizeSender("a.b")
	b := SanitizeSender("a_2eb")
	if a == b {
		t.Errorf("SanitizeSender collides: %q and %q both map to %q", "a.b", "a_2eb", a)
	}
}

func TestRequestPath(t *testing.T) {
	got := RequestPath("org.example.App", Token("abc123"))
	want := "/org/freedesktop/portal/desktop/request/org_2eexample_2eApp/abc123"
	if got != want {
		t.Errorf("RequestPath = %q, want %q", got, want)
	}
}

func TestSessionPath(t *testing.T) {
	got := SessionPath(":1.7", Token("cast1"))
	want := "/org/freedesktop/portal/desktop/session/_3a1_2e7/cast1"
	if got != want {
		t.Errorf("SessionPath = %q, want %q", got, want)
	}
}

func TestParseMaybeWindow(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"x11", "x11:0x2a0000f", "x11:0x2a0000f"},
		{"wayland", "wayland:handle-1", "wayland:handle-1"},
		{"empty", "", ""},
		{"unknown kind", "cocoa:12", ""},
		{"bare kind", "x11:", ""},
		{"no separator", "somewindow", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseMaybeWindow(tt.raw)
			if got.String() != tt.want {
				t.Errorf("ParseMaybeWindow(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}
