package commsutil

import "testing"

func TestCallSubject(t *testing.T) {
	tests := []struct {
		name string
		wkn  string
		want string
	}{
		{"demo backend", "org.freedesktop.impl.portal.desktop.demo", "portal.call.org.freedesktop.impl.portal.desktop.demo"},
		{"short name", "testbackend", "portal.call.testbackend"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CallSubject(tt.wkn); got != tt.want {
				t.Errorf("CallSubject(%q) = %q, want %q", tt.wkn, got, tt.want)
			}
		})
	}
}

func TestSignalSubject(t *testing.T) {
	tests := []struct {
		name string
		path string
		want string
	}{
		{
			"session path",
			"/org/freedesktop/portal/desktop/session/_3a1_2e7/cast1",
			"portal.signal.org.freedesktop.portal.desktop.session._3a1_2e7.cast1",
		},
		{
			"request path",
			"/org/freedesktop/portal/desktop/request/client1/t",
			"portal.signal.org.freedesktop.portal.desktop.request.client1.t",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SignalSubject(tt.path); got != tt.want {
				t.Errorf("SignalSubject(%q) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}
