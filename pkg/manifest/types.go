// Package manifest loads the portal manifest: the declaration of which
// capability interfaces this backend implements and how the desktop
// environment should rank it.
package manifest

// Manifest describes one portal backend installation.
type Manifest struct {
	// Name is the well-known bus name the backend claims.
	Name string `json:"name"`

	// Interfaces lists the fully qualified capability interfaces the
	// backend implements.
	Interfaces []string `json:"interfaces"`

	// UseIn lists the desktop environments the backend targets, most
	// preferred first.
	UseIn []string `json:"use_in,omitempty"`

	// Priority breaks ties between backends claiming the same interface.
	// Higher wins.
	Priority int `json:"priority,omitempty"`
}

// Implements reports whether the manifest declares the given interface.
func (m *Manifest) Implements(iface string) bool {
	for _, i := range m.Interfaces {
		if i == iface {
			return true
		}
	}
	return false
}
