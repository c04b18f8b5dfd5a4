/*
Package user contains core data structures related to participant identity.

It defines the identity a connection announces when it joins (the Identity struct),
used for passing identity information both internally and to clients.
*/
package user

// Role is the optional self-declared role of a participant.
type Role string

const (
	// RoleNone is used when the client did not announce a role.
	RoleNone Role = ""

	// RoleArtist participants initiate pairing requests and send images.
	RoleArtist Role = "artist"

	// RoleViewer participants receive pairing requests and images.
	RoleViewer Role = "viewer"
)

// Valid reports whether r is one of the known roles (or empty).
func (r Role) Valid() bool {
	switch r {
	case RoleNone, RoleArtist, RoleViewer:
		return true
	}
	return false
}

// Identity is the identity bound to one connection for its lifetime.
// The username is trusted as given; two connections may claim the same one.
type Identity struct {
	// ConnID is the server-generated identifier of the owning connection.
	ConnID string `json:"connId"`

	// Username is the display name the client announced.
	Username string `json:"username"`

	// Role is the optional participant role.
	Role Role `json:"role,omitempty"`
}
