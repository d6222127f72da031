package models

// Session is the wallet-connection state carried across reloads.
// Address is meaningful only while IsConnected is true; a session with a
// missing address must never report IsConnected=true.
type Session struct {
	IsConnected bool   `json:"is_connected"`
	Address     string `json:"address,omitempty"`
}

// Normalize enforces the connected-implies-address invariant.
func (s Session) Normalize() Session {
	if s.Address == "" {
		return Session{}
	}
	return s
}
