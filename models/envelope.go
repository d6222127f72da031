package models

import "encoding/json"

// Envelope is the wire frame shared by every streaming channel. The feed
// multiplexes logically distinct channels over one socket, so the payload
// stays raw until a subscriber that knows the channel decodes it.
type Envelope struct {
	Channel string          `json:"channel"`
	Data    json.RawMessage `json:"data"`
}
