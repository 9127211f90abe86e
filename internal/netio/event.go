package netio

import "github.com/lanchat/lanchat/internal/wire"

// Event pairs a decoded envelope with the source address it arrived from,
// handed to the coordinator's single event loop (§5, §4.7).
type Event struct {
	Env  wire.Envelope
	From string // source address; the coordinator sends ACK_UNI replies to it and matches incoming ACK_UNIs by it
}
