// Package stream moves frames and parameter commands over NATS and fans
// frames out to websocket clients.
package stream

import (
	"time"

	"github.com/nats-io/nats.go"
)

// Connect dials NATS with reconnects enabled.
func Connect(url, name string) (*nats.Conn, error) {
	return nats.Connect(
		url,
		nats.Name(name),
		nats.Timeout(3*time.Second),
		nats.ReconnectWait(500*time.Millisecond),
		nats.MaxReconnects(-1),
	)
}
