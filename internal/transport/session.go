package transport

import (
	"github.com/rs/zerolog"

	"meshbeacon/internal/mesh"
)

// SessionTransport delivers messages through a stateful mesh session.
// The session stays live across sends and keeps the local node identity
// and telemetry fresh as a side effect.
type SessionTransport struct {
	sess *mesh.Session
	dest Destination
	log  zerolog.Logger
}

// NewSessionTransport wraps an unconnected mesh session as a Transport
// addressing the given destination.
func NewSessionTransport(sess *mesh.Session, dest Destination, log zerolog.Logger) *SessionTransport {
	return &SessionTransport{sess: sess, dest: dest, log: log}
}

func (t *SessionTransport) Connect() error {
	return t.sess.Connect()
}

func (t *SessionTransport) Send(text string) error {
	if err := t.sess.SendText(uint32(t.dest), text); err != nil {
		return err
	}
	t.log.Debug().
		Stringer("dest", t.dest).
		Int("bytes", len(text)).
		Msg("Text packet handed to radio")
	return nil
}

func (t *SessionTransport) Disconnect() error {
	return t.sess.Close()
}
