package lobby

import (
	"go.uber.org/zap"

	"github.com/DoyleJ11/rts-session/internal/player"
)

// outbox is the per-connection push channel. A full outbox means the client
// stopped reading; it is closed so the transport drops the connection.
// A nil channel discards everything, for server-side participants.
type outbox struct {
	ch     chan player.Notice
	closed bool
	log    *zap.Logger
}

func (o *outbox) Notify(n player.Notice) {
	if o.closed || o.ch == nil {
		return
	}
	select {
	case o.ch <- n:
	default:
		o.log.Warn("dropping slow client", zap.String("notice", string(n.Type)))
		o.close()
	}
}

func (o *outbox) close() {
	if o.closed {
		return
	}
	o.closed = true
	if o.ch != nil {
		close(o.ch)
	}
}
