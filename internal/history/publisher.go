package history

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"videomeet/internal/ws"
)

// Stream carrying presence changes from the relay to the recorder.
const Stream = "presence_stream"

const publishTimeout = 1500 * time.Millisecond

// Publisher forwards relay presence events onto a Redis stream. It is the
// relay's only view of meeting history: the relay sees the listener
// interface, never Redis or the database.
type Publisher struct {
	rdc *redis.Client
}

func NewPublisher(rdc *redis.Client) *Publisher {
	return &Publisher{rdc: rdc}
}

// PresenceChanged implements ws.PresenceListener. The XADD runs on its own
// goroutine with a bounded timeout so a slow Redis never backs up into the
// relay; a failed publish is a lost history entry, not a relay error.
func (p *Publisher) PresenceChanged(ev ws.PresenceEvent) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		defer cancel()

		err := p.rdc.XAdd(ctx, &redis.XAddArgs{
			Stream: Stream,
			Values: map[string]any{
				"kind":   ev.Kind,
				"room":   ev.RoomID,
				"socket": ev.SocketID,
				"user":   string(ev.User),
				"ts":     ev.At.Unix(),
			},
		}).Err()
		if err != nil {
			zap.L().Warn("history.xadd", zap.String("kind", ev.Kind), zap.Error(err))
		}
	}()
}
