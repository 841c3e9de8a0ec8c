package ws

import (
	"encoding/json"
	"time"

	"go.uber.org/zap"
)

// Presence event kinds emitted to a PresenceListener.
const (
	PresenceJoin       = "join"
	PresenceLeave      = "leave"
	PresenceRoomClosed = "room-closed"
)

// PresenceEvent describes one membership change. User is empty for
// room-closed events.
type PresenceEvent struct {
	Kind     string
	RoomID   string
	SocketID string
	User     json.RawMessage
	At       time.Time
}

// PresenceListener observes join/leave lifecycle without being part of the
// relay: implementations record meeting history on their own channel. The
// callback must not block; slow consumers buffer or drop on their side.
type PresenceListener interface {
	PresenceChanged(ev PresenceEvent)
}

// PresenceCoordinator drives the join/disconnect lifecycle against the
// registry and broadcasts membership changes to affected peers.
type PresenceCoordinator struct {
	reg      *Registry
	peers    *peerTable
	listener PresenceListener // may be nil
}

func NewPresenceCoordinator(reg *Registry, peers *peerTable, listener PresenceListener) *PresenceCoordinator {
	return &PresenceCoordinator{reg: reg, peers: peers, listener: listener}
}

// HandleJoin registers membership, sends the joiner a snapshot of the
// members that were present before it, then notifies those members. The
// joiner never appears in its own snapshot.
func (pc *PresenceCoordinator) HandleJoin(c *Conn, roomID string, user json.RawMessage) {
	prior := pc.reg.Join(roomID, c.ID(), user)

	if err := c.Send(evtRoomUsers, prior); err != nil {
		zap.L().Debug("ws.room_users", zap.String("socket_id", c.ID()), zap.Error(err))
	}

	joined := userJoinedBody{SocketID: c.ID(), User: user}
	for _, m := range prior {
		if peer := pc.peers.get(m.SocketID); peer != nil {
			_ = peer.Send(evtUserJoined, joined)
		}
	}

	pc.notify(PresenceEvent{
		Kind:     PresenceJoin,
		RoomID:   roomID,
		SocketID: c.ID(),
		User:     user,
		At:       time.Now().UTC(),
	})
	zap.L().Info("ws.join",
		zap.String("room", roomID),
		zap.String("socket_id", c.ID()),
		zap.String("name", presenceName(user)),
	)
}

// HandleDisconnect removes the connection from every room it joined and
// tells the remaining members. Safe to call for a connection that was
// already cleaned up: it finds no rooms and emits nothing.
func (pc *PresenceCoordinator) HandleDisconnect(socketID string) {
	for _, roomID := range pc.reg.RoomsContaining(socketID) {
		removed, remaining, ok := pc.reg.Leave(roomID, socketID)
		if !ok {
			continue
		}

		left := userLeftBody{SocketID: socketID, User: removed.User}
		for _, m := range remaining {
			if peer := pc.peers.get(m.SocketID); peer != nil {
				_ = peer.Send(evtUserLeft, left)
			}
		}

		now := time.Now().UTC()
		pc.notify(PresenceEvent{
			Kind:     PresenceLeave,
			RoomID:   roomID,
			SocketID: socketID,
			User:     removed.User,
			At:       now,
		})
		if len(remaining) == 0 {
			pc.notify(PresenceEvent{Kind: PresenceRoomClosed, RoomID: roomID, At: now})
		}
		zap.L().Info("ws.leave",
			zap.String("room", roomID),
			zap.String("socket_id", socketID),
			zap.String("name", presenceName(removed.User)),
		)
	}
}

func (pc *PresenceCoordinator) notify(ev PresenceEvent) {
	if pc.listener != nil {
		pc.listener.PresenceChanged(ev)
	}
}
