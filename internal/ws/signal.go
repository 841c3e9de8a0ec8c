package ws

import (
	"encoding/json"
	"time"
)

// SignalRouter relays negotiation payloads and session-state events between
// peers. Payloads are opaque: nothing here inspects or validates them.
type SignalRouter struct {
	reg   *Registry
	peers *peerTable
}

func NewSignalRouter(reg *Registry, peers *peerTable) *SignalRouter {
	return &SignalRouter{reg: reg, peers: peers}
}

// RelayDirect forwards an opaque negotiation payload to one target
// connection, annotated with the caller's id. An unknown target is a
// silent drop: the negotiating peer retries or times out on its own.
func (sr *SignalRouter) RelayDirect(callerID, targetID string, sig json.RawMessage) {
	target := sr.peers.get(targetID)
	if target == nil {
		return
	}
	_ = target.Send(evtSignal, signalBody{Signal: sig, CallerID: callerID})
}

// RelayToRoom broadcasts body under event to every member of roomID except
// the sender. Senders that are not members of the room are ignored.
func (sr *SignalRouter) RelayToRoom(fromID, roomID, event string, body any) {
	if !sr.reg.IsMember(roomID, fromID) {
		return
	}
	for _, m := range sr.reg.MembersOf(roomID) {
		if m.SocketID == fromID {
			continue
		}
		if peer := sr.peers.get(m.SocketID); peer != nil {
			_ = peer.Send(event, body)
		}
	}
}

// RelayChat broadcasts a chat message, stamping the delivery timestamp
// server-side; a timestamp supplied by the sender is never trusted.
func (sr *SignalRouter) RelayChat(fromID, roomID string, user json.RawMessage, message string) {
	sr.RelayToRoom(fromID, roomID, evtReceiveMessage, receiveMessageBody{
		User:      user,
		Message:   message,
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
	})
}
