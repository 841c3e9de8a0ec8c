package ws

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

// frame is a decoded outbound envelope, read straight off a connection's
// send queue; these tests never open a real socket.
type frame struct {
	Event string          `json:"event"`
	Body  json.RawMessage `json:"body"`
}

func takeFrame(t *testing.T, c *Conn) (frame, bool) {
	t.Helper()
	select {
	case raw := <-c.out:
		var f frame
		require.NoError(t, json.Unmarshal(raw, &f))
		return f, true
	default:
		return frame{}, false
	}
}

func requireEvent(t *testing.T, c *Conn, event string) frame {
	t.Helper()
	f, ok := takeFrame(t, c)
	require.True(t, ok, "expected a queued %q frame", event)
	require.Equal(t, event, f.Event)
	return f
}

func requireSilent(t *testing.T, c *Conn) {
	t.Helper()
	f, ok := takeFrame(t, c)
	require.False(t, ok, "unexpected frame %q", f.Event)
}

type capturedEvents struct {
	events []PresenceEvent
}

func (c *capturedEvents) PresenceChanged(ev PresenceEvent) {
	c.events = append(c.events, ev)
}

func newTestCoordinator(listener PresenceListener) (*PresenceCoordinator, *Registry, *peerTable) {
	reg := NewRegistry()
	peers := newPeerTable()
	return NewPresenceCoordinator(reg, peers, listener), reg, peers
}

func addPeer(peers *peerTable, id string) *Conn {
	c := newConn(id, nil)
	peers.add(c)
	return c
}

func TestHandleJoinSnapshotAndNotifications(t *testing.T) {
	req := require.New(t)
	pc, _, peers := newTestCoordinator(nil)

	a := addPeer(peers, "a")
	b := addPeer(peers, "b")

	pc.HandleJoin(a, "standup", presence("Alice"))

	f := requireEvent(t, a, evtRoomUsers)
	req.JSONEq(`[]`, string(f.Body), "first joiner gets an empty snapshot")

	pc.HandleJoin(b, "standup", presence("Bob"))

	f = requireEvent(t, b, evtRoomUsers)
	var snapshot []Member
	req.NoError(json.Unmarshal(f.Body, &snapshot))
	req.Equal([]string{"a"}, memberIDs(snapshot), "B sees only A, never itself")

	f = requireEvent(t, a, evtUserJoined)
	var joined userJoinedBody
	req.NoError(json.Unmarshal(f.Body, &joined))
	req.Equal("b", joined.SocketID)
	req.JSONEq(`{"name":"Bob"}`, string(joined.User))

	requireSilent(t, a)
	requireSilent(t, b)
}

func TestHandleDisconnectNotifiesEveryRoomOnce(t *testing.T) {
	req := require.New(t)
	pc, reg, peers := newTestCoordinator(nil)

	a := addPeer(peers, "a")
	b := addPeer(peers, "b")
	c := addPeer(peers, "c")

	pc.HandleJoin(a, "r1", presence("Alice"))
	pc.HandleJoin(b, "r1", presence("Bob"))
	pc.HandleJoin(a, "r2", presence("Alice"))
	pc.HandleJoin(c, "r2", presence("Carol"))
	drain(a)
	drain(b)
	drain(c)

	pc.HandleDisconnect("a")

	for _, peer := range []*Conn{b, c} {
		f := requireEvent(t, peer, evtUserLeft)
		var left userLeftBody
		req.NoError(json.Unmarshal(f.Body, &left))
		req.Equal("a", left.SocketID)
		requireSilent(t, peer)
	}

	req.Equal([]string{"b"}, memberIDs(reg.MembersOf("r1")))
	req.Equal([]string{"c"}, memberIDs(reg.MembersOf("r2")))

	// second disconnect for the same connection is fully coalesced
	pc.HandleDisconnect("a")
	requireSilent(t, b)
	requireSilent(t, c)
}

func TestHandleDisconnectLastMemberRemovesRoom(t *testing.T) {
	req := require.New(t)
	pc, reg, peers := newTestCoordinator(nil)

	a := addPeer(peers, "a")
	pc.HandleJoin(a, "standup", presence("Alice"))

	pc.HandleDisconnect("a")

	req.Empty(reg.MembersOf("standup"))
	req.Empty(reg.RoomsContaining("a"))
}

func TestPresenceListenerObservesLifecycle(t *testing.T) {
	req := require.New(t)
	captured := &capturedEvents{}
	pc, _, peers := newTestCoordinator(captured)

	a := addPeer(peers, "a")
	b := addPeer(peers, "b")
	pc.HandleJoin(a, "standup", presence("Alice"))
	pc.HandleJoin(b, "standup", presence("Bob"))
	pc.HandleDisconnect("b")
	pc.HandleDisconnect("a")

	kinds := make([]string, 0, len(captured.events))
	for _, ev := range captured.events {
		kinds = append(kinds, ev.Kind)
	}
	req.Equal([]string{
		PresenceJoin, PresenceJoin,
		PresenceLeave,
		PresenceLeave, PresenceRoomClosed,
	}, kinds, "room-closed fires only when the last member goes")

	closed := captured.events[len(captured.events)-1]
	req.Equal("standup", closed.RoomID)
}

func drain(c *Conn) {
	for {
		select {
		case <-c.out:
		default:
			return
		}
	}
}
