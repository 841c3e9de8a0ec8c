package ws

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestRouterSetup() (*SignalRouter, *PresenceCoordinator, *peerTable) {
	reg := NewRegistry()
	peers := newPeerTable()
	return NewSignalRouter(reg, peers), NewPresenceCoordinator(reg, peers, nil), peers
}

func TestRelayDirectReachesOnlyTarget(t *testing.T) {
	req := require.New(t)
	sr, pc, peers := newTestRouterSetup()

	a := addPeer(peers, "a")
	b := addPeer(peers, "b")
	c := addPeer(peers, "c")
	pc.HandleJoin(a, "standup", presence("Alice"))
	pc.HandleJoin(b, "standup", presence("Bob"))
	pc.HandleJoin(c, "standup", presence("Carol"))
	drain(a)
	drain(b)
	drain(c)

	sr.RelayDirect("a", "b", json.RawMessage(`"offer"`))

	f := requireEvent(t, b, evtSignal)
	var body signalBody
	req.NoError(json.Unmarshal(f.Body, &body))
	req.Equal("a", body.CallerID)
	req.JSONEq(`"offer"`, string(body.Signal))

	requireSilent(t, a)
	requireSilent(t, c)
}

func TestRelayDirectUnknownTargetIsSilentDrop(t *testing.T) {
	sr, pc, peers := newTestRouterSetup()

	a := addPeer(peers, "a")
	pc.HandleJoin(a, "standup", presence("Alice"))
	drain(a)

	sr.RelayDirect("a", "nobody", json.RawMessage(`"offer"`))
	requireSilent(t, a)
}

func TestRelayToRoomExcludesSender(t *testing.T) {
	req := require.New(t)
	sr, pc, peers := newTestRouterSetup()

	a := addPeer(peers, "a")
	b := addPeer(peers, "b")
	pc.HandleJoin(a, "standup", presence("Alice"))
	pc.HandleJoin(b, "standup", presence("Bob"))
	drain(a)
	drain(b)

	sr.RelayToRoom("a", "standup", evtUserToggledVideo,
		toggledVideoBody{SocketID: "a", VideoEnabled: false})

	f := requireEvent(t, b, evtUserToggledVideo)
	var body toggledVideoBody
	req.NoError(json.Unmarshal(f.Body, &body))
	req.Equal("a", body.SocketID)
	req.False(body.VideoEnabled)

	requireSilent(t, a)
}

func TestRelayToRoomRequiresMembership(t *testing.T) {
	sr, pc, peers := newTestRouterSetup()

	a := addPeer(peers, "a")
	outsider := addPeer(peers, "x")
	pc.HandleJoin(a, "standup", presence("Alice"))
	drain(a)

	sr.RelayToRoom(outsider.ID(), "standup", evtUserSharingScreen,
		sharingScreenBody{SocketID: "x", IsSharing: true})
	requireSilent(t, a)

	sr.RelayToRoom("a", "no-such-room", evtUserSharingScreen,
		sharingScreenBody{SocketID: "a", IsSharing: true})
	requireSilent(t, a)
}

func TestRelayChatStampsServerTimestamp(t *testing.T) {
	req := require.New(t)
	sr, pc, peers := newTestRouterSetup()

	a := addPeer(peers, "a")
	b := addPeer(peers, "b")
	pc.HandleJoin(a, "standup", presence("Alice"))
	pc.HandleJoin(b, "standup", presence("Bob"))
	drain(a)
	drain(b)

	before := time.Now().UTC().Add(-time.Second)
	sr.RelayChat("a", "standup", presence("Alice"), "hello")

	f := requireEvent(t, b, evtReceiveMessage)
	var body receiveMessageBody
	req.NoError(json.Unmarshal(f.Body, &body))
	req.Equal("hello", body.Message)
	req.JSONEq(`{"name":"Alice"}`, string(body.User))

	stamped, err := time.Parse(time.RFC3339Nano, body.Timestamp)
	req.NoError(err)
	req.True(stamped.After(before))
	req.True(stamped.Before(time.Now().UTC().Add(time.Second)))

	requireSilent(t, a)
}
