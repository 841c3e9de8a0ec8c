package ws

import (
	"encoding/json"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func presence(name string) json.RawMessage {
	return json.RawMessage(fmt.Sprintf(`{"name":%q}`, name))
}

func memberIDs(members []Member) []string {
	ids := make([]string, 0, len(members))
	for _, m := range members {
		ids = append(ids, m.SocketID)
	}
	return ids
}

func TestRegistryJoinReturnsPriorMembership(t *testing.T) {
	req := require.New(t)
	reg := NewRegistry()

	prior := reg.Join("standup", "a", presence("Alice"))
	req.Empty(prior, "first joiner sees an empty room")
	req.NotNil(prior, "snapshot must marshal as [], not null")

	prior = reg.Join("standup", "b", presence("Bob"))
	req.Equal([]string{"a"}, memberIDs(prior))

	// a joiner never appears in its own snapshot, even on a re-join
	prior = reg.Join("standup", "a", presence("Alice again"))
	req.Equal([]string{"b"}, memberIDs(prior))
}

func TestRegistryRejoinOverwritesPresenceInPlace(t *testing.T) {
	req := require.New(t)
	reg := NewRegistry()

	reg.Join("standup", "a", presence("Alice"))
	reg.Join("standup", "b", presence("Bob"))
	reg.Join("standup", "a", presence("Alicia"))

	members := reg.MembersOf("standup")
	req.Equal([]string{"a", "b"}, memberIDs(members), "insertion order kept on overwrite")
	req.JSONEq(`{"name":"Alicia"}`, string(members[0].User), "last write wins")
}

func TestRegistryLeaveRemovesMemberAndEmptyRoom(t *testing.T) {
	req := require.New(t)
	reg := NewRegistry()

	reg.Join("standup", "a", presence("Alice"))
	reg.Join("standup", "b", presence("Bob"))

	removed, remaining, ok := reg.Leave("standup", "a")
	req.True(ok)
	req.Equal("a", removed.SocketID)
	req.Equal([]string{"b"}, memberIDs(remaining))
	req.Equal([]string{"b"}, memberIDs(reg.MembersOf("standup")))

	_, remaining, ok = reg.Leave("standup", "b")
	req.True(ok)
	req.Empty(remaining)
	req.Empty(reg.MembersOf("standup"), "empty room is deleted, not kept stale")
	req.False(reg.IsMember("standup", "b"))
}

func TestRegistryLeaveNonMemberIsNoOp(t *testing.T) {
	req := require.New(t)
	reg := NewRegistry()

	_, _, ok := reg.Leave("ghost-room", "a")
	req.False(ok)

	reg.Join("standup", "a", presence("Alice"))
	_, _, ok = reg.Leave("standup", "b")
	req.False(ok)
	req.Equal([]string{"a"}, memberIDs(reg.MembersOf("standup")))
}

func TestRegistryRoomsContaining(t *testing.T) {
	req := require.New(t)
	reg := NewRegistry()

	reg.Join("standup", "a", presence("Alice"))
	reg.Join("retro", "a", presence("Alice"))
	reg.Join("retro", "b", presence("Bob"))

	req.ElementsMatch([]string{"standup", "retro"}, reg.RoomsContaining("a"))
	req.ElementsMatch([]string{"retro"}, reg.RoomsContaining("b"))
	req.Empty(reg.RoomsContaining("c"))
}

func TestRegistrySnapshotIsACopy(t *testing.T) {
	req := require.New(t)
	reg := NewRegistry()

	reg.Join("standup", "a", presence("Alice"))
	snap := reg.MembersOf("standup")
	reg.Leave("standup", "a")

	req.Equal([]string{"a"}, memberIDs(snap), "snapshot survives concurrent mutation")
	req.Empty(reg.MembersOf("standup"))
}

func TestRegistryMembershipMatchesJoinLeaveHistory(t *testing.T) {
	req := require.New(t)
	reg := NewRegistry()

	joined := map[string]bool{}
	for i := 0; i < 20; i++ {
		id := fmt.Sprintf("c%d", i)
		reg.Join("load", id, presence(id))
		joined[id] = true
	}
	for i := 0; i < 20; i += 2 {
		id := fmt.Sprintf("c%d", i)
		reg.Leave("load", id)
		delete(joined, id)
	}

	members := reg.MembersOf("load")
	req.Len(members, len(joined))
	for _, m := range members {
		req.True(joined[m.SocketID])
	}
}

func TestRegistryConcurrentJoinLeave(t *testing.T) {
	reg := NewRegistry()

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			id := fmt.Sprintf("c%d", n)
			room := fmt.Sprintf("room-%d", n%4)
			for j := 0; j < 100; j++ {
				reg.Join(room, id, presence(id))
				reg.MembersOf(room)
				reg.RoomsContaining(id)
				reg.Leave(room, id)
			}
		}(i)
	}
	wg.Wait()

	// every member left, so every room must be gone
	for i := 0; i < 4; i++ {
		require.Empty(t, reg.MembersOf(fmt.Sprintf("room-%d", i)))
	}
}
