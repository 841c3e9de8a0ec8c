package ws

import (
	"encoding/json"
	"sync"
)

// Member is one room-membership entry: a connection id plus the presence
// payload the participant supplied at join time. The payload is opaque to
// the relay and forwarded bit-for-bit.
type Member struct {
	SocketID string          `json:"socketId"`
	User     json.RawMessage `json:"user"`
}

type room struct {
	mu      sync.RWMutex
	order   []string
	members map[string]json.RawMessage
}

func newRoom() *room {
	return &room{members: make(map[string]json.RawMessage)}
}

// snapshot copies the membership in insertion order. Callers iterate the
// copy while the room mutates underneath.
func (r *room) snapshot() []Member {
	out := make([]Member, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, Member{SocketID: id, User: r.members[id]})
	}
	return out
}

// Registry is the process-wide room table. The registry owns room entries;
// membership entries are weak references to connections — connection
// teardown removes itself from every room, never the other way around.
// The outer mutex guards the room map, each room guards its own members.
type Registry struct {
	mu    sync.RWMutex
	rooms map[string]*room
}

func NewRegistry() *Registry {
	return &Registry{rooms: make(map[string]*room)}
}

// Join adds socketID to roomID, creating the room if absent, and returns a
// snapshot of the membership strictly prior to the insertion. A repeated
// join by the same connection overwrites the presence in place (last write
// wins, insertion position kept).
func (g *Registry) Join(roomID, socketID string, user json.RawMessage) []Member {
	g.mu.Lock()
	r, ok := g.rooms[roomID]
	if !ok {
		r = newRoom()
		g.rooms[roomID] = r
	}
	r.mu.Lock()
	g.mu.Unlock()

	prior := r.snapshot()
	if _, exists := r.members[socketID]; !exists {
		r.order = append(r.order, socketID)
	}
	r.members[socketID] = user
	r.mu.Unlock()

	// The prior snapshot still lists the joiner on a re-join; the joiner
	// must never see itself in it.
	for i, m := range prior {
		if m.SocketID == socketID {
			prior = append(prior[:i:i], prior[i+1:]...)
			break
		}
	}
	return prior
}

// Leave removes socketID from roomID and returns the removed entry plus a
// snapshot of the remaining members. Rooms never persist empty: removing
// the last member deletes the room. Removing a non-member is a no-op.
func (g *Registry) Leave(roomID, socketID string) (Member, []Member, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	r, ok := g.rooms[roomID]
	if !ok {
		return Member{}, nil, false
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	user, exists := r.members[socketID]
	if !exists {
		return Member{}, nil, false
	}
	delete(r.members, socketID)
	for i, id := range r.order {
		if id == socketID {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	if len(r.members) == 0 {
		delete(g.rooms, roomID)
	}
	return Member{SocketID: socketID, User: user}, r.snapshot(), true
}

// MembersOf returns a point-in-time copy of the room's membership in
// insertion order; an unknown room yields nil.
func (g *Registry) MembersOf(roomID string) []Member {
	g.mu.RLock()
	r, ok := g.rooms[roomID]
	g.mu.RUnlock()
	if !ok {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.snapshot()
}

// IsMember reports whether socketID currently belongs to roomID.
func (g *Registry) IsMember(roomID, socketID string) bool {
	g.mu.RLock()
	r, ok := g.rooms[roomID]
	g.mu.RUnlock()
	if !ok {
		return false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, exists := r.members[socketID]
	return exists
}

// RoomsContaining returns every room id socketID belongs to. Disconnect
// cleanup iterates this copy rather than the live table, so removals
// during the walk cannot invalidate it.
func (g *Registry) RoomsContaining(socketID string) []string {
	g.mu.RLock()
	defer g.mu.RUnlock()

	var out []string
	for id, r := range g.rooms {
		r.mu.RLock()
		_, exists := r.members[socketID]
		r.mu.RUnlock()
		if exists {
			out = append(out, id)
		}
	}
	return out
}
