package room

import (
	"sync"

	"interview-copilot/internal/events"
	"interview-copilot/internal/logging"
)

// memberBuffer is the per-member event queue depth. A member that falls
// this far behind starts losing events rather than stalling the room.
const memberBuffer = 256

// Room fans events out to every connection sharing one interview.
// Events published to a room reach all members in publish order.
type Room struct {
	id string

	mu      sync.Mutex
	members map[string]chan events.Event

	// answering is a capacity-1 gate: at most one active question per
	// room at a time.
	answering chan struct{}
}

// ID returns the room id.
func (r *Room) ID() string {
	return r.id
}

// Publish delivers an event to every member. Delivery order matches
// publish order within the room; no guarantee exists across rooms.
func (r *Room) Publish(ev events.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, ch := range r.members {
		select {
		case ch <- ev:
		default:
			logging.Warnf("room %s: dropping %s event for slow member %s", r.id, ev.Type, id)
		}
	}
}

// Send delivers an event to a single member, if still joined.
func (r *Room) Send(memberID string, ev events.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ch, ok := r.members[memberID]
	if !ok {
		return
	}
	select {
	case ch <- ev:
	default:
		logging.Warnf("room %s: dropping %s event for slow member %s", r.id, ev.Type, memberID)
	}
}

// TryBeginAnswer acquires the room's answer gate. It fails when another
// question is already being answered.
func (r *Room) TryBeginAnswer() bool {
	select {
	case r.answering <- struct{}{}:
		return true
	default:
		return false
	}
}

// EndAnswer releases the answer gate.
func (r *Room) EndAnswer() {
	select {
	case <-r.answering:
	default:
	}
}

// MemberCount returns the number of joined members.
func (r *Room) MemberCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.members)
}

func (r *Room) join(memberID string) <-chan events.Event {
	r.mu.Lock()
	defer r.mu.Unlock()

	ch := make(chan events.Event, memberBuffer)
	r.members[memberID] = ch
	return ch
}

func (r *Room) leave(memberID string) (empty bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if ch, ok := r.members[memberID]; ok {
		delete(r.members, memberID)
		close(ch)
	}
	return len(r.members) == 0
}

// Hub owns every live room in the process.
type Hub struct {
	mu    sync.Mutex
	rooms map[string]*Room
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{rooms: make(map[string]*Room)}
}

// Join registers a member with a room, creating the room on first join,
// and returns the room together with the member's event channel. The
// channel is closed when the member leaves. Membership changes happen
// under the hub lock so a join can never land on a room already pruned
// by a concurrent leave.
func (h *Hub) Join(roomID, memberID string) (*Room, <-chan events.Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	r, ok := h.rooms[roomID]
	if !ok {
		r = &Room{
			id:        roomID,
			members:   make(map[string]chan events.Event),
			answering: make(chan struct{}, 1),
		}
		h.rooms[roomID] = r
	}
	return r, r.join(memberID)
}

// Leave deregisters a member. An in-flight answer keeps streaming to
// the remaining members; the empty room is only removed from the hub
// once its last member leaves.
func (h *Hub) Leave(roomID, memberID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	r, ok := h.rooms[roomID]
	if !ok {
		return
	}
	if r.leave(memberID) {
		delete(h.rooms, roomID)
	}
}

// Room returns the live room with the given id, if any.
func (h *Hub) Room(roomID string) (*Room, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	r, ok := h.rooms[roomID]
	return r, ok
}

// RoomCount returns the number of live rooms.
func (h *Hub) RoomCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.rooms)
}
