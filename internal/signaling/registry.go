package signaling

import (
	"errors"

	"github.com/rs/zerolog"

	"github.com/aloche971/VoiceApp/internal/protocol"
)

// ErrRoomFull is returned when a third client tries to join a room.
var ErrRoomFull = errors.New("room is full")

// Registry owns the room map. It is constructed once per server process and
// injected into the Hub, which drives it from a single goroutine, so it
// needs no locking of its own.
type Registry struct {
	rooms map[string]*Room
	log   zerolog.Logger
}

func NewRegistry(log zerolog.Logger) *Registry {
	return &Registry{
		rooms: make(map[string]*Room),
		log:   log,
	}
}

// JoinResult reports the outcome of a successful join.
type JoinResult struct {
	// IsInitiator is true for the first occupant, who will create the offer
	// once a peer arrives.
	IsInitiator bool

	// Peers are the occupants that were already in the room.
	Peers []*Client
}

// Join adds a client to a room, creating the room if it does not exist.
// A join that would exceed two occupants fails with ErrRoomFull and leaves
// the room untouched. Joining a room the client already occupies is a no-op
// reporting the current role.
func (r *Registry) Join(roomID string, c *Client) (JoinResult, error) {
	room, ok := r.rooms[roomID]
	if !ok {
		room = newRoom(roomID)
		r.rooms[roomID] = room
		r.log.Info().Str("room", roomID).Msg("room created")
	}

	// Rejoin: report the current role, but no peers. The other occupant
	// never left and must not be told someone arrived again.
	if room.contains(c) {
		return JoinResult{IsInitiator: room.occupants[0] == c}, nil
	}
	if room.full() {
		return JoinResult{}, ErrRoomFull
	}

	peers := room.others(c)
	room.add(c)
	return JoinResult{IsInitiator: len(room.occupants) == 1, Peers: peers}, nil
}

// Leave removes a client from a room. Unknown rooms and non-occupants are
// no-ops, since disconnects can race with explicit leaves. It returns the
// occupants that remain so the caller can notify them.
func (r *Registry) Leave(roomID string, c *Client) []*Client {
	room, ok := r.rooms[roomID]
	if !ok {
		return nil
	}
	if !room.remove(c) {
		return nil
	}

	if len(room.occupants) == 0 {
		delete(r.rooms, roomID)
		r.log.Info().Str("room", roomID).Msg("room deleted")
		return nil
	}
	return room.others(nil)
}

// BroadcastExcept delivers msg to every occupant of the room other than
// sender. With two-party rooms this is a unicast to the other side.
func (r *Registry) BroadcastExcept(roomID string, sender *Client, msg *protocol.Message) {
	room, ok := r.rooms[roomID]
	if !ok {
		return
	}
	for _, o := range room.others(sender) {
		o.deliver(msg)
	}
}

// Rooms returns the number of live rooms.
func (r *Registry) Rooms() int {
	return len(r.rooms)
}

// Occupants returns the occupant count of a room, 0 if it does not exist.
func (r *Registry) Occupants(roomID string) int {
	room, ok := r.rooms[roomID]
	if !ok {
		return 0
	}
	return len(room.occupants)
}
