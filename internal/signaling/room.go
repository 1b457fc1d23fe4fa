package signaling

// maxOccupants is the hard cap on room size: calls are strictly two-party.
const maxOccupants = 2

// Room holds the occupants of a single call. Rooms are created lazily on
// the first join and deleted when the last occupant leaves.
type Room struct {
	ID string

	// occupants in join order; index 0 is the initiator (host).
	occupants []*Client
}

func newRoom(id string) *Room {
	return &Room{ID: id, occupants: make([]*Client, 0, maxOccupants)}
}

func (r *Room) full() bool {
	return len(r.occupants) >= maxOccupants
}

func (r *Room) contains(c *Client) bool {
	for _, o := range r.occupants {
		if o == c {
			return true
		}
	}
	return false
}

func (r *Room) add(c *Client) {
	r.occupants = append(r.occupants, c)
}

func (r *Room) remove(c *Client) bool {
	for i, o := range r.occupants {
		if o == c {
			r.occupants = append(r.occupants[:i], r.occupants[i+1:]...)
			return true
		}
	}
	return false
}

// others returns every occupant except c.
func (r *Room) others(c *Client) []*Client {
	out := make([]*Client, 0, maxOccupants)
	for _, o := range r.occupants {
		if o != c {
			out = append(out, o)
		}
	}
	return out
}
