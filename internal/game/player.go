package game

// DeletionReason says why a player is (about to be) removed. A player with
// ReasonNone is live; anything else means it sits in the registry's pending
// set waiting for the post-broadcast sweep.
type DeletionReason uint8

const (
	ReasonNone DeletionReason = iota
	ReasonKicked
	ReasonDisconnected
	ReasonLeft
)

type Player struct {
	ID     uint16
	Nick   string
	RoomID string

	// X, Y are in the normalized 16-bit coordinate space, not pixels.
	X uint16
	Y uint16

	Hue uint16

	IsBot bool
	IsDev bool

	DeletionReason DeletionReason

	// NeedsInit is set until the player has received its first full
	// snapshot from the view synchronizer.
	NeedsInit bool

	// SessionKey locates the owning session in the server's table; never
	// a pointer (sessions and players unlink through their tables).
	SessionKey uint64

	// view is the set of player ids this player's remote client currently
	// renders. The synchronizer keeps it truthful.
	view map[uint16]struct{}
}

func NewPlayer(nick, roomID string, hue uint16) *Player {
	return &Player{
		Nick:      nick,
		RoomID:    roomID,
		X:         300,
		Y:         400,
		Hue:       hue,
		NeedsInit: true,
		view:      make(map[uint16]struct{}),
	}
}

// UpdateCursor rescales a raw pixel position against the reporting viewport
// into the normalized space. A zero dimension acts as 1 so a viewport the
// handshake failed to reject cannot divide by zero.
func (p *Player) UpdateCursor(rawX, rawY, width, height uint16) {
	p.X = normalize(rawX, width)
	p.Y = normalize(rawY, height)
}

func normalize(raw, dim uint16) uint16 {
	v := uint32(raw) * 65535 / uint32(max(dim, 1))
	if v > 65535 {
		v = 65535
	}
	return uint16(v)
}

// ShouldHaveInView reports room-scoped visibility.
func (p *Player) ShouldHaveInView(q *Player) bool {
	return p.RoomID == q.RoomID
}

func (p *Player) HasInView(id uint16) bool {
	_, ok := p.view[id]
	return ok
}

func (p *Player) AddToView(id uint16) {
	p.view[id] = struct{}{}
}

func (p *Player) RemoveFromView(id uint16) {
	delete(p.view, id)
}

func (p *Player) ViewLen() int {
	return len(p.view)
}
