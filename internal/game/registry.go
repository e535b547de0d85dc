package game

import (
	"math/rand"
	"sort"

	"github.com/avolis/presenced/internal/debug"
)

// MaxRoomHistory caps each room's chat ring; inserting past it evicts the
// oldest message first.
const MaxRoomHistory = 100

// Registry is the sole source of truth for active players, pending
// deletions, known rooms and per-room chat history. It does no locking of
// its own; the server serializes access (frame handlers and the tick loop
// share one mutex).
type Registry struct {
	players  map[uint16]*Player
	pending  map[uint16]struct{}
	rooms    map[string]struct{}
	messages map[string][]Message
}

func NewRegistry() *Registry {
	return &Registry{
		players:  make(map[uint16]*Player),
		pending:  make(map[uint16]struct{}),
		rooms:    make(map[string]struct{}),
		messages: make(map[string][]Message),
	}
}

// AddPlayer draws a random unique id, stores the player under it and returns
// it. Id 0 is reserved: it doubles as the cycle frame's record terminator
// and as a session's "no player bound" marker.
func (g *Registry) AddPlayer(p *Player) uint16 {
	id := randomID()
	for {
		if _, taken := g.players[id]; !taken {
			break
		}
		id = randomID()
	}
	debug.Assert(id != 0)
	p.ID = id
	g.players[id] = p
	return id
}

func randomID() uint16 {
	return uint16(rand.Intn(65535) + 1)
}

func (g *Registry) Player(id uint16) *Player {
	return g.players[id]
}

// Players exposes the live table for the synchronizer's pass. Callers must
// hold the server lock and must not insert or delete.
func (g *Registry) Players() map[uint16]*Player {
	return g.players
}

func (g *Registry) Len() int {
	return len(g.players)
}

// DeletePlayer removes a player immediately; no-op if absent.
func (g *Registry) DeletePlayer(id uint16) {
	delete(g.players, id)
}

// MarkForDeletion queues a player for the post-broadcast sweep. The player
// itself is only touched to record the reason.
func (g *Registry) MarkForDeletion(id uint16, reason DeletionReason) {
	p, ok := g.players[id]
	if !ok {
		return
	}
	p.DeletionReason = reason
	g.pending[id] = struct{}{}
}

// SweepPending deletes every marked player, invoking onDelete first so the
// owner can sever the session link, then clears the set. Runs exactly once
// per tick, after the broadcast pass.
func (g *Registry) SweepPending(onDelete func(*Player)) {
	for id := range g.pending {
		if p, ok := g.players[id]; ok {
			if onDelete != nil {
				onDelete(p)
			}
			g.DeletePlayer(id)
		}
	}
	clear(g.pending)
}

// PendingLen reports how many deletions await the next sweep.
func (g *Registry) PendingLen() int {
	return len(g.pending)
}

// EnsureRoom records a room on first reference and reports whether it was
// new. Rooms are never removed.
func (g *Registry) EnsureRoom(roomID string) bool {
	if _, ok := g.rooms[roomID]; ok {
		return false
	}
	g.rooms[roomID] = struct{}{}
	return true
}

// Rooms returns the known room ids, sorted for stable config frames.
func (g *Registry) Rooms() []string {
	ids := make([]string, 0, len(g.rooms))
	for id := range g.rooms {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// AddMessage appends to a room's chat history, lazily creating the ring and
// evicting the oldest entry at capacity.
func (g *Registry) AddMessage(roomID string, msg Message) {
	ring := g.messages[roomID]
	if len(ring) >= MaxRoomHistory {
		ring = ring[1:]
	}
	g.messages[roomID] = append(ring, msg)
}

// Messages returns a room's history, oldest first.
func (g *Registry) Messages(roomID string) []Message {
	return g.messages[roomID]
}
