package gameserver

import (
	"errors"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/gorilla/websocket"
)

// sessionKey identifies a live connection in the session table. Hashing the
// remote address keeps the key stable and comparable without holding on to
// the transport handle.
type sessionKey uint64

func makeSessionKey(remoteAddr string) sessionKey {
	return sessionKey(xxhash.Sum64String(remoteAddr))
}

// session is the per-connection state: handshake progress, declared
// viewport, classification and (once enter_game succeeds) the bound player
// id. Cross-links to the player go through ids, never pointers.
type session struct {
	key sessionKey
	out outbox

	classification uint8

	receivedPing  bool
	receivedHello bool

	screenWidth  uint16
	screenHeight uint16

	// initialRoom comes from the ?room= query parameter at upgrade time.
	initialRoom string

	// playerID is 0 while no player is bound (id 0 is reserved).
	playerID uint16
}

func (s *session) inGame() bool {
	return s.playerID != 0
}

func (s *session) handshakeDone() bool {
	return s.receivedPing && s.receivedHello
}

// outbox is the write side of a connection. The tick loop and frame handlers
// enqueue; a per-connection pump drains. Tests substitute a capturing stub.
type outbox interface {
	Enqueue(frame []byte) error
	Close()
}

var (
	errOutboxClosed = errors.New("outbox closed")
	errOutboxFull   = errors.New("outbox full")
)

const (
	outboxDepth  = 64
	writeTimeout = 5 * time.Second
)

// wsOutbox decouples writers from a slow client: Enqueue never blocks, it
// reports full/closed instead.
type wsOutbox struct {
	conn *websocket.Conn

	mu     sync.Mutex
	send   chan []byte
	closed bool
}

func newWSOutbox(conn *websocket.Conn) *wsOutbox {
	return &wsOutbox{
		conn: conn,
		send: make(chan []byte, outboxDepth),
	}
}

func (o *wsOutbox) Enqueue(frame []byte) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return errOutboxClosed
	}
	select {
	case o.send <- frame:
		return nil
	default:
		return errOutboxFull
	}
}

func (o *wsOutbox) Close() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if !o.closed {
		o.closed = true
		close(o.send)
	}
}

// writePump drains the queue onto the websocket until the queue closes or a
// write fails.
func (o *wsOutbox) writePump() {
	defer o.conn.Close()
	for frame := range o.send {
		_ = o.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := o.conn.WriteMessage(websocket.BinaryMessage, frame); err != nil {
			return
		}
	}
}
