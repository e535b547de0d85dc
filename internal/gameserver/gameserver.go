// Package gameserver binds the websocket transport to the game state: a
// session table, per-opcode frame handlers, a room-scoped event dispatcher
// and the 30 Hz view synchronizer.
package gameserver

import (
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/phuslu/log"

	"github.com/avolis/presenced/internal/game"
	"github.com/avolis/presenced/internal/protocol"
)

const defaultRoom = "lobby"

const readTimeout = 60 * time.Second

// Server owns the session table and the player registry. One mutex
// serializes the frame handlers against the tick loop; neither may observe
// the other's half-applied mutations.
type Server struct {
	logger *log.Logger

	upgrader websocket.Upgrader

	debugPassword string

	mu       sync.Mutex
	sessions map[sessionKey]*session
	registry *game.Registry
}

func NewServer(debugPassword string, logger *log.Logger) *Server {
	// if logger is nil (which might be true in tests) => use default, but
	// silenced logger
	if logger == nil {
		tmp := log.DefaultLogger
		logger = &tmp
		logger.Writer = &log.IOWriter{Writer: io.Discard}
	}

	return &Server{
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		debugPassword: debugPassword,
		sessions:      make(map[sessionKey]*session),
		registry:      game.NewRegistry(),
	}
}

// HandleWS upgrades an HTTP request and serves the connection until it
// closes. The ?room= query parameter picks the initial room.
func (s *Server) HandleWS(w http.ResponseWriter, r *http.Request) {
	initialRoom := r.URL.Query().Get("room")
	if initialRoom == "" {
		initialRoom = defaultRoom
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn().Msgf("could not upgrade: %v", err)
		return
	}

	out := newWSOutbox(conn)
	sess := &session{
		key:         makeSessionKey(conn.RemoteAddr().String()),
		out:         out,
		initialRoom: initialRoom,
	}

	s.mu.Lock()
	s.sessions[sess.key] = sess
	n := len(s.sessions)
	s.mu.Unlock()
	s.logger.Info().Msgf("connection opened (room %q, %d sessions)", initialRoom, n)

	go out.writePump()
	s.readLoop(conn, sess)
	s.closeSession(sess.key)
	_ = conn.Close()
}

func (s *Server) readLoop(conn *websocket.Conn, sess *session) {
	conn.SetReadLimit(protocol.FrameMaxSize)
	for {
		_ = conn.SetReadDeadline(time.Now().Add(readTimeout))
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		if msgType != websocket.BinaryMessage {
			continue
		}
		if len(data) == 0 {
			s.logger.Warn().Msg("received empty frame")
			continue
		}
		if err := s.handleFrame(sess, data); err != nil {
			s.logger.Warn().Msgf("closing connection: %v", err)
			return
		}
	}
}

// closeSession tears down a session: its bound player (if any, and not
// already marked by leave_game) is marked disconnected for the next sweep,
// never deleted here.
func (s *Server) closeSession(key sessionKey) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[key]
	if !ok {
		return
	}

	if sess.inGame() {
		if p := s.registry.Player(sess.playerID); p != nil && p.DeletionReason == game.ReasonNone {
			s.logger.Info().Msgf("player %d disconnected", p.ID)
			s.registry.MarkForDeletion(p.ID, game.ReasonDisconnected)
			s.dispatchToRoom(p.RoomID, protocol.EncodeEventLeftGame(p.ID))
		}
	}

	delete(s.sessions, key)
	sess.out.Close()
	s.logger.Info().Msgf("session deleted, %d remaining", len(s.sessions))
}
