package gameserver

import (
	"errors"
	"fmt"
	"time"

	"github.com/avolis/presenced/internal/game"
	"github.com/avolis/presenced/internal/hue"
	"github.com/avolis/presenced/internal/protocol"
)

// errLeftGame closes the connection after a voluntary leave_game.
var errLeftGame = errors.New("player left the game")

// handleFrame runs one inbound frame against the shared state. A returned
// error closes the connection; recoverable problems are logged and the frame
// dropped. No parse failure unwinds past this boundary.
func (s *Server) handleFrame(sess *session, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	op, payload := data[0], data[1:]
	switch op {
	case protocol.COpPing:
		return s.handlePing(sess)
	case protocol.COpHello:
		return s.handleHello(sess, payload, protocol.SessionPlayer)
	case protocol.COpHelloBot:
		return s.handleHello(sess, payload, protocol.SessionBot)
	case protocol.COpHelloDebug:
		return s.handleHelloDebug(sess, payload)
	case protocol.COpEnterGame:
		return s.handleEnterGame(sess, payload)
	case protocol.COpLeaveGame:
		return s.handleLeaveGame(sess)
	case protocol.COpResize:
		s.handleResize(sess, payload)
	case protocol.COpInput:
		s.handleInput(sess, payload)
	case protocol.COpNick:
		return s.handleNick(sess, payload)
	case protocol.COpColor:
		s.handleColor(sess, payload)
	case protocol.COpChat:
		return s.handleChat(sess, payload)
	case protocol.COpChangeRoom:
		s.handleChangeRoom(sess, payload)
	case protocol.COpListRooms:
		s.handleListRooms(sess)
	case protocol.COpListMessages:
		s.handleListMessages(sess)
	default:
		s.logger.Warn().Msgf("unknown opcode %#x", op)
	}
	return nil
}

func (s *Server) handlePing(sess *session) error {
	if !sess.receivedPing {
		sess.receivedPing = true
		s.logger.Debug().Msg("first ping from session")
	}
	return sess.out.Enqueue(protocol.EncodePong())
}

// handleHello serves both hello and hello_bot; handshake-stage malformed
// frames and zero viewports are fatal.
func (s *Server) handleHello(sess *session, payload []byte, classification uint8) error {
	var h protocol.Hello
	if err := h.UnmarshalBinary(payload); err != nil {
		return fmt.Errorf("hello: %w", err)
	}
	if h.Width == 0 || h.Height == 0 {
		return fmt.Errorf("hello: zero viewport %dx%d", h.Width, h.Height)
	}

	sess.screenWidth = h.Width
	sess.screenHeight = h.Height
	sess.classification = classification
	if !sess.receivedHello {
		sess.receivedHello = true
		s.logger.Debug().Msgf("first hello from session: screen %dx%d", h.Width, h.Height)
	}
	return nil
}

func (s *Server) handleHelloDebug(sess *session, payload []byte) error {
	var h protocol.HelloDebug
	if err := h.UnmarshalBinary(payload); err != nil {
		return fmt.Errorf("hello_debug: %w", err)
	}
	if h.Width == 0 || h.Height == 0 {
		return fmt.Errorf("hello_debug: zero viewport %dx%d", h.Width, h.Height)
	}

	sess.screenWidth = h.Width
	sess.screenHeight = h.Height
	// wrong password demotes to a plain player, it does not disconnect
	if h.Password == s.debugPassword {
		sess.classification = protocol.SessionDev
	} else {
		s.logger.Warn().Msg("hello_debug with wrong password")
		sess.classification = protocol.SessionPlayer
	}
	sess.receivedHello = true
	return nil
}

func (s *Server) handleEnterGame(sess *session, payload []byte) error {
	if sess.inGame() {
		return errors.New("enter_game: already in game")
	}
	if !sess.handshakeDone() {
		return errors.New("enter_game: handshake incomplete")
	}

	var e protocol.EnterGame
	if err := e.UnmarshalBinary(payload); err != nil {
		return fmt.Errorf("enter_game: %w", err)
	}
	if len(e.Nick) > protocol.MaxNickLen {
		return fmt.Errorf("enter_game: nick is too long (%d bytes)", len(e.Nick))
	}

	roomID := e.Room
	if roomID == "" {
		roomID = sess.initialRoom
	}

	p := game.NewPlayer(e.Nick, roomID, hue.FromRGB(e.R, e.G, e.B))
	p.IsBot = sess.classification == protocol.SessionBot
	p.IsDev = sess.classification == protocol.SessionDev
	p.SessionKey = uint64(sess.key)

	id := s.registry.AddPlayer(p)
	sess.playerID = id

	if s.registry.EnsureRoom(roomID) {
		s.logger.Info().Msgf("created room %q for player %d", roomID, id)
	}

	if err := sess.out.Enqueue(protocol.EncodeEnteredGame(id, p.Hue)); err != nil {
		return fmt.Errorf("enter_game ack: %w", err)
	}
	s.dispatchToRoom(roomID, protocol.EncodeEventEnteredGame(id, p.Nick))

	s.logger.Info().Msgf("player %d entered game in room %q", id, roomID)
	return nil
}

func (s *Server) handleLeaveGame(sess *session) error {
	if !sess.inGame() {
		s.logger.Warn().Msg("leave_game while not in game")
		return nil
	}
	p := s.registry.Player(sess.playerID)
	if p == nil {
		return errLeftGame
	}

	s.logger.Info().Msgf("player %d is leaving the game", p.ID)
	s.registry.MarkForDeletion(p.ID, game.ReasonLeft)
	s.dispatchToRoom(p.RoomID, protocol.EncodeEventLeftGame(p.ID))
	return errLeftGame
}

func (s *Server) handleResize(sess *session, payload []byte) {
	var h protocol.Hello
	if err := h.UnmarshalBinary(payload); err != nil {
		s.logger.Warn().Msgf("resize: %v", err)
		return
	}
	// unlike hello, a zero dimension here is coerced rather than fatal
	sess.screenWidth = max(h.Width, 1)
	sess.screenHeight = max(h.Height, 1)
	s.logger.Debug().Msgf("screen resized to %dx%d", sess.screenWidth, sess.screenHeight)
}

func (s *Server) handleInput(sess *session, payload []byte) {
	p := s.boundPlayer(sess, "input")
	if p == nil {
		return
	}
	var c protocol.CursorInput
	if err := c.UnmarshalBinary(payload); err != nil {
		s.logger.Warn().Msgf("input: %v", err)
		return
	}
	p.UpdateCursor(c.X, c.Y, sess.screenWidth, sess.screenHeight)
}

func (s *Server) handleNick(sess *session, payload []byte) error {
	p := s.boundPlayer(sess, "nick")
	if p == nil {
		return nil
	}
	var n protocol.SetNick
	if err := n.UnmarshalBinary(payload); err != nil {
		s.logger.Warn().Msgf("nick: %v", err)
		return nil
	}
	if len(n.Nick) > protocol.MaxNickLen {
		return fmt.Errorf("nick is too long (%d bytes)", len(n.Nick))
	}
	if n.Nick == "" {
		s.logger.Warn().Msg("empty nick")
		return nil
	}

	p.Nick = n.Nick
	s.dispatchToRoom(p.RoomID, protocol.EncodeEventUpdatedNick(p.ID, p.Nick))
	return nil
}

func (s *Server) handleColor(sess *session, payload []byte) {
	p := s.boundPlayer(sess, "color")
	if p == nil {
		return
	}
	var c protocol.SetColor
	if err := c.UnmarshalBinary(payload); err != nil {
		s.logger.Warn().Msgf("color: %v", err)
		return
	}

	p.Hue = hue.FromRGB(c.R, c.G, c.B)
	s.dispatchToRoom(p.RoomID, protocol.EncodeEventUpdatedColor(p.ID, p.Hue))
}

func (s *Server) handleChat(sess *session, payload []byte) error {
	if len(payload) > protocol.MaxChatLen+1 {
		return fmt.Errorf("chat message is too long (%d bytes)", len(payload))
	}
	p := s.boundPlayer(sess, "chat")
	if p == nil {
		return nil
	}
	var c protocol.Chat
	if err := c.UnmarshalBinary(payload); err != nil {
		s.logger.Warn().Msgf("chat: %v", err)
		return nil
	}
	if c.Text == "" {
		s.logger.Warn().Msg("empty chat message")
		return nil
	}

	s.logger.Debug().Msgf("player %d sent chat message", p.ID)
	s.dispatchToRoom(p.RoomID, protocol.EncodeEventSentMessage(p.ID, p.Nick, c.Text))
	s.registry.AddMessage(p.RoomID, game.Message{
		Content:   c.Text,
		OwnerNick: p.Nick,
		OwnerHue:  p.Hue,
		OwnerID:   p.ID,
		Timestamp: float64(time.Now().UnixNano()) / 1e9,
	})
	return nil
}

func (s *Server) handleChangeRoom(sess *session, payload []byte) {
	p := s.boundPlayer(sess, "change_room")
	if p == nil {
		return
	}
	var c protocol.ChangeRoom
	if err := c.UnmarshalBinary(payload); err != nil {
		s.logger.Warn().Msgf("change_room: %v", err)
		return
	}
	if c.Room == "" {
		s.logger.Warn().Msg("change_room: empty room id")
		return
	}
	if c.Room == p.RoomID {
		return
	}

	oldRoom := p.RoomID
	s.dispatchToRoom(oldRoom, protocol.EncodeEventLeftRoom(p.ID, oldRoom))

	created := s.registry.EnsureRoom(c.Room)
	p.RoomID = c.Room
	if created {
		s.logger.Info().Msgf("created room %q for player %d", c.Room, p.ID)
		s.dispatchToRoom(c.Room, protocol.EncodeEventCreatedRoom(c.Room))
	}
	s.dispatchToRoom(c.Room, protocol.EncodeEventEnteredRoom(p.ID, c.Room))

	s.logger.Debug().Msgf("player %d changed room %q -> %q", p.ID, oldRoom, c.Room)
}

func (s *Server) handleListRooms(sess *session) {
	if s.boundPlayer(sess, "list_rooms") == nil {
		return
	}
	if err := sess.out.Enqueue(protocol.EncodeConfig(s.registry.Rooms())); err != nil {
		s.logger.Warn().Msgf("list_rooms: %v", err)
	}
}

func (s *Server) handleListMessages(sess *session) {
	p := s.boundPlayer(sess, "list_messages")
	if p == nil {
		return
	}
	msgs := s.registry.Messages(p.RoomID)
	entries := make([]protocol.HistoryEntry, 0, len(msgs))
	for _, m := range msgs {
		entries = append(entries, protocol.HistoryEntry{
			OwnerID:   m.OwnerID,
			OwnerHue:  m.OwnerHue,
			Timestamp: m.Timestamp,
			Nick:      m.OwnerNick,
			Text:      m.Content,
		})
	}
	if err := sess.out.Enqueue(protocol.EncodeHistory(entries)); err != nil {
		s.logger.Warn().Msgf("list_messages: %v", err)
	}
}

// boundPlayer resolves the session's player for post-handshake opcodes,
// logging and returning nil when the opcode arrived out of state.
func (s *Server) boundPlayer(sess *session, op string) *game.Player {
	if !sess.inGame() {
		s.logger.Warn().Msgf("received %s before entering game", op)
		return nil
	}
	p := s.registry.Player(sess.playerID)
	if p == nil {
		s.logger.Warn().Msgf("received %s for unknown player %d", op, sess.playerID)
		return nil
	}
	return p
}
