package gameserver

import (
	"fmt"

	"github.com/hashicorp/go-multierror"
)

// dispatchToRoom fans one event frame out to every in-game session whose
// player is in roomID. Unlike the view synchronizer it consults no view
// caches, it is an unconditional room broadcast. Caller holds s.mu.
func (s *Server) dispatchToRoom(roomID string, frame []byte) {
	var errs error
	for _, sess := range s.sessions {
		if !sess.inGame() {
			continue
		}
		p := s.registry.Player(sess.playerID)
		if p == nil || p.RoomID != roomID {
			continue
		}
		if err := sess.out.Enqueue(frame); err != nil {
			errs = multierror.Append(errs, fmt.Errorf("session %#x: %w", uint64(sess.key), err))
		}
	}
	if errs != nil {
		s.logger.Error().Msgf("could not dispatch to room %q: %v", roomID, errs)
	}
}
