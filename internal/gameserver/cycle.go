package gameserver

import (
	"context"
	"fmt"
	"time"

	"github.com/hashicorp/go-multierror"

	"github.com/avolis/presenced/internal/game"
	"github.com/avolis/presenced/internal/protocol"
)

const (
	cycleInterval = time.Second / 30
	idleInterval  = time.Second
)

// Run drives the view synchronizer until ctx is done. Each pass is scheduled
// as "sleep until the deadline picked before the pass": an overrun tick is
// followed immediately by the next one, never by two ticks' worth of work.
// With no active players the loop naps coarsely instead of spinning.
func (s *Server) Run(ctx context.Context) error {
	for {
		deadline := time.Now().Add(cycleInterval)

		s.mu.Lock()
		if s.registry.Len() == 0 {
			s.mu.Unlock()
			if !sleepCtx(ctx, idleInterval) {
				return nil
			}
			continue
		}
		s.runCycle()
		s.mu.Unlock()

		if !sleepCtx(ctx, time.Until(deadline)) {
			return nil
		}
	}
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

// runCycle is one synchronizer pass: a diff (or init snapshot) frame per
// live player, then the deferred-deletion sweep. The ordering is the point:
// every removal is announced to every interested peer in the same tick it is
// applied. Caller holds s.mu.
func (s *Server) runCycle() {
	players := s.registry.Players()

	var errs error
	for id, p := range players {
		if p.DeletionReason != game.ReasonNone {
			continue
		}

		var frame []byte
		if p.NeedsInit {
			frame = s.buildInitFrame(id, p, players)
			p.NeedsInit = false
		} else {
			frame = s.buildDiffFrame(id, p, players)
		}

		if err := s.sendToPlayer(p, frame); err != nil {
			errs = multierror.Append(errs, fmt.Errorf("player %d: %w", id, err))
		}
	}
	if errs != nil {
		s.logger.Error().Msgf("cycle broadcast: %v", errs)
	}

	s.registry.SweepPending(func(p *game.Player) {
		if sess, ok := s.sessions[sessionKey(p.SessionKey)]; ok && sess.playerID == p.ID {
			sess.playerID = 0
		}
	})
}

// buildInitFrame enumerates every other live player as a creation record and
// caches them all in p's view. Players already marked for deletion are
// skipped: they will be swept this tick and must not enter any view.
func (s *Server) buildInitFrame(id uint16, p *game.Player, players map[uint16]*game.Player) []byte {
	c := protocol.NewCycle()
	for qid, q := range players {
		if qid == id || q.DeletionReason != game.ReasonNone {
			continue
		}
		c.AddCreate(qid, createFlag(q), q.X, q.Y, q.Hue, q.Nick)
		p.AddToView(qid)
	}
	return c.Finish()
}

// buildDiffFrame reconciles p's view against the registry: removals for
// vanishing players (room-blind), creations for the newly visible, position
// updates for the rest. Nick and hue ride only on creation records; the view
// cache staying truthful is what makes that safe.
func (s *Server) buildDiffFrame(id uint16, p *game.Player, players map[uint16]*game.Player) []byte {
	c := protocol.NewCycle()
	for qid, q := range players {
		if qid == id {
			continue
		}

		if q.DeletionReason != game.ReasonNone {
			if p.HasInView(qid) {
				c.AddRemove(qid)
				p.RemoveFromView(qid)
			}
			continue
		}

		if p.ShouldHaveInView(q) {
			if p.HasInView(qid) {
				c.AddUpdate(qid, q.X, q.Y)
			} else {
				c.AddCreate(qid, createFlag(q), q.X, q.Y, q.Hue, q.Nick)
				p.AddToView(qid)
			}
		} else if p.HasInView(qid) {
			c.AddRemove(qid)
			p.RemoveFromView(qid)
		}
	}
	return c.Finish()
}

func createFlag(q *game.Player) uint8 {
	switch {
	case q.IsBot:
		return protocol.FlagCreateBot
	case q.IsDev:
		return protocol.FlagCreateDev
	default:
		return protocol.FlagCreate
	}
}

func (s *Server) sendToPlayer(p *game.Player, frame []byte) error {
	sess, ok := s.sessions[sessionKey(p.SessionKey)]
	if !ok {
		// session already gone; the player is on its way out too
		return nil
	}
	return sess.out.Enqueue(frame)
}
