package transcript

import (
	"context"

	"go.uber.org/zap"

	"openchat/internal/clock"
)

// pendingReaction is a burst of clicks on one message that has not been
// flushed yet. before is the own reaction when the burst started. When the
// reaction set had never been fetched, unknown is set and the burst is
// resolved against the server row at flush time.
type pendingReaction struct {
	before  *ReactionKind
	target  *ReactionKind
	last    ReactionKind
	unknown bool
	timer   clock.Timer
}

// React toggles the identity's reaction on a message. The aggregator is
// updated at once; the server round trip is deferred until no further
// click on the same message arrives within the debounce window. A burst
// counts as a single toggle of the last clicked kind, measured against the
// reaction held before the burst. Flush failures go to the OnError hook.
func (s *Session) React(ctx context.Context, messageID string, kind ReactionKind) error {
	if _, err := ParseReactionKind(string(kind)); err != nil {
		return err
	}
	agg := s.Reactions(messageID)

	s.mu.Lock()
	if !s.mounted {
		s.mu.Unlock()
		return ErrUnmounted
	}
	p, ok := s.pending[messageID]
	if !ok {
		p = &pendingReaction{unknown: !agg.Loaded()}
		if own, has := agg.Own(); has && !p.unknown {
			p.before = &own
		}
		s.pending[messageID] = p
	} else if p.timer != nil {
		p.timer.Stop()
	}
	p.last = kind
	if p.before != nil && *p.before == kind {
		p.target = nil
	} else {
		k := kind
		p.target = &k
	}
	target := p.target
	s.mu.Unlock()

	agg.ApplyLocal(target)
	s.notify()

	timer := s.clock.AfterFunc(s.debounce, func() { s.flushReaction(messageID, p) })
	s.mu.Lock()
	if s.pending[messageID] == p && s.mounted {
		p.timer = timer
	} else {
		timer.Stop()
	}
	s.mu.Unlock()
	return nil
}

// FlushReactions sends every pending burst now instead of waiting out the
// debounce window, and returns once the round trips are done.
func (s *Session) FlushReactions() {
	s.mu.Lock()
	pending := make(map[string]*pendingReaction, len(s.pending))
	for id, p := range s.pending {
		if p.timer != nil {
			p.timer.Stop()
		}
		pending[id] = p
	}
	s.mu.Unlock()

	for id, p := range pending {
		s.flushReaction(id, p)
	}
	s.flushes.Wait()
}

func (s *Session) flushReaction(messageID string, p *pendingReaction) {
	s.mu.Lock()
	if !s.mounted || s.pending[messageID] != p {
		s.mu.Unlock()
		return
	}
	delete(s.pending, messageID)
	ctx := s.ctx
	s.flushes.Add(1)
	s.mu.Unlock()
	defer s.flushes.Done()

	if !p.unknown && sameKind(p.before, p.target) {
		return
	}
	if err := s.sendReaction(ctx, messageID, p); err != nil {
		if ctx.Err() == nil {
			s.reportError(networkErr("react", err))
		}
	}
	s.mu.Lock()
	_, newer := s.pending[messageID]
	s.mu.Unlock()
	if newer {
		return
	}
	if err := s.RefreshReactions(ctx, messageID); err != nil && err != ErrUnmounted && ctx.Err() == nil {
		s.logger.Debug("reaction refresh failed", zap.String("message_id", messageID), zap.Error(err))
	}
}

// sendReaction makes the server reaction of the identity equal the burst
// target: retract when nil, insert when absent, delete then insert when it
// holds a different kind.
func (s *Session) sendReaction(ctx context.Context, messageID string, p *pendingReaction) error {
	current, err := s.backend.FetchReactions(ctx, messageID)
	if err != nil {
		return err
	}
	var mine *Reaction
	for i := range current {
		if current[i].UserID == s.self.ID {
			mine = &current[i]
		}
	}
	target := p.target
	if p.unknown {
		target = toggle(mine, p.last)
	}

	switch {
	case target == nil:
		if mine == nil {
			return nil
		}
		return s.backend.DeleteReaction(ctx, messageID, s.self.ID)
	case mine != nil && mine.Kind == *target:
		return nil
	case mine != nil:
		if err := s.backend.DeleteReaction(ctx, messageID, s.self.ID); err != nil {
			return err
		}
	}
	_, err = s.backend.InsertReaction(ctx, NewReaction{
		MessageID: messageID,
		UserID:    s.self.ID,
		Kind:      *target,
	})
	return err
}

// toggle is the target of a click on kind given the held reaction.
func toggle(held *Reaction, kind ReactionKind) *ReactionKind {
	if held != nil && held.Kind == kind {
		return nil
	}
	return &kind
}

func sameKind(a, b *ReactionKind) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
