package transcript

import (
	"encoding/json"
	"sync"
)

// ReactionGroup is one kind with its count and the identities behind it.
type ReactionGroup struct {
	Kind  ReactionKind
	Count int
	Users []string
}

// Aggregator holds the reaction set of one message, keyed by identity so
// each identity has at most one reaction.
type Aggregator struct {
	messageID string
	self      Identity

	mu     sync.Mutex
	byUser map[string]Reaction
	order  []string
	loaded bool
}

func NewAggregator(messageID string, self Identity) *Aggregator {
	return &Aggregator{
		messageID: messageID,
		self:      self,
		byUser:    make(map[string]Reaction),
	}
}

func (a *Aggregator) MessageID() string { return a.messageID }

// Replace swaps in a freshly fetched reaction set. When the fetched set
// holds several rows for one identity the latest one wins.
func (a *Aggregator) Replace(reactions []Reaction) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.loaded = true
	a.byUser = make(map[string]Reaction, len(reactions))
	a.order = a.order[:0]
	for _, r := range reactions {
		if r.MessageID != "" && r.MessageID != a.messageID {
			continue
		}
		a.setLocked(r)
	}
}

// ApplyLocal sets or clears the own reaction ahead of the server round trip.
func (a *Aggregator) ApplyLocal(kind *ReactionKind) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if kind == nil {
		a.deleteLocked(a.self.ID)
		return
	}
	a.setLocked(Reaction{
		MessageID: a.messageID,
		UserID:    a.self.ID,
		Nickname:  a.self.Nickname,
		Kind:      *kind,
	})
}

// Apply folds a realtime reaction change into the set. Changes for other
// messages are ignored. It reports whether the set changed.
func (a *Aggregator) Apply(c Change) bool {
	switch c.Type {
	case ChangeInsert, ChangeUpdate:
		var r Reaction
		if err := json.Unmarshal(c.New, &r); err != nil || r.MessageID != a.messageID || r.UserID == "" {
			return false
		}
		a.mu.Lock()
		a.setLocked(r)
		a.mu.Unlock()
		return true
	case ChangeDelete:
		var r Reaction
		if err := json.Unmarshal(c.Old, &r); err != nil {
			return false
		}
		a.mu.Lock()
		defer a.mu.Unlock()
		if r.UserID != "" {
			if cur, ok := a.byUser[r.UserID]; ok && (r.ID == "" || cur.ID == "" || cur.ID == r.ID) {
				a.deleteLocked(r.UserID)
				return true
			}
			return false
		}
		for user, cur := range a.byUser {
			if r.ID != "" && cur.ID == r.ID {
				a.deleteLocked(user)
				return true
			}
		}
	}
	return false
}

// Loaded reports whether the set has been replaced by a fetch at least once.
func (a *Aggregator) Loaded() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.loaded
}

// Own returns the current identity's reaction kind, if any.
func (a *Aggregator) Own() (ReactionKind, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	r, ok := a.byUser[a.self.ID]
	return r.Kind, ok
}

func (a *Aggregator) Counts() map[ReactionKind]int {
	a.mu.Lock()
	defer a.mu.Unlock()
	counts := make(map[ReactionKind]int, len(ReactionKinds))
	for _, r := range a.byUser {
		counts[r.Kind]++
	}
	return counts
}

// Users lists who reacted with kind, by nickname where known, in the order
// the reactions were first seen.
func (a *Aggregator) Users(kind ReactionKind) []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	var users []string
	for _, id := range a.order {
		if r := a.byUser[id]; r.Kind == kind {
			users = append(users, displayName(r))
		}
	}
	return users
}

// Summary groups the set by kind in display order, skipping empty kinds.
func (a *Aggregator) Summary() []ReactionGroup {
	a.mu.Lock()
	defer a.mu.Unlock()

	groups := make(map[ReactionKind]*ReactionGroup)
	for _, id := range a.order {
		r := a.byUser[id]
		g, ok := groups[r.Kind]
		if !ok {
			g = &ReactionGroup{Kind: r.Kind}
			groups[r.Kind] = g
		}
		g.Count++
		g.Users = append(g.Users, displayName(r))
	}

	out := make([]ReactionGroup, 0, len(groups))
	for _, kind := range ReactionKinds {
		if g, ok := groups[kind]; ok {
			out = append(out, *g)
		}
	}
	return out
}

func (a *Aggregator) setLocked(r Reaction) {
	if r.UserID == "" {
		return
	}
	if _, ok := a.byUser[r.UserID]; !ok {
		a.order = append(a.order, r.UserID)
	}
	a.byUser[r.UserID] = r
}

func (a *Aggregator) deleteLocked(userID string) {
	if _, ok := a.byUser[userID]; !ok {
		return
	}
	delete(a.byUser, userID)
	for i, id := range a.order {
		if id == userID {
			a.order = append(a.order[:i], a.order[i+1:]...)
			break
		}
	}
}

func displayName(r Reaction) string {
	if r.Nickname != "" {
		return r.Nickname
	}
	return r.UserID
}
