package transcript

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/zap"

	"openchat/internal/clock"
)

const (
	DefaultHistoryLimit     = 100
	DefaultSendCooldown     = 3 * time.Second
	DefaultReactionDebounce = 150 * time.Millisecond
)

type ViewState int

const (
	ViewLoading ViewState = iota
	ViewError
	ViewEmpty
	ViewReady
)

func (s ViewState) String() string {
	switch s {
	case ViewError:
		return "error"
	case ViewEmpty:
		return "empty"
	case ViewReady:
		return "ready"
	default:
		return "loading"
	}
}

// View is what a chat screen renders: a state plus the transcript.
type View struct {
	State   ViewState
	Err     error
	Entries []Entry
}

type Option func(*Session)

func WithLogger(l *zap.Logger) Option {
	return func(s *Session) { s.logger = l }
}

func WithClock(c clock.Clock) Option {
	return func(s *Session) { s.clock = c }
}

func WithHistoryLimit(n int) Option {
	return func(s *Session) {
		if n > 0 {
			s.limit = n
		}
	}
}

func WithSendCooldown(d time.Duration) Option {
	return func(s *Session) { s.cooldownPeriod = d }
}

func WithReactionDebounce(d time.Duration) Option {
	return func(s *Session) { s.debounce = d }
}

// WithBackoff bounds the resubscribe delay of the realtime feed.
func WithBackoff(min, max time.Duration) Option {
	return func(s *Session) {
		s.minBackoff = min
		s.maxBackoff = max
	}
}

// OnChange is called after every mutation of the transcript or of a
// tracked reaction set.
func OnChange(fn func(View)) Option {
	return func(s *Session) { s.onChange = fn }
}

// OnError receives failures that have no caller to return to, such as a
// debounced reaction flush or a resync after reconnect.
func OnError(fn func(error)) Option {
	return func(s *Session) { s.onError = fn }
}

// Session is a mounted chat view for one identity.
type Session struct {
	backend Backend
	self    Identity
	store   *Store
	feed    *Feed

	logger         *zap.Logger
	clock          clock.Clock
	limit          int
	cooldownPeriod time.Duration
	cooldown       *cooldown
	debounce       time.Duration
	minBackoff     time.Duration
	maxBackoff     time.Duration
	onChange       func(View)
	onError        func(error)

	mu          sync.Mutex
	mounted     bool
	ctx         context.Context
	cancel      context.CancelFunc
	feedDone    chan struct{}
	loadState   ViewState
	loadErr     error
	aggregators map[string]*Aggregator
	pending     map[string]*pendingReaction
	flushes     sync.WaitGroup
}

func NewSession(backend Backend, self Identity, opts ...Option) *Session {
	s := &Session{
		backend:        backend,
		self:           self,
		store:          NewStore(),
		logger:         zap.NewNop(),
		clock:          clock.Real(),
		limit:          DefaultHistoryLimit,
		cooldownPeriod: DefaultSendCooldown,
		debounce:       DefaultReactionDebounce,
		loadState:      ViewLoading,
		aggregators:    make(map[string]*Aggregator),
		pending:        make(map[string]*pendingReaction),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.cooldown = newCooldown(s.clock, s.cooldownPeriod)
	s.feed = NewFeed(backend, []string{TableMessages, TableReactions}, s.handleChange, s.resync, s.clock, s.logger.Named("feed"))
	if s.minBackoff > 0 {
		s.feed.MinBackoff = s.minBackoff
	}
	if s.maxBackoff > 0 {
		s.feed.MaxBackoff = s.maxBackoff
	}
	return s
}

func (s *Session) Identity() Identity { return s.self }

func (s *Session) Store() *Store { return s.store }

func (s *Session) FeedState() FeedState { return s.feed.State() }

// Mount loads the transcript and starts the realtime feed. The feed keeps
// running until Close is called or ctx is cancelled. A failed initial
// load is returned and reflected in View; the feed still starts so a later
// Reload can recover.
func (s *Session) Mount(ctx context.Context) error {
	s.mu.Lock()
	if s.mounted {
		s.mu.Unlock()
		return nil
	}
	s.mounted = true
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.feedDone = make(chan struct{})
	feedCtx, done := s.ctx, s.feedDone
	s.mu.Unlock()

	err := s.Load(ctx)

	go func() {
		defer close(done)
		s.feed.Run(feedCtx)
	}()
	return err
}

// Close unmounts the session: pending reaction flushes are cancelled, the
// feed is stopped and its subscriptions released. Requests already in
// flight may finish but no longer touch session state.
func (s *Session) Close() error {
	s.mu.Lock()
	if !s.mounted {
		s.mu.Unlock()
		return nil
	}
	s.mounted = false
	for id, p := range s.pending {
		if p.timer != nil {
			p.timer.Stop()
		}
		delete(s.pending, id)
	}
	cancel, done := s.cancel, s.feedDone
	s.mu.Unlock()

	cancel()
	<-done
	s.flushes.Wait()
	return nil
}

func (s *Session) isMounted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mounted
}

// Load fetches the most recent messages and replaces the transcript with
// them. Unconfirmed optimistic entries are discarded.
func (s *Session) Load(ctx context.Context) error {
	s.mu.Lock()
	if !s.mounted {
		s.mu.Unlock()
		return ErrUnmounted
	}
	if s.loadState == ViewError {
		s.loadState = ViewLoading
	}
	s.mu.Unlock()

	msgs, err := s.backend.FetchMessages(ctx, s.limit)

	s.mu.Lock()
	if !s.mounted {
		s.mu.Unlock()
		return ErrUnmounted
	}
	if err != nil {
		s.loadState = ViewError
		s.loadErr = networkErr("fetch messages", err)
		err = s.loadErr
		s.mu.Unlock()
		s.logger.Warn("initial load failed", zap.Error(err))
		s.notify()
		return err
	}
	s.store.Load(msgs)
	s.loadState = ViewReady
	s.loadErr = nil
	s.mu.Unlock()

	s.logger.Debug("transcript loaded", zap.Int("messages", len(msgs)))
	s.notify()
	return nil
}

// Reload is the manual retry after a failed load.
func (s *Session) Reload(ctx context.Context) error {
	return s.Load(ctx)
}

func (s *Session) resync(ctx context.Context) {
	if err := s.Load(ctx); err != nil && err != ErrUnmounted && ctx.Err() == nil {
		s.reportError(err)
	}
	s.mu.Lock()
	ids := make([]string, 0, len(s.aggregators))
	for id := range s.aggregators {
		ids = append(ids, id)
	}
	s.mu.Unlock()
	for _, id := range ids {
		if err := s.RefreshReactions(ctx, id); err != nil && ctx.Err() == nil {
			s.logger.Debug("reaction resync failed", zap.String("message_id", id), zap.Error(err))
		}
	}
}

// View returns the current render state.
func (s *Session) View() View {
	s.mu.Lock()
	state, err := s.loadState, s.loadErr
	s.mu.Unlock()

	entries := s.store.Entries()
	if state == ViewReady || state == ViewEmpty {
		state = ViewReady
		if len(entries) == 0 {
			state = ViewEmpty
		}
	}
	return View{State: state, Err: err, Entries: entries}
}

// Transcript returns the current entries, oldest first.
func (s *Session) Transcript() []Entry {
	return s.store.Entries()
}

// Reactions returns the tracked aggregator for a message, creating it on
// first use. Realtime reaction changes are applied to tracked messages only.
func (s *Session) Reactions(messageID string) *Aggregator {
	s.mu.Lock()
	defer s.mu.Unlock()
	agg, ok := s.aggregators[messageID]
	if !ok {
		agg = NewAggregator(messageID, s.self)
		s.aggregators[messageID] = agg
	}
	return agg
}

// RefreshReactions replaces the reaction set of a message with a fresh fetch.
func (s *Session) RefreshReactions(ctx context.Context, messageID string) error {
	if !s.isMounted() {
		return ErrUnmounted
	}
	agg := s.Reactions(messageID)
	reactions, err := s.backend.FetchReactions(ctx, messageID)
	if err != nil {
		return networkErr("fetch reactions", err)
	}
	if !s.isMounted() {
		return ErrUnmounted
	}
	agg.Replace(reactions)
	s.notify()
	return nil
}

func (s *Session) handleChange(c Change) {
	if !s.isMounted() {
		return
	}
	switch c.Table {
	case TableMessages:
		s.applyMessageChange(c)
	case TableReactions:
		s.applyReactionChange(c)
	default:
		return
	}
	s.notify()
}

func (s *Session) applyMessageChange(c Change) {
	switch c.Type {
	case ChangeInsert, ChangeUpdate:
		var m Message
		if err := json.Unmarshal(c.New, &m); err != nil || m.ID == "" {
			s.logger.Warn("skipping undecodable message change", zap.String("type", string(c.Type)), zap.Error(err))
			return
		}
		s.store.Upsert(m)
	case ChangeDelete:
		var old struct {
			ID string `json:"id"`
		}
		if err := json.Unmarshal(c.Old, &old); err != nil || old.ID == "" {
			s.logger.Warn("skipping undecodable message delete", zap.Error(err))
			return
		}
		s.store.Remove(old.ID)
		s.mu.Lock()
		delete(s.aggregators, old.ID)
		s.mu.Unlock()
	}
}

func (s *Session) applyReactionChange(c Change) {
	raw := c.New
	if c.Type == ChangeDelete {
		raw = c.Old
	}
	var ref struct {
		MessageID string `json:"message_id"`
	}
	if err := json.Unmarshal(raw, &ref); err != nil {
		s.logger.Warn("skipping undecodable reaction change", zap.Error(err))
		return
	}

	s.mu.Lock()
	var targets []*Aggregator
	if ref.MessageID != "" {
		if agg, ok := s.aggregators[ref.MessageID]; ok {
			targets = append(targets, agg)
		}
	} else {
		for _, agg := range s.aggregators {
			targets = append(targets, agg)
		}
	}
	s.mu.Unlock()

	for _, agg := range targets {
		agg.Apply(c)
	}
}

func (s *Session) notify() {
	if s.onChange == nil {
		return
	}
	s.onChange(s.View())
}

func (s *Session) reportError(err error) {
	s.logger.Warn("background operation failed", zap.Error(err))
	if s.onError != nil {
		s.onError(err)
	}
}
