package state

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/kinance/kinance-go/internal/client/session"
	"github.com/kinance/kinance-go/internal/telemetry/logger"
)

// Sessions is the subset of *session.Manager used by the Store.
type Sessions interface {
	Login(ctx context.Context, email, password string) (*session.UserProfile, error)
	Register(ctx context.Context, req session.RegisterRequest) (*session.UserProfile, error)
	Logout(ctx context.Context) error
	IsAuthenticated(ctx context.Context) (bool, error)
	CurrentUser(ctx context.Context) (*session.UserProfile, error)
}

// Snapshot is an immutable view of the session state.
type Snapshot struct {
	User            *session.UserProfile
	IsAuthenticated bool
	IsLoading       bool
}

// Listener receives every published snapshot.
type Listener func(Snapshot)

// Store is the observable session state container.
type Store struct {
	sessions Sessions
	logger   logger.Logger

	mu        sync.RWMutex
	snap      Snapshot
	listeners map[uint64]Listener
	nextID    uint64
}

// New creates a Store in the initial state: logged out, not loading.
func New(sessions Sessions, log logger.Logger) *Store {
	if log == nil {
		log = logger.Default()
	}
	return &Store{
		sessions:  sessions,
		logger:    log.With("component", "state"),
		listeners: make(map[uint64]Listener),
	}
}

// Snapshot returns the current state.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}

// Subscribe registers fn for future snapshots and returns a function that
// removes it. Listeners run synchronously on the publishing goroutine.
func (s *Store) Subscribe(fn Listener) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.listeners, id)
			s.mu.Unlock()
		})
	}
}

// update applies fn to a copy of the state, stores it and notifies listeners.
func (s *Store) update(fn func(*Snapshot)) {
	s.mu.Lock()
	next := s.snap
	fn(&next)
	s.snap = next
	listeners := make([]Listener, 0, len(s.listeners))
	for _, l := range s.listeners {
		listeners = append(listeners, l)
	}
	s.mu.Unlock()

	for _, l := range listeners {
		l(next)
	}
}

func (s *Store) publish(next Snapshot) {
	s.update(func(sn *Snapshot) { *sn = next })
}

func (s *Store) setLoading(loading bool) {
	s.update(func(sn *Snapshot) { sn.IsLoading = loading })
}

// CheckAuthStatus reloads the state from the credential store. Both
// queries run concurrently. A stored profile is kept even without a token,
// but only a token with a readable profile counts as authenticated. Any
// failure leaves the state empty.
func (s *Store) CheckAuthStatus(ctx context.Context) error {
	s.setLoading(true)

	var (
		authenticated bool
		user          *session.UserProfile
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		authenticated, err = s.sessions.IsAuthenticated(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		user, err = s.sessions.CurrentUser(gctx)
		return err
	})

	if err := g.Wait(); err != nil {
		s.logger.Warn("auth status check failed", "error", err)
		s.publish(Snapshot{})
		return err
	}

	s.publish(Snapshot{User: user, IsAuthenticated: authenticated && user != nil})
	return nil
}

// Login signs in. On failure IsAuthenticated is left unchanged and the
// error is returned to the caller.
func (s *Store) Login(ctx context.Context, email, password string) error {
	s.setLoading(true)
	user, err := s.sessions.Login(ctx, email, password)
	if err != nil {
		s.setLoading(false)
		return err
	}
	s.publish(Snapshot{User: user, IsAuthenticated: true})
	return nil
}

// Register creates an account and signs in, with the same contract as Login.
func (s *Store) Register(ctx context.Context, req session.RegisterRequest) error {
	s.setLoading(true)
	user, err := s.sessions.Register(ctx, req)
	if err != nil {
		s.setLoading(false)
		return err
	}
	s.publish(Snapshot{User: user, IsAuthenticated: true})
	return nil
}

// Logout always ends logged out. A credential removal failure is returned
// so the caller can warn that stale credentials may remain.
func (s *Store) Logout(ctx context.Context) error {
	s.setLoading(true)
	err := s.sessions.Logout(ctx)
	s.publish(Snapshot{})
	return err
}

// SetUser replaces the user without touching the other fields.
func (s *Store) SetUser(user *session.UserProfile) {
	s.update(func(sn *Snapshot) { sn.User = user })
}
