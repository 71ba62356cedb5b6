package baseline

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/spendguard-dev/spendguard/internal/model"
)

// ErrPersistence wraps persister failures. A batch whose baseline cannot be
// persisted must fail: silently dropping the update would desynchronize
// future detection from the stored transaction set.
var ErrPersistence = errors.New("baseline persistence failure")

// ErrSessionClosed is returned by Commit on a session already finished by
// Commit or Abort, so a caller cannot mistake the no-op for a fresh commit.
var ErrSessionClosed = errors.New("baseline session already closed")

// Persister stores committed baselines outside the process. Implementations
// live in internal/storage; a nil persister keeps baselines memory-only.
type Persister interface {
	// SaveBaseline replaces the stored baseline for a user.
	SaveBaseline(ctx context.Context, userID string, b *model.UserBaseline) error
	// LoadBaseline returns the stored baseline, or nil if none exists.
	LoadBaseline(ctx context.Context, userID string) (*model.UserBaseline, error)
}

// Store maintains per-user baselines with per-user mutual exclusion. Entries
// are created lazily on first use and never torn down during the process
// lifetime. Different users are fully independent; there is no global lock
// around observation.
type Store struct {
	mu        sync.Mutex
	users     map[string]*userEntry
	retention int
	persister Persister
	log       zerolog.Logger
}

// userEntry guards one user's committed baseline. The lock channel doubles
// as the per-user critical section for batch sessions, so acquisition can
// respect context cancellation.
type userEntry struct {
	lock     chan struct{}
	baseline *model.UserBaseline
	loaded   bool
}

// NewStore creates a Store. retention bounds each user's signature set;
// persister may be nil.
func NewStore(retention int, persister Persister, log zerolog.Logger) *Store {
	return &Store{
		users:     make(map[string]*userEntry),
		retention: retention,
		persister: persister,
		log:       log,
	}
}

func (s *Store) entry(userID string) *userEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.users[userID]
	if !ok {
		e = &userEntry{
			lock:     make(chan struct{}, 1),
			baseline: model.NewUserBaseline(s.retention),
		}
		s.users[userID] = e
	}
	return e
}

// Get returns a snapshot of the user's committed baseline, creating an empty
// one on first use.
func (s *Store) Get(ctx context.Context, userID string) (*model.UserBaseline, error) {
	sess, err := s.Begin(ctx, userID)
	if err != nil {
		return nil, err
	}
	defer sess.Abort()
	return sess.staged, nil
}

// Begin acquires the user's critical section and stages a working copy of
// the committed baseline. Exactly one session per user exists at a time;
// sessions for different users proceed in parallel. The caller must finish
// with Commit or Abort.
func (s *Store) Begin(ctx context.Context, userID string) (*Session, error) {
	e := s.entry(userID)

	select {
	case e.lock <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	if !e.loaded && s.persister != nil {
		stored, err := s.persister.LoadBaseline(ctx, userID)
		if err != nil {
			<-e.lock
			return nil, fmt.Errorf("%w: loading user %s: %v", ErrPersistence, userID, err)
		}
		if stored != nil {
			e.baseline = stored
		}
		e.loaded = true
	}

	return &Session{store: s, entry: e, userID: userID, staged: e.baseline.Clone()}, nil
}

// Session stages one batch's baseline mutations for a single user. All
// observations land on a working copy; nothing reaches the committed
// baseline until Commit succeeds.
type Session struct {
	store  *Store
	entry  *userEntry
	userID string
	staged *model.UserBaseline
	done   bool
}

// Baseline returns the staged baseline. Detectors read it before the current
// transaction's Observe call, so a transaction is never anomalous relative
// to itself, while earlier rows of the same batch are visible.
func (s *Session) Baseline() *model.UserBaseline {
	return s.staged
}

// Observe folds a transaction into the staged baseline.
func (s *Session) Observe(tx model.Transaction) {
	s.staged.Observe(tx)
}

// Commit persists the staged baseline through the store's persister and
// publishes it as the committed state, atomically for this user. On
// persistence failure the staged state is discarded and the committed
// baseline is left untouched.
func (s *Session) Commit(ctx context.Context) error {
	return s.CommitWith(ctx, func(ctx context.Context, b *model.UserBaseline) error {
		if s.store.persister == nil {
			return nil
		}
		return s.store.persister.SaveBaseline(ctx, s.userID, b)
	})
}

// CommitWith runs persist on the staged baseline and, only when it succeeds,
// publishes the staged state. Callers that must write the baseline and other
// batch artifacts in one durable unit pass a persist covering both.
func (s *Session) CommitWith(ctx context.Context, persist func(context.Context, *model.UserBaseline) error) error {
	if s.done {
		return ErrSessionClosed
	}
	s.done = true
	defer func() { <-s.entry.lock }()

	if persist != nil {
		if err := persist(ctx, s.staged); err != nil {
			s.store.log.Error().Err(err).Str("user_id", s.userID).Msg("baseline commit failed")
			return fmt.Errorf("%w: saving user %s: %v", ErrPersistence, s.userID, err)
		}
	}

	s.entry.baseline = s.staged
	return nil
}

// Abort discards all staged state and releases the user's critical section.
// Safe to call after Commit; the first completion wins.
func (s *Session) Abort() {
	if s.done {
		return
	}
	s.done = true
	s.staged = nil
	<-s.entry.lock
}
