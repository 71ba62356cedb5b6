package baseline

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spendguard-dev/spendguard/internal/logger"
	"github.com/spendguard-dev/spendguard/internal/model"
)

func tx(vendor string, amount string, sig uint64) model.Transaction {
	return model.Transaction{
		NormalizedVendor: vendor,
		Category:         "retail",
		Amount:           decimal.RequireFromString(amount),
		DuplicateSig:     sig,
	}
}

func TestStore_LazyCreation(t *testing.T) {
	s := NewStore(100, nil, logger.Nop())

	b, err := s.Get(context.Background(), "u1")
	require.NoError(t, err)
	assert.Empty(t, b.VendorStats)
	assert.Empty(t, b.VendorFrequency)
}

func TestSession_CommitPublishes(t *testing.T) {
	s := NewStore(100, nil, logger.Nop())
	ctx := context.Background()

	sess, err := s.Begin(ctx, "u1")
	require.NoError(t, err)
	sess.Observe(tx("coffee co", "-4.50", 1))
	require.NoError(t, sess.Commit(ctx))

	b, err := s.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), b.VendorFrequency["coffee co"])
	assert.True(t, b.HasSignature(1))
}

func TestSession_AbortLeaksNothing(t *testing.T) {
	s := NewStore(100, nil, logger.Nop())
	ctx := context.Background()

	sess, err := s.Begin(ctx, "u1")
	require.NoError(t, err)
	sess.Observe(tx("coffee co", "-4.50", 1))
	sess.Abort()

	b, err := s.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, b.VendorFrequency, "aborted observations must not leak")
	assert.False(t, b.HasSignature(1))
}

func TestSession_StagedVisibleWithinBatch(t *testing.T) {
	s := NewStore(100, nil, logger.Nop())
	ctx := context.Background()

	sess, err := s.Begin(ctx, "u1")
	require.NoError(t, err)
	defer sess.Abort()

	first := tx("coffee co", "-4.50", 7)
	assert.False(t, sess.Baseline().HasSignature(7), "first row scored against empty baseline")
	sess.Observe(first)

	// The second identical row sees the first one even before commit.
	assert.True(t, sess.Baseline().HasSignature(7))
}

func TestSession_CommitAfterClose(t *testing.T) {
	s := NewStore(100, nil, logger.Nop())
	ctx := context.Background()

	sess, err := s.Begin(ctx, "u1")
	require.NoError(t, err)
	sess.Abort()
	require.ErrorIs(t, sess.Commit(ctx), ErrSessionClosed)

	sess, err = s.Begin(ctx, "u1")
	require.NoError(t, err)
	require.NoError(t, sess.Commit(ctx))
	require.ErrorIs(t, sess.Commit(ctx), ErrSessionClosed)
}

func TestSession_CommitWithPublishesOnSuccessOnly(t *testing.T) {
	s := NewStore(100, nil, logger.Nop())
	ctx := context.Background()

	sess, err := s.Begin(ctx, "u1")
	require.NoError(t, err)
	sess.Observe(tx("coffee co", "-4.50", 1))
	err = sess.CommitWith(ctx, func(context.Context, *model.UserBaseline) error {
		return errors.New("write failed")
	})
	require.ErrorIs(t, err, ErrPersistence)

	b, err := s.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, b.VendorFrequency)

	sess, err = s.Begin(ctx, "u1")
	require.NoError(t, err)
	sess.Observe(tx("coffee co", "-4.50", 1))
	var saw int64
	err = sess.CommitWith(ctx, func(_ context.Context, b *model.UserBaseline) error {
		saw = b.VendorFrequency["coffee co"]
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), saw, "persist sees the staged state")

	b, err = s.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), b.VendorFrequency["coffee co"])
}

func TestStore_PerUserSerialization(t *testing.T) {
	s := NewStore(100, nil, logger.Nop())
	ctx := context.Background()

	sess, err := s.Begin(ctx, "u1")
	require.NoError(t, err)

	// A second session for the same user blocks until the first finishes.
	started := make(chan struct{})
	acquired := make(chan struct{})
	go func() {
		close(started)
		s2, err := s.Begin(ctx, "u1")
		if err == nil {
			close(acquired)
			s2.Abort()
		}
	}()

	<-started
	select {
	case <-acquired:
		t.Fatal("second session acquired while first still open")
	case <-time.After(50 * time.Millisecond):
	}

	sess.Abort()
	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("second session never acquired after abort")
	}
}

func TestStore_CrossUserParallelism(t *testing.T) {
	s := NewStore(100, nil, logger.Nop())
	ctx := context.Background()

	sess, err := s.Begin(ctx, "u1")
	require.NoError(t, err)
	defer sess.Abort()

	// A different user's session proceeds while u1 is held.
	done := make(chan struct{})
	go func() {
		s2, err := s.Begin(ctx, "u2")
		if err == nil {
			s2.Abort()
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("cross-user session blocked")
	}
}

func TestStore_BeginHonorsCancellation(t *testing.T) {
	s := NewStore(100, nil, logger.Nop())

	sess, err := s.Begin(context.Background(), "u1")
	require.NoError(t, err)
	defer sess.Abort()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = s.Begin(ctx, "u1")
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestStore_ConcurrentObserves(t *testing.T) {
	s := NewStore(1000, nil, logger.Nop())
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			userID := []string{"a", "b", "c", "d"}[n%4]
			sess, err := s.Begin(ctx, userID)
			if err != nil {
				return
			}
			for j := 0; j < 50; j++ {
				sess.Observe(tx("vendor", "-10.00", uint64(n*100+j)))
			}
			_ = sess.Commit(ctx)
		}(i)
	}
	wg.Wait()

	for _, userID := range []string{"a", "b", "c", "d"} {
		b, err := s.Get(ctx, userID)
		require.NoError(t, err)
		assert.Equal(t, int64(100), b.VendorFrequency["vendor"], "user %s", userID)
	}
}

type failingPersister struct{}

func (failingPersister) SaveBaseline(context.Context, string, *model.UserBaseline) error {
	return errors.New("connection refused")
}

func (failingPersister) LoadBaseline(context.Context, string) (*model.UserBaseline, error) {
	return nil, nil
}

func TestSession_CommitPersistenceFailure(t *testing.T) {
	s := NewStore(100, failingPersister{}, logger.Nop())
	ctx := context.Background()

	sess, err := s.Begin(ctx, "u1")
	require.NoError(t, err)
	sess.Observe(tx("coffee co", "-4.50", 1))

	err = sess.Commit(ctx)
	require.ErrorIs(t, err, ErrPersistence)

	// Committed state untouched after the failed commit.
	b, err := s.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, b.VendorFrequency)
}
