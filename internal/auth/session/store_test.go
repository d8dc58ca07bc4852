package session

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/arkrose/doorman/internal/auth/domain"
	"github.com/arkrose/doorman/pkg/idx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSession(userID string, now time.Time) domain.PendingSession {
	return domain.PendingSession{
		ID:        idx.New().String(),
		UserID:    userID,
		AMR:       []string{"pwd"},
		CreatedAt: now,
		ExpiresAt: now.Add(DefaultTTL),
	}
}

func TestPutAndGet(t *testing.T) {
	now := time.Now()
	s := NewStore()

	sess := newSession("user-1", now)
	s.Put(sess)

	got, ok := s.Get(sess.ID, now)
	require.True(t, ok)
	assert.Equal(t, sess.ID, got.ID)
	assert.Equal(t, "user-1", got.UserID)
	assert.Equal(t, 0, got.Attempts)
}

func TestPutReplacesPriorSessionForUser(t *testing.T) {
	now := time.Now()
	s := NewStore()

	first := newSession("user-1", now)
	second := newSession("user-1", now)
	s.Put(first)
	s.Put(second)

	_, ok := s.Get(first.ID, now)
	assert.False(t, ok, "earlier session must be evicted")

	_, ok = s.Get(second.ID, now)
	assert.True(t, ok)
	assert.Equal(t, 1, s.Len())
}

func TestGetExpiredRemovesLazily(t *testing.T) {
	now := time.Now()
	s := NewStore()

	sess := newSession("user-1", now)
	s.Put(sess)

	_, ok := s.Get(sess.ID, now.Add(DefaultTTL+time.Second))
	assert.False(t, ok)
	assert.Equal(t, 0, s.Len(), "expired session is removed on access")
}

func TestGetAtExactDeadlineIsExpired(t *testing.T) {
	now := time.Now()
	s := NewStore()

	sess := newSession("user-1", now)
	s.Put(sess)

	_, ok := s.Get(sess.ID, sess.ExpiresAt)
	assert.False(t, ok)
}

func TestTakeIsSingleUse(t *testing.T) {
	now := time.Now()
	s := NewStore()

	sess := newSession("user-1", now)
	s.Put(sess)

	got, ok := s.Take(sess.ID, now)
	require.True(t, ok)
	assert.Equal(t, sess.ID, got.ID)

	_, ok = s.Take(sess.ID, now)
	assert.False(t, ok, "a session can only be taken once")
	_, ok = s.Get(sess.ID, now)
	assert.False(t, ok)
	assert.Equal(t, 0, s.Len())
}

func TestTakeConcurrentSingleWinner(t *testing.T) {
	now := time.Now()
	s := NewStore()

	sess := newSession("user-1", now)
	s.Put(sess)

	const workers = 8
	var wg sync.WaitGroup
	var wins atomic.Int32
	start := make(chan struct{})

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			if _, ok := s.Take(sess.ID, now); ok {
				wins.Add(1)
			}
		}()
	}
	close(start)
	wg.Wait()

	assert.Equal(t, int32(1), wins.Load())
}

func TestTakeExpired(t *testing.T) {
	now := time.Now()
	s := NewStore()

	sess := newSession("user-1", now)
	s.Put(sess)

	_, ok := s.Take(sess.ID, now.Add(DefaultTTL+time.Second))
	assert.False(t, ok)
	assert.Equal(t, 0, s.Len(), "an expired take still removes the session")
}

func TestIncrementAttempts(t *testing.T) {
	now := time.Now()
	s := NewStore()

	sess := newSession("user-1", now)
	s.Put(sess)

	for want := 1; want <= 3; want++ {
		got, ok := s.IncrementAttempts(sess.ID, now)
		require.True(t, ok)
		assert.Equal(t, want, got.Attempts)
	}

	// Counter persists across reads.
	got, ok := s.Get(sess.ID, now)
	require.True(t, ok)
	assert.Equal(t, 3, got.Attempts)
}

func TestRemove(t *testing.T) {
	now := time.Now()
	s := NewStore()

	sess := newSession("user-1", now)
	s.Put(sess)
	s.Remove(sess.ID)

	_, ok := s.Get(sess.ID, now)
	assert.False(t, ok)

	s.Remove("nonexistent") // no-op

	// User slot is freed: a new session for the same user works.
	again := newSession("user-1", now)
	s.Put(again)
	_, ok = s.Get(again.ID, now)
	assert.True(t, ok)
}

func TestSweepExpired(t *testing.T) {
	now := time.Now()
	s := NewStore()

	live := newSession("user-live", now)
	stale := newSession("user-stale", now.Add(-2*DefaultTTL))
	s.Put(live)
	s.Put(stale)

	removed := s.SweepExpired(now)
	assert.Equal(t, 1, removed)
	assert.Equal(t, 1, s.Len())

	_, ok := s.Get(live.ID, now)
	assert.True(t, ok)
}
