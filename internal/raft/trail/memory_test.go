package trail

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"auditraft/internal/pubsub"
	"auditraft/internal/raft/proto"
)

// mustVote casts a vote that the test expects to be granted.
func mustVote(t *testing.T, trail AuditTrail, candidateID string) {
	t.Helper()
	granted, err := trail.TryVote(candidateID)
	require.NoError(t, err)
	require.True(t, granted)
}

func TestMemoryAuditTrail_EmptyLog(t *testing.T) {
	trail := NewMemoryAuditTrail(nil)

	assert.Equal(t, uint64(0), trail.GetLastIndex(false))
	assert.Equal(t, uint64(0), trail.GetLastIndex(true))

	index, term := trail.LastIndexAndTerm(false)
	assert.Equal(t, uint64(0), index)
	assert.Equal(t, uint64(0), term)
}

func TestMemoryAuditTrail_AppendEntries(t *testing.T) {
	t.Run("appends at the end and assigns indices", func(t *testing.T) {
		trail := NewMemoryAuditTrail(nil)

		lastIndex, err := trail.AppendEntries([]*proto.LogEntry{
			{Term: 1, Content: []byte("a")},
			{Term: 2, Content: []byte("b")},
		}, 0)
		require.NoError(t, err)
		assert.Equal(t, uint64(2), lastIndex)
		assert.Equal(t, uint64(0), trail.GetLastIndex(true))

		entries, err := trail.GetEntries(1, 2)
		require.NoError(t, err)
		require.Len(t, entries, 2)
		assert.Equal(t, uint64(1), entries[0].Index)
		assert.Equal(t, uint64(2), entries[1].Index)
		assert.Equal(t, uint64(2), entries[1].Term)
	})

	t.Run("overwrites and truncates the suffix from startIndex", func(t *testing.T) {
		trail := NewMemoryAuditTrail(nil)

		_, err := trail.AppendEntries([]*proto.LogEntry{
			{Term: 1}, {Term: 1}, {Term: 1},
		}, 0)
		require.NoError(t, err)

		// A new leader rewrites everything from index 2 on.
		lastIndex, err := trail.AppendEntries([]*proto.LogEntry{{Term: 3, Content: []byte("new")}}, 2)
		require.NoError(t, err)
		assert.Equal(t, uint64(2), lastIndex)

		entries, err := trail.GetEntries(2, 1)
		require.NoError(t, err)
		assert.Equal(t, uint64(3), entries[0].Term)
		assert.Equal(t, []byte("new"), entries[0].Content)

		// Index 3 is gone.
		_, err = trail.GetEntries(3, 1)
		assert.ErrorIs(t, err, ErrIndexOutOfRange)
	})

	t.Run("rejects appends at or below the commit index", func(t *testing.T) {
		trail := NewMemoryAuditTrail(nil)

		_, err := trail.AppendEntries([]*proto.LogEntry{{Term: 1}, {Term: 1}}, 0)
		require.NoError(t, err)
		require.Equal(t, uint64(2), trail.Commit(2))

		_, err = trail.AppendEntries([]*proto.LogEntry{{Term: 2}}, 2)
		assert.ErrorIs(t, err, ErrCommittedOverwrite)

		_, err = trail.AppendEntries([]*proto.LogEntry{{Term: 2}}, 1)
		assert.ErrorIs(t, err, ErrCommittedOverwrite)

		// Right after the commit index is fine.
		_, err = trail.AppendEntries([]*proto.LogEntry{{Term: 2}}, 3)
		assert.NoError(t, err)
	})

	t.Run("rejects appends that would leave a gap", func(t *testing.T) {
		trail := NewMemoryAuditTrail(nil)

		_, err := trail.AppendEntries([]*proto.LogEntry{{Term: 1}}, 5)
		assert.ErrorIs(t, err, ErrIndexOutOfRange)
	})
}

func TestMemoryAuditTrail_GetEntries(t *testing.T) {
	trail := NewMemoryAuditTrail(nil)
	_, err := trail.AppendEntries([]*proto.LogEntry{{Term: 1}, {Term: 2}}, 0)
	require.NoError(t, err)

	t.Run("index 0 resolves to the sentinel", func(t *testing.T) {
		entries, err := trail.GetEntries(0, 1)
		require.NoError(t, err)
		assert.Equal(t, uint64(0), entries[0].Index)
		assert.Equal(t, uint64(0), entries[0].Term)
	})

	t.Run("range spanning the sentinel and real entries", func(t *testing.T) {
		entries, err := trail.GetEntries(0, 3)
		require.NoError(t, err)
		require.Len(t, entries, 3)
		assert.Equal(t, uint64(2), entries[2].Index)
	})

	t.Run("zero count returns nothing", func(t *testing.T) {
		entries, err := trail.GetEntries(1, 0)
		require.NoError(t, err)
		assert.Empty(t, entries)
	})

	t.Run("range past the last index fails", func(t *testing.T) {
		_, err := trail.GetEntries(2, 2)
		assert.ErrorIs(t, err, ErrIndexOutOfRange)
	})
}

func TestMemoryAuditTrail_Commit(t *testing.T) {
	t.Run("advances the commit index and is clamped to the last index", func(t *testing.T) {
		trail := NewMemoryAuditTrail(nil)
		_, err := trail.AppendEntries([]*proto.LogEntry{{Term: 1}, {Term: 1}, {Term: 1}}, 0)
		require.NoError(t, err)

		assert.Equal(t, uint64(2), trail.Commit(2))
		assert.Equal(t, uint64(2), trail.GetLastIndex(true))

		// Asking for more than exists commits only what is there.
		assert.Equal(t, uint64(1), trail.Commit(10))
		assert.Equal(t, uint64(3), trail.GetLastIndex(true))

		// Nothing left: a repeat is a no-op, not an error.
		assert.Equal(t, uint64(0), trail.Commit(10))
		assert.Equal(t, uint64(3), trail.GetLastIndex(true))
	})

	t.Run("publishes a notification covering the committed batch", func(t *testing.T) {
		pubSub := pubsub.NewPubSub()
		defer pubSub.GracefulShutdown()

		notifications := make(chan *pubsub.Event[CommitNotification], 10)
		pubsub.Subscribe(pubSub, EntriesCommitted, notifications, pubsub.SubscriptionOptions{IsBlocking: false})

		trail := NewMemoryAuditTrail(pubSub)
		_, err := trail.AppendEntries([]*proto.LogEntry{{Term: 1}, {Term: 1}, {Term: 1}}, 0)
		require.NoError(t, err)

		trail.Commit(2)
		select {
		case ev := <-notifications:
			assert.Equal(t, uint64(1), ev.Payload.StartIndex)
			assert.Equal(t, uint64(2), ev.Payload.Count)
		case <-time.After(time.Second):
			t.Fatal("no commit notification received")
		}

		trail.Commit(1)
		select {
		case ev := <-notifications:
			assert.Equal(t, uint64(3), ev.Payload.StartIndex)
			assert.Equal(t, uint64(1), ev.Payload.Count)
		case <-time.After(time.Second):
			t.Fatal("no commit notification received")
		}
	})

	t.Run("no notification for an empty commit", func(t *testing.T) {
		pubSub := pubsub.NewPubSub()
		defer pubSub.GracefulShutdown()

		notifications := make(chan *pubsub.Event[CommitNotification], 10)
		pubsub.Subscribe(pubSub, EntriesCommitted, notifications, pubsub.SubscriptionOptions{IsBlocking: false})

		trail := NewMemoryAuditTrail(pubSub)
		trail.Commit(5)

		select {
		case <-notifications:
			t.Fatal("unexpected notification for an empty commit")
		case <-time.After(50 * time.Millisecond):
		}
	})
}

func TestMemoryAuditTrail_CommitTo(t *testing.T) {
	t.Run("advances to the target and reports what was newly committed", func(t *testing.T) {
		trail := NewMemoryAuditTrail(nil)
		_, err := trail.AppendEntries([]*proto.LogEntry{{Term: 1}, {Term: 1}, {Term: 1}}, 0)
		require.NoError(t, err)

		assert.Equal(t, uint64(2), trail.CommitTo(2))
		assert.Equal(t, uint64(2), trail.GetLastIndex(true))

		// A target at or below the commit index is a no-op: the commit index never moves back.
		assert.Equal(t, uint64(0), trail.CommitTo(2))
		assert.Equal(t, uint64(0), trail.CommitTo(1))
		assert.Equal(t, uint64(2), trail.GetLastIndex(true))

		// A target past the last index is clamped to it.
		assert.Equal(t, uint64(1), trail.CommitTo(10))
		assert.Equal(t, uint64(3), trail.GetLastIndex(true))
	})

	t.Run("publishes a notification covering the committed window", func(t *testing.T) {
		pubSub := pubsub.NewPubSub()
		defer pubSub.GracefulShutdown()

		notifications := make(chan *pubsub.Event[CommitNotification], 10)
		pubsub.Subscribe(pubSub, EntriesCommitted, notifications, pubsub.SubscriptionOptions{IsBlocking: false})

		trail := NewMemoryAuditTrail(pubSub)
		_, err := trail.AppendEntries([]*proto.LogEntry{{Term: 1}, {Term: 1}, {Term: 1}}, 0)
		require.NoError(t, err)

		trail.CommitTo(2)
		select {
		case ev := <-notifications:
			assert.Equal(t, uint64(1), ev.Payload.StartIndex)
			assert.Equal(t, uint64(2), ev.Payload.Count)
		case <-time.After(time.Second):
			t.Fatal("no commit notification received")
		}
	})

	t.Run("concurrent callers never push past the target", func(t *testing.T) {
		for trial := 0; trial < 200; trial++ {
			trail := NewMemoryAuditTrail(nil)
			entries := make([]*proto.LogEntry, 10)
			for i := range entries {
				entries[i] = &proto.LogEntry{Term: 1}
			}
			_, err := trail.AppendEntries(entries, 0)
			require.NoError(t, err)

			start := make(chan struct{})
			var wg sync.WaitGroup
			var total atomic.Uint64
			for i := 0; i < 2; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					<-start
					total.Add(trail.CommitTo(2))
				}()
			}
			close(start)
			wg.Wait()

			require.Equal(t, uint64(2), trail.GetLastIndex(true))
			require.Equal(t, uint64(2), total.Load())
		}
	})
}

func TestMemoryAuditTrail_TryVote(t *testing.T) {
	t.Run("grants the first vote and re-grants the same candidate", func(t *testing.T) {
		trail := NewMemoryAuditTrail(nil)

		granted, err := trail.TryVote("member-1")
		require.NoError(t, err)
		assert.True(t, granted)

		// A retransmitted request from the same candidate is granted again.
		granted, err = trail.TryVote("member-1")
		require.NoError(t, err)
		assert.True(t, granted)

		votedFor, voted := trail.GetVotedFor()
		assert.True(t, voted)
		assert.Equal(t, "member-1", votedFor)
	})

	t.Run("rejects a different candidate once the vote is held", func(t *testing.T) {
		trail := NewMemoryAuditTrail(nil)
		mustVote(t, trail, "member-1")

		granted, err := trail.TryVote("member-2")
		require.NoError(t, err)
		assert.False(t, granted)

		votedFor, _ := trail.GetVotedFor()
		assert.Equal(t, "member-1", votedFor)
	})

	t.Run("concurrent candidates never both collect the vote", func(t *testing.T) {
		for trial := 0; trial < 200; trial++ {
			trail := NewMemoryAuditTrail(nil)

			start := make(chan struct{})
			var wg sync.WaitGroup
			granted := [2]bool{}
			errs := [2]error{}
			for i, candidate := range []string{"member-A", "member-B"} {
				wg.Add(1)
				go func(slot int, id string) {
					defer wg.Done()
					<-start
					granted[slot], errs[slot] = trail.TryVote(id)
				}(i, candidate)
			}
			close(start)
			wg.Wait()

			require.NoError(t, errs[0])
			require.NoError(t, errs[1])

			require.False(t, granted[0] && granted[1], "vote granted to two candidates")

			votedFor, voted := trail.GetVotedFor()
			require.True(t, voted)
			if granted[0] {
				require.Equal(t, "member-A", votedFor)
			} else {
				require.Equal(t, "member-B", votedFor)
			}
		}
	})
}

func TestMemoryAuditTrail_CommittedOnlyViews(t *testing.T) {
	trail := NewMemoryAuditTrail(nil)
	_, err := trail.AppendEntries([]*proto.LogEntry{{Term: 1}, {Term: 2}, {Term: 2}}, 0)
	require.NoError(t, err)
	trail.Commit(1)

	assert.Equal(t, uint64(3), trail.GetLastIndex(false))
	assert.Equal(t, uint64(1), trail.GetLastIndex(true))

	index, term := trail.LastIndexAndTerm(false)
	assert.Equal(t, uint64(3), index)
	assert.Equal(t, uint64(2), term)

	index, term = trail.LastIndexAndTerm(true)
	assert.Equal(t, uint64(1), index)
	assert.Equal(t, uint64(1), term)
}

func TestMemoryAuditTrail_Terms(t *testing.T) {
	t.Run("terms only move forward", func(t *testing.T) {
		trail := NewMemoryAuditTrail(nil)

		require.NoError(t, trail.UpdateTerm(3))
		assert.Equal(t, uint64(3), trail.GetTerm())

		err := trail.UpdateTerm(2)
		assert.ErrorIs(t, err, ErrTermRegression)
		assert.Equal(t, uint64(3), trail.GetTerm())

		// Same term is a no-op, not a regression.
		assert.NoError(t, trail.UpdateTerm(3))
	})

	t.Run("advancing the term clears the vote", func(t *testing.T) {
		trail := NewMemoryAuditTrail(nil)

		mustVote(t, trail, "member-1")
		votedFor, voted := trail.GetVotedFor()
		require.True(t, voted)
		require.Equal(t, "member-1", votedFor)

		require.NoError(t, trail.UpdateTerm(1))
		_, voted = trail.GetVotedFor()
		assert.False(t, voted)
	})

	t.Run("setting the same term keeps the vote", func(t *testing.T) {
		trail := NewMemoryAuditTrail(nil)

		require.NoError(t, trail.UpdateTerm(2))
		mustVote(t, trail, "member-1")
		require.NoError(t, trail.UpdateTerm(2))

		votedFor, voted := trail.GetVotedFor()
		assert.True(t, voted)
		assert.Equal(t, "member-1", votedFor)
	})

	t.Run("increment clears the vote and returns the new term", func(t *testing.T) {
		trail := NewMemoryAuditTrail(nil)

		mustVote(t, trail, "member-1")
		term, err := trail.IncrementTerm()
		require.NoError(t, err)
		assert.Equal(t, uint64(1), term)

		_, voted := trail.GetVotedFor()
		assert.False(t, voted)
	})
}
