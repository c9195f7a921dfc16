package cluster

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"auditraft/internal/pubsub"
	"auditraft/internal/raft/mocks"
	"auditraft/internal/raft/proto"
)

// mockMember is a scriptable ClusterMember for election and replication tests.
type mockMember struct {
	mock.Mock
	id     MemberID
	remote bool

	nextIndex atomic.Uint64
}

func newMockMember(id MemberID) *mockMember {
	return &mockMember{id: id, remote: true}
}

func (m *mockMember) ID() MemberID            { return m.id }
func (m *mockMember) Address() MemberAddress  { return MemberAddress("test://" + string(m.id)) }
func (m *mockMember) IsRemote() bool          { return m.remote }
func (m *mockMember) NextIndex() uint64       { return m.nextIndex.Load() }
func (m *mockMember) SetNextIndex(idx uint64) { m.nextIndex.Store(idx) }
func (m *mockMember) CancelPendingRequests()  {}

func (m *mockMember) RequestVote(ctx context.Context, term, lastLogIndex, lastLogTerm uint64) (Result[bool], error) {
	args := m.Called(term, lastLogIndex, lastLogTerm)
	return args.Get(0).(Result[bool]), args.Error(1)
}

func (m *mockMember) AppendEntries(ctx context.Context, term uint64, entries []*proto.LogEntry, prevLogIndex, prevLogTerm, leaderCommit uint64) (AppendResult, error) {
	args := m.Called(term, entries, prevLogIndex, prevLogTerm, leaderCommit)
	return args.Get(0).(AppendResult), args.Error(1)
}

// newTestCandidate builds a candidate without entering it, so aggregation can be driven directly.
func newTestCandidate(c *RaftCluster) *candidateState {
	ctx, cancel := context.WithCancel(context.Background())
	return &candidateState{cluster: c, ctx: ctx, cancel: cancel}
}

func TestCandidateState_Aggregate(t *testing.T) {
	const term = uint64(2)

	feed := func(results ...voteResult) chan voteResult {
		ch := make(chan voteResult, len(results))
		for _, r := range results {
			ch <- r
		}
		return ch
	}

	t.Run("wins with a positive tally including the local vote", func(t *testing.T) {
		c := newTestCluster(t)
		cand := newTestCandidate(c)
		defer cand.cancel()
		local := c.members[0]

		outcome := cand.aggregate(term, 3, feed(
			voteResult{member: local, outcome: Granted, voterTerm: term},
			voteResult{member: newMockMember("member-1"), outcome: Granted, voterTerm: term},
			voteResult{member: newMockMember("member-2"), outcome: Rejected, voterTerm: term},
		))

		assert.True(t, outcome.Won)
		assert.Equal(t, term, outcome.Term)
	})

	t.Run("loses when the tally is not positive", func(t *testing.T) {
		c := newTestCluster(t)
		cand := newTestCandidate(c)
		defer cand.cancel()
		local := c.members[0]

		outcome := cand.aggregate(term, 3, feed(
			voteResult{member: local, outcome: Granted, voterTerm: term},
			voteResult{member: newMockMember("member-1"), outcome: Rejected, voterTerm: term},
			voteResult{member: newMockMember("member-2"), outcome: Rejected, voterTerm: term},
		))

		assert.False(t, outcome.Won)
		assert.Equal(t, term, outcome.Term)
	})

	t.Run("an unreachable voter weighs like a rejection", func(t *testing.T) {
		c := newTestCluster(t)
		cand := newTestCandidate(c)
		defer cand.cancel()
		local := c.members[0]

		outcome := cand.aggregate(term, 3, feed(
			voteResult{member: local, outcome: Granted, voterTerm: term},
			voteResult{member: newMockMember("member-1"), outcome: NotAvailable},
			voteResult{member: newMockMember("member-2"), outcome: NotAvailable},
		))

		assert.False(t, outcome.Won)
	})

	t.Run("still wins when one voter is down but the tally holds", func(t *testing.T) {
		c := newTestCluster(t)
		cand := newTestCandidate(c)
		defer cand.cancel()
		local := c.members[0]

		outcome := cand.aggregate(term, 4, feed(
			voteResult{member: local, outcome: Granted, voterTerm: term},
			voteResult{member: newMockMember("member-1"), outcome: Granted, voterTerm: term},
			voteResult{member: newMockMember("member-2"), outcome: Granted, voterTerm: term},
			voteResult{member: newMockMember("member-3"), outcome: NotAvailable},
		))

		assert.True(t, outcome.Won)
	})

	t.Run("a newer responder term ends the election immediately", func(t *testing.T) {
		c := newTestCluster(t)
		cand := newTestCandidate(c)
		defer cand.cancel()

		outcome := cand.aggregate(term, 3, feed(
			voteResult{member: newMockMember("member-1"), outcome: Rejected, voterTerm: term + 3},
		))

		assert.False(t, outcome.Won)
		assert.Equal(t, term+3, outcome.Term)
	})

	t.Run("a canceled vote ends the election at the candidate's term", func(t *testing.T) {
		c := newTestCluster(t)
		cand := newTestCandidate(c)
		defer cand.cancel()

		outcome := cand.aggregate(term, 3, feed(
			voteResult{member: newMockMember("member-1"), outcome: Canceled},
		))

		assert.False(t, outcome.Won)
		assert.Equal(t, term, outcome.Term)
	})

	t.Run("cannot win without the local vote", func(t *testing.T) {
		c := newTestCluster(t)
		cand := newTestCandidate(c)
		defer cand.cancel()
		local := c.members[0]

		outcome := cand.aggregate(term, 3, feed(
			voteResult{member: local, outcome: Rejected, voterTerm: term},
			voteResult{member: newMockMember("member-1"), outcome: Granted, voterTerm: term},
			voteResult{member: newMockMember("member-2"), outcome: Granted, voterTerm: term},
		))

		assert.False(t, outcome.Won)
	})

	t.Run("cannot win after the election context expired", func(t *testing.T) {
		c := newTestCluster(t)
		cand := newTestCandidate(c)
		local := c.members[0]

		cand.cancel()

		outcome := cand.aggregate(term, 2, feed(
			voteResult{member: local, outcome: Granted, voterTerm: term},
			voteResult{member: newMockMember("member-1"), outcome: Granted, voterTerm: term},
		))

		assert.False(t, outcome.Won)
	})
}

func TestCandidateState_Run(t *testing.T) {
	subscribeOutcomes := func(c *RaftCluster) chan *pubsub.Event[ElectionOutcome] {
		ch := make(chan *pubsub.Event[ElectionOutcome], 1)
		pubsub.Subscribe(c.pubSub, ElectionFinished, ch, pubsub.SubscriptionOptions{IsBlocking: false})
		return ch
	}

	awaitOutcome := func(t *testing.T, ch chan *pubsub.Event[ElectionOutcome]) ElectionOutcome {
		t.Helper()
		select {
		case ev := <-ch:
			return ev.Payload
		case <-time.After(2 * time.Second):
			t.Fatal("no election outcome published")
			return ElectionOutcome{}
		}
	}

	t.Run("wins when the peers grant", func(t *testing.T) {
		m1 := newMockMember("member-1")
		m2 := newMockMember("member-2")
		c := newTestCluster(t, m1, m2)
		outcomes := subscribeOutcomes(c)

		m1.On("RequestVote", uint64(1), uint64(0), uint64(0)).Return(Result[bool]{Term: 1, Value: true}, nil)
		m2.On("RequestVote", uint64(1), uint64(0), uint64(0)).Return(Result[bool]{Term: 1, Value: true}, nil)

		cand := newCandidateState(c)
		cand.enter()
		defer cand.Dispose()

		outcome := awaitOutcome(t, outcomes)
		assert.True(t, outcome.Won)
		assert.Equal(t, uint64(1), outcome.Term)

		// The candidacy incremented the term and voted for itself.
		assert.Equal(t, uint64(1), c.trail.GetTerm())
		votedFor, voted := c.trail.GetVotedFor()
		require.True(t, voted)
		assert.Equal(t, string(c.ID), votedFor)
	})

	t.Run("loses when the peers reject", func(t *testing.T) {
		m1 := newMockMember("member-1")
		m2 := newMockMember("member-2")
		c := newTestCluster(t, m1, m2)
		outcomes := subscribeOutcomes(c)

		m1.On("RequestVote", uint64(1), uint64(0), uint64(0)).Return(Result[bool]{Term: 1, Value: false}, nil)
		m2.On("RequestVote", uint64(1), uint64(0), uint64(0)).Return(Result[bool]{Term: 1, Value: false}, nil)

		cand := newCandidateState(c)
		cand.enter()
		defer cand.Dispose()

		outcome := awaitOutcome(t, outcomes)
		assert.False(t, outcome.Won)
		assert.Equal(t, uint64(1), outcome.Term)
	})

	t.Run("abandons the election when a peer reports a newer term", func(t *testing.T) {
		m1 := newMockMember("member-1")
		m2 := newMockMember("member-2")
		c := newTestCluster(t, m1, m2)
		outcomes := subscribeOutcomes(c)

		m1.On("RequestVote", uint64(1), uint64(0), uint64(0)).Return(Result[bool]{Term: 9, Value: false}, nil)
		m2.On("RequestVote", uint64(1), uint64(0), uint64(0)).Return(Result[bool]{Term: 1, Value: true}, nil)

		cand := newCandidateState(c)
		cand.enter()
		defer cand.Dispose()

		outcome := awaitOutcome(t, outcomes)
		assert.False(t, outcome.Won)
		assert.Equal(t, uint64(9), outcome.Term)
	})

	t.Run("unreachable peers cost the election in a cluster of three", func(t *testing.T) {
		m1 := newMockMember("member-1")
		m2 := newMockMember("member-2")
		c := newTestCluster(t, m1, m2)
		outcomes := subscribeOutcomes(c)

		unreachable := errors.New("connection refused")
		m1.On("RequestVote", uint64(1), uint64(0), uint64(0)).Return(Result[bool]{}, unreachable)
		m2.On("RequestVote", uint64(1), uint64(0), uint64(0)).Return(Result[bool]{}, unreachable)

		cand := newCandidateState(c)
		cand.enter()
		defer cand.Dispose()

		outcome := awaitOutcome(t, outcomes)
		assert.False(t, outcome.Won)
	})
}

func TestCandidateState_RunWithFailingTrail(t *testing.T) {
	c := newTestCluster(t)
	failing := mocks.NewMockAuditTrail()
	failing.TryVoteError = errors.New("disk full")
	c.trail = failing

	outcomes := make(chan *pubsub.Event[ElectionOutcome], 1)
	pubsub.Subscribe(c.pubSub, ElectionFinished, outcomes, pubsub.SubscriptionOptions{IsBlocking: false})

	cand := newCandidateState(c)
	cand.enter()
	defer cand.Dispose()

	// A vote that cannot be persisted must not be cast; the election is forfeited instead.
	select {
	case ev := <-outcomes:
		assert.False(t, ev.Payload.Won)
		assert.Equal(t, uint64(1), ev.Payload.Term)
	case <-time.After(2 * time.Second):
		t.Fatal("no election outcome published")
	}
}

func TestCandidateState_RecordsElectionMetrics(t *testing.T) {
	c := newTestCluster(t)
	collector := mocks.NewMockMetricsCollector()
	c.metrics = collector

	outcomes := make(chan *pubsub.Event[ElectionOutcome], 1)
	pubsub.Subscribe(c.pubSub, ElectionFinished, outcomes, pubsub.SubscriptionOptions{IsBlocking: false})

	cand := newCandidateState(c)
	cand.enter()
	defer cand.Dispose()

	select {
	case <-outcomes:
	case <-time.After(2 * time.Second):
		t.Fatal("no election outcome published")
	}

	assert.Equal(t, 1, collector.ElectionsStarted)
	assert.Len(t, collector.ElectionDurations, 1)
}

func TestClassifyVoteError(t *testing.T) {
	t.Run("expired election context means canceled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		assert.Equal(t, Canceled, classifyVoteError(ctx, errors.New("rpc error")))
	})

	t.Run("context errors mean canceled", func(t *testing.T) {
		ctx := context.Background()
		assert.Equal(t, Canceled, classifyVoteError(ctx, context.Canceled))
		assert.Equal(t, Canceled, classifyVoteError(ctx, context.DeadlineExceeded))
	})

	t.Run("anything else means the member was unavailable", func(t *testing.T) {
		ctx := context.Background()
		assert.Equal(t, NotAvailable, classifyVoteError(ctx, errors.New("connection refused")))
	})
}
