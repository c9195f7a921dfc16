package cluster

import (
	"context"
	"log"
	"sort"
	"sync"
	"time"

	"auditraft/internal/pubsub"
	"auditraft/internal/raft/proto"
)

// leaderState drives replication: one goroutine per follower sends AppendEntries every heartbeat
// interval, covering whatever suffix of the log the follower's nextIndex cursor points at, as per
// Section 5.3 from the [Raft paper](https://raft.github.io/raft.pdf). An empty suffix is exactly a
// heartbeat, so there is no separate heartbeat path.
type leaderState struct {
	cluster *RaftCluster
	// term is the term this member won its election in. Replication never outlives it: any reply
	// with a newer term disposes the whole state.
	term uint64

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	// matchIndex tracks the highest log index known replicated on each member. Guarded by mu; the
	// commit computation reads all of them together.
	mu         sync.Mutex
	matchIndex map[MemberID]uint64
	// pendingSince records when each not-yet-committed command was accepted, for latency metrics.
	// Guarded by mu.
	pendingSince map[uint64]time.Time

	// steppedDown makes the step-down signal single-shot.
	steppedDown sync.Once
}

func newLeaderState(cluster *RaftCluster, term uint64) *leaderState {
	ctx, cancel := context.WithCancel(context.Background())
	ctx = SetCallerTerm(SetCallerID(ctx, cluster.ID), term)
	return &leaderState{
		cluster:      cluster,
		term:         term,
		ctx:          ctx,
		cancel:       cancel,
		matchIndex:   make(map[MemberID]uint64),
		pendingSince: make(map[uint64]time.Time),
	}
}

func (l *leaderState) Kind() StateKind { return Leader }

func (l *leaderState) enter() {
	lastIndex := l.cluster.trail.GetLastIndex(false)

	for _, member := range l.cluster.Members() {
		if !member.IsRemote() {
			// The leader's own log is always "replicated" up to its last index.
			l.setMatchIndex(member.ID(), lastIndex)
			continue
		}

		// Initialized to leader last log index + 1, as per Figure 2.
		member.SetNextIndex(lastIndex + 1)
		l.setMatchIndex(member.ID(), 0)

		l.wg.Add(1)
		go l.replicationLoop(member)
	}

	log.Printf("[MEMBER-%v] [TERM-%d] Became leader (last index %d)", l.cluster.ID, l.term, lastIndex)
}

func (l *leaderState) Dispose() {
	l.cancel()
	l.wg.Wait()
}

// replicationLoop sends one replication round to member immediately, then one per heartbeat
// interval, until the leader is disposed. Retries are implicit: a failed round is simply retried
// on the next tick, indefinitely, as Section 5.3 requires.
func (l *leaderState) replicationLoop(member ClusterMember) {
	defer l.wg.Done()

	ticker := time.NewTicker(l.cluster.config.HeartbeatInterval)
	defer ticker.Stop()

	l.replicate(member)
	for {
		select {
		case <-ticker.C:
			l.replicate(member)
		case <-l.ctx.Done():
			return
		}
	}
}

// replicate sends one AppendEntries round covering [nextIndex, lastIndex] and digests the reply.
func (l *leaderState) replicate(member ClusterMember) {
	trail := l.cluster.trail

	nextIndex := member.NextIndex()
	if nextIndex == 0 {
		nextIndex = 1
	}
	lastIndex := trail.GetLastIndex(false)

	prevLogIndex := nextIndex - 1
	prevEntries, err := trail.GetEntries(prevLogIndex, 1)
	if err != nil {
		log.Printf("[MEMBER-%v] [TERM-%d] Cannot read prev entry %d for %v: %v",
			l.cluster.ID, l.term, prevLogIndex, member.ID(), err)
		return
	}
	prevLogTerm := prevEntries[0].Term

	var entries []*proto.LogEntry
	if lastIndex >= nextIndex {
		entries, err = trail.GetEntries(nextIndex, lastIndex-nextIndex+1)
		if err != nil {
			log.Printf("[MEMBER-%v] [TERM-%d] Cannot read entries [%d, %d] for %v: %v",
				l.cluster.ID, l.term, nextIndex, lastIndex, member.ID(), err)
			return
		}
	}

	res, err := member.AppendEntries(l.ctx, l.term, entries, prevLogIndex, prevLogTerm, trail.GetLastIndex(true))
	if err != nil {
		// Unavailable or canceled. The member stays in the cluster and the next tick retries;
		// an unreachable follower is never removed.
		return
	}

	if res.Term > l.term {
		// A leader must never keep driving replication once it is known to be stale.
		l.stepDown(res.Term)
		return
	}

	if res.Value {
		member.SetNextIndex(lastIndex + 1)
		l.setMatchIndex(member.ID(), lastIndex)
		l.advanceCommitIndex()
		return
	}

	// Log mismatch: resolved locally by backing the cursor off and retrying next round, never
	// surfaced as an error. The follower's reported last index lets us skip a whole gap at once.
	backoff := nextIndex - 1
	if res.LastLogIndex < backoff {
		backoff = res.LastLogIndex + 1
	}
	if backoff < 1 {
		backoff = 1
	}
	member.SetNextIndex(backoff)
}

// advanceCommitIndex recomputes the highest index replicated on a majority (leader included) and
// commits up to it. Only entries from the leader's own term are committed by counting replicas,
// as per Section 5.4.2.
func (l *leaderState) advanceCommitIndex() {
	trail := l.cluster.trail

	l.mu.Lock()
	matches := make([]uint64, 0, len(l.matchIndex))
	for _, idx := range l.matchIndex {
		matches = append(matches, idx)
	}
	l.mu.Unlock()

	if len(matches) == 0 {
		return
	}

	// Descending order: matches[quorum-1] is the highest index present on at least quorum members.
	sort.Slice(matches, func(i, j int) bool { return matches[i] > matches[j] })
	quorum := len(matches)/2 + 1
	majorityMatch := matches[quorum-1]

	commitIndex := trail.GetLastIndex(true)
	if majorityMatch <= commitIndex {
		return
	}

	entries, err := trail.GetEntries(majorityMatch, 1)
	if err != nil {
		log.Printf("[MEMBER-%v] [TERM-%d] Cannot read entry %d for commit check: %v",
			l.cluster.ID, l.term, majorityMatch, err)
		return
	}
	if entries[0].Term != l.term {
		return
	}

	// CommitTo is absolute, so two replication loops advancing concurrently cannot push the
	// commit index past the majority match either of them computed.
	committed := trail.CommitTo(majorityMatch)
	if committed > 0 {
		log.Printf("[MEMBER-%v] [TERM-%d] Advanced commit index to %d (+%d)",
			l.cluster.ID, l.term, trail.GetLastIndex(true), committed)
		if l.cluster.metrics != nil {
			l.mu.Lock()
			for idx := majorityMatch - committed + 1; idx <= majorityMatch; idx++ {
				if acceptedAt, ok := l.pendingSince[idx]; ok {
					l.cluster.metrics.RecordCommandLatency(time.Since(acceptedAt))
					delete(l.pendingSince, idx)
				}
			}
			l.mu.Unlock()
			for i := uint64(0); i < committed; i++ {
				l.cluster.metrics.RecordCommandCommitted()
			}
		}
	}
}

// noteAccepted marks the moment a command entered the leader's log, so its commit latency can be
// measured once a majority holds it.
func (l *leaderState) noteAccepted(index uint64) {
	l.mu.Lock()
	l.pendingSince[index] = time.Now()
	l.mu.Unlock()
}

func (l *leaderState) setMatchIndex(id MemberID, index uint64) {
	l.mu.Lock()
	l.matchIndex[id] = index
	l.mu.Unlock()
}

func (l *leaderState) stepDown(higherTerm uint64) {
	l.steppedDown.Do(func() {
		log.Printf("[MEMBER-%v] [TERM-%d] Observed newer term %d, stepping down", l.cluster.ID, l.term, higherTerm)
		pubsub.Publish(l.cluster.pubSub, pubsub.NewEvent(StepDownDetected, higherTerm))
	})
}
