package trail

import (
	"fmt"
	"sync"

	"auditraft/internal/pubsub"
	"auditraft/internal/raft/proto"
)

// sentinel is the virtual entry at index 0. It always exists and precedes the real log, so
// prevLogIndex/prevLogTerm comparisons against an empty log need no special casing.
var sentinel = &proto.LogEntry{Index: 0, Term: 0}

// MemoryAuditTrail is an in-memory AuditTrail. It is the default for tests and for nodes that do
// not need durability across restarts; BboltAuditTrail is the persistent counterpart.
type MemoryAuditTrail struct {
	// Guards all fields below. Writers (append, commit, term, vote) are serialized by the write
	// lock; reads take the read lock so index/term pairs are never torn.
	mu sync.RWMutex

	// entries[i] holds the entry at index i+1.
	entries     []*proto.LogEntry
	commitIndex uint64

	currentTerm uint64
	votedFor    string
	hasVoted    bool

	pubSub *pubsub.PubSubClient
}

// NewMemoryAuditTrail creates an empty in-memory trail. Commit notifications are published on
// pubSub, which may be nil when no subscriber exists (e.g. unit tests of unrelated components).
func NewMemoryAuditTrail(pubSub *pubsub.PubSubClient) *MemoryAuditTrail {
	return &MemoryAuditTrail{pubSub: pubSub}
}

func (m *MemoryAuditTrail) AppendEntries(entries []*proto.LogEntry, startIndex uint64) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	lastIndex := uint64(len(m.entries))
	if startIndex == 0 {
		startIndex = lastIndex + 1
	}

	if startIndex <= m.commitIndex {
		return 0, fmt.Errorf("%w: startIndex %d, commitIndex %d", ErrCommittedOverwrite, startIndex, m.commitIndex)
	}
	if startIndex > lastIndex+1 {
		return 0, fmt.Errorf("%w: startIndex %d would leave a gap after %d", ErrIndexOutOfRange, startIndex, lastIndex)
	}

	// Truncate the conflicting suffix, then append. Section 5.3: entries after a conflict are
	// discarded in favor of the leader's.
	m.entries = m.entries[:startIndex-1]
	for i, entry := range entries {
		entry.Index = startIndex + uint64(i)
		m.entries = append(m.entries, entry)
	}

	return uint64(len(m.entries)), nil
}

func (m *MemoryAuditTrail) GetEntries(startIndex, count uint64) ([]*proto.LogEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if count == 0 {
		return nil, nil
	}

	lastIndex := uint64(len(m.entries))
	endIndex := startIndex + count - 1
	if endIndex > lastIndex {
		return nil, fmt.Errorf("%w: requested [%d, %d], last index is %d", ErrIndexOutOfRange, startIndex, endIndex, lastIndex)
	}

	out := make([]*proto.LogEntry, 0, count)
	for i := startIndex; i <= endIndex; i++ {
		if i == 0 {
			out = append(out, sentinel)
			continue
		}
		out = append(out, m.entries[i-1])
	}
	return out, nil
}

func (m *MemoryAuditTrail) GetLastIndex(committedOnly bool) uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if committedOnly {
		return m.commitIndex
	}
	return uint64(len(m.entries))
}

func (m *MemoryAuditTrail) LastIndexAndTerm(committedOnly bool) (uint64, uint64) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	index := uint64(len(m.entries))
	if committedOnly {
		index = m.commitIndex
	}
	if index == 0 {
		return 0, 0
	}
	return index, m.entries[index-1].Term
}

func (m *MemoryAuditTrail) Commit(count uint64) uint64 {
	m.mu.Lock()

	startIndex := m.commitIndex + 1
	available := uint64(len(m.entries)) - m.commitIndex
	if count > available {
		count = available
	}
	if count == 0 {
		m.mu.Unlock()
		return 0
	}
	m.commitIndex += count

	// Publish outside the lock: a blocking subscriber must not be able to stall appends.
	m.mu.Unlock()
	if m.pubSub != nil {
		pubsub.Publish(m.pubSub, pubsub.NewEvent(EntriesCommitted, CommitNotification{
			StartIndex: startIndex,
			Count:      count,
		}))
	}
	return count
}

func (m *MemoryAuditTrail) CommitTo(index uint64) uint64 {
	m.mu.Lock()

	target := min(index, uint64(len(m.entries)))
	if target <= m.commitIndex {
		m.mu.Unlock()
		return 0
	}
	startIndex := m.commitIndex + 1
	count := target - m.commitIndex
	m.commitIndex = target

	m.mu.Unlock()
	if m.pubSub != nil {
		pubsub.Publish(m.pubSub, pubsub.NewEvent(EntriesCommitted, CommitNotification{
			StartIndex: startIndex,
			Count:      count,
		}))
	}
	return count
}

func (m *MemoryAuditTrail) GetTerm() uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.currentTerm
}

func (m *MemoryAuditTrail) UpdateTerm(term uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if term < m.currentTerm {
		return fmt.Errorf("%w: have %d, got %d", ErrTermRegression, m.currentTerm, term)
	}
	if term > m.currentTerm {
		// A vote only binds for the term it was cast in. (Figure 2, RequestVote rules)
		m.votedFor = ""
		m.hasVoted = false
	}
	m.currentTerm = term
	return nil
}

func (m *MemoryAuditTrail) IncrementTerm() (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.currentTerm++
	m.votedFor = ""
	m.hasVoted = false
	return m.currentTerm, nil
}

func (m *MemoryAuditTrail) GetVotedFor() (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.votedFor, m.hasVoted
}

func (m *MemoryAuditTrail) TryVote(candidateID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.hasVoted && m.votedFor != candidateID {
		return false, nil
	}
	m.votedFor = candidateID
	m.hasVoted = true
	return true, nil
}

func (m *MemoryAuditTrail) Close() error {
	return nil
}
