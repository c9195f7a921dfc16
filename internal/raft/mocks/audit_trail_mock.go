package mocks

import (
	"fmt"
	"sync"

	"auditraft/internal/raft/proto"
	"auditraft/internal/raft/trail"
)

// MockAuditTrail is a mock implementation of trail.AuditTrail for testing. It mirrors the memory
// implementation's semantics but adds error injection hooks.
type MockAuditTrail struct {
	mu sync.RWMutex

	entries     []*proto.LogEntry
	commitIndex uint64
	currentTerm uint64
	votedFor    string
	hasVoted    bool

	// Call counters for assertions
	AppendCallCount int
	CommitCallCount int

	// Error injection for testing
	AppendEntriesError error
	GetEntriesError    error
	UpdateTermError    error
	TryVoteError       error
}

// NewMockAuditTrail creates a new mock audit trail
func NewMockAuditTrail() *MockAuditTrail {
	return &MockAuditTrail{}
}

func (m *MockAuditTrail) AppendEntries(entries []*proto.LogEntry, startIndex uint64) (uint64, error) {
	if m.AppendEntriesError != nil {
		return 0, m.AppendEntriesError
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.AppendCallCount++

	lastIndex := uint64(len(m.entries))
	if startIndex == 0 {
		startIndex = lastIndex + 1
	}
	if startIndex <= m.commitIndex {
		return 0, fmt.Errorf("%w: startIndex %d, commitIndex %d", trail.ErrCommittedOverwrite, startIndex, m.commitIndex)
	}
	if startIndex > lastIndex+1 {
		return 0, fmt.Errorf("%w: startIndex %d after last index %d", trail.ErrIndexOutOfRange, startIndex, lastIndex)
	}

	m.entries = m.entries[:startIndex-1]
	for i, entry := range entries {
		entry.Index = startIndex + uint64(i)
		m.entries = append(m.entries, entry)
	}
	return uint64(len(m.entries)), nil
}

func (m *MockAuditTrail) GetEntries(startIndex, count uint64) ([]*proto.LogEntry, error) {
	if m.GetEntriesError != nil {
		return nil, m.GetEntriesError
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	if count == 0 {
		return nil, nil
	}
	endIndex := startIndex + count - 1
	if endIndex > uint64(len(m.entries)) {
		return nil, fmt.Errorf("%w: requested [%d, %d]", trail.ErrIndexOutOfRange, startIndex, endIndex)
	}

	out := make([]*proto.LogEntry, 0, count)
	for i := startIndex; i <= endIndex; i++ {
		if i == 0 {
			out = append(out, &proto.LogEntry{Index: 0, Term: 0})
			continue
		}
		out = append(out, m.entries[i-1])
	}
	return out, nil
}

func (m *MockAuditTrail) GetLastIndex(committedOnly bool) uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if committedOnly {
		return m.commitIndex
	}
	return uint64(len(m.entries))
}

func (m *MockAuditTrail) LastIndexAndTerm(committedOnly bool) (uint64, uint64) {
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

func (m *MockAuditTrail) Commit(count uint64) uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.CommitCallCount++

	available := uint64(len(m.entries)) - m.commitIndex
	if count > available {
		count = available
	}
	m.commitIndex += count
	return count
}

func (m *MockAuditTrail) CommitTo(index uint64) uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.CommitCallCount++

	target := min(index, uint64(len(m.entries)))
	if target <= m.commitIndex {
		return 0
	}
	count := target - m.commitIndex
	m.commitIndex = target
	return count
}

func (m *MockAuditTrail) GetTerm() uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.currentTerm
}

func (m *MockAuditTrail) UpdateTerm(term uint64) error {
	if m.UpdateTermError != nil {
		return m.UpdateTermError
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if term < m.currentTerm {
		return fmt.Errorf("%w: have %d, got %d", trail.ErrTermRegression, m.currentTerm, term)
	}
	if term > m.currentTerm {
		m.votedFor = ""
		m.hasVoted = false
	}
	m.currentTerm = term
	return nil
}

func (m *MockAuditTrail) IncrementTerm() (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.currentTerm++
	m.votedFor = ""
	m.hasVoted = false
	return m.currentTerm, nil
}

func (m *MockAuditTrail) GetVotedFor() (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.votedFor, m.hasVoted
}

func (m *MockAuditTrail) TryVote(candidateID string) (bool, error) {
	if m.TryVoteError != nil {
		return false, m.TryVoteError
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.hasVoted && m.votedFor != candidateID {
		return false, nil
	}
	m.votedFor = candidateID
	m.hasVoted = true
	return true, nil
}

func (m *MockAuditTrail) Close() error {
	return nil
}
