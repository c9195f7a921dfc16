package mocks

import (
	"sync"

	"auditraft/internal/raft/proto"
)

// MockStateMachine is a mock implementation of statemachine.StateMachine for testing
type MockStateMachine struct {
	mu sync.RWMutex

	AppliedEntries []*proto.LogEntry
	ApplyCallCount int

	// ShouldPanic causes Apply to panic when true, for crash-recovery tests
	ShouldPanic bool
}

// NewMockStateMachine creates a new mock state machine
func NewMockStateMachine() *MockStateMachine {
	return &MockStateMachine{}
}

func (m *MockStateMachine) Apply(entries []*proto.LogEntry) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.ApplyCallCount++
	if m.ShouldPanic {
		panic("mock state machine panic")
	}
	m.AppliedEntries = append(m.AppliedEntries, entries...)
}

// Applied returns a snapshot of all entries applied so far
func (m *MockStateMachine) Applied() []*proto.LogEntry {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*proto.LogEntry, len(m.AppliedEntries))
	copy(out, m.AppliedEntries)
	return out
}

// Reset clears the recorded state
func (m *MockStateMachine) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.AppliedEntries = nil
	m.ApplyCallCount = 0
	m.ShouldPanic = false
}
