package mocks

import (
	"sync"
	"time"
)

// MockMetricsCollector is a mock implementation of cluster.MetricsCollector for testing
type MockMetricsCollector struct {
	mu sync.RWMutex

	CommandLatencies  []time.Duration
	CommandsCommitted int
	AppendEntriesSent int
	RequestVotesSent  int
	HeartbeatsSent    int
	ElectionsStarted  int
	ElectionDurations []time.Duration
}

// NewMockMetricsCollector creates a new mock metrics collector
func NewMockMetricsCollector() *MockMetricsCollector {
	return &MockMetricsCollector{}
}

func (m *MockMetricsCollector) RecordCommandLatency(latency time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CommandLatencies = append(m.CommandLatencies, latency)
}

func (m *MockMetricsCollector) RecordCommandCommitted() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CommandsCommitted++
}

func (m *MockMetricsCollector) RecordAppendEntries() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.AppendEntriesSent++
}

func (m *MockMetricsCollector) RecordRequestVote() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RequestVotesSent++
}

func (m *MockMetricsCollector) RecordHeartbeat() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.HeartbeatsSent++
}

func (m *MockMetricsCollector) RecordElection() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ElectionsStarted++
}

func (m *MockMetricsCollector) RecordElectionDuration(duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ElectionDurations = append(m.ElectionDurations, duration)
}

// Reset clears all recorded metrics
func (m *MockMetricsCollector) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.CommandLatencies = nil
	m.CommandsCommitted = 0
	m.AppendEntriesSent = 0
	m.RequestVotesSent = 0
	m.HeartbeatsSent = 0
	m.ElectionsStarted = 0
	m.ElectionDurations = nil
}
