package metrics

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// Metrics collects performance metrics for consensus operations. It implements the engine's
// MetricsCollector interface.
type Metrics struct {
	mu sync.RWMutex

	// Command latencies (time from submission to commit)
	commandLatencies []time.Duration

	// RPC counters
	appendEntriesCount atomic.Uint64
	requestVoteCount   atomic.Uint64
	heartbeatCount     atomic.Uint64

	// Throughput tracking
	commandsCommitted atomic.Uint64
	startTime         time.Time

	// Leader election metrics
	electionCount    atomic.Uint64
	electionDuration []time.Duration
	electionMu       sync.Mutex
}

// NewMetrics creates a new metrics collector
func NewMetrics() *Metrics {
	return &Metrics{
		commandLatencies: make([]time.Duration, 0, 10000), // Pre-allocate for performance
		electionDuration: make([]time.Duration, 0, 100),
		startTime:        time.Now(),
	}
}

// RecordCommandLatency records the latency of a single command from submission to commit
func (m *Metrics) RecordCommandLatency(latency time.Duration) {
	m.mu.Lock()
	m.commandLatencies = append(m.commandLatencies, latency)
	m.mu.Unlock()
}

// RecordCommandCommitted increments the count of committed commands
func (m *Metrics) RecordCommandCommitted() {
	m.commandsCommitted.Add(1)
}

// RecordAppendEntries increments the AppendEntries RPC counter
func (m *Metrics) RecordAppendEntries() {
	m.appendEntriesCount.Add(1)
}

// RecordRequestVote increments the RequestVote RPC counter
func (m *Metrics) RecordRequestVote() {
	m.requestVoteCount.Add(1)
}

// RecordHeartbeat increments the heartbeat counter
func (m *Metrics) RecordHeartbeat() {
	m.heartbeatCount.Add(1)
}

// RecordElection records a leader election occurrence
func (m *Metrics) RecordElection() {
	m.electionCount.Add(1)
}

// RecordElectionDuration records how long an election took
func (m *Metrics) RecordElectionDuration(duration time.Duration) {
	m.electionMu.Lock()
	m.electionDuration = append(m.electionDuration, duration)
	m.electionMu.Unlock()
}

// Counters is a point-in-time snapshot of the RPC and election counters.
type Counters struct {
	AppendEntries     uint64  `json:"append_entries"`
	RequestVote       uint64  `json:"request_vote"`
	Heartbeats        uint64  `json:"heartbeats"`
	Elections         uint64  `json:"elections"`
	CommandsCommitted uint64  `json:"commands_committed"`
	UptimeSeconds     float64 `json:"uptime_seconds"`
}

// GetCounters returns a snapshot of all counters.
func (m *Metrics) GetCounters() Counters {
	return Counters{
		AppendEntries:     m.appendEntriesCount.Load(),
		RequestVote:       m.requestVoteCount.Load(),
		Heartbeats:        m.heartbeatCount.Load(),
		Elections:         m.electionCount.Load(),
		CommandsCommitted: m.commandsCommitted.Load(),
		UptimeSeconds:     time.Since(m.startTime).Seconds(),
	}
}

// LatencyStats contains percentile statistics for latencies
type LatencyStats struct {
	Count  int     `json:"count"`
	Min    float64 `json:"min_ms"`
	Max    float64 `json:"max_ms"`
	Mean   float64 `json:"mean_ms"`
	P50    float64 `json:"p50_ms"`
	P95    float64 `json:"p95_ms"`
	P99    float64 `json:"p99_ms"`
	StdDev float64 `json:"stddev_ms"`
}

// GetLatencyStats computes percentile statistics from recorded command latencies
func (m *Metrics) GetLatencyStats() LatencyStats {
	m.mu.RLock()
	latencies := make([]time.Duration, len(m.commandLatencies))
	copy(latencies, m.commandLatencies)
	m.mu.RUnlock()

	return computeStats(latencies)
}

// GetElectionStats returns statistics about leader elections
func (m *Metrics) GetElectionStats() LatencyStats {
	m.electionMu.Lock()
	durations := make([]time.Duration, len(m.electionDuration))
	copy(durations, m.electionDuration)
	m.electionMu.Unlock()

	return computeStats(durations)
}

// Report renders all collected metrics as indented JSON, for logging and demo output.
func (m *Metrics) Report() (string, error) {
	report := struct {
		Counters  Counters     `json:"counters"`
		Commands  LatencyStats `json:"command_latency"`
		Elections LatencyStats `json:"election_duration"`
	}{
		Counters:  m.GetCounters(),
		Commands:  m.GetLatencyStats(),
		Elections: m.GetElectionStats(),
	}

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal metrics report: %w", err)
	}
	return string(data), nil
}

func computeStats(samples []time.Duration) LatencyStats {
	if len(samples) == 0 {
		return LatencyStats{}
	}

	// Sort for percentile calculation
	sort.Slice(samples, func(i, j int) bool {
		return samples[i] < samples[j]
	})

	// Convert to milliseconds
	samplesMs := make([]float64, len(samples))
	var sum float64
	for i, s := range samples {
		ms := float64(s.Microseconds()) / 1000.0
		samplesMs[i] = ms
		sum += ms
	}

	mean := sum / float64(len(samplesMs))

	var variance float64
	for _, s := range samplesMs {
		diff := s - mean
		variance += diff * diff
	}
	stddev := math.Sqrt(variance / float64(len(samplesMs)))

	return LatencyStats{
		Count:  len(samples),
		Min:    samplesMs[0],
		Max:    samplesMs[len(samplesMs)-1],
		Mean:   mean,
		P50:    percentile(samplesMs, 50),
		P95:    percentile(samplesMs, 95),
		P99:    percentile(samplesMs, 99),
		StdDev: stddev,
	}
}

// percentile calculates the nth percentile from sorted data
func percentile(sorted []float64, p int) float64 {
	if len(sorted) == 0 {
		return 0
	}
	index := float64(p) / 100.0 * float64(len(sorted)-1)
	lower := int(math.Floor(index))
	upper := int(math.Ceil(index))
	if lower == upper {
		return sorted[lower]
	}
	// Linear interpolation
	weight := index - float64(lower)
	return sorted[lower]*(1-weight) + sorted[upper]*weight
}
