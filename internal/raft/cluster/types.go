package cluster

import (
	"time"

	"auditraft/internal/pubsub"
)

// MemberID is the id of a member in the cluster
type MemberID string

// MemberAddress is the network address of a cluster member
type MemberAddress string

// A StateKind is a custom type representing the role of a member at any given point: leader,
// follower, or candidate
type StateKind uint64

// As Golang does not support Enums this is a common pattern for implementing one
const (
	Leader StateKind = iota
	Follower
	Candidate
)

// String returns the string representation of the StateKind
func (s StateKind) String() string {
	switch s {
	case Leader:
		return "Leader"
	case Follower:
		return "Follower"
	case Candidate:
		return "Candidate"
	default:
		return "Unknown"
	}
}

const (
	// ClusterShutDown is sent when the local member is shutting down. The payload for this event is
	// an empty struct.
	ClusterShutDown pubsub.EventType = iota
	// ElectionTimeoutExpired is sent when the Follower's election timer fires without leader
	// contact. The payload is the expiry time.
	ElectionTimeoutExpired
	// ElectionFinished is sent when a Candidate has processed every vote response. The payload is
	// an ElectionOutcome.
	ElectionFinished
	// StepDownDetected is sent when any RPC reply carries a term newer than the local one. The
	// payload is the higher term.
	StepDownDetected
)

// ElectionOutcome travels with ElectionFinished events so the engine can perform the resulting
// transition.
type ElectionOutcome struct {
	// Won reports whether the candidate collected a strict majority and may become Leader.
	Won bool
	// Term is the term the election ran in or, when a voter answered with a newer term, the higher
	// term the member must adopt as Follower.
	Term uint64
	// ElectionTerm is the term of the candidacy that produced this outcome. The engine drops
	// outcomes whose ElectionTerm does not match the live candidate's, so a buffered event from a
	// superseded candidacy cannot end the election that replaced it.
	ElectionTerm uint64
}

// VoteOutcome classifies one member's answer to a vote request. Vote RPCs never propagate
// failures to the aggregation loop; unavailable and canceled calls become outcomes instead.
type VoteOutcome uint8

const (
	// Granted means the member voted for the candidate.
	Granted VoteOutcome = iota
	// Rejected means the member refused the vote (stale term or fresher log).
	Rejected
	// Canceled means the candidate's own election timeout or disposal aborted the call.
	Canceled
	// NotAvailable means the member could not be reached. It counts against the candidate the
	// same as an explicit rejection: an unreachable voter never contributes to consensus.
	NotAvailable
)

func (o VoteOutcome) String() string {
	switch o {
	case Granted:
		return "Granted"
	case Rejected:
		return "Rejected"
	case Canceled:
		return "Canceled"
	case NotAvailable:
		return "NotAvailable"
	default:
		return "Unknown"
	}
}

// MetricsCollector is an optional interface for collecting performance metrics
type MetricsCollector interface {
	RecordCommandLatency(latency time.Duration)
	RecordCommandCommitted()
	RecordAppendEntries()
	RecordRequestVote()
	RecordHeartbeat()
	RecordElection()
	RecordElectionDuration(duration time.Duration)
}
