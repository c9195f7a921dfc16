package trail

import (
	"errors"

	"auditraft/internal/pubsub"
	"auditraft/internal/raft/proto"
)

// EntriesCommitted is published on the owning bus every time the commit index advances. The value
// is offset from zero so it cannot collide with the engine's event constants when both share a bus.
const EntriesCommitted pubsub.EventType = 100

// CommitNotification is the payload of an EntriesCommitted event. It covers the half-open batch of
// entries [StartIndex, StartIndex+Count) that just became safe to apply.
type CommitNotification struct {
	StartIndex uint64
	Count      uint64
}

var (
	// ErrCommittedOverwrite is returned when an append targets an index at or below the commit
	// index. Committed entries are immutable, so this is a bug in the caller, not a recoverable
	// condition.
	ErrCommittedOverwrite = errors.New("trail: attempt to overwrite committed entries")

	// ErrTermRegression is returned when UpdateTerm is called with a term lower than the current
	// one. Terms increase monotonically, as per Section 5.1 from the
	// [Raft paper](https://raft.github.io/raft.pdf).
	ErrTermRegression = errors.New("trail: term moved backward")

	// ErrIndexOutOfRange is returned when a read covers indices not yet stored, or an append would
	// leave a gap after the last index.
	ErrIndexOutOfRange = errors.New("trail: index out of range")
)

// AuditTrail is the durable record a Raft node keeps of its log, term, and vote, as per Figure 2
// from the [Raft paper](https://raft.github.io/raft.pdf) ("Updated on stable storage before
// responding to RPCs"). Indices are 1-based; index 0 is the virtual sentinel entry with term 0.
//
// All mutating operations on one instance are mutually exclusive. Reads may run concurrently but
// always observe a consistent snapshot; LastIndexAndTerm exists so callers comparing log freshness
// never see a torn index/term pair.
type AuditTrail interface {
	// AppendEntries stores entries starting at startIndex, overwriting and truncating any existing
	// suffix from that point. startIndex 0 means "append immediately after the last index". The
	// trail assigns the Index field of every appended entry. Returns the new last index.
	// Fails with ErrCommittedOverwrite if startIndex <= commit index, and with ErrIndexOutOfRange
	// if startIndex would leave a gap.
	AppendEntries(entries []*proto.LogEntry, startIndex uint64) (uint64, error)

	// GetEntries returns count entries starting at startIndex, in order. Index 0 resolves to the
	// sentinel entry. Fails with ErrIndexOutOfRange if the range overlaps unstored indices.
	GetEntries(startIndex, count uint64) ([]*proto.LogEntry, error)

	// GetLastIndex returns the commit index when committedOnly is true, the last stored index
	// otherwise.
	GetLastIndex(committedOnly bool) uint64

	// LastIndexAndTerm returns the last index (per GetLastIndex) together with the term of the
	// entry at that index, read under one lock.
	LastIndexAndTerm(committedOnly bool) (index, term uint64)

	// Commit advances the commit index by at most count entries, never past the last index, and
	// returns how many entries were actually committed. A no-op (returning 0) when there is
	// nothing new to commit. Publishes an EntriesCommitted event after advancing.
	Commit(count uint64) uint64

	// CommitTo advances the commit index to min(index, last index), never backwards, and returns
	// how many entries were newly committed. The clamp and the advance happen under one lock, so
	// concurrent callers can never push the commit index past the target either of them named.
	// Publishes an EntriesCommitted event after advancing.
	CommitTo(index uint64) uint64

	// GetTerm returns the persisted current term.
	GetTerm() uint64

	// UpdateTerm sets the persisted term. Moving to a higher term clears the vote record. Fails
	// with ErrTermRegression if term is lower than the current one.
	UpdateTerm(term uint64) error

	// IncrementTerm advances the persisted term by one, clears the vote record, and returns the
	// new term.
	IncrementTerm() (uint64, error)

	// GetVotedFor reports the candidate this node voted for in the current term, if any.
	GetVotedFor() (candidateID string, voted bool)

	// TryVote records a vote for candidateID in the current term, unless a vote for a different
	// candidate is already held. The voted check and the write happen under one lock: of any set
	// of concurrent callers naming different candidates, at most one is granted.
	TryVote(candidateID string) (granted bool, err error)

	// Close releases the underlying storage.
	Close() error
}
