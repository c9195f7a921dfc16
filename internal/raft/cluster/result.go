package cluster

// Result carries an RPC reply value together with the responder's current term. The term is
// meaningful regardless of Value: any reply whose Term exceeds the caller's own proves the caller
// is stale and must step down to Follower, without a separate round trip to find out.
type Result[T any] struct {
	// Term is the responder's current term at the time it produced the reply.
	Term uint64
	// Value is the operation's actual result.
	Value T
}

// AppendResult is the reply to a replication RPC. Value is true iff the follower's log matched at
// prevLogIndex/prevLogTerm and the entries were accepted.
type AppendResult struct {
	Result[bool]
	// LastLogIndex is the follower's own last index, reported so a rejected leader can move its
	// nextIndex cursor straight past a gap instead of walking back one entry per round trip.
	LastLogIndex uint64
}
