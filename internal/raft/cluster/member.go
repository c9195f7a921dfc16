package cluster

import (
	"context"
	"sync"
	"sync/atomic"

	"auditraft/internal/raft/proto"
)

// ClusterMember is one participant in the cluster, local or remote. The vote and replication
// methods always surface the responder's term through a Result so any reply can force the caller
// to step down.
//
// The nextIndex cursor belongs to whichever state is currently driving replication to the member;
// only the active Leader reads or advances it.
type ClusterMember interface {
	// ID returns the member's cluster-wide identity.
	ID() MemberID

	// Address returns the member's network endpoint.
	Address() MemberAddress

	// IsRemote reports whether RPCs to this member cross the network.
	IsRemote() bool

	// RequestVote asks the member to vote for a candidate with the given term and log position.
	// A non-nil error means the member was unavailable or the call was canceled; the caller
	// classifies it, it is never fatal.
	RequestVote(ctx context.Context, term, lastLogIndex, lastLogTerm uint64) (Result[bool], error)

	// AppendEntries replicates entries to the member. Value is true iff the member's log matched
	// at prevLogIndex/prevLogTerm and the entries were accepted.
	AppendEntries(ctx context.Context, term uint64, entries []*proto.LogEntry, prevLogIndex, prevLogTerm, leaderCommit uint64) (AppendResult, error)

	// NextIndex returns the next log index the leader believes it must send to this member.
	NextIndex() uint64

	// SetNextIndex moves the replication cursor.
	SetNextIndex(index uint64)

	// CancelPendingRequests aborts every in-flight RPC to this member. Invoked on state
	// transitions so a superseded state leaves no orphaned requests behind.
	CancelPendingRequests()
}

// remoteMember is a ClusterMember reached over the gRPC transport.
type remoteMember struct {
	id        MemberID
	addr      MemberAddress
	transport *Transport

	nextIndex atomic.Uint64

	// inflight tracks the cancel func of every outstanding RPC so CancelPendingRequests can abort
	// them all at once.
	mu       sync.Mutex
	inflight map[*context.CancelFunc]struct{}
}

func newRemoteMember(id MemberID, addr MemberAddress, transport *Transport) *remoteMember {
	return &remoteMember{
		id:        id,
		addr:      addr,
		transport: transport,
		inflight:  make(map[*context.CancelFunc]struct{}),
	}
}

func (m *remoteMember) ID() MemberID           { return m.id }
func (m *remoteMember) Address() MemberAddress { return m.addr }
func (m *remoteMember) IsRemote() bool         { return true }

func (m *remoteMember) NextIndex() uint64 {
	return m.nextIndex.Load()
}

func (m *remoteMember) SetNextIndex(index uint64) {
	m.nextIndex.Store(index)
}

// trackedContext derives a cancelable context registered in the in-flight set. The returned
// release func must be called when the RPC completes.
func (m *remoteMember) trackedContext(parent context.Context) (context.Context, func()) {
	ctx, cancel := context.WithCancel(parent)
	key := &cancel

	m.mu.Lock()
	m.inflight[key] = struct{}{}
	m.mu.Unlock()

	release := func() {
		m.mu.Lock()
		delete(m.inflight, key)
		m.mu.Unlock()
		cancel()
	}
	return ctx, release
}

func (m *remoteMember) CancelPendingRequests() {
	m.mu.Lock()
	cancels := make([]*context.CancelFunc, 0, len(m.inflight))
	for key := range m.inflight {
		cancels = append(cancels, key)
	}
	m.mu.Unlock()

	for _, cancel := range cancels {
		(*cancel)()
	}
}

func (m *remoteMember) RequestVote(ctx context.Context, term, lastLogIndex, lastLogTerm uint64) (Result[bool], error) {
	rpcCtx, release := m.trackedContext(ctx)
	defer release()

	resp, err := m.transport.RequestVote(rpcCtx, m.id, &proto.RequestVoteRequest{
		Term:         term,
		LastLogIndex: lastLogIndex,
		LastLogTerm:  lastLogTerm,
	})
	if err != nil {
		return Result[bool]{}, err
	}

	return Result[bool]{Term: resp.Term, Value: resp.VoteGranted}, nil
}

func (m *remoteMember) AppendEntries(ctx context.Context, term uint64, entries []*proto.LogEntry, prevLogIndex, prevLogTerm, leaderCommit uint64) (AppendResult, error) {
	rpcCtx, release := m.trackedContext(ctx)
	defer release()

	resp, err := m.transport.AppendEntries(rpcCtx, m.id, &proto.AppendEntriesRequest{
		Term:         term,
		PrevLogIndex: prevLogIndex,
		PrevLogTerm:  prevLogTerm,
		Entries:      entries,
		LeaderCommit: leaderCommit,
	})
	if err != nil {
		return AppendResult{}, err
	}

	return AppendResult{
		Result:       Result[bool]{Term: resp.Term, Value: resp.Success},
		LastLogIndex: resp.LastLogIndex,
	}, nil
}

// localMember answers vote and replication requests against the local engine without touching the
// network, so the local node participates in its own elections through the same code path as every
// remote voter.
type localMember struct {
	cluster *RaftCluster

	nextIndex atomic.Uint64
}

func newLocalMember(cluster *RaftCluster) *localMember {
	return &localMember{cluster: cluster}
}

func (m *localMember) ID() MemberID           { return m.cluster.ID }
func (m *localMember) Address() MemberAddress { return m.cluster.Address }
func (m *localMember) IsRemote() bool         { return false }

func (m *localMember) NextIndex() uint64 {
	return m.nextIndex.Load()
}

func (m *localMember) SetNextIndex(index uint64) {
	m.nextIndex.Store(index)
}

func (m *localMember) CancelPendingRequests() {}

func (m *localMember) RequestVote(ctx context.Context, term, lastLogIndex, lastLogTerm uint64) (Result[bool], error) {
	if err := ctx.Err(); err != nil {
		return Result[bool]{}, err
	}
	voterTerm, granted := m.cluster.evaluateVoteRequest(term, m.cluster.ID, lastLogIndex, lastLogTerm)
	return Result[bool]{Term: voterTerm, Value: granted}, nil
}

func (m *localMember) AppendEntries(ctx context.Context, term uint64, entries []*proto.LogEntry, prevLogIndex, prevLogTerm, leaderCommit uint64) (AppendResult, error) {
	if err := ctx.Err(); err != nil {
		return AppendResult{}, err
	}
	responderTerm, success, lastIndex := m.cluster.applyAppendEntries(term, m.cluster.ID, entries, prevLogIndex, prevLogTerm, leaderCommit)
	return AppendResult{
		Result:       Result[bool]{Term: responderTerm, Value: success},
		LastLogIndex: lastIndex,
	}, nil
}
