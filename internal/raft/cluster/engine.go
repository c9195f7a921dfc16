package cluster

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"google.golang.org/grpc"

	"auditraft/internal/pubsub"
	"auditraft/internal/raft/proto"
	"auditraft/internal/raft/trail"
)

// ErrNotLeader is returned when a command is submitted to a member that is not the current leader.
var ErrNotLeader = errors.New("cluster: local member is not the leader")

// nodeState is one of the three roles a member can hold. Exactly one state object exists at a
// time, held behind the engine's state slot; transitions replace it atomically and dispose the
// outgoing instance (its timers and cancellation sources) before the new one starts acting.
type nodeState interface {
	Kind() StateKind
	enter()
	Dispose()
}

// RaftCluster is the consensus engine of one member: it owns the member list, the audit trail,
// the active state object, and performs the Follower/Candidate/Leader transitions. It also
// implements the inbound side of the RPC protocol (proto.RaftServiceServer).
type RaftCluster struct {
	// This makes RaftCluster implement the proto.RaftServiceServer interface
	proto.UnimplementedRaftServiceServer

	// The ID of the local member in the cluster
	ID MemberID
	// The network address of the local member
	Address MemberAddress

	config    *Config
	trail     trail.AuditTrail
	transport *Transport
	metrics   MetricsCollector

	// members is fixed at construction (static membership); includes the local member.
	members []ClusterMember

	// stateMu serializes every state transition and guards the state slot, so no two states ever
	// run concurrently: a transition is an atomic swap-and-dispose.
	stateMu sync.Mutex
	state   nodeState

	// leaderID is the member currently believed to be leader, for redirects.
	leaderID atomic.Value // MemberID

	grpcServer *grpc.Server

	// pubSub carries the engine's lifecycle events and the trail's commit notifications
	pubSub *pubsub.PubSubClient

	// Event channels feeding the Run loop. All buffered.
	electionTimeoutExpiredChan chan *pubsub.Event[time.Time]
	electionFinishedChan       chan *pubsub.Event[ElectionOutcome]
	stepDownChan               chan *pubsub.Event[uint64]
	shutDownChan               chan *pubsub.Event[struct{}]
}

// NewRaftCluster wires an engine for the given static configuration. The audit trail is the
// persistence collaborator; pass a BboltAuditTrail for durability or a MemoryAuditTrail otherwise.
func NewRaftCluster(config *Config, auditTrail trail.AuditTrail, pubSub *pubsub.PubSubClient, metrics MetricsCollector) *RaftCluster {
	id := config.ID
	if id == "" {
		id = uuid.New().String()
	}

	c := &RaftCluster{
		ID:      MemberID(id),
		Address: MemberAddress(config.ListenAddress),
		config:  config,
		trail:   auditTrail,
		metrics: metrics,
		pubSub:  pubSub,

		electionTimeoutExpiredChan: make(chan *pubsub.Event[time.Time], 1),
		electionFinishedChan:       make(chan *pubsub.Event[ElectionOutcome], 1),
		stepDownChan:               make(chan *pubsub.Event[uint64], 1),
		shutDownChan:               make(chan *pubsub.Event[struct{}], 1),
	}

	var peerIDs []MemberID
	for _, m := range config.Members {
		if MemberID(m.ID) == c.ID {
			continue
		}
		peerIDs = append(peerIDs, MemberID(m.ID))
	}
	c.transport = NewTransport(peerIDs, metrics)

	c.members = append(c.members, newLocalMember(c))
	for _, m := range config.Members {
		if MemberID(m.ID) == c.ID {
			continue
		}
		c.members = append(c.members, newRemoteMember(MemberID(m.ID), MemberAddress(m.Address), c.transport))
		c.transport.RegisterMember(MemberID(m.ID), MemberAddress(m.Address))
	}

	pubsub.Subscribe(pubSub, ElectionTimeoutExpired, c.electionTimeoutExpiredChan, pubsub.SubscriptionOptions{IsBlocking: false})
	pubsub.Subscribe(pubSub, ElectionFinished, c.electionFinishedChan, pubsub.SubscriptionOptions{IsBlocking: false})
	pubsub.Subscribe(pubSub, StepDownDetected, c.stepDownChan, pubsub.SubscriptionOptions{IsBlocking: false})
	pubsub.Subscribe(pubSub, ClusterShutDown, c.shutDownChan, pubsub.SubscriptionOptions{IsBlocking: false})

	return c
}

// Members returns the full member list, local member included.
func (c *RaftCluster) Members() []ClusterMember {
	return c.members
}

// LeaderID returns the member currently believed to be leader, if known.
func (c *RaftCluster) LeaderID() (MemberID, bool) {
	id, ok := c.leaderID.Load().(MemberID)
	return id, ok && id != ""
}

// CurrentState reports the role the local member currently holds.
func (c *RaftCluster) CurrentState() StateKind {
	c.stateMu.Lock()
	defer c.stateMu.Unlock()
	if c.state == nil {
		return Follower
	}
	return c.state.Kind()
}

// Start binds the listener, begins serving inbound RPCs, and installs the initial Follower state.
// It blocks until the server stops, mirroring grpc.Server.Serve.
func (c *RaftCluster) Start() error {
	lis, err := net.Listen("tcp", string(c.Address))
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", c.Address, err)
	}

	// The port may have been chosen by the OS; record and advertise what we actually bound.
	c.Address = MemberAddress(lis.Addr().String())
	c.transport.RegisterMember(c.ID, c.Address)

	c.grpcServer = grpc.NewServer(grpc.ConnectionTimeout(30 * time.Second))
	proto.RegisterRaftServiceServer(c.grpcServer, c)

	log.Printf("Raft member %s listening on %s (term %d)", c.ID, c.Address, c.trail.GetTerm())

	c.becomeFollower(c.trail.GetTerm())
	go c.Run()

	// Blocks: under the hood there is a call to lis.Accept.
	return c.grpcServer.Serve(lis)
}

// Run is the engine's orchestration loop: it consumes lifecycle events and performs the resulting
// transitions, one at a time. It exits on ClusterShutDown.
func (c *RaftCluster) Run() {
	for {
		select {
		case <-c.electionTimeoutExpiredChan:
			// Only a Follower starts an election; a stale expiry arriving after a transition is
			// dropped here rather than producing a duplicate Candidate.
			if c.CurrentState() == Follower {
				c.becomeCandidate()
			}

		case ev := <-c.electionFinishedChan:
			c.onElectionFinished(ev.Payload)

		case ev := <-c.stepDownChan:
			c.becomeFollower(ev.Payload)

		case <-c.shutDownChan:
			c.disposeCurrentState()
			return
		}
	}
}

// GracefulShutdown stops accepting inbound RPCs, closes outbound connections, and signals all
// background goroutines to finish.
func (c *RaftCluster) GracefulShutdown() {
	log.Printf("Shutting down member %s gracefully", c.ID)
	// Stop accepting new inbound requests first, to avoid interrupting a pending response.
	if c.grpcServer != nil {
		c.grpcServer.GracefulStop()
	}
	c.transport.CloseAllClients()
	pubsub.Publish(c.pubSub, pubsub.NewEvent(ClusterShutDown, struct{}{}))
}

// ForceShutdown tears everything down without draining.
func (c *RaftCluster) ForceShutdown() {
	log.Printf("Force shutting down member %s", c.ID)
	c.transport.CloseAllClients()
	if c.grpcServer != nil {
		c.grpcServer.Stop()
	}
	pubsub.Publish(c.pubSub, pubsub.NewEvent(ClusterShutDown, struct{}{}))
}

// Append submits a command to the replicated log. Only the leader accepts it; followers answer
// ErrNotLeader and the caller should redirect to LeaderID.
func (c *RaftCluster) Append(content []byte) (uint64, error) {
	c.stateMu.Lock()
	leader, ok := c.state.(*leaderState)
	c.stateMu.Unlock()
	if !ok {
		return 0, ErrNotLeader
	}

	index, err := c.trail.AppendEntries([]*proto.LogEntry{{Term: leader.term, Content: content}}, 0)
	if err != nil {
		return 0, err
	}

	// The leader's own log counts toward the majority immediately.
	leader.noteAccepted(index)
	leader.setMatchIndex(c.ID, index)
	leader.advanceCommitIndex()
	return index, nil
}

// ---- Inbound RPC handlers (proto.RaftServiceServer) ----

// RequestVote handles the RequestVote RPC call from a peer's client.
func (c *RaftCluster) RequestVote(ctx context.Context, req *proto.RequestVoteRequest) (*proto.RequestVoteResponse, error) {
	term, granted := c.evaluateVoteRequest(req.Term, MemberID(req.CandidateId), req.LastLogIndex, req.LastLogTerm)
	return &proto.RequestVoteResponse{Term: term, VoteGranted: granted}, nil
}

// AppendEntries handles the AppendEntries RPC call from a peer's client.
func (c *RaftCluster) AppendEntries(ctx context.Context, req *proto.AppendEntriesRequest) (*proto.AppendEntriesResponse, error) {
	term, success, lastIndex := c.applyAppendEntries(req.Term, MemberID(req.LeaderId), req.Entries, req.PrevLogIndex, req.PrevLogTerm, req.LeaderCommit)
	return &proto.AppendEntriesResponse{Term: term, Success: success, LastLogIndex: lastIndex}, nil
}

// evaluateVoteRequest decides a vote, as per the RequestVote rules in Figure 2 from the
// [Raft paper](https://raft.github.io/raft.pdf): grant iff the candidate's term is current, we
// have not voted for anyone else this term, and the candidate's log is at least as up to date.
func (c *RaftCluster) evaluateVoteRequest(term uint64, candidateID MemberID, lastLogIndex, lastLogTerm uint64) (uint64, bool) {
	currentTerm := c.trail.GetTerm()

	// If a server receives a request with a stale term number, it rejects the request. (Section 5.1)
	if term < currentTerm {
		return currentTerm, false
	}

	if term > currentTerm {
		// A candidate or leader discovering a newer term immediately reverts to follower; the
		// trail clears the vote record when the term advances.
		c.stepDownToFollower(term)
		currentTerm = term
	}

	// Section 5.4.1: the voter denies its vote if its own log is more up to date.
	localIndex, localTerm := c.trail.LastIndexAndTerm(false)
	if lastLogTerm < localTerm || (lastLogTerm == localTerm && lastLogIndex < localIndex) {
		return currentTerm, false
	}

	// One vote per term. The trail does the voted check and the write under one lock, so two
	// candidates racing their requests can never both collect this member's vote.
	granted, err := c.trail.TryVote(string(candidateID))
	if err != nil {
		log.Printf("[MEMBER-%v] [TERM-%d] Failed to persist vote for %v: %v", c.ID, currentTerm, candidateID, err)
		return currentTerm, false
	}
	if !granted {
		return currentTerm, false
	}

	// Granting a vote is legitimate-contact: push the election timer back.
	c.refreshFollower()
	return currentTerm, true
}

// applyAppendEntries applies one inbound replication round: term checks, the prevLogIndex
// consistency check, conflict truncation, append, and commit advancement.
func (c *RaftCluster) applyAppendEntries(term uint64, leaderID MemberID, entries []*proto.LogEntry, prevLogIndex, prevLogTerm, leaderCommit uint64) (uint64, bool, uint64) {
	currentTerm := c.trail.GetTerm()
	lastIndex := c.trail.GetLastIndex(false)

	if term < currentTerm {
		return currentTerm, false, lastIndex
	}

	if term > currentTerm {
		c.stepDownToFollower(term)
		currentTerm = term
	} else if c.CurrentState() != Follower {
		// Same term but someone else is the legitimate leader: a candidate that lost, or a leader
		// that should not exist. Either way, revert. (Section 5.2)
		c.stepDownToFollower(term)
	}

	c.leaderID.Store(leaderID)
	c.refreshFollower()

	// Consistency check: our log must contain an entry at prevLogIndex with prevLogTerm.
	// (Section 5.3) Reporting our own last index lets the leader back off in one step.
	if prevLogIndex > lastIndex {
		return currentTerm, false, lastIndex
	}
	if prevLogIndex > 0 {
		prev, err := c.trail.GetEntries(prevLogIndex, 1)
		if err != nil || prev[0].Term != prevLogTerm {
			return currentTerm, false, lastIndex
		}
	}

	if len(entries) > 0 {
		// Skip the prefix we already store with matching terms; only a real conflict (or new
		// entries) touches the trail. Re-appending an already-committed prefix would otherwise
		// trip the trail's committed-overwrite guard on a duplicated heartbeat window.
		appendFrom := 0
		for i, entry := range entries {
			index := prevLogIndex + 1 + uint64(i)
			if index > lastIndex {
				break
			}
			existing, err := c.trail.GetEntries(index, 1)
			if err != nil || existing[0].Term != entry.Term {
				break
			}
			appendFrom = i + 1
		}

		if appendFrom < len(entries) {
			startIndex := prevLogIndex + 1 + uint64(appendFrom)
			if _, err := c.trail.AppendEntries(entries[appendFrom:], startIndex); err != nil {
				log.Printf("[MEMBER-%v] [TERM-%d] Failed to append entries at %d: %v", c.ID, currentTerm, startIndex, err)
				return currentTerm, false, c.trail.GetLastIndex(false)
			}
		}
	}

	newLastIndex := c.trail.GetLastIndex(false)

	// Advance the local commit index to min(leaderCommit, last new entry). (Figure 2) CommitTo is
	// absolute: a duplicated round racing this one cannot advance past leaderCommit.
	c.trail.CommitTo(min(leaderCommit, newLastIndex))

	return currentTerm, true, newLastIndex
}

// ---- Transitions ----

// becomeFollower adopts term (if newer) and installs a fresh Follower state.
func (c *RaftCluster) becomeFollower(term uint64) {
	c.stateMu.Lock()
	defer c.stateMu.Unlock()

	if term > c.trail.GetTerm() {
		if err := c.trail.UpdateTerm(term); err != nil {
			log.Printf("[MEMBER-%v] Failed to adopt term %d: %v", c.ID, term, err)
		}
	}
	c.installLocked(newFollowerState(c))
}

// becomeCandidate installs a Candidate state, which runs the election on its own goroutine.
func (c *RaftCluster) becomeCandidate() {
	c.stateMu.Lock()
	defer c.stateMu.Unlock()
	c.installLocked(newCandidateState(c))
}

// onElectionFinished turns a candidate's outcome into a transition. Outcomes from a superseded
// candidacy are dropped: only the currently installed Candidate may decide anything.
func (c *RaftCluster) onElectionFinished(outcome ElectionOutcome) {
	c.stateMu.Lock()
	defer c.stateMu.Unlock()

	candidate, ok := c.state.(*candidateState)
	if !ok {
		return
	}
	// A buffered outcome from a superseded candidacy must not end the election that replaced it,
	// won or lost. The live candidate publishes its own outcome when it finishes.
	if candidate.electionTerm.Load() != outcome.ElectionTerm {
		return
	}
	if outcome.Won && outcome.Term != outcome.ElectionTerm {
		return
	}

	if !outcome.Won {
		if outcome.Term > c.trail.GetTerm() {
			if err := c.trail.UpdateTerm(outcome.Term); err != nil {
				log.Printf("[MEMBER-%v] Failed to adopt term %d: %v", c.ID, outcome.Term, err)
			}
		}
		c.installLocked(newFollowerState(c))
		return
	}

	// The election was won for exactly trail's current term; designate ourselves leader.
	c.leaderID.Store(c.ID)
	c.installLocked(newLeaderState(c, outcome.Term))
}

// stepDownToFollower is the synchronous step-down used by the inbound handlers: any observed
// newer term (or same-term leader contact while not a Follower) lands here.
func (c *RaftCluster) stepDownToFollower(term uint64) {
	c.stateMu.Lock()
	defer c.stateMu.Unlock()

	if term > c.trail.GetTerm() {
		if err := c.trail.UpdateTerm(term); err != nil {
			log.Printf("[MEMBER-%v] Failed to adopt term %d: %v", c.ID, term, err)
		}
	}

	if c.state != nil && c.state.Kind() == Follower {
		return
	}
	c.installLocked(newFollowerState(c))
}

// installLocked swaps the state slot: dispose the outgoing state and its pending per-member
// requests, then install and enter the new one. Callers must hold stateMu, which is what makes
// transitions atomic and keeps two states from ever running concurrently.
func (c *RaftCluster) installLocked(newState nodeState) {
	old := c.state
	if old != nil {
		old.Dispose()
		for _, m := range c.members {
			m.CancelPendingRequests()
		}
		log.Printf("[MEMBER-%v] [TERM-%d] Transition %v -> %v", c.ID, c.trail.GetTerm(), old.Kind(), newState.Kind())
	}
	c.state = newState
	newState.enter()
}

// disposeCurrentState tears down whatever state is active, for shutdown.
func (c *RaftCluster) disposeCurrentState() {
	c.stateMu.Lock()
	defer c.stateMu.Unlock()
	if c.state != nil {
		c.state.Dispose()
		for _, m := range c.members {
			m.CancelPendingRequests()
		}
		c.state = nil
	}
}

// refreshFollower resets the election timer if (and only if) the current state is Follower.
func (c *RaftCluster) refreshFollower() {
	c.stateMu.Lock()
	defer c.stateMu.Unlock()
	if follower, ok := c.state.(*followerState); ok {
		follower.Refresh()
	}
}
