package cluster

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"auditraft/internal/raft/proto"
)

const (
	// RPCTimeout is the maximum time to wait for a single RPC attempt.
	// Section 5.6 states that broadcast time should be an order of magnitude less than the
	// election timeout (150-300ms). For typical networks, round trips are << 15ms, so 50ms per
	// attempt leaves a comfortable safety margin.
	RPCTimeout = 50 * time.Millisecond

	// MaxRequestVoteRetries is the number of times to retry a failed RequestVote RPC. Vote retries
	// are bounded by the election timeout: if an election fails, a new election with a new term
	// starts anyway, so 3 attempts x 50ms fits inside the 150-300ms window.
	MaxRequestVoteRetries = 3

	// MaxAppendEntriesRetries bounds retries for a single replication round. Section 5.3 says the
	// leader retries indefinitely; the indefinite part lives in the per-follower replication loop,
	// which issues a fresh round every heartbeat, so per-round retries stay small.
	MaxAppendEntriesRetries = 3

	// RetryBackoffBase is the base duration for backoff between retries
	RetryBackoffBase = 10 * time.Millisecond

	// MaxRetryBackoff is the maximum backoff duration between retries
	MaxRetryBackoff = 100 * time.Millisecond
)

// Transport owns the outbound gRPC side of a member: one client connection per peer, dialed
// through the raft:// resolver so connections survive address changes.
type Transport struct {
	// A map to store the underlying grpc.ClientConn for each peer. It is a
	// map[MemberID]*grpc.ClientConn. sync.Map provides thread-safe access and is optimized for
	// the read-heavy pattern here.
	clientsConnPool *sync.Map
	// directory resolves member IDs to addresses for the raft:// scheme.
	directory *memberDirectory
	// Optional metrics collector
	metrics MetricsCollector
}

// NewTransport creates a transport with a connection to every peer in peerIDs.
func NewTransport(peerIDs []MemberID, metrics MetricsCollector) *Transport {
	t := &Transport{
		clientsConnPool: &sync.Map{},
		directory:       sharedDirectory,
		metrics:         metrics,
	}
	t.initClients(peerIDs)
	return t
}

// RegisterMember publishes a member's dial address, waking any channel waiting on it.
func (t *Transport) RegisterMember(id MemberID, addr MemberAddress) {
	t.directory.set(id, addr)
}

// getClientConn retrieves the grpc.ClientConn for the given MemberID from the connection pool.
func (t *Transport) getClientConn(peerID MemberID) (*grpc.ClientConn, error) {
	clientConn, ok := t.clientsConnPool.Load(peerID)
	if !ok {
		return nil, fmt.Errorf("gRPC client connection not found for member: %v", peerID)
	}

	// We must type assert the value returned by Load, as it is of type `any` by default
	conn, ok := clientConn.(*grpc.ClientConn)
	if !ok {
		return nil, fmt.Errorf("invalid clientConn type for member %v. Type is %T", peerID, clientConn)
	}

	return conn, nil
}

// RequestVote sends a vote request to peerID, retrying transient failures with backoff. The
// returned error is non-nil only when every attempt failed or ctx was canceled.
func (t *Transport) RequestVote(ctx context.Context, peerID MemberID, req *proto.RequestVoteRequest) (*proto.RequestVoteResponse, error) {
	if t.metrics != nil {
		t.metrics.RecordRequestVote()
	}

	// The voter persists who it voted for, so the request must carry the candidate's identity.
	if req.CandidateId == "" {
		if id, ok := GetCallerID(ctx); ok {
			req.CandidateId = string(id)
		}
	}

	conn, err := t.getClientConn(peerID)
	if err != nil {
		return nil, err
	}

	// The client is a stateless wrapper around the connection; creating it per call is free.
	client := proto.NewRaftServiceClient(conn)

	var resp *proto.RequestVoteResponse
	var lastErr error

	for attempt := 0; attempt < MaxRequestVoteRetries; attempt++ {
		rpcCtx, cancel := context.WithTimeout(ctx, RPCTimeout)
		resp, lastErr = client.RequestVote(rpcCtx, req)
		cancel()

		if lastErr == nil {
			return resp, nil
		}

		// A canceled parent means the election is over or the state was disposed; stop retrying.
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("RequestVote to %s canceled: %w", peerID, ctx.Err())
		default:
		}

		if attempt < MaxRequestVoteRetries-1 {
			time.Sleep(retryBackoff(attempt))
		}
	}

	log.Printf("[TRANSPORT]%s RequestVote to %s failed after %d attempts: %v", callerTag(ctx), peerID, MaxRequestVoteRetries, lastErr)
	return nil, fmt.Errorf("RequestVote to %s failed after %d attempts: %w", peerID, MaxRequestVoteRetries, lastErr)
}

// AppendEntries sends a replication round to peerID, retrying transient failures with backoff.
func (t *Transport) AppendEntries(ctx context.Context, peerID MemberID, req *proto.AppendEntriesRequest) (*proto.AppendEntriesResponse, error) {
	if t.metrics != nil {
		if len(req.Entries) == 0 {
			t.metrics.RecordHeartbeat()
		} else {
			t.metrics.RecordAppendEntries()
		}
	}

	// Followers record the leader's identity for client redirects.
	if req.LeaderId == "" {
		if id, ok := GetCallerID(ctx); ok {
			req.LeaderId = string(id)
		}
	}

	conn, err := t.getClientConn(peerID)
	if err != nil {
		return nil, err
	}

	client := proto.NewRaftServiceClient(conn)

	var resp *proto.AppendEntriesResponse
	var lastErr error

	for attempt := 0; attempt < MaxAppendEntriesRetries; attempt++ {
		rpcCtx, cancel := context.WithTimeout(ctx, RPCTimeout)
		resp, lastErr = client.AppendEntries(rpcCtx, req)
		cancel()

		if lastErr == nil {
			if attempt > 0 {
				log.Printf("[TRANSPORT]%s AppendEntries to %s succeeded after %d retries", callerTag(ctx), peerID, attempt)
			}
			return resp, nil
		}

		// A canceled parent means the leader stepped down or is shutting down.
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("AppendEntries to %s canceled: %w", peerID, ctx.Err())
		default:
		}

		if attempt < MaxAppendEntriesRetries-1 {
			time.Sleep(retryBackoff(attempt))
		}
	}

	return nil, fmt.Errorf("AppendEntries to %s failed after %d attempts: %w", peerID, MaxAppendEntriesRetries, lastErr)
}

// initClients initializes a gRPC channel from the local member to every peer.
func (t *Transport) initClients(peerIDs []MemberID) {
	for _, id := range peerIDs {
		target := fmt.Sprintf("%s:///%s", raftScheme, id) // "raft:///UUID"
		conn, err := grpc.NewClient(target, grpc.WithTransportCredentials(insecure.NewCredentials()))
		if err != nil {
			// Failing to establish a connection to a single member should not prevent connections
			// to the others, so log it and continue.
			log.Printf("[TRANSPORT] Failed establishing a gRPC channel to member %v. Err: %v", id, err)
			continue
		}

		t.clientsConnPool.Store(id, conn)
	}
}

// CloseAllClients closes all gRPC client connections initiated by the local member.
func (t *Transport) CloseAllClients() {
	// Range is a thread-safe way to iterate over a sync.Map.
	t.clientsConnPool.Range(func(key, value any) bool {
		if conn, ok := value.(*grpc.ClientConn); ok {
			if err := conn.Close(); err != nil {
				log.Printf("[TRANSPORT] Failed to close connection to %s: %v", key, err)
			}
		}
		return true
	})
}

// callerTag renders the caller identity stamped on ctx, for correlating transport logs with the
// state that issued the RPC.
func callerTag(ctx context.Context) string {
	id, ok := GetCallerID(ctx)
	if !ok {
		return ""
	}
	if term, ok := GetCallerTerm(ctx); ok {
		return fmt.Sprintf(" [MEMBER-%v] [TERM-%d]", id, term)
	}
	return fmt.Sprintf(" [MEMBER-%v]", id)
}

func retryBackoff(attempt int) time.Duration {
	backoff := RetryBackoffBase * time.Duration(attempt+1)
	if backoff > MaxRetryBackoff {
		backoff = MaxRetryBackoff
	}
	return backoff
}
