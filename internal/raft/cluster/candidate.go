package cluster

import (
	"context"
	"errors"
	"log"
	"sync/atomic"
	"time"

	"auditraft/internal/pubsub"
)

// voteResult is one classified answer collected during the fan-out.
type voteResult struct {
	member    ClusterMember
	outcome   VoteOutcome
	voterTerm uint64
}

// candidateState runs exactly one election for one term, as per Section 5.2 from the
// [Raft paper](https://raft.github.io/raft.pdf): increment the term, vote for ourselves, ask every
// member in parallel, and decide from the aggregated outcomes.
type candidateState struct {
	cluster *RaftCluster

	// ctx bounds the whole election; its deadline is the randomized candidate timeout and its
	// cancellation doubles as disposal.
	ctx    context.Context
	cancel context.CancelFunc

	// electionTerm is the term this candidacy runs in, fixed once the term is incremented.
	electionTerm atomic.Uint64

	startedAt time.Time
}

func newCandidateState(cluster *RaftCluster) *candidateState {
	ctx, cancel := context.WithTimeout(context.Background(), cluster.config.randomElectionTimeout())
	return &candidateState{
		cluster: cluster,
		ctx:     ctx,
		cancel:  cancel,
	}
}

func (c *candidateState) Kind() StateKind { return Candidate }

func (c *candidateState) enter() {
	c.startedAt = time.Now()
	if c.cluster.metrics != nil {
		c.cluster.metrics.RecordElection()
	}
	go c.run()
}

func (c *candidateState) Dispose() {
	c.cancel()
}

// run performs the election and publishes the outcome. It never transitions states itself; the
// engine owns transitions so they stay atomic.
func (c *candidateState) run() {
	trail := c.cluster.trail

	term, err := trail.IncrementTerm()
	if err != nil {
		log.Printf("[MEMBER-%v] Failed to increment term for election: %v", c.cluster.ID, err)
		c.finish(ElectionOutcome{Won: false, Term: trail.GetTerm()})
		return
	}
	c.electionTerm.Store(term)

	// Vote for ourselves before asking anyone else, so the persisted vote record blocks a
	// concurrent grant to another candidate in this term. TryVote can lose that race: an inbound
	// request may already hold the record for this term, and then this candidacy is over.
	granted, err := trail.TryVote(string(c.cluster.ID))
	if err != nil {
		log.Printf("[MEMBER-%v] [TERM-%d] Failed to persist self-vote: %v", c.cluster.ID, term, err)
		c.finish(ElectionOutcome{Won: false, Term: term})
		return
	}
	if !granted {
		log.Printf("[MEMBER-%v] [TERM-%d] Vote for this term already granted elsewhere, abandoning election", c.cluster.ID, term)
		c.finish(ElectionOutcome{Won: false, Term: term})
		return
	}

	lastLogIndex, lastLogTerm := trail.LastIndexAndTerm(false)
	members := c.cluster.Members()

	log.Printf("[MEMBER-%v] [TERM-%d] Initiated a new election (%d voters)", c.cluster.ID, term, len(members))

	// Stamp the candidacy onto the outbound context so transport logs correlate with this election.
	ctx := SetCallerTerm(SetCallerID(c.ctx, c.cluster.ID), term)

	// Parallel fan-out: one goroutine per member, all bounded by the election context. Thrown
	// "unavailable" and "canceled" conditions become classified outcomes here, never faults.
	results := make(chan voteResult, len(members))
	for _, member := range members {
		go func(m ClusterMember) {
			res, err := m.RequestVote(ctx, term, lastLogIndex, lastLogTerm)
			if err != nil {
				results <- voteResult{member: m, outcome: classifyVoteError(c.ctx, err)}
				return
			}
			outcome := Rejected
			if res.Value {
				outcome = Granted
			}
			results <- voteResult{member: m, outcome: outcome, voterTerm: res.Term}
		}(member)
	}

	c.finish(c.aggregate(term, len(members), results))
}

// aggregate processes the vote responses. The loop is term-sensitive, not just majority
// arithmetic: a single response from a newer term ends the election no matter how many votes were
// already tallied, because the candidate is provably out of date.
func (c *candidateState) aggregate(term uint64, total int, results <-chan voteResult) ElectionOutcome {
	votes := 0
	localIsVoter := false

	for i := 0; i < total; i++ {
		r := <-results

		if r.voterTerm > term {
			log.Printf("[MEMBER-%v] [TERM-%d] Voter %v answered with newer term %d, abandoning election",
				c.cluster.ID, term, r.member.ID(), r.voterTerm)
			return ElectionOutcome{Won: false, Term: r.voterTerm}
		}

		switch r.outcome {
		case Canceled:
			// Our own timeout fired: the election expired inconclusively.
			return ElectionOutcome{Won: false, Term: term}
		case Granted:
			votes++
			if !r.member.IsRemote() {
				localIsVoter = true
			}
		case Rejected, NotAvailable:
			// An unreachable voter counts the same as a rejection: it cannot contribute to
			// consensus, so it weighs against the candidate.
			votes--
		}
	}

	if c.ctx.Err() != nil || votes <= 0 || !localIsVoter {
		log.Printf("[MEMBER-%v] [TERM-%d] Election lost (tally=%d, localVoter=%v, ctxErr=%v)",
			c.cluster.ID, term, votes, localIsVoter, c.ctx.Err())
		return ElectionOutcome{Won: false, Term: term}
	}

	log.Printf("[MEMBER-%v] [TERM-%d] Election won with tally %d", c.cluster.ID, term, votes)
	return ElectionOutcome{Won: true, Term: term}
}

func (c *candidateState) finish(outcome ElectionOutcome) {
	outcome.ElectionTerm = c.electionTerm.Load()
	if c.cluster.metrics != nil {
		c.cluster.metrics.RecordElectionDuration(time.Since(c.startedAt))
	}
	pubsub.Publish(c.cluster.pubSub, pubsub.NewEvent(ElectionFinished, outcome))
}

// classifyVoteError turns an RPC failure into a vote outcome. Cancellation of the election context
// (timeout or disposal) maps to Canceled; everything else means the member was unreachable.
func classifyVoteError(ctx context.Context, err error) VoteOutcome {
	if ctx.Err() != nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return Canceled
	}
	return NotAvailable
}
