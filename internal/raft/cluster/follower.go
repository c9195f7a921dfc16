package cluster

import (
	"log"
	"sync/atomic"
	"time"

	"auditraft/internal/pubsub"
)

// followerState is the passive state: it waits for leader contact and signals the engine when the
// randomized election timeout elapses without any, as per Section 5.2 from the
// [Raft paper](https://raft.github.io/raft.pdf).
type followerState struct {
	cluster *RaftCluster
	timeout time.Duration

	timer *time.Timer
	// done is closed on Dispose so the watch goroutine exits instead of leaking.
	done chan struct{}
	// disposed is checked before publishing: a disposed follower must never trigger a transition,
	// even if its timer fired concurrently with disposal.
	disposed atomic.Bool
	// fired makes the timeout signal single-shot. A timer that somehow fires again (e.g. a Refresh
	// racing the first expiry) cannot produce a second Candidate transition.
	fired atomic.Bool
}

func newFollowerState(cluster *RaftCluster) *followerState {
	return &followerState{
		cluster: cluster,
		timeout: cluster.config.randomElectionTimeout(),
		done:    make(chan struct{}),
	}
}

func (f *followerState) Kind() StateKind { return Follower }

func (f *followerState) enter() {
	f.timer = time.NewTimer(f.timeout)
	go f.watch()
}

// watch waits for the election timer. It runs until the timer fires once or the state is disposed.
func (f *followerState) watch() {
	for {
		select {
		case expiredAt := <-f.timer.C:
			if f.disposed.Load() || !f.fired.CompareAndSwap(false, true) {
				return
			}
			log.Printf("[MEMBER-%v] [TERM-%d] Election timeout expired at %v",
				f.cluster.ID, f.cluster.trail.GetTerm(), expiredAt.Format(time.RFC3339Nano))
			pubsub.Publish(f.cluster.pubSub, pubsub.NewEvent(ElectionTimeoutExpired, expiredAt))
			return
		case <-f.done:
			return
		}
	}
}

// Refresh restarts the election timer. Called on every valid leader contact and granted vote; the
// state itself does not change.
func (f *followerState) Refresh() {
	if f.disposed.Load() || f.fired.Load() {
		return
	}
	// Stop-drain-Reset so a concurrently expired (but unread) timer does not double-fire.
	if !f.timer.Stop() {
		select {
		case <-f.timer.C:
		default:
		}
	}
	f.timer.Reset(f.timeout)
}

func (f *followerState) Dispose() {
	if !f.disposed.CompareAndSwap(false, true) {
		return
	}
	close(f.done)
	if f.timer != nil {
		f.timer.Stop()
	}
}
