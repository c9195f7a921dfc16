package statemachine

import (
	"log"

	"auditraft/internal/pubsub"
	"auditraft/internal/raft/proto"
	"auditraft/internal/raft/trail"
)

// StateMachine is the replicated state machine of a member, as per Section 2 from the
// [Raft paper](https://raft.github.io/raft.pdf). It is inspired by the FSM interface defined in
// [Hashicorp's Raft impl](https://github.com/hashicorp/raft/blob/main/fsm.go).
type StateMachine interface {
	Apply(entries []*proto.LogEntry)
}

// Applier bridges the audit trail's commit notifications to a StateMachine: every committed batch
// is read back from the trail and applied in log order, exactly once.
type Applier struct {
	trail     trail.AuditTrail
	machine   StateMachine
	pubSub    *pubsub.PubSubClient
	commitsCh chan *pubsub.Event[trail.CommitNotification]
	subID     pubsub.SubscriberID
	done      chan struct{}
}

// NewApplier subscribes to commit notifications on pubSub and starts the apply loop.
func NewApplier(auditTrail trail.AuditTrail, machine StateMachine, pubSub *pubsub.PubSubClient) *Applier {
	a := &Applier{
		trail:     auditTrail,
		machine:   machine,
		pubSub:    pubSub,
		commitsCh: make(chan *pubsub.Event[trail.CommitNotification], 64),
		done:      make(chan struct{}),
	}
	a.subID = pubsub.Subscribe(pubSub, trail.EntriesCommitted, a.commitsCh, pubsub.SubscriptionOptions{IsBlocking: false})

	go a.run()
	return a
}

func (a *Applier) run() {
	defer close(a.done)

	for ev := range a.commitsCh {
		n := ev.Payload
		entries, err := a.trail.GetEntries(n.StartIndex, n.Count)
		if err != nil {
			// The trail never commits past its stored entries, so this is a bug, not a race.
			log.Printf("[APPLIER] Failed to read committed entries [%d, +%d): %v", n.StartIndex, n.Count, err)
			continue
		}
		a.machine.Apply(entries)
	}
}

// Close unsubscribes from commit notifications and waits for the apply loop to drain.
func (a *Applier) Close() {
	a.pubSub.Unsubscribe(trail.EntriesCommitted, a.subID)
	<-a.done
}
