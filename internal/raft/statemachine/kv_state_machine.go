package statemachine

import (
	"log"
	"strings"
	"sync"

	"auditraft/internal/raft/proto"
)

// KVStateMachine is a simple key-value store that implements the StateMachine interface.
// Commands are expected in the format "SET key=value" or "DEL key".
type KVStateMachine struct {
	mu    sync.RWMutex
	store map[string]string
	id    string // Member ID for logging
}

// NewKVStateMachine creates a new key-value state machine
func NewKVStateMachine(memberID string) *KVStateMachine {
	return &KVStateMachine{
		store: make(map[string]string),
		id:    memberID,
	}
}

// Apply applies committed log entries to the store, in order.
func (kv *KVStateMachine) Apply(entries []*proto.LogEntry) {
	kv.mu.Lock()
	defer kv.mu.Unlock()

	for _, entry := range entries {
		command := string(entry.Content)
		parts := strings.Fields(command)
		if len(parts) == 0 {
			continue
		}

		op := strings.ToUpper(parts[0])
		switch op {
		case "SET":
			if len(parts) >= 2 {
				// Parse "key=value"
				kvPair := strings.SplitN(parts[1], "=", 2)
				if len(kvPair) == 2 {
					kv.store[kvPair[0]] = kvPair[1]
					log.Printf("[KV-SM-%s] Applied SET: %s=%s (index=%d)",
						kv.id, kvPair[0], kvPair[1], entry.Index)
				}
			}
		case "DEL":
			if len(parts) >= 2 {
				delete(kv.store, parts[1])
				log.Printf("[KV-SM-%s] Applied DEL: %s (index=%d)", kv.id, parts[1], entry.Index)
			}
		default:
			log.Printf("[KV-SM-%s] Unknown command: %s (index=%d)", kv.id, command, entry.Index)
		}
	}
}

// Get returns the value for key, if present.
func (kv *KVStateMachine) Get(key string) (string, bool) {
	kv.mu.RLock()
	defer kv.mu.RUnlock()
	value, ok := kv.store[key]
	return value, ok
}

// Len returns the number of keys currently stored.
func (kv *KVStateMachine) Len() int {
	kv.mu.RLock()
	defer kv.mu.RUnlock()
	return len(kv.store)
}
