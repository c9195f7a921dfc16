package trail

import (
	"encoding/binary"
	"fmt"
	"sync"

	"go.etcd.io/bbolt"
	pb "google.golang.org/protobuf/proto"

	"auditraft/internal/pubsub"
	"auditraft/internal/raft/proto"
)

var (
	// Bucket names
	logBucket      = []byte("logs")
	metadataBucket = []byte("metadata")

	// Metadata keys
	currentTermKey = []byte("currentTerm")
	votedForKey    = []byte("votedFor")
	votedTermKey   = []byte("votedForTerm")
	commitIndexKey = []byte("commitIndex")
)

// BboltAuditTrail is a bbolt-backed AuditTrail. Log entries live in the logs bucket keyed by their
// big-endian index so a cursor walks them in order; term, vote, and commit index live in the
// metadata bucket. Index and term state is also cached in memory so reads never touch the disk.
type BboltAuditTrail struct {
	mu sync.RWMutex

	conn *bbolt.DB

	// Cached from the metadata/log buckets at open time and kept in sync on every write.
	lastIndex   uint64
	lastTerm    uint64
	commitIndex uint64
	currentTerm uint64
	votedFor    string
	hasVoted    bool

	pubSub *pubsub.PubSubClient
}

// NewBboltAuditTrail opens (or creates) a bbolt-backed trail at path and restores the persisted
// term, vote, commit index, and log position.
func NewBboltAuditTrail(path string, pubSub *pubsub.PubSubClient) (*BboltAuditTrail, error) {
	db, err := bbolt.Open(path, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open bbolt db: %w", err)
	}

	t := &BboltAuditTrail{conn: db, pubSub: pubSub}

	err = db.Update(func(tx *bbolt.Tx) error {
		logs, err := tx.CreateBucketIfNotExists(logBucket)
		if err != nil {
			return fmt.Errorf("failed to create log bucket: %w", err)
		}
		meta, err := tx.CreateBucketIfNotExists(metadataBucket)
		if err != nil {
			return fmt.Errorf("failed to create metadata bucket: %w", err)
		}

		// Restore the cache from whatever a previous run persisted.
		if k, v := logs.Cursor().Last(); k != nil {
			t.lastIndex = bytesToUint64(k)
			entry := &proto.LogEntry{}
			if err := pb.Unmarshal(v, entry); err != nil {
				return fmt.Errorf("failed to unmarshal last log entry: %w", err)
			}
			t.lastTerm = entry.Term
		}
		if v := meta.Get(currentTermKey); v != nil {
			t.currentTerm = bytesToUint64(v)
		}
		if v := meta.Get(commitIndexKey); v != nil {
			t.commitIndex = bytesToUint64(v)
		}
		if v := meta.Get(votedForKey); v != nil {
			// A persisted vote only counts if it was cast in the persisted term.
			if tv := meta.Get(votedTermKey); tv != nil && bytesToUint64(tv) == t.currentTerm {
				t.votedFor = string(v)
				t.hasVoted = true
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return t, nil
}

func (t *BboltAuditTrail) AppendEntries(entries []*proto.LogEntry, startIndex uint64) (uint64, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if startIndex == 0 {
		startIndex = t.lastIndex + 1
	}
	if startIndex <= t.commitIndex {
		return 0, fmt.Errorf("%w: startIndex %d, commitIndex %d", ErrCommittedOverwrite, startIndex, t.commitIndex)
	}
	if startIndex > t.lastIndex+1 {
		return 0, fmt.Errorf("%w: startIndex %d would leave a gap after %d", ErrIndexOutOfRange, startIndex, t.lastIndex)
	}

	err := t.conn.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(logBucket)

		// Drop the conflicting suffix first (Section 5.3), then write the new entries.
		cursor := bucket.Cursor()
		for k, _ := cursor.Seek(uint64ToBytes(startIndex)); k != nil; k, _ = cursor.Next() {
			if err := bucket.Delete(k); err != nil {
				return err
			}
		}

		for i, entry := range entries {
			entry.Index = startIndex + uint64(i)
			data, err := pb.Marshal(entry)
			if err != nil {
				return fmt.Errorf("failed to marshal log entry: %w", err)
			}
			if err := bucket.Put(uint64ToBytes(entry.Index), data); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	t.lastIndex = startIndex + uint64(len(entries)) - 1
	if len(entries) > 0 {
		t.lastTerm = entries[len(entries)-1].Term
	} else if startIndex == 1 {
		t.lastIndex = 0
		t.lastTerm = 0
	} else {
		// Truncation with no replacement entries: re-read the new tail's term.
		t.lastIndex = startIndex - 1
		entry, err := t.readEntry(t.lastIndex)
		if err != nil {
			return 0, err
		}
		t.lastTerm = entry.Term
	}

	return t.lastIndex, nil
}

func (t *BboltAuditTrail) GetEntries(startIndex, count uint64) ([]*proto.LogEntry, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if count == 0 {
		return nil, nil
	}

	endIndex := startIndex + count - 1
	if endIndex > t.lastIndex {
		return nil, fmt.Errorf("%w: requested [%d, %d], last index is %d", ErrIndexOutOfRange, startIndex, endIndex, t.lastIndex)
	}

	out := make([]*proto.LogEntry, 0, count)
	err := t.conn.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(logBucket)
		for i := startIndex; i <= endIndex; i++ {
			if i == 0 {
				out = append(out, sentinel)
				continue
			}
			data := bucket.Get(uint64ToBytes(i))
			if data == nil {
				return fmt.Errorf("%w: log entry at index %d not found", ErrIndexOutOfRange, i)
			}
			entry := &proto.LogEntry{}
			if err := pb.Unmarshal(data, entry); err != nil {
				return fmt.Errorf("failed to unmarshal log entry at index %d: %w", i, err)
			}
			out = append(out, entry)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (t *BboltAuditTrail) GetLastIndex(committedOnly bool) uint64 {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if committedOnly {
		return t.commitIndex
	}
	return t.lastIndex
}

func (t *BboltAuditTrail) LastIndexAndTerm(committedOnly bool) (uint64, uint64) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if !committedOnly {
		return t.lastIndex, t.lastTerm
	}
	if t.commitIndex == 0 {
		return 0, 0
	}
	if t.commitIndex == t.lastIndex {
		return t.commitIndex, t.lastTerm
	}
	entry, err := t.readEntry(t.commitIndex)
	if err != nil {
		// The commit index never points past stored entries, so a miss here is a corrupted store.
		panic(fmt.Sprintf("trail: committed entry %d unreadable: %v", t.commitIndex, err))
	}
	return t.commitIndex, entry.Term
}

func (t *BboltAuditTrail) Commit(count uint64) uint64 {
	t.mu.Lock()

	startIndex := t.commitIndex + 1
	available := t.lastIndex - t.commitIndex
	if count > available {
		count = available
	}
	if count == 0 {
		t.mu.Unlock()
		return 0
	}

	newCommit := t.commitIndex + count
	err := t.conn.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(metadataBucket).Put(commitIndexKey, uint64ToBytes(newCommit))
	})
	if err != nil {
		t.mu.Unlock()
		panic(fmt.Sprintf("trail: failed to persist commit index %d: %v", newCommit, err))
	}
	t.commitIndex = newCommit

	t.mu.Unlock()
	if t.pubSub != nil {
		pubsub.Publish(t.pubSub, pubsub.NewEvent(EntriesCommitted, CommitNotification{
			StartIndex: startIndex,
			Count:      count,
		}))
	}
	return count
}

func (t *BboltAuditTrail) CommitTo(index uint64) uint64 {
	t.mu.Lock()

	target := min(index, t.lastIndex)
	if target <= t.commitIndex {
		t.mu.Unlock()
		return 0
	}
	startIndex := t.commitIndex + 1
	count := target - t.commitIndex

	err := t.conn.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(metadataBucket).Put(commitIndexKey, uint64ToBytes(target))
	})
	if err != nil {
		t.mu.Unlock()
		panic(fmt.Sprintf("trail: failed to persist commit index %d: %v", target, err))
	}
	t.commitIndex = target

	t.mu.Unlock()
	if t.pubSub != nil {
		pubsub.Publish(t.pubSub, pubsub.NewEvent(EntriesCommitted, CommitNotification{
			StartIndex: startIndex,
			Count:      count,
		}))
	}
	return count
}

func (t *BboltAuditTrail) GetTerm() uint64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.currentTerm
}

func (t *BboltAuditTrail) UpdateTerm(term uint64) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if term < t.currentTerm {
		return fmt.Errorf("%w: have %d, got %d", ErrTermRegression, t.currentTerm, term)
	}

	clearVote := term > t.currentTerm
	err := t.conn.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(metadataBucket)
		if err := bucket.Put(currentTermKey, uint64ToBytes(term)); err != nil {
			return err
		}
		if clearVote {
			return bucket.Delete(votedForKey)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to persist term %d: %w", term, err)
	}

	if clearVote {
		t.votedFor = ""
		t.hasVoted = false
	}
	t.currentTerm = term
	return nil
}

func (t *BboltAuditTrail) IncrementTerm() (uint64, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	newTerm := t.currentTerm + 1
	err := t.conn.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(metadataBucket)
		if err := bucket.Put(currentTermKey, uint64ToBytes(newTerm)); err != nil {
			return err
		}
		return bucket.Delete(votedForKey)
	})
	if err != nil {
		return 0, fmt.Errorf("failed to persist term %d: %w", newTerm, err)
	}

	t.currentTerm = newTerm
	t.votedFor = ""
	t.hasVoted = false
	return newTerm, nil
}

func (t *BboltAuditTrail) GetVotedFor() (string, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.votedFor, t.hasVoted
}

func (t *BboltAuditTrail) TryVote(candidateID string) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.hasVoted && t.votedFor != candidateID {
		return false, nil
	}

	err := t.conn.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(metadataBucket)
		if err := bucket.Put(votedForKey, []byte(candidateID)); err != nil {
			return err
		}
		return bucket.Put(votedTermKey, uint64ToBytes(t.currentTerm))
	})
	if err != nil {
		return false, fmt.Errorf("failed to persist vote for %s: %w", candidateID, err)
	}

	t.votedFor = candidateID
	t.hasVoted = true
	return true, nil
}

func (t *BboltAuditTrail) Close() error {
	return t.conn.Close()
}

// readEntry fetches a single entry. Callers must hold at least the read lock.
func (t *BboltAuditTrail) readEntry(index uint64) (*proto.LogEntry, error) {
	var entry *proto.LogEntry
	err := t.conn.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(logBucket).Get(uint64ToBytes(index))
		if data == nil {
			return fmt.Errorf("log entry at index %d not found", index)
		}
		entry = &proto.LogEntry{}
		return pb.Unmarshal(data, entry)
	})
	return entry, err
}

// Helper functions for uint64 <-> []byte conversion
func uint64ToBytes(n uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, n)
	return b
}

func bytesToUint64(b []byte) uint64 {
	return binary.BigEndian.Uint64(b)
}
