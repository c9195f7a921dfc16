package trail

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"auditraft/internal/raft/proto"
)

func openTestTrail(t *testing.T, path string) *BboltAuditTrail {
	t.Helper()
	trail, err := NewBboltAuditTrail(path, nil)
	require.NoError(t, err)
	return trail
}

func TestBboltAuditTrail_AppendAndRead(t *testing.T) {
	trail := openTestTrail(t, filepath.Join(t.TempDir(), "trail.db"))
	defer trail.Close()

	lastIndex, err := trail.AppendEntries([]*proto.LogEntry{
		{Term: 1, Content: []byte("a")},
		{Term: 1, Content: []byte("b")},
		{Term: 2, Content: []byte("c")},
	}, 0)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), lastIndex)

	entries, err := trail.GetEntries(1, 3)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, uint64(1), entries[0].Index)
	assert.Equal(t, []byte("b"), entries[1].Content)
	assert.Equal(t, uint64(2), entries[2].Term)

	index, term := trail.LastIndexAndTerm(false)
	assert.Equal(t, uint64(3), index)
	assert.Equal(t, uint64(2), term)
}

func TestBboltAuditTrail_TruncatesConflictingSuffix(t *testing.T) {
	trail := openTestTrail(t, filepath.Join(t.TempDir(), "trail.db"))
	defer trail.Close()

	_, err := trail.AppendEntries([]*proto.LogEntry{{Term: 1}, {Term: 1}, {Term: 1}}, 0)
	require.NoError(t, err)

	lastIndex, err := trail.AppendEntries([]*proto.LogEntry{{Term: 2}}, 2)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), lastIndex)

	_, err = trail.GetEntries(3, 1)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)

	index, term := trail.LastIndexAndTerm(false)
	assert.Equal(t, uint64(2), index)
	assert.Equal(t, uint64(2), term)
}

func TestBboltAuditTrail_CommittedOverwriteRejected(t *testing.T) {
	trail := openTestTrail(t, filepath.Join(t.TempDir(), "trail.db"))
	defer trail.Close()

	_, err := trail.AppendEntries([]*proto.LogEntry{{Term: 1}, {Term: 1}}, 0)
	require.NoError(t, err)
	require.Equal(t, uint64(1), trail.Commit(1))

	_, err = trail.AppendEntries([]*proto.LogEntry{{Term: 2}}, 1)
	assert.ErrorIs(t, err, ErrCommittedOverwrite)

	_, err = trail.AppendEntries([]*proto.LogEntry{{Term: 2}}, 2)
	assert.NoError(t, err)
}

func TestBboltAuditTrail_SurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trail.db")

	trail := openTestTrail(t, path)
	_, err := trail.AppendEntries([]*proto.LogEntry{
		{Term: 1, Content: []byte("a")},
		{Term: 2, Content: []byte("b")},
	}, 0)
	require.NoError(t, err)
	require.Equal(t, uint64(1), trail.Commit(1))
	require.NoError(t, trail.UpdateTerm(2))
	mustVote(t, trail, "member-1")
	require.NoError(t, trail.Close())

	reopened := openTestTrail(t, path)
	defer reopened.Close()

	assert.Equal(t, uint64(2), reopened.GetLastIndex(false))
	assert.Equal(t, uint64(1), reopened.GetLastIndex(true))
	assert.Equal(t, uint64(2), reopened.GetTerm())

	index, term := reopened.LastIndexAndTerm(false)
	assert.Equal(t, uint64(2), index)
	assert.Equal(t, uint64(2), term)

	votedFor, voted := reopened.GetVotedFor()
	assert.True(t, voted)
	assert.Equal(t, "member-1", votedFor)

	entries, err := reopened.GetEntries(1, 2)
	require.NoError(t, err)
	assert.Equal(t, []byte("a"), entries[0].Content)
	assert.Equal(t, []byte("b"), entries[1].Content)
}

func TestBboltAuditTrail_TryVote(t *testing.T) {
	trail := openTestTrail(t, filepath.Join(t.TempDir(), "trail.db"))
	defer trail.Close()

	mustVote(t, trail, "member-1")

	// The held vote blocks every other candidate this term.
	granted, err := trail.TryVote("member-2")
	require.NoError(t, err)
	assert.False(t, granted)

	votedFor, voted := trail.GetVotedFor()
	assert.True(t, voted)
	assert.Equal(t, "member-1", votedFor)
}

func TestBboltAuditTrail_CommitTo(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trail.db")

	trail := openTestTrail(t, path)
	_, err := trail.AppendEntries([]*proto.LogEntry{
		{Term: 1, Content: []byte("a")},
		{Term: 1, Content: []byte("b")},
		{Term: 1, Content: []byte("c")},
	}, 0)
	require.NoError(t, err)

	assert.Equal(t, uint64(2), trail.CommitTo(2))
	assert.Equal(t, uint64(0), trail.CommitTo(1))

	// Clamped to the last index.
	assert.Equal(t, uint64(1), trail.CommitTo(10))
	assert.Equal(t, uint64(3), trail.GetLastIndex(true))
	require.NoError(t, trail.Close())

	// The commit index persisted via CommitTo survives a reopen.
	reopened := openTestTrail(t, path)
	defer reopened.Close()
	assert.Equal(t, uint64(3), reopened.GetLastIndex(true))
}

func TestBboltAuditTrail_StaleVoteNotRestored(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trail.db")

	trail := openTestTrail(t, path)
	require.NoError(t, trail.UpdateTerm(1))
	mustVote(t, trail, "member-1")
	// The term advances after the vote was cast; the vote must not follow it.
	require.NoError(t, trail.UpdateTerm(2))
	require.NoError(t, trail.Close())

	reopened := openTestTrail(t, path)
	defer reopened.Close()

	assert.Equal(t, uint64(2), reopened.GetTerm())
	_, voted := reopened.GetVotedFor()
	assert.False(t, voted)
}

func TestBboltAuditTrail_Terms(t *testing.T) {
	trail := openTestTrail(t, filepath.Join(t.TempDir(), "trail.db"))
	defer trail.Close()

	term, err := trail.IncrementTerm()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), term)

	mustVote(t, trail, "member-1")

	term, err = trail.IncrementTerm()
	require.NoError(t, err)
	assert.Equal(t, uint64(2), term)

	_, voted := trail.GetVotedFor()
	assert.False(t, voted)

	err = trail.UpdateTerm(1)
	assert.ErrorIs(t, err, ErrTermRegression)
}
