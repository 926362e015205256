package bot

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kadavilrahul/reddit-bot/internal/models"
)

func TestSessionMetrics(t *testing.T) {
	m := NewSessionMetrics()
	require.NotEmpty(t, m.SessionID())

	m.RecordPostsRetrieved(10)
	m.RecordPostsRetrieved(0)
	m.RecordPostsRetrieved(-3)
	m.RecordCommentPosted()
	m.RecordCommentPosted()
	m.RecordCommentPosted()
	m.RecordError()

	snap := m.Snapshot()
	assert.Equal(t, m.SessionID(), snap.SessionID)
	assert.EqualValues(t, 10, snap.PostsRetrieved, "non-positive batches are ignored")
	assert.EqualValues(t, 3, snap.CommentsPosted)
	assert.EqualValues(t, 1, snap.Errors)
	assert.InDelta(t, 75.0, snap.SuccessRate, 0.001)
	assert.False(t, snap.CurrentTime.Before(snap.StartedAt))
	assert.GreaterOrEqual(t, snap.RuntimeHours, 0.0)
}

func TestSuccessRate(t *testing.T) {
	assert.Zero(t, successRate(0, 0), "no attempts yet")
	assert.InDelta(t, 100.0, successRate(4, 0), 0.001)
	assert.InDelta(t, 75.0, successRate(3, 1), 0.001)
	assert.Zero(t, successRate(0, 7))
}

func TestMatchesReturnsCopy(t *testing.T) {
	m := NewSessionMetrics()
	m.RecordMatch(models.KeywordMatch{PostID: "p1", Keyword: "generics"})

	got := m.Matches()
	require.Len(t, got, 1)
	got[0].PostID = "mutated"

	again := m.Matches()
	assert.Equal(t, "p1", again[0].PostID)
}

func TestSessionIDsAreUnique(t *testing.T) {
	a := NewSessionMetrics()
	b := NewSessionMetrics()
	assert.NotEqual(t, a.SessionID(), b.SessionID())
}
