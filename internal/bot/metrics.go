package bot

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kadavilrahul/reddit-bot/internal/models"
)

// SessionMetrics tracks the counters for one bot session. Counters
// only ever grow; the status API reads snapshots concurrently with
// the engagement loops.
type SessionMetrics struct {
	mu             sync.RWMutex
	sessionID      string
	startTime      time.Time
	commentsPosted int64
	postsRetrieved int64
	errors         int64
	matches        []models.KeywordMatch
}

// NewSessionMetrics starts a fresh session with a random identifier.
func NewSessionMetrics() *SessionMetrics {
	return &SessionMetrics{
		sessionID: uuid.New().String(),
		startTime: time.Now().UTC(),
	}
}

// SessionID returns the identifier assigned at session start.
func (m *SessionMetrics) SessionID() string {
	return m.sessionID
}

// RecordPostsRetrieved adds a batch of fetched posts to the counter.
func (m *SessionMetrics) RecordPostsRetrieved(n int) {
	if n <= 0 {
		return
	}
	m.mu.Lock()
	m.postsRetrieved += int64(n)
	m.mu.Unlock()
}

// RecordCommentPosted counts one successful submission.
func (m *SessionMetrics) RecordCommentPosted() {
	m.mu.Lock()
	m.commentsPosted++
	m.mu.Unlock()
}

// RecordError counts one caught failure.
func (m *SessionMetrics) RecordError() {
	m.mu.Lock()
	m.errors++
	m.mu.Unlock()
}

// RecordMatch appends a keyword match to the session log.
func (m *SessionMetrics) RecordMatch(match models.KeywordMatch) {
	m.mu.Lock()
	m.matches = append(m.matches, match)
	m.mu.Unlock()
}

// Matches returns a copy of the keyword matches recorded so far.
func (m *SessionMetrics) Matches() []models.KeywordMatch {
	m.mu.RLock()
	defer m.mu.RUnlock()

	matches := make([]models.KeywordMatch, len(m.matches))
	copy(matches, m.matches)
	return matches
}

// Snapshot returns a point-in-time copy of the counters.
func (m *SessionMetrics) Snapshot() models.StatsSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	now := time.Now().UTC()
	return models.StatsSnapshot{
		SessionID:      m.sessionID,
		StartedAt:      m.startTime,
		CurrentTime:    now,
		RuntimeHours:   now.Sub(m.startTime).Hours(),
		CommentsPosted: m.commentsPosted,
		PostsRetrieved: m.postsRetrieved,
		Errors:         m.errors,
		SuccessRate:    successRate(m.commentsPosted, m.errors),
	}
}

// successRate is the share of successful submissions among attempts,
// as a percentage. A session with no attempts reports zero.
func successRate(posted, errors int64) float64 {
	total := posted + errors
	if total < 1 {
		total = 1
	}
	return float64(posted) / float64(total) * 100
}
