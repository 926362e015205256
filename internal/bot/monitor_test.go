package bot

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kadavilrahul/reddit-bot/internal/models"
)

func TestMonitor_RequiresKeywords(t *testing.T) {
	b := newTestBot(&fakeGateway{}, nil, nil, nil, nil)

	_, err := b.Monitor(context.Background(), MonitorParams{Subreddit: "golang"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "keyword")
}

func TestMonitor_RejectsUnknownAction(t *testing.T) {
	b := newTestBot(&fakeGateway{}, nil, nil, nil, nil)

	_, err := b.Monitor(context.Background(), MonitorParams{
		Subreddit: "golang",
		Keywords:  []string{"generics"},
		Action:    models.MonitorAction("shout"),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown monitor action")
}

func TestMonitor_ExpiredWindow(t *testing.T) {
	g := &fakeGateway{}
	n := &fakeNotifier{}
	b := newTestBot(g, nil, nil, nil, n)

	report, err := b.Monitor(context.Background(), MonitorParams{
		Subreddit: "golang",
		Keywords:  []string{"generics"},
		Action:    models.ActionLog,
	})
	require.NoError(t, err)
	assert.Zero(t, report.TotalMatches)
	assert.Zero(t, g.fetches)

	// Completion is still reported
	require.Len(t, n.reports, 1)
	assert.Zero(t, n.reports[0].TotalMatches)
}

func TestMonitor_LogActionMatchesOnce(t *testing.T) {
	g := &fakeGateway{
		postsFn: func(subreddit, sortBy string, limit int) ([]models.Post, error) {
			assert.Equal(t, "new", sortBy)
			assert.Equal(t, 25, limit)
			return []models.Post{
				{ID: "p1", Title: "Why go generics rock", Permalink: "https://reddit.com/p1"},
				{ID: "p2", Title: "Unrelated title", SelfText: "a body that mentions Generics in passing"},
				{ID: "p3", Title: "Nothing to see here"},
			}, nil
		},
	}
	n := &fakeNotifier{}
	b := newTestBot(g, nil, nil, nil, n)

	report, err := b.Monitor(context.Background(), MonitorParams{
		Subreddit: "golang",
		Keywords:  []string{"GENERICS"},
		Action:    models.ActionLog,
		Duration:  30 * time.Millisecond,
	})
	require.NoError(t, err)

	// Matching is case-insensitive over title and body, each
	// (post, keyword) pair is reported once across poll cycles, and
	// log mode never submits anything.
	assert.Greater(t, g.fetches, 1)
	assert.Equal(t, 2, report.TotalMatches)
	assert.Empty(t, g.submissions)
	assert.Len(t, n.matches, 2)
	assert.Len(t, b.Matches(), 2)

	ids := make([]string, 0, 2)
	for _, match := range report.Matches {
		assert.Equal(t, "GENERICS", match.Keyword)
		assert.Nil(t, match.Comment)
		ids = append(ids, match.PostID)
	}
	assert.ElementsMatch(t, []string{"p1", "p2"}, ids)
}

func TestMonitor_CommentAction(t *testing.T) {
	g := &fakeGateway{
		postsFn: func(subreddit, sortBy string, limit int) ([]models.Post, error) {
			return []models.Post{{ID: "p1", Title: "Generics question", Permalink: "https://reddit.com/p1"}}, nil
		},
	}
	b := newTestBot(g, nil, nil, nil, nil)

	// An empty action defaults to commenting
	report, err := b.Monitor(context.Background(), MonitorParams{
		Subreddit: "golang",
		Keywords:  []string{"generics"},
		Duration:  30 * time.Millisecond,
	})
	require.NoError(t, err)

	require.Equal(t, 1, report.TotalMatches)
	assert.Equal(t, []string{"p1"}, g.submissions, "one submission despite repeated cycles")

	match := report.Matches[0]
	require.NotNil(t, match.Comment)
	assert.True(t, match.Comment.Success)
	assert.EqualValues(t, 1, b.Stats().CommentsPosted)
}

func TestMonitor_CycleErrorsKeepPolling(t *testing.T) {
	g := &fakeGateway{
		postsFn: func(subreddit, sortBy string, limit int) ([]models.Post, error) {
			return nil, errors.New("reddit is down")
		},
	}
	b := newTestBot(g, nil, nil, nil, nil)

	report, err := b.Monitor(context.Background(), MonitorParams{
		Subreddit: "golang",
		Keywords:  []string{"generics"},
		Action:    models.ActionLog,
		Duration:  25 * time.Millisecond,
	})
	require.NoError(t, err, "cycle failures never fail the run")
	assert.Zero(t, report.TotalMatches)
	assert.Greater(t, g.fetches, 1, "kept polling after failures")
	assert.Positive(t, b.Stats().Errors)
}

func TestMonitor_CancelStopsLoop(t *testing.T) {
	g := &fakeGateway{
		postsFn: func(subreddit, sortBy string, limit int) ([]models.Post, error) {
			return []models.Post{{ID: "p1", Title: "quiet around here"}}, nil
		},
	}
	b := newTestBot(g, nil, nil, nil, nil)
	b.cfg.Monitor.PollIntervalSeconds = 3600

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan *models.MonitorReport, 1)
	go func() {
		report, err := b.Monitor(ctx, MonitorParams{
			Subreddit: "golang",
			Keywords:  []string{"generics"},
			Action:    models.ActionLog,
			Duration:  time.Hour,
		})
		assert.NoError(t, err)
		done <- report
	}()

	require.Eventually(t, func() bool { return b.Stats().PostsRetrieved > 0 },
		2*time.Second, time.Millisecond)
	cancel()

	select {
	case report := <-done:
		require.NotNil(t, report)
		assert.Zero(t, report.TotalMatches)
	case <-time.After(2 * time.Second):
		t.Fatal("monitor did not stop after cancellation")
	}
}
