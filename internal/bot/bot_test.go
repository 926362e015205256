package bot

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"

	"github.com/kadavilrahul/reddit-bot/internal/config"
	"github.com/kadavilrahul/reddit-bot/internal/models"
	"github.com/kadavilrahul/reddit-bot/internal/reddit"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m, goleak.IgnoreTopFunction("go.opencensus.io/stats/view.(*worker).start"))
}

// fakeGateway implements Gateway with canned responses. Tests set the
// func fields they care about; everything else returns empty results.
type fakeGateway struct {
	postsFn    func(subreddit, sortBy string, limit int) ([]models.Post, error)
	postFn     func(postID string) (*models.Post, error)
	commentsFn func(postID string, limit int) ([]models.Comment, error)
	threadFn   func(postID string, limit int) (*models.Post, []models.Comment, error)
	submitFn   func(postID, text string) (*reddit.SubmittedComment, error)
	searchFn   func(query, subreddit string, limit int) ([]models.Post, error)
	meFn       func() (*models.UserInfo, error)
	userFn     func(username string) (*models.UserInfo, error)

	fetches     int
	submissions []string
}

func (g *fakeGateway) GetSubredditPosts(ctx context.Context, subreddit, sortBy string, limit int, timeFilter string) ([]models.Post, error) {
	g.fetches++
	if g.postsFn == nil {
		return nil, nil
	}
	return g.postsFn(subreddit, sortBy, limit)
}

func (g *fakeGateway) GetPost(ctx context.Context, postID string) (*models.Post, error) {
	if g.postFn == nil {
		return &models.Post{ID: postID, Title: "a post"}, nil
	}
	return g.postFn(postID)
}

func (g *fakeGateway) GetPostComments(ctx context.Context, postID string, limit int) ([]models.Comment, error) {
	if g.commentsFn == nil {
		return nil, nil
	}
	return g.commentsFn(postID, limit)
}

func (g *fakeGateway) GetPostWithComments(ctx context.Context, postID string, limit int) (*models.Post, []models.Comment, error) {
	if g.threadFn == nil {
		return &models.Post{ID: postID, Title: "a post"}, nil, nil
	}
	return g.threadFn(postID, limit)
}

func (g *fakeGateway) SubmitComment(ctx context.Context, postID, text string) (*reddit.SubmittedComment, error) {
	g.submissions = append(g.submissions, postID)
	if g.submitFn == nil {
		return &reddit.SubmittedComment{
			ID:        "c-" + postID,
			Permalink: "https://reddit.com/r/test/comments/" + postID + "/_/c-" + postID + "/",
		}, nil
	}
	return g.submitFn(postID, text)
}

func (g *fakeGateway) Search(ctx context.Context, query, subreddit, sort, timeFilter string, limit int) ([]models.Post, error) {
	if g.searchFn == nil {
		return nil, nil
	}
	return g.searchFn(query, subreddit, limit)
}

func (g *fakeGateway) Me(ctx context.Context) (*models.UserInfo, error) {
	if g.meFn == nil {
		return &models.UserInfo{Name: "botuser"}, nil
	}
	return g.meFn()
}

func (g *fakeGateway) GetUser(ctx context.Context, username string) (*models.UserInfo, error) {
	if g.userFn == nil {
		return &models.UserInfo{Name: username}, nil
	}
	return g.userFn(username)
}

type fakeValidator struct {
	verdict models.Verdict
	calls   int
}

func (v *fakeValidator) ValidateComment(ctx context.Context, commentText, postContext string) models.Verdict {
	v.calls++
	return v.verdict
}

type fakeSynthesizer struct {
	draft string
	err   error
	fn    func(title string) (string, error)
	calls int
}

func (s *fakeSynthesizer) GenerateComment(ctx context.Context, title, content, subreddit string, existingComments []string) (string, error) {
	s.calls++
	if s.fn != nil {
		return s.fn(title)
	}
	if s.err != nil {
		return "", s.err
	}
	if s.draft != "" {
		return s.draft, nil
	}
	return "A thoughtful reply.", nil
}

type fakeCompleter struct {
	response string
	err      error
	prompts  []string
}

func (c *fakeCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	c.prompts = append(c.prompts, prompt)
	return c.response, c.err
}

type fakeNotifier struct {
	matches []models.KeywordMatch
	reports []models.MonitorReport
}

func (n *fakeNotifier) NotifyMatch(match models.KeywordMatch) {
	n.matches = append(n.matches, match)
}

func (n *fakeNotifier) NotifyReport(report models.MonitorReport) {
	n.reports = append(n.reports, report)
}

func testConfig() *config.Config {
	return &config.Config{
		Bot: config.BotConfig{
			MinCommentLength:   10,
			MaxCommentLength:   10000,
			MaxPostsPerRequest: 100,
		},
		Monitor: config.MonitorConfig{PageSize: 25},
	}
}

// newTestBot wires a bot over fakes. Nil collaborators get permissive
// defaults; delays are zeroed so loops run at full speed.
func newTestBot(gateway Gateway, validator CommentValidator, synthesizer CommentSynthesizer, analyst Completer, notifier Notifier) *Bot {
	return newTestBotWithConfig(testConfig(), gateway, validator, synthesizer, analyst, notifier)
}

// newTestBotWithConfig is newTestBot with a caller-supplied config.
func newTestBotWithConfig(cfg *config.Config, gateway Gateway, validator CommentValidator, synthesizer CommentSynthesizer, analyst Completer, notifier Notifier) *Bot {
	if validator == nil {
		validator = &fakeValidator{verdict: models.Verdict{Valid: true, Reason: "Comment is valid"}}
	}
	if synthesizer == nil {
		synthesizer = &fakeSynthesizer{}
	}
	if analyst == nil {
		analyst = &fakeCompleter{response: "analysis"}
	}
	return New(gateway, validator, synthesizer, analyst, notifier, NewSessionMetrics(), cfg, zap.NewNop())
}

func TestPostComment(t *testing.T) {
	t.Run("validated submission succeeds", func(t *testing.T) {
		g := &fakeGateway{
			postFn: func(postID string) (*models.Post, error) {
				return &models.Post{ID: postID, Title: "Interesting question", SelfText: "some body"}, nil
			},
		}
		v := &fakeValidator{verdict: models.Verdict{Valid: true, Reason: "Comment is valid"}}
		b := newTestBot(g, v, nil, nil, nil)

		result := b.PostComment(context.Background(), "p1", "Great point, thanks for sharing!", true)
		require.True(t, result.Success, "unexpected error: %s", result.Error)
		assert.Equal(t, "c-p1", result.CommentID)
		assert.NotEmpty(t, result.Permalink)
		assert.Equal(t, 1, v.calls)
		assert.Equal(t, []string{"p1"}, g.submissions)

		stats := b.Stats()
		assert.EqualValues(t, 1, stats.CommentsPosted)
		assert.EqualValues(t, 0, stats.Errors)
	})

	t.Run("rejected draft is never submitted", func(t *testing.T) {
		g := &fakeGateway{}
		v := &fakeValidator{verdict: models.Verdict{Valid: false, Reason: "too generic"}}
		b := newTestBot(g, v, nil, nil, nil)

		result := b.PostComment(context.Background(), "p1", "nice", true)
		assert.False(t, result.Success)
		assert.Equal(t, "Comment validation failed: too generic", result.Error)
		assert.Empty(t, g.submissions)
		assert.EqualValues(t, 1, b.Stats().Errors)
	})

	t.Run("validation can be skipped", func(t *testing.T) {
		g := &fakeGateway{}
		v := &fakeValidator{verdict: models.Verdict{Valid: false, Reason: "would reject"}}
		b := newTestBot(g, v, nil, nil, nil)

		result := b.PostComment(context.Background(), "p1", "nice", false)
		assert.True(t, result.Success)
		assert.Zero(t, v.calls)
	})

	t.Run("locked post is refused locally", func(t *testing.T) {
		g := &fakeGateway{
			postFn: func(postID string) (*models.Post, error) {
				return &models.Post{ID: postID, Title: "Locked thread", Locked: true}, nil
			},
		}
		b := newTestBot(g, nil, nil, nil, nil)

		result := b.PostComment(context.Background(), "p1", "a perfectly fine comment", true)
		assert.False(t, result.Success)
		assert.Equal(t, "Post is locked and does not allow comments", result.Error)
		assert.Empty(t, g.submissions)
	})

	t.Run("post lookup failure is reported", func(t *testing.T) {
		g := &fakeGateway{
			postFn: func(postID string) (*models.Post, error) {
				return nil, fmt.Errorf("%s: %w", postID, reddit.ErrNotFound)
			},
		}
		b := newTestBot(g, nil, nil, nil, nil)

		result := b.PostComment(context.Background(), "missing", "text", false)
		assert.False(t, result.Success)
		assert.Contains(t, result.Error, "not found")
		assert.EqualValues(t, 1, b.Stats().Errors)
	})
}

func TestPostComment_SubmitErrorMessages(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "forbidden",
			err:  fmt.Errorf("r/private: %w", reddit.ErrForbidden),
			want: "Forbidden: You may be banned from this subreddit or lack permissions",
		},
		{
			name: "rate limited",
			err:  fmt.Errorf("submit: %w", reddit.ErrRateLimited),
			want: "Rate limited: Too many requests. Please wait before posting again",
		},
		{
			name: "locked upstream",
			err:  fmt.Errorf("submit: %w", reddit.ErrPostLocked),
			want: "Post is locked and does not allow comments",
		},
		{
			name: "anything else passes through",
			err:  errors.New("connection reset"),
			want: "connection reset",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := &fakeGateway{
				submitFn: func(postID, text string) (*reddit.SubmittedComment, error) {
					return nil, tt.err
				},
			}
			b := newTestBot(g, nil, nil, nil, nil)

			result := b.PostComment(context.Background(), "p1", "some text", false)
			assert.False(t, result.Success)
			assert.Equal(t, tt.want, result.Error)
		})
	}
}

func TestGenerateAndPostComment(t *testing.T) {
	t.Run("drafts and submits", func(t *testing.T) {
		g := &fakeGateway{
			postFn: func(postID string) (*models.Post, error) {
				return &models.Post{ID: postID, Title: "Interesting question", SelfText: "some body", Subreddit: "golang"}, nil
			},
		}
		v := &fakeValidator{verdict: models.Verdict{Valid: true, Reason: "Comment is valid"}}
		s := &fakeSynthesizer{draft: "A considered reply about the topic."}
		b := newTestBot(g, v, s, nil, nil)

		result := b.GenerateAndPostComment(context.Background(), "p1")
		require.True(t, result.Success, "unexpected error: %s", result.Error)
		assert.Equal(t, "c-p1", result.CommentID)
		assert.Equal(t, 1, s.calls)
		assert.Equal(t, 1, v.calls)
		assert.Equal(t, []string{"p1"}, g.submissions)
		assert.EqualValues(t, 1, b.Stats().CommentsPosted)
	})

	t.Run("rejected draft is never submitted", func(t *testing.T) {
		g := &fakeGateway{}
		v := &fakeValidator{verdict: models.Verdict{Valid: false, Reason: "too generic"}}
		b := newTestBot(g, v, nil, nil, nil)

		result := b.GenerateAndPostComment(context.Background(), "p1")
		assert.False(t, result.Success)
		assert.Equal(t, "Comment validation failed: too generic", result.Error)
		assert.Empty(t, g.submissions)
		assert.EqualValues(t, 1, b.Stats().Errors)
	})

	t.Run("drafting failure is reported", func(t *testing.T) {
		g := &fakeGateway{}
		s := &fakeSynthesizer{err: errors.New("model unavailable")}
		b := newTestBot(g, nil, s, nil, nil)

		result := b.GenerateAndPostComment(context.Background(), "p1")
		assert.False(t, result.Success)
		assert.Equal(t, "model unavailable", result.Error)
		assert.Empty(t, g.submissions)
	})

	t.Run("post lookup failure is reported", func(t *testing.T) {
		g := &fakeGateway{
			postFn: func(postID string) (*models.Post, error) {
				return nil, errors.New("boom")
			},
		}
		b := newTestBot(g, nil, nil, nil, nil)

		result := b.GenerateAndPostComment(context.Background(), "p1")
		assert.False(t, result.Success)
		assert.Equal(t, "boom", result.Error)
		assert.EqualValues(t, 1, b.Stats().Errors)
	})
}

func TestUserInfo(t *testing.T) {
	g := &fakeGateway{
		meFn: func() (*models.UserInfo, error) {
			return &models.UserInfo{Name: "botuser", CommentKarma: 10, LinkKarma: 5, TotalKarma: 15}, nil
		},
		userFn: func(username string) (*models.UserInfo, error) {
			return &models.UserInfo{Name: username}, nil
		},
	}
	b := newTestBot(g, nil, nil, nil, nil)

	me, err := b.UserInfo(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, "botuser", me.Name)

	other, err := b.UserInfo(context.Background(), "someone")
	require.NoError(t, err)
	assert.Equal(t, "someone", other.Name)
}

func TestFetchPostThread(t *testing.T) {
	g := &fakeGateway{
		threadFn: func(postID string, limit int) (*models.Post, []models.Comment, error) {
			assert.Equal(t, 20, limit)
			post := &models.Post{ID: postID, Title: "The thread"}
			comments := []models.Comment{{ID: "c1", Body: "one"}, {ID: "c2", Body: "two"}}
			return post, comments, nil
		},
	}
	b := newTestBot(g, nil, nil, nil, nil)

	thread, err := b.FetchPostThread(context.Background(), "p1", 20)
	require.NoError(t, err)
	assert.Equal(t, "The thread", thread.Post.Title)
	assert.Equal(t, 2, thread.TotalComments)
	assert.False(t, thread.FetchedAt.IsZero())
	assert.EqualValues(t, 1, b.Stats().PostsRetrieved)
}

func TestFetchPostThread_Failure(t *testing.T) {
	g := &fakeGateway{
		threadFn: func(postID string, limit int) (*models.Post, []models.Comment, error) {
			return nil, nil, fmt.Errorf("%s: %w", postID, reddit.ErrNotFound)
		},
	}
	b := newTestBot(g, nil, nil, nil, nil)

	_, err := b.FetchPostThread(context.Background(), "gone", 0)
	require.Error(t, err)
	assert.EqualValues(t, 1, b.Stats().Errors)
}
