package bot

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kadavilrahul/reddit-bot/internal/config"
	"github.com/kadavilrahul/reddit-bot/internal/models"
	"github.com/kadavilrahul/reddit-bot/internal/reddit"
)

// Gateway is the platform surface the bot drives. *reddit.Client
// implements it; tests substitute fakes.
type Gateway interface {
	GetSubredditPosts(ctx context.Context, subreddit, sortBy string, limit int, timeFilter string) ([]models.Post, error)
	GetPost(ctx context.Context, postID string) (*models.Post, error)
	GetPostComments(ctx context.Context, postID string, limit int) ([]models.Comment, error)
	GetPostWithComments(ctx context.Context, postID string, limit int) (*models.Post, []models.Comment, error)
	SubmitComment(ctx context.Context, postID, text string) (*reddit.SubmittedComment, error)
	Search(ctx context.Context, query, subreddit, sort, timeFilter string, limit int) ([]models.Post, error)
	Me(ctx context.Context) (*models.UserInfo, error)
	GetUser(ctx context.Context, username string) (*models.UserInfo, error)
}

// CommentValidator gates drafts before submission.
type CommentValidator interface {
	ValidateComment(ctx context.Context, commentText, postContext string) models.Verdict
}

// CommentSynthesizer drafts replies from post context.
type CommentSynthesizer interface {
	GenerateComment(ctx context.Context, title, content, subreddit string, existingComments []string) (string, error)
}

// Completer runs free-form analysis prompts.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Notifier pushes keyword matches and run reports to an external
// channel. A nil Notifier disables notifications.
type Notifier interface {
	NotifyMatch(match models.KeywordMatch)
	NotifyReport(report models.MonitorReport)
}

// Bot coordinates the gateway, the drafting pipeline and the session
// metrics across every engagement mode.
type Bot struct {
	gateway     Gateway
	validator   CommentValidator
	synthesizer CommentSynthesizer
	analyst     Completer
	notifier    Notifier
	metrics     *SessionMetrics
	cfg         *config.Config
	logger      *zap.Logger
}

// New creates a bot from its collaborators. notifier may be nil.
func New(
	gateway Gateway,
	validator CommentValidator,
	synthesizer CommentSynthesizer,
	analyst Completer,
	notifier Notifier,
	metrics *SessionMetrics,
	cfg *config.Config,
	logger *zap.Logger,
) *Bot {
	return &Bot{
		gateway:     gateway,
		validator:   validator,
		synthesizer: synthesizer,
		analyst:     analyst,
		notifier:    notifier,
		metrics:     metrics,
		cfg:         cfg,
		logger:      logger,
	}
}

// Stats returns a snapshot of the session counters.
func (b *Bot) Stats() models.StatsSnapshot {
	return b.metrics.Snapshot()
}

// Matches returns the keyword matches recorded this session.
func (b *Bot) Matches() []models.KeywordMatch {
	return b.metrics.Matches()
}

// PostComment submits text to a post. Validation runs unless the
// caller explicitly skips it.
func (b *Bot) PostComment(ctx context.Context, postID, text string, validate bool) models.CommentResult {
	post, err := b.gateway.GetPost(ctx, postID)
	if err != nil {
		b.metrics.RecordError()
		return models.CommentResult{PostID: postID, Error: err.Error()}
	}

	result := b.submitComment(ctx, *post, text, validate)
	b.recordOutcome(result)
	return result
}

// GenerateAndPostComment drafts an AI comment for one caller-chosen
// post and submits it through the usual validation gate.
func (b *Bot) GenerateAndPostComment(ctx context.Context, postID string) models.CommentResult {
	post, err := b.gateway.GetPost(ctx, postID)
	if err != nil {
		b.metrics.RecordError()
		return models.CommentResult{PostID: postID, Error: err.Error()}
	}

	result := b.generateAndSubmit(ctx, *post)
	b.recordOutcome(result)
	return result
}

// UserInfo returns the authenticated account when username is empty.
func (b *Bot) UserInfo(ctx context.Context, username string) (*models.UserInfo, error) {
	if username == "" {
		return b.gateway.Me(ctx)
	}
	return b.gateway.GetUser(ctx, username)
}

// FetchPostThread returns a post together with its flattened comments.
func (b *Bot) FetchPostThread(ctx context.Context, postID string, commentLimit int) (*models.CommentThread, error) {
	post, comments, err := b.gateway.GetPostWithComments(ctx, postID, commentLimit)
	if err != nil {
		b.metrics.RecordError()
		return nil, err
	}
	b.metrics.RecordPostsRetrieved(1)

	return &models.CommentThread{
		Post:          *post,
		Comments:      comments,
		TotalComments: len(comments),
		FetchedAt:     time.Now().UTC(),
	}, nil
}

// generateAndSubmit runs the full pipeline for one post: fetch the
// existing top comments for context, synthesize a draft, validate it,
// submit. Failures are captured in the result, never returned.
func (b *Bot) generateAndSubmit(ctx context.Context, post models.Post) models.CommentResult {
	result := models.CommentResult{PostID: post.ID, PostTitle: post.Title}

	existing, err := b.gateway.GetPostComments(ctx, post.ID, 5)
	if err != nil {
		result.Error = fmt.Sprintf("failed to fetch comment context: %s", err)
		return result
	}

	bodies := make([]string, 0, len(existing))
	for _, comment := range existing {
		bodies = append(bodies, comment.Body)
	}

	draft, err := b.synthesizer.GenerateComment(ctx, post.Title, post.SelfText, post.Subreddit, bodies)
	if err != nil {
		result.Error = err.Error()
		return result
	}

	return b.submitComment(ctx, post, draft, true)
}

// submitComment validates and submits one comment to a known post.
func (b *Bot) submitComment(ctx context.Context, post models.Post, text string, validate bool) models.CommentResult {
	result := models.CommentResult{PostID: post.ID, PostTitle: post.Title}

	if validate {
		postContext := post.Title
		if post.SelfText != "" {
			postContext += "\n" + post.SelfText
		}
		verdict := b.validator.ValidateComment(ctx, text, postContext)
		if !verdict.Valid {
			result.Error = fmt.Sprintf("Comment validation failed: %s", verdict.Reason)
			return result
		}
	}

	if post.Locked {
		result.Error = "Post is locked and does not allow comments"
		return result
	}

	submitted, err := b.gateway.SubmitComment(ctx, post.ID, text)
	if err != nil {
		result.Error = submitErrorMessage(err)
		return result
	}

	result.Success = true
	result.CommentID = submitted.ID
	result.Permalink = submitted.Permalink
	return result
}

// recordOutcome folds one comment attempt into the session counters.
func (b *Bot) recordOutcome(result models.CommentResult) {
	if result.Success {
		b.metrics.RecordCommentPosted()
	} else {
		b.metrics.RecordError()
	}
}

// submitErrorMessage maps gateway errors to operator-facing messages.
func submitErrorMessage(err error) string {
	switch {
	case errors.Is(err, reddit.ErrForbidden):
		return "Forbidden: You may be banned from this subreddit or lack permissions"
	case errors.Is(err, reddit.ErrRateLimited):
		return "Rate limited: Too many requests. Please wait before posting again"
	case errors.Is(err, reddit.ErrPostLocked):
		return "Post is locked and does not allow comments"
	}
	return err.Error()
}

// requestLimit caps one listing or search request at the configured
// per-request maximum.
func (b *Bot) requestLimit(limit int) int {
	maxPosts := b.cfg.Bot.MaxPostsPerRequest
	if maxPosts > 0 && limit > maxPosts {
		return maxPosts
	}
	return limit
}

// sleepCtx pauses for d unless the context is cancelled first.
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// truncate shortens s to at most limit runes for log output.
func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
