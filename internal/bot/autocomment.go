package bot

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kadavilrahul/reddit-bot/internal/models"
)

// Posts with this many comments or more are considered saturated and
// skipped by auto-commenting.
const saturatedThreadSize = 100

// AutoCommentParams configures one auto-comment batch.
type AutoCommentParams struct {
	Subreddit   string
	MaxComments int
	SortBy      string
	MinScore    int
}

// AutoComment drafts and posts comments on recent eligible posts in a
// subreddit. Each attempt is reported individually; a failed attempt
// never halts the batch.
func (b *Bot) AutoComment(ctx context.Context, params AutoCommentParams) ([]models.CommentResult, error) {
	if params.MaxComments <= 0 {
		params.MaxComments = 5
	}
	if params.SortBy == "" {
		params.SortBy = "new"
	}

	b.logger.Info("Starting auto-commenting",
		zap.String("subreddit", params.Subreddit),
		zap.Int("max_comments", params.MaxComments),
		zap.String("sort", params.SortBy),
		zap.Int("min_score", params.MinScore))

	// Over-fetch to leave room for filtering
	fetchLimit := b.requestLimit(params.MaxComments * 2)
	posts, err := b.gateway.GetSubredditPosts(ctx, params.Subreddit, params.SortBy, fetchLimit, "")
	if err != nil {
		b.metrics.RecordError()
		return nil, fmt.Errorf("failed to fetch candidate posts: %w", err)
	}
	b.metrics.RecordPostsRetrieved(len(posts))

	eligible := filterEligible(posts, params.MinScore)
	b.logger.Info("Found eligible posts", zap.Int("eligible", len(eligible)), zap.Int("fetched", len(posts)))

	results := make([]models.CommentResult, 0, params.MaxComments)
	posted := 0

	for i, post := range eligible {
		if i >= params.MaxComments {
			break
		}

		b.logger.Info("Generating comment for post",
			zap.String("post_id", post.ID),
			zap.String("title", truncate(post.Title, 50)))

		result := b.generateAndSubmit(ctx, post)
		results = append(results, result)
		b.recordOutcome(result)

		if result.Success {
			posted++
			b.logger.Info("Successfully posted comment",
				zap.String("post_id", post.ID),
				zap.String("comment_id", result.CommentID))
		} else {
			b.logger.Warn("Failed to comment on post",
				zap.String("post_id", post.ID),
				zap.String("error", result.Error))
		}

		// Pacing delay between attempts, applied after failures too
		if err := sleepCtx(ctx, b.cfg.Bot.CommentDelay()); err != nil {
			return results, err
		}
	}

	b.logger.Info("Auto-commenting completed",
		zap.Int("posted", posted),
		zap.Int("attempts", len(results)))
	return results, nil
}

// filterEligible applies the score, lock, adult-content and thread
// saturation gates.
func filterEligible(posts []models.Post, minScore int) []models.Post {
	var eligible []models.Post
	for _, post := range posts {
		if post.Score < minScore || post.Locked || post.Over18 {
			continue
		}
		if post.NumComments >= saturatedThreadSize {
			continue
		}
		eligible = append(eligible, post)
	}
	return eligible
}
