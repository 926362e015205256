package bot

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/kadavilrahul/reddit-bot/internal/models"
)

// RetrieveParams configures a subreddit data pull.
type RetrieveParams struct {
	Subreddit       string
	SortBy          string
	Limit           int
	IncludeComments bool
}

// RetrieveSubredditData pulls a batch of posts with summary
// statistics, optionally attaching the top comments of each post.
func (b *Bot) RetrieveSubredditData(ctx context.Context, params RetrieveParams) (*models.SubredditData, error) {
	if params.SortBy == "" {
		params.SortBy = "hot"
	}
	if params.Limit <= 0 {
		params.Limit = 10
	}
	params.Limit = b.requestLimit(params.Limit)

	b.logger.Info("Retrieving subreddit data",
		zap.String("subreddit", params.Subreddit),
		zap.String("sort", params.SortBy),
		zap.Int("limit", params.Limit))

	posts, err := b.gateway.GetSubredditPosts(ctx, params.Subreddit, params.SortBy, params.Limit, "")
	if err != nil {
		b.metrics.RecordError()
		return nil, err
	}
	b.metrics.RecordPostsRetrieved(len(posts))

	var comments map[string][]models.Comment
	if params.IncludeComments {
		comments = make(map[string][]models.Comment, len(posts))
		for _, post := range posts {
			postComments, err := b.gateway.GetPostComments(ctx, post.ID, 20)
			if err != nil {
				b.logger.Warn("Failed to get comments for post",
					zap.String("post_id", post.ID),
					zap.Error(err))
				postComments = nil
			}
			comments[post.ID] = postComments

			if err := sleepCtx(ctx, time.Second); err != nil {
				return nil, err
			}
		}
	}

	data := &models.SubredditData{
		Subreddit:   params.Subreddit,
		SortMethod:  params.SortBy,
		RetrievedAt: time.Now().UTC(),
		TotalPosts:  len(posts),
		Posts:       posts,
		Comments:    comments,
		Summary:     summarizePosts(posts),
	}

	b.logger.Info("Successfully retrieved posts",
		zap.String("subreddit", params.Subreddit),
		zap.Int("count", len(posts)))
	return data, nil
}

// summarizePosts aggregates score and comment statistics for a batch.
func summarizePosts(posts []models.Post) models.SubredditSummary {
	if len(posts) == 0 {
		return models.SubredditSummary{}
	}

	var totalScore, totalComments int
	top, discussed := posts[0], posts[0]

	for _, post := range posts {
		totalScore += post.Score
		totalComments += post.NumComments
		if post.Score > top.Score {
			top = post
		}
		if post.NumComments > discussed.NumComments {
			discussed = post
		}
	}

	return models.SubredditSummary{
		TotalPosts:      len(posts),
		TotalScore:      totalScore,
		AverageScore:    float64(totalScore) / float64(len(posts)),
		TotalComments:   totalComments,
		AverageComments: float64(totalComments) / float64(len(posts)),
		TopPost:         top.Title,
		MostDiscussed:   discussed.Title,
	}
}
