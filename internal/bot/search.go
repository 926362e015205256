package bot

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kadavilrahul/reddit-bot/internal/models"
)

// SearchAndAnalyze finds posts matching a query and asks the text
// model for a digest of the results. Analysis failures degrade to an
// explanatory string and never fail the search itself.
func (b *Bot) SearchAndAnalyze(ctx context.Context, query, subreddit string, limit int) (*models.SearchResults, error) {
	if limit <= 0 {
		limit = 50
	}
	limit = b.requestLimit(limit)

	b.logger.Info("Searching posts",
		zap.String("query", query),
		zap.String("subreddit", subreddit),
		zap.Int("limit", limit))

	posts, err := b.gateway.Search(ctx, query, subreddit, "relevance", "all", limit)
	if err != nil {
		b.metrics.RecordError()
		return nil, err
	}
	b.metrics.RecordPostsRetrieved(len(posts))

	return &models.SearchResults{
		Query:        query,
		Subreddit:    subreddit,
		SearchedAt:   time.Now().UTC(),
		TotalResults: len(posts),
		Posts:        posts,
		Analysis:     b.analyzePosts(ctx, posts, query),
	}, nil
}

// analyzePosts digests the top search results through the text model.
func (b *Bot) analyzePosts(ctx context.Context, posts []models.Post, query string) string {
	if len(posts) == 0 {
		return "No posts found for analysis"
	}

	digest := posts
	if len(digest) > 10 {
		digest = digest[:10]
	}

	type postDigest struct {
		Title     string `json:"title"`
		Score     int    `json:"score"`
		Comments  int    `json:"comments"`
		Subreddit string `json:"subreddit"`
	}

	summary := make([]postDigest, 0, len(digest))
	for _, post := range digest {
		summary = append(summary, postDigest{
			Title:     post.Title,
			Score:     post.Score,
			Comments:  post.NumComments,
			Subreddit: post.Subreddit,
		})
	}

	encoded, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return fmt.Sprintf("Analysis error: %s", err)
	}

	prompt := fmt.Sprintf(`Analyze these Reddit search results for query: %q

Posts data: %s

Provide insights about:
1. Common themes and topics
2. Engagement patterns (scores, comments)
3. Popular subreddits for this topic
4. Trends and observations
5. Key takeaways

Keep the analysis concise but informative.`, query, encoded)

	analysis, err := b.analyst.Complete(ctx, prompt)
	if err != nil {
		b.logger.Error("Error in AI analysis", zap.Error(err))
		return fmt.Sprintf("Analysis error: %s", err)
	}
	return analysis
}
