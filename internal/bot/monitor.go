package bot

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kadavilrahul/reddit-bot/internal/models"
)

// MonitorParams configures one monitoring run.
type MonitorParams struct {
	Subreddit string
	Keywords  []string
	Action    models.MonitorAction
	Duration  time.Duration
}

// Monitor watches a subreddit for keyword matches until the deadline
// passes or the context is cancelled. Each new (post, keyword) pair is
// reported once per session; depending on the action it is logged,
// commented on, or both. Cycle errors back off and the loop keeps
// going.
func (b *Bot) Monitor(ctx context.Context, params MonitorParams) (*models.MonitorReport, error) {
	if len(params.Keywords) == 0 {
		return nil, fmt.Errorf("at least one keyword is required")
	}
	if params.Action == "" {
		params.Action = models.ActionComment
	}
	if _, err := models.ParseMonitorAction(string(params.Action)); err != nil {
		return nil, err
	}

	b.logger.Info("Starting subreddit monitoring",
		zap.String("subreddit", params.Subreddit),
		zap.Strings("keywords", params.Keywords),
		zap.String("action", string(params.Action)),
		zap.Duration("duration", params.Duration))

	deadline := time.Now().Add(params.Duration)
	seen := make(map[string]bool)
	var matches []models.KeywordMatch

	for time.Now().Before(deadline) {
		if ctx.Err() != nil {
			b.logger.Info("Monitoring cancelled")
			break
		}

		cycleMatches, err := b.monitorCycle(ctx, params, seen)
		matches = append(matches, cycleMatches...)

		if err != nil {
			if ctx.Err() != nil {
				b.logger.Info("Monitoring cancelled")
				break
			}
			b.metrics.RecordError()
			b.logger.Error("Error during monitoring cycle", zap.Error(err))
			if sleepDeadline(ctx, deadline, b.cfg.Monitor.ErrorBackoff()) != nil {
				break
			}
			continue
		}

		if sleepDeadline(ctx, deadline, b.cfg.Monitor.PollInterval()) != nil {
			break
		}
	}

	report := &models.MonitorReport{
		Subreddit:    params.Subreddit,
		Keywords:     params.Keywords,
		Action:       params.Action,
		Duration:     params.Duration,
		TotalMatches: len(matches),
		Matches:      matches,
		CompletedAt:  time.Now().UTC(),
	}

	b.logger.Info("Monitoring completed",
		zap.String("subreddit", params.Subreddit),
		zap.Int("matches", report.TotalMatches))

	if b.notifier != nil {
		b.notifier.NotifyReport(*report)
	}
	return report, nil
}

// monitorCycle scans one page of newest posts for keyword matches.
// seen carries the (post, keyword) pairs already handled this session.
func (b *Bot) monitorCycle(ctx context.Context, params MonitorParams, seen map[string]bool) ([]models.KeywordMatch, error) {
	posts, err := b.gateway.GetSubredditPosts(ctx, params.Subreddit, "new", b.cfg.Monitor.PageSize, "")
	if err != nil {
		return nil, err
	}
	b.metrics.RecordPostsRetrieved(len(posts))

	var matches []models.KeywordMatch
	for _, post := range posts {
		postText := strings.ToLower(post.Title + " " + post.SelfText)

		for _, keyword := range params.Keywords {
			if !strings.Contains(postText, strings.ToLower(keyword)) {
				continue
			}

			key := post.ID + "\x00" + strings.ToLower(keyword)
			if seen[key] {
				continue
			}
			seen[key] = true

			match := models.KeywordMatch{
				PostID:    post.ID,
				Title:     post.Title,
				Keyword:   keyword,
				Permalink: post.Permalink,
				MatchedAt: time.Now().UTC(),
			}

			b.logger.Info("Keyword match found",
				zap.String("keyword", keyword),
				zap.String("post_id", post.ID),
				zap.String("title", truncate(post.Title, 50)))

			if params.Action.Comments() {
				result := b.generateAndSubmit(ctx, post)
				b.recordOutcome(result)
				match.Comment = &result
				if result.Success {
					b.logger.Info("Commented on matched post", zap.String("post_id", post.ID))
				} else {
					b.logger.Error("Failed to comment on matched post",
						zap.String("post_id", post.ID),
						zap.String("error", result.Error))
				}
			}

			matches = append(matches, match)
			b.metrics.RecordMatch(match)
			if b.notifier != nil {
				b.notifier.NotifyMatch(match)
			}
		}
	}
	return matches, nil
}

// sleepDeadline sleeps for at most d, capped at the deadline, and
// returns early when the context is cancelled.
func sleepDeadline(ctx context.Context, deadline time.Time, d time.Duration) error {
	if remaining := time.Until(deadline); remaining < d {
		d = remaining
	}
	return sleepCtx(ctx, d)
}
