package bot

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// ScheduleParams configures recurring auto-comment batches.
type ScheduleParams struct {
	Interval time.Duration
	Batch    AutoCommentParams
}

// RunAutoCommentSchedule runs auto-comment batches on a fixed interval
// until the context is cancelled. The first batch runs after one full
// interval. Batch errors are logged and the schedule keeps going.
func (b *Bot) RunAutoCommentSchedule(ctx context.Context, params ScheduleParams) {
	if params.Interval <= 0 {
		params.Interval = 6 * time.Hour
	}

	b.logger.Info("Scheduler started.",
		zap.String("subreddit", params.Batch.Subreddit),
		zap.Duration("interval", params.Interval))

	ticker := time.NewTicker(params.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			b.logger.Info("Scheduler stopped.")
			return
		case <-ticker.C:
			b.logger.Info("Running scheduled auto-commenting",
				zap.String("subreddit", params.Batch.Subreddit))
			if _, err := b.AutoComment(ctx, params.Batch); err != nil {
				b.logger.Error("Scheduled auto-commenting failed", zap.Error(err))
			}
		}
	}
}
