package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kadavilrahul/reddit-bot/internal/bot"
	"github.com/kadavilrahul/reddit-bot/internal/models"
	"github.com/kadavilrahul/reddit-bot/internal/server"
)

// runInteractive drives the menu loop on stdin. All actions share one
// session, so the stats option reports accumulated counters.
func runInteractive(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	fmt.Println("Reddit Bot")
	fmt.Println("==========")

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	if cfg.Server.Enabled {
		srv := server.New(a.bot, cfg.Server, logrus.New())
		go func() {
			if err := srv.Run(ctx); err != nil {
				logger.Error("Status API failed", zap.Error(err))
			}
		}()
	}

	reader := bufio.NewReader(os.Stdin)

	for {
		if ctx.Err() != nil {
			return nil
		}

		fmt.Println()
		fmt.Println("1. Retrieve subreddit data")
		fmt.Println("2. Auto-comment on posts")
		fmt.Println("3. Search and analyze")
		fmt.Println("4. Monitor subreddit")
		fmt.Println("5. Post a comment")
		fmt.Println("6. Account info")
		fmt.Println("7. Session stats")
		fmt.Println("8. Scheduled auto-commenting")
		fmt.Println("9. Export bot statistics")
		fmt.Println("0. Exit")

		switch promptString(reader, "Select an option", "") {
		case "1":
			a.interactiveFetch(ctx, reader)
		case "2":
			a.interactiveAutoComment(ctx, reader)
		case "3":
			a.interactiveSearch(ctx, reader)
		case "4":
			a.interactiveMonitor(ctx, reader)
		case "5":
			a.interactiveComment(ctx, reader)
		case "6":
			a.interactiveUser(ctx, reader)
		case "7":
			printStats(a.bot.Stats())
		case "8":
			a.interactiveSchedule(ctx, reader)
		case "9":
			a.saveSnapshot("bot_stats", a.bot.Stats())
		case "0", "q", "exit":
			printStats(a.bot.Stats())
			return nil
		default:
			fmt.Println("Unknown option")
		}
	}
}

func (a *app) interactiveFetch(ctx context.Context, reader *bufio.Reader) {
	subreddit := promptString(reader, "Subreddit", "")
	if subreddit == "" {
		fmt.Println("Subreddit is required")
		return
	}

	data, err := a.bot.RetrieveSubredditData(ctx, bot.RetrieveParams{
		Subreddit:       subreddit,
		SortBy:          promptString(reader, "Sort (hot/new/top/rising)", "hot"),
		Limit:           promptInt(reader, "Number of posts", 10),
		IncludeComments: promptBool(reader, "Include comments?", false),
	})
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}

	printSubredditData(data)
	a.saveSnapshot("reddit_data", data)
}

func (a *app) interactiveAutoComment(ctx context.Context, reader *bufio.Reader) {
	subreddit := promptString(reader, "Subreddit", "")
	if subreddit == "" {
		fmt.Println("Subreddit is required")
		return
	}

	params := bot.AutoCommentParams{
		Subreddit:   subreddit,
		MaxComments: promptInt(reader, "Maximum comments", 5),
		SortBy:      promptString(reader, "Sort (new/hot/rising)", "new"),
		MinScore:    promptInt(reader, "Minimum post score", 0),
	}

	if !promptBool(reader, fmt.Sprintf("Post up to %d comments on r/%s?", params.MaxComments, subreddit), false) {
		return
	}

	results, err := a.bot.AutoComment(ctx, params)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	printResults(results)
}

func (a *app) interactiveSearch(ctx context.Context, reader *bufio.Reader) {
	query := promptString(reader, "Search query", "")
	if query == "" {
		fmt.Println("Query is required")
		return
	}
	subreddit := promptString(reader, "Restrict to subreddit (empty for all)", "")
	limit := promptInt(reader, "Maximum results", 50)

	results, err := a.bot.SearchAndAnalyze(ctx, query, subreddit, limit)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}

	fmt.Printf("Found %d posts\n\n", results.TotalResults)
	printPosts(results.Posts)
	fmt.Printf("\nAnalysis:\n%s\n", results.Analysis)
	a.saveSnapshot("search_results", results)
}

func (a *app) interactiveMonitor(ctx context.Context, reader *bufio.Reader) {
	subreddit := promptString(reader, "Subreddit", "")
	if subreddit == "" {
		fmt.Println("Subreddit is required")
		return
	}

	keywordLine := promptString(reader, "Keywords (comma separated)", "")
	var keywords []string
	for _, keyword := range strings.Split(keywordLine, ",") {
		if keyword = strings.TrimSpace(keyword); keyword != "" {
			keywords = append(keywords, keyword)
		}
	}
	if len(keywords) == 0 {
		fmt.Println("At least one keyword is required")
		return
	}

	action, err := models.ParseMonitorAction(promptString(reader, "Action (log/comment/both)", "log"))
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}

	minutes := promptInt(reader, "Duration in minutes", 60)

	fmt.Println("Monitoring... press Ctrl+C to stop early")

	report, err := a.bot.Monitor(ctx, bot.MonitorParams{
		Subreddit: subreddit,
		Keywords:  keywords,
		Action:    action,
		Duration:  time.Duration(minutes) * time.Minute,
	})
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}

	printReport(report)
	a.saveSnapshot("monitor_report", report)
}

func (a *app) interactiveComment(ctx context.Context, reader *bufio.Reader) {
	postID := extractPostID(promptString(reader, "Post ID or URL", ""))
	if postID == "" {
		fmt.Println("Post ID is required")
		return
	}

	fmt.Println("1. Write custom comment")
	fmt.Println("2. Generate AI comment")

	var result models.CommentResult
	switch promptString(reader, "Select an option", "1") {
	case "1":
		text := promptString(reader, "Comment text", "")
		if text == "" {
			fmt.Println("Comment text is required")
			return
		}
		validate := promptBool(reader, "Validate before posting?", true)
		result = a.bot.PostComment(ctx, postID, text, validate)
	case "2":
		result = a.bot.GenerateAndPostComment(ctx, postID)
	default:
		fmt.Println("Unknown option")
		return
	}

	if result.Success {
		fmt.Printf("✓ Comment posted: %s\n", result.Permalink)
	} else {
		fmt.Printf("✗ %s\n", result.Error)
	}
}

func (a *app) interactiveUser(ctx context.Context, reader *bufio.Reader) {
	username := promptString(reader, "Username (empty for own account)", "")

	user, err := a.bot.UserInfo(ctx, username)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	printUser(user)
}

func (a *app) interactiveSchedule(ctx context.Context, reader *bufio.Reader) {
	subreddit := promptString(reader, "Subreddit", "")
	if subreddit == "" {
		fmt.Println("Subreddit is required")
		return
	}

	params := bot.ScheduleParams{
		Interval: time.Duration(promptInt(reader, "Interval in hours", 6)) * time.Hour,
		Batch: bot.AutoCommentParams{
			Subreddit:   subreddit,
			MaxComments: promptInt(reader, "Maximum comments per batch", 5),
			SortBy:      "new",
			MinScore:    promptInt(reader, "Minimum post score", 0),
		},
	}

	fmt.Println("Scheduler running... press Ctrl+C to stop")
	a.bot.RunAutoCommentSchedule(ctx, params)
}

// saveSnapshot writes a snapshot and reports the outcome on stdout.
func (a *app) saveSnapshot(prefix string, v interface{}) {
	path, err := a.store.Save(prefix, v)
	if err != nil {
		fmt.Printf("Failed to save snapshot: %v\n", err)
		return
	}
	fmt.Printf("✓ Saved to %s\n", path)
}

func promptString(reader *bufio.Reader, label, def string) string {
	if def != "" {
		fmt.Printf("%s [%s]: ", label, def)
	} else {
		fmt.Printf("%s: ", label)
	}

	line, err := reader.ReadString('\n')
	if err != nil {
		return def
	}
	if line = strings.TrimSpace(line); line == "" {
		return def
	}
	return line
}

func promptInt(reader *bufio.Reader, label string, def int) int {
	raw := promptString(reader, label, strconv.Itoa(def))
	n, err := strconv.Atoi(raw)
	if err != nil {
		fmt.Printf("Not a number, using %d\n", def)
		return def
	}
	return n
}

func promptBool(reader *bufio.Reader, label string, def bool) bool {
	hint := "y/N"
	if def {
		hint = "Y/n"
	}

	switch strings.ToLower(promptString(reader, label+" ("+hint+")", "")) {
	case "y", "yes":
		return true
	case "n", "no":
		return false
	}
	return def
}
