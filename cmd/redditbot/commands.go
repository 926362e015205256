package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/kadavilrahul/reddit-bot/internal/bot"
	"github.com/kadavilrahul/reddit-bot/internal/models"
	"github.com/kadavilrahul/reddit-bot/internal/server"
)

var (
	fetchSubreddit string
	fetchSort      string
	fetchLimit     int
	fetchComments  bool

	autoSubreddit string
	autoMax       int
	autoSort      string
	autoMinScore  int

	searchQuery     string
	searchSubreddit string
	searchLimit     int

	monitorSubreddit string
	monitorKeywords  []string
	monitorAction    string
	monitorDuration  time.Duration
	monitorServe     bool

	commentText       string
	commentAI         bool
	commentNoValidate bool

	threadLimit int

	scheduleSubreddit string
	scheduleInterval  time.Duration
	scheduleMax       int
	scheduleMinScore  int
	scheduleSort      string
	scheduleServe     bool

	statsAddr string
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Retrieve posts from a subreddit",
	RunE:  runFetch,
}

var autoCommentCmd = &cobra.Command{
	Use:   "autocomment",
	Short: "Generate and post comments on eligible posts",
	RunE:  runAutoComment,
}

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Search posts and analyze the results",
	RunE:  runSearch,
}

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Watch a subreddit for keywords",
	Long: `Polls a subreddit's newest posts for keyword matches until the duration
elapses. Depending on --action each match is logged, commented on, or
both.`,
	RunE: runMonitor,
}

var commentCmd = &cobra.Command{
	Use:   "comment POST_ID_OR_URL",
	Short: "Post a comment on a specific post",
	Long: `Posts a comment on one post, identified by its ID or its full URL.
With --text the comment is validated and submitted as written; with --ai
it is drafted by the text model from the post's context instead.`,
	Args: cobra.ExactArgs(1),
	RunE: runComment,
}

var threadCmd = &cobra.Command{
	Use:   "thread POST_ID",
	Short: "Show a post with its comments",
	Args:  cobra.ExactArgs(1),
	RunE:  runThread,
}

var userCmd = &cobra.Command{
	Use:   "user [USERNAME]",
	Short: "Show account info (defaults to the authenticated account)",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runUser,
}

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Run auto-comment batches on a fixed interval",
	RunE:  runSchedule,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the status API",
	RunE:  runServe,
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show session stats from a running status API",
	RunE:  runStats,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version info",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("redditbot %s (%s, %s)\n", version, commit, buildDate)
	},
}

func runFetch(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	data, err := a.bot.RetrieveSubredditData(cmd.Context(), bot.RetrieveParams{
		Subreddit:       fetchSubreddit,
		SortBy:          fetchSort,
		Limit:           fetchLimit,
		IncludeComments: fetchComments,
	})
	if err != nil {
		return err
	}

	printSubredditData(data)

	path, err := a.store.Save("reddit_data", data)
	if err != nil {
		return err
	}
	fmt.Printf("✓ Saved to %s\n", path)
	return nil
}

func runAutoComment(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	results, err := a.bot.AutoComment(cmd.Context(), bot.AutoCommentParams{
		Subreddit:   autoSubreddit,
		MaxComments: autoMax,
		SortBy:      autoSort,
		MinScore:    autoMinScore,
	})
	if err != nil {
		return err
	}

	printResults(results)
	printStats(a.bot.Stats())
	return nil
}

func runSearch(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	results, err := a.bot.SearchAndAnalyze(cmd.Context(), searchQuery, searchSubreddit, searchLimit)
	if err != nil {
		return err
	}

	fmt.Printf("Found %d posts for %q\n\n", results.TotalResults, results.Query)
	printPosts(results.Posts)
	fmt.Printf("\nAnalysis:\n%s\n\n", results.Analysis)

	path, err := a.store.Save("search_results", results)
	if err != nil {
		return err
	}
	fmt.Printf("✓ Saved to %s\n", path)
	return nil
}

func runMonitor(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	action, err := models.ParseMonitorAction(monitorAction)
	if err != nil {
		return err
	}

	params := bot.MonitorParams{
		Subreddit: monitorSubreddit,
		Keywords:  monitorKeywords,
		Action:    action,
		Duration:  monitorDuration,
	}

	runCtx, stop := context.WithCancel(cmd.Context())
	defer stop()

	g, gctx := errgroup.WithContext(runCtx)

	if monitorServe {
		srv := server.New(a.bot, cfg.Server, logrus.New())
		g.Go(func() error { return srv.Run(gctx) })
	}

	var report *models.MonitorReport
	g.Go(func() error {
		defer stop()
		var err error
		report, err = a.bot.Monitor(gctx, params)
		return err
	})

	if err := g.Wait(); err != nil {
		return err
	}

	printReport(report)

	path, err := a.store.Save("monitor_report", report)
	if err != nil {
		return err
	}
	fmt.Printf("✓ Saved to %s\n", path)
	return nil
}

func runComment(cmd *cobra.Command, args []string) error {
	if !commentAI && commentText == "" {
		return fmt.Errorf("either --text or --ai is required")
	}

	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	postID := extractPostID(args[0])

	var result models.CommentResult
	if commentAI {
		result = a.bot.GenerateAndPostComment(cmd.Context(), postID)
	} else {
		result = a.bot.PostComment(cmd.Context(), postID, commentText, !commentNoValidate)
	}
	if !result.Success {
		return fmt.Errorf("comment failed: %s", result.Error)
	}

	fmt.Printf("✓ Comment posted: %s\n", result.Permalink)
	return nil
}

// extractPostID accepts a bare post ID or a full Reddit URL and
// returns the ID.
func extractPostID(input string) string {
	input = strings.TrimSpace(input)
	if !strings.Contains(input, "reddit.com") {
		return input
	}
	_, rest, found := strings.Cut(input, "/comments/")
	if !found {
		return input
	}
	id, _, _ := strings.Cut(rest, "/")
	return id
}

func runThread(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	thread, err := a.bot.FetchPostThread(cmd.Context(), args[0], threadLimit)
	if err != nil {
		return err
	}

	printThread(thread)
	return nil
}

func runUser(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	username := ""
	if len(args) > 0 {
		username = args[0]
	}

	user, err := a.bot.UserInfo(cmd.Context(), username)
	if err != nil {
		return err
	}

	printUser(user)
	return nil
}

func runSchedule(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	params := bot.ScheduleParams{
		Interval: scheduleInterval,
		Batch: bot.AutoCommentParams{
			Subreddit:   scheduleSubreddit,
			MaxComments: scheduleMax,
			SortBy:      scheduleSort,
			MinScore:    scheduleMinScore,
		},
	}

	runCtx, stop := context.WithCancel(cmd.Context())
	defer stop()

	g, gctx := errgroup.WithContext(runCtx)

	if scheduleServe {
		srv := server.New(a.bot, cfg.Server, logrus.New())
		g.Go(func() error { return srv.Run(gctx) })
	}

	g.Go(func() error {
		defer stop()
		a.bot.RunAutoCommentSchedule(gctx, params)
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}

	printStats(a.bot.Stats())
	return nil
}

func runServe(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	srv := server.New(a.bot, cfg.Server, logrus.New())
	return srv.Run(cmd.Context())
}

func runStats(cmd *cobra.Command, args []string) error {
	resp, err := http.Get(statsAddr + "/api/v1/stats")
	if err != nil {
		return fmt.Errorf("failed to reach status API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("status API returned %s", resp.Status)
	}

	var stats models.StatsSnapshot
	if err := json.NewDecoder(resp.Body).Decode(&stats); err != nil {
		return fmt.Errorf("failed to decode stats: %w", err)
	}

	printStats(stats)
	return nil
}

func printPosts(posts []models.Post) {
	for i, post := range posts {
		fmt.Printf("%2d. [%d pts, %d comments] %s\n", i+1, post.Score, post.NumComments, post.Title)
		fmt.Printf("    r/%s by u/%s  %s\n", post.Subreddit, post.Author, post.Permalink)
	}
}

func printSubredditData(data *models.SubredditData) {
	fmt.Printf("Retrieved %d posts from r/%s (%s)\n\n", data.TotalPosts, data.Subreddit, data.SortMethod)
	printPosts(data.Posts)

	s := data.Summary
	fmt.Printf("\nAverage score: %.1f   Average comments: %.1f\n", s.AverageScore, s.AverageComments)
	if s.TopPost != "" {
		fmt.Printf("Top post: %s\n", s.TopPost)
	}
	if s.MostDiscussed != "" {
		fmt.Printf("Most discussed: %s\n", s.MostDiscussed)
	}
}

func printResults(results []models.CommentResult) {
	posted := 0
	for _, result := range results {
		if result.Success {
			posted++
			fmt.Printf("✓ %s\n  %s\n", result.PostTitle, result.Permalink)
		} else {
			fmt.Printf("✗ %s\n  %s\n", result.PostTitle, result.Error)
		}
	}
	fmt.Printf("\nPosted %d of %d attempted comments\n", posted, len(results))
}

func printReport(report *models.MonitorReport) {
	fmt.Printf("\nMonitoring report for r/%s\n", report.Subreddit)
	fmt.Printf("Keywords: %v   Matches: %d\n", report.Keywords, report.TotalMatches)
	for _, match := range report.Matches {
		fmt.Printf("  [%s] %s\n  %s\n", match.Keyword, match.Title, match.Permalink)
		if match.Comment != nil {
			if match.Comment.Success {
				fmt.Printf("  ✓ commented: %s\n", match.Comment.Permalink)
			} else {
				fmt.Printf("  ✗ comment failed: %s\n", match.Comment.Error)
			}
		}
	}
}

func printStats(stats models.StatsSnapshot) {
	fmt.Printf("\nSession %s\n", stats.SessionID)
	fmt.Printf("Runtime: %.2f hours\n", stats.RuntimeHours)
	fmt.Printf("Posts retrieved:  %d\n", stats.PostsRetrieved)
	fmt.Printf("Comments posted:  %d\n", stats.CommentsPosted)
	fmt.Printf("Errors:           %d\n", stats.Errors)
	fmt.Printf("Success rate:     %.1f%%\n", stats.SuccessRate)
}

func printUser(user *models.UserInfo) {
	fmt.Printf("u/%s\n", user.Name)
	fmt.Printf("Comment karma: %d   Link karma: %d   Total: %d\n", user.CommentKarma, user.LinkKarma, user.TotalKarma)
	fmt.Printf("Created: %s\n", user.CreatedUTC.Format("2006-01-02"))
	if user.IsGold {
		fmt.Println("Reddit premium member")
	}
}

func printThread(thread *models.CommentThread) {
	post := thread.Post
	fmt.Printf("[%d pts] %s\n", post.Score, post.Title)
	if post.SelfText != "" {
		fmt.Printf("%s\n", post.SelfText)
	}
	fmt.Printf("r/%s by u/%s  %s\n\n", post.Subreddit, post.Author, post.Permalink)
	fmt.Printf("%d comments:\n", thread.TotalComments)
	for _, comment := range thread.Comments {
		fmt.Printf("  [%d pts] u/%s: %s\n", comment.Score, comment.Author, comment.Body)
	}
}
