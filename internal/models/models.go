package models

import (
	"fmt"
	"time"
)

// Post is an immutable snapshot of a submission at fetch time.
type Post struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Author       string    `json:"author"`
	Score        int       `json:"score"`
	UpvoteRatio  float64   `json:"upvote_ratio"`
	NumComments  int       `json:"num_comments"`
	CreatedUTC   time.Time `json:"created_utc"`
	URL          string    `json:"url"`
	Permalink    string    `json:"permalink"`
	SelfText     string    `json:"selftext"`
	Subreddit    string    `json:"subreddit"`
	IsSelf       bool      `json:"is_self"`
	Over18       bool      `json:"over_18"`
	Spoiler      bool      `json:"spoiler"`
	Stickied     bool      `json:"stickied"`
	Locked       bool      `json:"locked"`
}

// Fullname returns the API thing id ("t3_" prefix for submissions).
func (p Post) Fullname() string {
	return "t3_" + p.ID
}

// Comment is a single comment from a submission's thread.
type Comment struct {
	ID          string    `json:"id"`
	Body        string    `json:"body"`
	Author      string    `json:"author"`
	Score       int       `json:"score"`
	CreatedUTC  time.Time `json:"created_utc"`
	Permalink   string    `json:"permalink"`
	ParentID    string    `json:"parent_id"`
	IsSubmitter bool      `json:"is_submitter"`
	Stickied    bool      `json:"stickied"`
	Depth       int       `json:"depth"`
}

// Verdict is the validator's decision on a drafted comment.
type Verdict struct {
	Valid  bool   `json:"valid"`
	Reason string `json:"reason,omitempty"`
}

// CommentResult records the outcome of one posting attempt.
type CommentResult struct {
	Success   bool   `json:"success"`
	PostID    string `json:"post_id"`
	PostTitle string `json:"post_title"`
	CommentID string `json:"comment_id,omitempty"`
	Permalink string `json:"permalink,omitempty"`
	Error     string `json:"error,omitempty"`
}

// MonitorAction selects what happens when a keyword hits.
type MonitorAction string

const (
	ActionLog     MonitorAction = "log"
	ActionComment MonitorAction = "comment"
	ActionBoth    MonitorAction = "both"
)

// ParseMonitorAction maps user input onto the closed action set.
func ParseMonitorAction(s string) (MonitorAction, error) {
	switch MonitorAction(s) {
	case ActionLog, ActionComment, ActionBoth:
		return MonitorAction(s), nil
	}
	return "", fmt.Errorf("unknown monitor action %q (want log, comment or both)", s)
}

// Comments reports whether the action posts a reply on match.
func (a MonitorAction) Comments() bool {
	return a == ActionComment || a == ActionBoth
}

// KeywordMatch is one keyword hit on one post.
type KeywordMatch struct {
	PostID    string         `json:"post_id"`
	Title     string         `json:"title"`
	Keyword   string         `json:"keyword"`
	Permalink string         `json:"permalink"`
	MatchedAt time.Time      `json:"matched_at"`
	Comment   *CommentResult `json:"comment,omitempty"`
}

// MonitorReport summarizes one finished monitoring run.
type MonitorReport struct {
	Subreddit    string         `json:"subreddit"`
	Keywords     []string       `json:"keywords"`
	Action       MonitorAction  `json:"action"`
	Duration     time.Duration  `json:"duration"`
	TotalMatches int            `json:"total_matches"`
	Matches      []KeywordMatch `json:"matches"`
	CompletedAt  time.Time      `json:"completed_at"`
}

// SubredditSummary aggregates a retrieved batch.
type SubredditSummary struct {
	TotalPosts      int     `json:"total_posts"`
	TotalScore      int     `json:"total_score"`
	AverageScore    float64 `json:"average_score"`
	TotalComments   int     `json:"total_comments"`
	AverageComments float64 `json:"average_comments"`
	TopPost         string  `json:"top_post,omitempty"`
	MostDiscussed   string  `json:"most_discussed,omitempty"`
}

// SubredditData is the export shape for a subreddit retrieval.
type SubredditData struct {
	Subreddit   string               `json:"subreddit"`
	SortMethod  string               `json:"sort_method"`
	RetrievedAt time.Time            `json:"retrieved_at"`
	TotalPosts  int                  `json:"total_posts"`
	Posts       []Post               `json:"posts"`
	Comments    map[string][]Comment `json:"comments,omitempty"`
	Summary     SubredditSummary     `json:"summary"`
}

// SearchResults is the export shape for a search run.
type SearchResults struct {
	Query        string    `json:"query"`
	Subreddit    string    `json:"subreddit,omitempty"`
	SearchedAt   time.Time `json:"searched_at"`
	TotalResults int       `json:"total_results"`
	Posts        []Post    `json:"posts"`
	Analysis     string    `json:"analysis,omitempty"`
}

// CommentThread is a single post with its flattened comment tree.
type CommentThread struct {
	Post          Post      `json:"post"`
	Comments      []Comment `json:"comments"`
	TotalComments int       `json:"total_comments"`
	FetchedAt     time.Time `json:"fetched_at"`
}

// UserInfo describes an account as returned by the platform.
type UserInfo struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	CreatedUTC       time.Time `json:"created_utc"`
	CommentKarma     int       `json:"comment_karma"`
	LinkKarma        int       `json:"link_karma"`
	TotalKarma       int       `json:"total_karma"`
	IsGold           bool      `json:"is_gold"`
	IsMod            bool      `json:"is_mod"`
	Verified         bool      `json:"verified"`
	HasVerifiedEmail bool      `json:"has_verified_email"`
}

// StatsSnapshot is a point-in-time copy of the session counters.
type StatsSnapshot struct {
	SessionID      string    `json:"session_id"`
	StartedAt      time.Time `json:"start_time"`
	CurrentTime    time.Time `json:"current_time"`
	RuntimeHours   float64   `json:"runtime_hours"`
	CommentsPosted int64     `json:"comments_posted"`
	PostsRetrieved int64     `json:"posts_retrieved"`
	Errors         int64     `json:"errors"`
	SuccessRate    float64   `json:"success_rate"`
}
