package reddit

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kadavilrahul/reddit-bot/internal/config"
	"github.com/kadavilrahul/reddit-bot/internal/models"
	"github.com/kadavilrahul/reddit-bot/internal/validator"
)

const (
	defaultBaseURL  = "https://oauth.reddit.com"
	defaultTokenURL = "https://www.reddit.com/api/v1/access_token"

	// Listings never return more than 100 items per request
	maxPostsPerRequest = 100
)

// Client encapsulates the Reddit API client. Authentication uses the
// password grant for script apps; the token is refreshed lazily.
type Client struct {
	clientID     string
	clientSecret string
	username     string
	password     string
	userAgent    string
	rateDelay    time.Duration
	logger       *zap.Logger
	httpClient   *http.Client

	baseURL  string
	tokenURL string

	mu          sync.Mutex
	accessToken string
	tokenExpiry time.Time
}

// SubmittedComment identifies a successfully created comment.
type SubmittedComment struct {
	ID        string `json:"id"`
	Permalink string `json:"permalink"`
}

// Reddit API response structures
type listingEnvelope struct {
	Kind string      `json:"kind"`
	Data listingData `json:"data"`
}

type listingData struct {
	After    string  `json:"after"`
	Children []thing `json:"children"`
}

type thing struct {
	Kind string          `json:"kind"`
	Data json.RawMessage `json:"data"`
}

type postData struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Author      string  `json:"author"`
	Score       int     `json:"score"`
	UpvoteRatio float64 `json:"upvote_ratio"`
	NumComments int     `json:"num_comments"`
	CreatedUTC  float64 `json:"created_utc"`
	URL         string  `json:"url"`
	Permalink   string  `json:"permalink"`
	SelfText    string  `json:"selftext"`
	Subreddit   string  `json:"subreddit"`
	IsSelf      bool    `json:"is_self"`
	Over18      bool    `json:"over_18"`
	Spoiler     bool    `json:"spoiler"`
	Stickied    bool    `json:"stickied"`
	Locked      bool    `json:"locked"`
}

type commentData struct {
	ID          string          `json:"id"`
	Body        string          `json:"body"`
	Author      string          `json:"author"`
	Score       int             `json:"score"`
	CreatedUTC  float64         `json:"created_utc"`
	Permalink   string          `json:"permalink"`
	ParentID    string          `json:"parent_id"`
	IsSubmitter bool            `json:"is_submitter"`
	Stickied    bool            `json:"stickied"`
	Depth       int             `json:"depth"`
	Replies     json.RawMessage `json:"replies"`
}

type userData struct {
	ID               string  `json:"id"`
	Name             string  `json:"name"`
	CreatedUTC       float64 `json:"created_utc"`
	CommentKarma     int     `json:"comment_karma"`
	LinkKarma        int     `json:"link_karma"`
	IsGold           bool    `json:"is_gold"`
	IsMod            bool    `json:"is_mod"`
	Verified         bool    `json:"verified"`
	HasVerifiedEmail bool    `json:"has_verified_email"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
	Error       string `json:"error"`
}

type commentPostResponse struct {
	JSON struct {
		Errors [][]any `json:"errors"`
		Data   struct {
			Things []thing `json:"things"`
		} `json:"data"`
	} `json:"json"`
}

func (r *commentPostResponse) firstError() (code, message string) {
	if len(r.JSON.Errors) == 0 {
		return "", ""
	}

	entry := r.JSON.Errors[0]
	if len(entry) > 0 {
		code, _ = entry[0].(string)
	}
	if len(entry) > 1 {
		message, _ = entry[1].(string)
	}
	return code, message
}

// NewClient creates and initializes a new Reddit API client.
func NewClient(cfg config.RedditConfig, logger *zap.Logger) (*Client, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, fmt.Errorf("reddit client id and secret are required")
	}

	if cfg.Username == "" || cfg.Password == "" {
		return nil, fmt.Errorf("reddit account credentials are required")
	}

	return &Client{
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
		username:     cfg.Username,
		password:     cfg.Password,
		userAgent:    cfg.UserAgent,
		rateDelay:    cfg.RateLimitDelay(),
		logger:       logger,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		baseURL:  defaultBaseURL,
		tokenURL: defaultTokenURL,
	}, nil
}

// Authenticate fetches an access token and probes the identity endpoint.
// Callers treat a failure here as fatal.
func (c *Client) Authenticate(ctx context.Context) (*models.UserInfo, error) {
	if _, err := c.token(ctx); err != nil {
		return nil, err
	}

	me, err := c.Me(ctx)
	if err != nil {
		return nil, fmt.Errorf("authentication probe failed: %w", err)
	}

	c.logger.Info("Successfully authenticated", zap.String("username", me.Name))
	return me, nil
}

// token returns a cached access token, fetching a fresh one when needed.
func (c *Client) token(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.accessToken != "" && time.Now().Before(c.tokenExpiry) {
		return c.accessToken, nil
	}

	form := url.Values{}
	form.Set("grant_type", "password")
	form.Set("username", c.username)
	form.Set("password", c.password)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("failed to create token request: %w", err)
	}
	req.SetBasicAuth(c.clientID, c.clientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to request access token: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read token response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("token request failed with status %d", resp.StatusCode)
	}

	var tok tokenResponse
	if err := json.Unmarshal(body, &tok); err != nil {
		return "", fmt.Errorf("failed to parse token response: %w", err)
	}

	if tok.Error != "" {
		return "", fmt.Errorf("authentication rejected: %s", tok.Error)
	}

	if tok.AccessToken == "" {
		return "", fmt.Errorf("token response contained no access token")
	}

	c.accessToken = tok.AccessToken
	// Refresh one minute before the platform expires the token
	c.tokenExpiry = time.Now().Add(time.Duration(tok.ExpiresIn)*time.Second - time.Minute)

	return c.accessToken, nil
}

func (c *Client) invalidateToken() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.accessToken = ""
}

// makeAPIRequest performs an authenticated Reddit API request
func (c *Client) makeAPIRequest(ctx context.Context, method, path string, params url.Values, form url.Values) ([]byte, error) {
	token, err := c.token(ctx)
	if err != nil {
		return nil, err
	}

	if params == nil {
		params = url.Values{}
	}
	params.Set("raw_json", "1")

	apiURL := fmt.Sprintf("%s%s?%s", c.baseURL, path, params.Encode())

	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, method, apiURL, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("User-Agent", c.userAgent)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%s: %w", path, ErrNotFound)
	case resp.StatusCode == http.StatusForbidden:
		return nil, fmt.Errorf("%s: %w", path, ErrForbidden)
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, fmt.Errorf("%s: %w", path, ErrRateLimited)
	case resp.StatusCode == http.StatusUnauthorized:
		// Token revoked or expired early; force a refresh on the next call
		c.invalidateToken()
		return nil, &APIError{StatusCode: resp.StatusCode, Message: "access token rejected"}
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, &APIError{StatusCode: resp.StatusCode, Message: truncateBody(respBody)}
	}

	return respBody, nil
}

// GetSubredditPosts fetches a batch of posts under the given sort order.
// sortBy is one of "hot", "new", "top" or "rising"; timeFilter applies
// to "top" only.
func (c *Client) GetSubredditPosts(ctx context.Context, subredditName, sortBy string, limit int, timeFilter string) ([]models.Post, error) {
	name, err := validator.NormalizeSubredditName(subredditName)
	if err != nil {
		return nil, err
	}

	if limit <= 0 {
		limit = 10
	}
	if limit > maxPostsPerRequest {
		limit = maxPostsPerRequest
	}

	params := url.Values{}
	params.Set("limit", strconv.Itoa(limit))

	switch sortBy {
	case "hot", "new", "rising":
	case "top":
		if timeFilter == "" {
			timeFilter = "day"
		}
		params.Set("t", timeFilter)
	default:
		return nil, fmt.Errorf("invalid sort method: %s", sortBy)
	}

	c.logger.Info("Fetching subreddit posts",
		zap.String("subreddit", name),
		zap.String("sort", sortBy),
		zap.Int("limit", limit))

	respData, err := c.makeAPIRequest(ctx, http.MethodGet, fmt.Sprintf("/r/%s/%s", name, sortBy), params, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get posts from r/%s: %w", name, err)
	}

	var listing listingEnvelope
	if err := json.Unmarshal(respData, &listing); err != nil {
		return nil, fmt.Errorf("failed to parse listing response: %w", err)
	}

	posts := c.collectPosts(listing.Data.Children)

	c.logger.Info("Retrieved subreddit posts",
		zap.String("subreddit", name),
		zap.Int("count", len(posts)))
	return posts, nil
}

// collectPosts maps listing children onto posts, skipping anything that
// fails the basic data checks.
func (c *Client) collectPosts(children []thing) []models.Post {
	var posts []models.Post
	for _, child := range children {
		if child.Kind != "t3" {
			continue
		}

		var pd postData
		if err := json.Unmarshal(child.Data, &pd); err != nil {
			c.logger.Warn("Failed to parse post", zap.Error(err))
			continue
		}

		post := toPost(pd)
		if err := validator.ValidatePostData(post); err != nil {
			c.logger.Warn("Skipping invalid post", zap.String("post_id", pd.ID), zap.Error(err))
			continue
		}

		posts = append(posts, post)
	}
	return posts
}

// GetPost fetches a single post by id.
func (c *Client) GetPost(ctx context.Context, postID string) (*models.Post, error) {
	params := url.Values{}
	params.Set("id", "t3_"+postID)

	respData, err := c.makeAPIRequest(ctx, http.MethodGet, "/api/info", params, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get post %s: %w", postID, err)
	}

	var listing listingEnvelope
	if err := json.Unmarshal(respData, &listing); err != nil {
		return nil, fmt.Errorf("failed to parse post response: %w", err)
	}

	if len(listing.Data.Children) == 0 {
		return nil, fmt.Errorf("post %s: %w", postID, ErrNotFound)
	}

	var pd postData
	if err := json.Unmarshal(listing.Data.Children[0].Data, &pd); err != nil {
		return nil, fmt.Errorf("failed to parse post data: %w", err)
	}

	post := toPost(pd)
	return &post, nil
}

// GetPostWithComments fetches a post and its flattened comment tree in
// one call. Unresolved "more" placeholders are dropped, matching the
// behavior of expanding nothing.
func (c *Client) GetPostWithComments(ctx context.Context, postID string, limit int) (*models.Post, []models.Comment, error) {
	params := url.Values{}
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}

	respData, err := c.makeAPIRequest(ctx, http.MethodGet, "/comments/"+postID, params, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get post %s: %w", postID, err)
	}

	var listings []listingEnvelope
	if err := json.Unmarshal(respData, &listings); err != nil {
		return nil, nil, fmt.Errorf("failed to parse comments response: %w", err)
	}

	if len(listings) < 2 || len(listings[0].Data.Children) == 0 {
		return nil, nil, fmt.Errorf("post %s: %w", postID, ErrNotFound)
	}

	var pd postData
	if err := json.Unmarshal(listings[0].Data.Children[0].Data, &pd); err != nil {
		return nil, nil, fmt.Errorf("failed to parse post data: %w", err)
	}

	post := toPost(pd)
	comments := c.flattenComments(listings[1].Data.Children, limit)
	return &post, comments, nil
}

// GetPostComments fetches comments from a specific post.
func (c *Client) GetPostComments(ctx context.Context, postID string, limit int) ([]models.Comment, error) {
	_, comments, err := c.GetPostWithComments(ctx, postID, limit)
	if err != nil {
		return nil, err
	}

	c.logger.Info("Retrieved post comments",
		zap.String("post_id", postID),
		zap.Int("count", len(comments)))
	return comments, nil
}

// flattenComments walks the reply tree breadth-first.
func (c *Client) flattenComments(children []thing, limit int) []models.Comment {
	var comments []models.Comment

	queue := children
	for len(queue) > 0 {
		if limit > 0 && len(comments) >= limit {
			break
		}

		item := queue[0]
		queue = queue[1:]

		// "more" children are unresolved placeholders, not comments
		if item.Kind != "t1" {
			continue
		}

		var cd commentData
		if err := json.Unmarshal(item.Data, &cd); err != nil {
			c.logger.Warn("Failed to parse comment", zap.Error(err))
			continue
		}

		if cd.Body == "[deleted]" {
			continue
		}

		comments = append(comments, toComment(cd))

		// Replies is "" when empty and a nested listing otherwise
		if len(cd.Replies) > 0 && cd.Replies[0] == '{' {
			var replies listingEnvelope
			if err := json.Unmarshal(cd.Replies, &replies); err == nil {
				queue = append(queue, replies.Data.Children...)
			}
		}
	}

	return comments
}

// SubmitComment posts a reply to a submission. Platform errors carried
// inside the response envelope map onto the sentinel errors.
func (c *Client) SubmitComment(ctx context.Context, postID, text string) (*SubmittedComment, error) {
	form := url.Values{}
	form.Set("api_type", "json")
	form.Set("thing_id", "t3_"+postID)
	form.Set("text", text)

	c.logger.Info("Posting comment", zap.String("post_id", postID), zap.Int("length", len(text)))

	respData, err := c.makeAPIRequest(ctx, http.MethodPost, "/api/comment", nil, form)
	if err != nil {
		return nil, fmt.Errorf("failed to post comment: %w", err)
	}

	var commentResp commentPostResponse
	if err := json.Unmarshal(respData, &commentResp); err != nil {
		return nil, fmt.Errorf("failed to parse comment response: %w", err)
	}

	if code, msg := commentResp.firstError(); code != "" {
		switch code {
		case "RATELIMIT":
			return nil, fmt.Errorf("%s: %w", msg, ErrRateLimited)
		case "THREAD_LOCKED":
			return nil, fmt.Errorf("%s: %w", msg, ErrPostLocked)
		default:
			return nil, fmt.Errorf("reddit rejected comment: %s: %s", code, msg)
		}
	}

	things := commentResp.JSON.Data.Things
	if len(things) == 0 {
		return nil, fmt.Errorf("comment response contained no comment")
	}

	var cd commentData
	if err := json.Unmarshal(things[0].Data, &cd); err != nil {
		return nil, fmt.Errorf("failed to parse created comment: %w", err)
	}

	// Reddit write API rate limit
	time.Sleep(c.rateDelay)

	c.logger.Info("Successfully posted comment",
		zap.String("comment_id", cd.ID),
		zap.String("post_id", postID))

	return &SubmittedComment{ID: cd.ID, Permalink: permalinkURL(cd.Permalink)}, nil
}

// Search finds posts matching a query, optionally within one subreddit.
// sort is one of "relevance", "hot", "top", "new" or "comments".
func (c *Client) Search(ctx context.Context, query, subredditName, sort, timeFilter string, limit int) ([]models.Post, error) {
	if sort == "" {
		sort = "relevance"
	}
	switch sort {
	case "relevance", "hot", "top", "new", "comments":
	default:
		return nil, fmt.Errorf("invalid search sort: %s", sort)
	}

	if timeFilter == "" {
		timeFilter = "all"
	}

	if limit <= 0 {
		limit = 25
	}
	if limit > maxPostsPerRequest {
		limit = maxPostsPerRequest
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("sort", sort)
	params.Set("t", timeFilter)
	params.Set("limit", strconv.Itoa(limit))
	params.Set("type", "link")

	path := "/search"
	if subredditName != "" {
		name, err := validator.NormalizeSubredditName(subredditName)
		if err != nil {
			return nil, err
		}
		path = fmt.Sprintf("/r/%s/search", name)
		params.Set("restrict_sr", "1")
	}

	c.logger.Info("Searching posts", zap.String("query", query), zap.String("path", path))

	respData, err := c.makeAPIRequest(ctx, http.MethodGet, path, params, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to search posts: %w", err)
	}

	var listing listingEnvelope
	if err := json.Unmarshal(respData, &listing); err != nil {
		return nil, fmt.Errorf("failed to parse search response: %w", err)
	}

	posts := c.collectPosts(listing.Data.Children)

	c.logger.Info("Search completed", zap.String("query", query), zap.Int("count", len(posts)))
	return posts, nil
}

// Me returns the authenticated account.
func (c *Client) Me(ctx context.Context) (*models.UserInfo, error) {
	respData, err := c.makeAPIRequest(ctx, http.MethodGet, "/api/v1/me", nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get account info: %w", err)
	}

	var ud userData
	if err := json.Unmarshal(respData, &ud); err != nil {
		return nil, fmt.Errorf("failed to parse account response: %w", err)
	}

	user := toUserInfo(ud)
	return &user, nil
}

// GetUser returns public information about any account.
func (c *Client) GetUser(ctx context.Context, username string) (*models.UserInfo, error) {
	respData, err := c.makeAPIRequest(ctx, http.MethodGet, fmt.Sprintf("/user/%s/about", username), nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get user %s: %w", username, err)
	}

	var wrapped thing
	if err := json.Unmarshal(respData, &wrapped); err != nil {
		return nil, fmt.Errorf("failed to parse user response: %w", err)
	}

	var ud userData
	if err := json.Unmarshal(wrapped.Data, &ud); err != nil {
		return nil, fmt.Errorf("failed to parse user data: %w", err)
	}

	user := toUserInfo(ud)
	return &user, nil
}

func toPost(pd postData) models.Post {
	author := pd.Author
	if author == "" {
		author = "[deleted]"
	}

	return models.Post{
		ID:          pd.ID,
		Title:       pd.Title,
		Author:      author,
		Score:       pd.Score,
		UpvoteRatio: pd.UpvoteRatio,
		NumComments: pd.NumComments,
		CreatedUTC:  time.Unix(int64(pd.CreatedUTC), 0).UTC(),
		URL:         pd.URL,
		Permalink:   permalinkURL(pd.Permalink),
		SelfText:    pd.SelfText,
		Subreddit:   pd.Subreddit,
		IsSelf:      pd.IsSelf,
		Over18:      pd.Over18,
		Spoiler:     pd.Spoiler,
		Stickied:    pd.Stickied,
		Locked:      pd.Locked,
	}
}

func toComment(cd commentData) models.Comment {
	author := cd.Author
	if author == "" {
		author = "[deleted]"
	}

	return models.Comment{
		ID:          cd.ID,
		Body:        cd.Body,
		Author:      author,
		Score:       cd.Score,
		CreatedUTC:  time.Unix(int64(cd.CreatedUTC), 0).UTC(),
		Permalink:   permalinkURL(cd.Permalink),
		ParentID:    cd.ParentID,
		IsSubmitter: cd.IsSubmitter,
		Stickied:    cd.Stickied,
		Depth:       cd.Depth,
	}
}

func toUserInfo(ud userData) models.UserInfo {
	return models.UserInfo{
		ID:               ud.ID,
		Name:             ud.Name,
		CreatedUTC:       time.Unix(int64(ud.CreatedUTC), 0).UTC(),
		CommentKarma:     ud.CommentKarma,
		LinkKarma:        ud.LinkKarma,
		TotalKarma:       ud.CommentKarma + ud.LinkKarma,
		IsGold:           ud.IsGold,
		IsMod:            ud.IsMod,
		Verified:         ud.Verified,
		HasVerifiedEmail: ud.HasVerifiedEmail,
	}
}

func permalinkURL(permalink string) string {
	if permalink == "" || strings.HasPrefix(permalink, "http") {
		return permalink
	}
	return "https://reddit.com" + permalink
}

func truncateBody(body []byte) string {
	const max = 200
	s := string(body)
	if len(s) > max {
		return s[:max]
	}
	return s
}
