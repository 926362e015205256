package validator

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/kadavilrahul/reddit-bot/internal/config"
	"github.com/kadavilrahul/reddit-bot/internal/gemini"
	"github.com/kadavilrahul/reddit-bot/internal/models"
)

// Instructions is the system role for the validation model.
const Instructions = "Validate Reddit content. Return 'VALID' if appropriate, 'INVALID: [reason]' if not. Check for spam, harassment, relevance, and Reddit policy violations."

var subredditNameRe = regexp.MustCompile(`^[A-Za-z0-9_]{3,21}$`)

// Validator gates drafted comments before they reach the platform.
type Validator struct {
	oracle  gemini.Completer
	minLen  int
	maxLen  int
	lenient bool
	logger  *zap.Logger
}

// New creates a comment validator backed by the given model.
func New(oracle gemini.Completer, cfg config.BotConfig, logger *zap.Logger) *Validator {
	return &Validator{
		oracle:  oracle,
		minLen:  cfg.MinCommentLength,
		maxLen:  cfg.MaxCommentLength,
		lenient: cfg.LenientVerdicts,
		logger:  logger,
	}
}

// ValidateComment decides whether a comment may be posted. Length gates
// run before the model is consulted; a model failure yields a rejecting
// verdict, never an error.
func (v *Validator) ValidateComment(ctx context.Context, commentText, postContext string) models.Verdict {
	if utf8.RuneCountInString(strings.TrimSpace(commentText)) < v.minLen {
		return models.Verdict{Reason: fmt.Sprintf("Comment too short (minimum %d characters)", v.minLen)}
	}

	if utf8.RuneCountInString(commentText) > v.maxLen {
		return models.Verdict{Reason: fmt.Sprintf("Comment too long (maximum %d characters)", v.maxLen)}
	}

	contextPart := truncate(postContext, 500)
	if contextPart == "" {
		contextPart = "No context"
	}

	prompt := fmt.Sprintf("Validate this Reddit comment:\nPOST CONTEXT: %s\nCOMMENT: %s", contextPart, commentText)

	result, err := v.oracle.Complete(ctx, prompt)
	if err != nil {
		v.logger.Error("Validation error", zap.Error(err))
		return models.Verdict{Reason: fmt.Sprintf("Validation error: %s", err)}
	}

	result = strings.TrimSpace(result)

	switch {
	case strings.HasPrefix(result, "VALID"):
		return models.Verdict{Valid: true, Reason: "Comment is valid"}
	case strings.HasPrefix(result, "INVALID"):
		return models.Verdict{Reason: strings.TrimSpace(strings.ReplaceAll(result, "INVALID:", ""))}
	}

	if v.lenient {
		return models.Verdict{
			Valid:  strings.Contains(strings.ToLower(result), "valid"),
			Reason: "Content validation completed",
		}
	}

	v.logger.Warn("Unrecognized validation response", zap.String("response", truncate(result, 200)))
	return models.Verdict{Reason: "Unrecognized validation response"}
}

// NormalizeSubredditName strips an optional r/ prefix and checks the
// name against the platform's format rules.
func NormalizeSubredditName(name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("subreddit name cannot be empty")
	}

	name = strings.TrimPrefix(name, "r/")
	name = strings.TrimPrefix(name, "R/")

	if !subredditNameRe.MatchString(name) {
		return "", fmt.Errorf("invalid subreddit name format")
	}

	return name, nil
}

// ValidatePostData checks the fields every downstream consumer relies on.
func ValidatePostData(post models.Post) error {
	if post.ID == "" {
		return fmt.Errorf("post is missing an id")
	}

	if strings.TrimSpace(post.Title) == "" {
		return fmt.Errorf("post title cannot be empty")
	}

	return nil
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
