package synthesizer

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/kadavilrahul/reddit-bot/internal/gemini"
)

// Instructions is the system role for the drafting model.
const Instructions = "Generate thoughtful, relevant Reddit comments (50-200 words). Match subreddit tone, add value, avoid repetition, follow Reddit etiquette."

// Synthesizer drafts comments for posts using the text model.
type Synthesizer struct {
	oracle gemini.Completer
	logger *zap.Logger
}

// New creates a comment synthesizer backed by the given model.
func New(oracle gemini.Completer, logger *zap.Logger) *Synthesizer {
	return &Synthesizer{
		oracle: oracle,
		logger: logger,
	}
}

// GenerateComment drafts a comment for a post. Up to three existing
// comments are included as tone context, truncated to 100 characters
// each; the post body is truncated to 500.
func (s *Synthesizer) GenerateComment(ctx context.Context, title, content, subreddit string, existingComments []string) (string, error) {
	excerpts := existingComments
	if len(excerpts) > 3 {
		excerpts = excerpts[:3]
	}

	lines := make([]string, 0, len(excerpts))
	for _, comment := range excerpts {
		lines = append(lines, "- "+truncate(comment, 100)+"...")
	}
	existingText := strings.Join(lines, "\n")

	contentPart := truncate(content, 500)
	if contentPart == "" {
		contentPart = "No content"
	}

	prompt := fmt.Sprintf("Generate a Reddit comment for:\nSUBREDDIT: r/%s\nTITLE: %s\nCONTENT: %s\nEXISTING COMMENTS:\n%s",
		subreddit, title, contentPart, existingText)

	response, err := s.oracle.Complete(ctx, prompt)
	if err != nil {
		s.logger.Error("Comment generation error", zap.Error(err))
		return "", fmt.Errorf("failed to generate comment: %w", err)
	}

	return cleanResponse(strings.TrimSpace(response)), nil
}

// cleanResponse drops the model's meta commentary lines around the
// comment body. If nothing survives, the raw response is returned.
func cleanResponse(response string) string {
	var lines []string
	for _, line := range strings.Split(response, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "Here") || strings.HasPrefix(line, "This comment") || strings.HasPrefix(line, "I generated") {
			continue
		}
		lines = append(lines, line)
	}

	if len(lines) == 0 {
		return response
	}

	return strings.Join(lines, "\n")
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
