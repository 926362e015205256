package validator

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kadavilrahul/reddit-bot/internal/config"
	"github.com/kadavilrahul/reddit-bot/internal/models"
)

type fakeOracle struct {
	response   string
	err        error
	calls      int
	lastPrompt string
}

func (f *fakeOracle) Complete(ctx context.Context, prompt string) (string, error) {
	f.calls++
	f.lastPrompt = prompt
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

func newTestValidator(oracle *fakeOracle, lenient bool) *Validator {
	return New(oracle, config.BotConfig{
		MinCommentLength: 10,
		MaxCommentLength: 50,
		LenientVerdicts:  lenient,
	}, zap.NewNop())
}

func TestValidateComment_LengthGates(t *testing.T) {
	t.Run("too short comments never reach the model", func(t *testing.T) {
		oracle := &fakeOracle{response: "VALID"}
		v := newTestValidator(oracle, false)

		verdict := v.ValidateComment(context.Background(), "short", "context")

		assert.False(t, verdict.Valid)
		assert.Contains(t, verdict.Reason, "minimum 10")
		assert.Zero(t, oracle.calls)
	})

	t.Run("whitespace padding does not satisfy the minimum", func(t *testing.T) {
		oracle := &fakeOracle{response: "VALID"}
		v := newTestValidator(oracle, false)

		verdict := v.ValidateComment(context.Background(), "   hi    \n\t   ", "context")

		assert.False(t, verdict.Valid)
		assert.Zero(t, oracle.calls)
	})

	t.Run("too long comments never reach the model", func(t *testing.T) {
		oracle := &fakeOracle{response: "VALID"}
		v := newTestValidator(oracle, false)

		verdict := v.ValidateComment(context.Background(), strings.Repeat("a", 51), "context")

		assert.False(t, verdict.Valid)
		assert.Contains(t, verdict.Reason, "maximum 50")
		assert.Zero(t, oracle.calls)
	})
}

func TestValidateComment_Verdicts(t *testing.T) {
	comment := "this is a perfectly reasonable comment"

	t.Run("VALID response accepts", func(t *testing.T) {
		oracle := &fakeOracle{response: "VALID"}
		v := newTestValidator(oracle, false)

		verdict := v.ValidateComment(context.Background(), comment, "context")

		assert.True(t, verdict.Valid)
		assert.Equal(t, "Comment is valid", verdict.Reason)
		assert.Equal(t, 1, oracle.calls)
	})

	t.Run("INVALID response rejects with the model's reason", func(t *testing.T) {
		oracle := &fakeOracle{response: "INVALID: too spammy"}
		v := newTestValidator(oracle, false)

		verdict := v.ValidateComment(context.Background(), comment, "context")

		assert.False(t, verdict.Valid)
		assert.Equal(t, "too spammy", verdict.Reason)
	})

	t.Run("model failure rejects instead of erroring", func(t *testing.T) {
		oracle := &fakeOracle{err: fmt.Errorf("model unavailable")}
		v := newTestValidator(oracle, false)

		verdict := v.ValidateComment(context.Background(), comment, "context")

		assert.False(t, verdict.Valid)
		assert.Contains(t, verdict.Reason, "Validation error")
	})

	t.Run("unrecognized response rejects by default", func(t *testing.T) {
		oracle := &fakeOracle{response: "I think this comment is quite valid"}
		v := newTestValidator(oracle, false)

		verdict := v.ValidateComment(context.Background(), comment, "context")

		assert.False(t, verdict.Valid)
		assert.Equal(t, "Unrecognized validation response", verdict.Reason)
	})

	t.Run("lenient mode falls back to substring matching", func(t *testing.T) {
		oracle := &fakeOracle{response: "I think this comment is quite valid"}
		v := newTestValidator(oracle, true)

		verdict := v.ValidateComment(context.Background(), comment, "context")
		assert.True(t, verdict.Valid)

		oracle.response = "nope, not good"
		verdict = v.ValidateComment(context.Background(), comment, "context")
		assert.False(t, verdict.Valid)
	})
}

func TestValidateComment_Prompt(t *testing.T) {
	comment := "this is a perfectly reasonable comment"

	t.Run("includes the post context", func(t *testing.T) {
		oracle := &fakeOracle{response: "VALID"}
		v := newTestValidator(oracle, false)

		v.ValidateComment(context.Background(), comment, "My post title")

		assert.Contains(t, oracle.lastPrompt, "POST CONTEXT: My post title")
		assert.Contains(t, oracle.lastPrompt, "COMMENT: "+comment)
	})

	t.Run("empty context becomes a placeholder", func(t *testing.T) {
		oracle := &fakeOracle{response: "VALID"}
		v := newTestValidator(oracle, false)

		v.ValidateComment(context.Background(), comment, "")

		assert.Contains(t, oracle.lastPrompt, "POST CONTEXT: No context")
	})

	t.Run("long context is truncated to 500 runes", func(t *testing.T) {
		oracle := &fakeOracle{response: "VALID"}
		v := newTestValidator(oracle, false)

		v.ValidateComment(context.Background(), comment, strings.Repeat("x", 2000))

		assert.NotContains(t, oracle.lastPrompt, strings.Repeat("x", 501))
		assert.Contains(t, oracle.lastPrompt, strings.Repeat("x", 500))
	})
}

func TestNormalizeSubredditName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{name: "plain name", input: "golang", want: "golang"},
		{name: "strips r/ prefix", input: "r/Python", want: "Python"},
		{name: "strips R/ prefix", input: "R/Python", want: "Python"},
		{name: "underscores allowed", input: "ask_science", want: "ask_science"},
		{name: "empty", input: "", wantErr: true},
		{name: "prefix only", input: "r/", wantErr: true},
		{name: "too short", input: "a", wantErr: true},
		{name: "too long", input: strings.Repeat("a", 22), wantErr: true},
		{name: "invalid characters", input: "bad name!", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeSubredditName(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestValidatePostData(t *testing.T) {
	valid := models.Post{ID: "abc123", Title: "A title"}

	require.NoError(t, ValidatePostData(valid))

	// Re-validation of an already valid post stays clean
	require.NoError(t, ValidatePostData(valid))

	assert.Error(t, ValidatePostData(models.Post{Title: "A title"}))
	assert.Error(t, ValidatePostData(models.Post{ID: "abc123"}))
	assert.Error(t, ValidatePostData(models.Post{ID: "abc123", Title: "   "}))
}
