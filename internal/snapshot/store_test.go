package snapshot

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestSave(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir, zap.NewNop())

	type payload struct {
		Subreddit string `json:"subreddit"`
		Total     int    `json:"total"`
	}
	want := payload{Subreddit: "golang", Total: 25}

	path, err := store.Save("reddit_data", want)
	require.NoError(t, err)

	name := filepath.Base(path)
	assert.True(t, strings.HasPrefix(name, "reddit_data_"), "name %q", name)
	assert.True(t, strings.HasSuffix(name, ".json"), "name %q", name)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "\n  \"subreddit\"", "output is indented")

	var got payload
	require.NoError(t, json.Unmarshal(data, &got))
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("snapshot round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestSave_CreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "snapshots")
	store := NewStore(dir, zap.NewNop())

	path, err := store.Save("monitor_report", map[string]int{"matches": 2})
	require.NoError(t, err)

	_, err = os.Stat(path)
	require.NoError(t, err)
}

func TestSave_UnmarshalableValue(t *testing.T) {
	store := NewStore(t.TempDir(), zap.NewNop())

	_, err := store.Save("bad", map[string]interface{}{"ch": make(chan int)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to marshal snapshot")
}

func TestNewStore_DefaultDirectory(t *testing.T) {
	store := NewStore("", zap.NewNop())
	assert.Equal(t, "data", store.dir)
}
