package retention

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, dir, name string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("{}\n"), 0o644))
}

func TestPrune(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "2026-01-01.jsonl")
	touch(t, dir, "2026-01-09.jsonl")
	touch(t, dir, "2026-01-10.jsonl")
	touch(t, dir, "notes.txt")
	touch(t, dir, "garbage.jsonl")

	p := NewPruner(dir, 7, nil)
	p.now = func() time.Time { return time.Date(2026, 1, 17, 12, 0, 0, 0, time.UTC) }

	deleted, err := p.Prune(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, deleted)

	assert.NoFileExists(t, filepath.Join(dir, "2026-01-01.jsonl"))
	assert.NoFileExists(t, filepath.Join(dir, "2026-01-09.jsonl"))
	assert.FileExists(t, filepath.Join(dir, "2026-01-10.jsonl"))
	assert.FileExists(t, filepath.Join(dir, "notes.txt"))
	assert.FileExists(t, filepath.Join(dir, "garbage.jsonl"))
}

func TestPruneDisabledAndMissingDir(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "2000-01-01.jsonl")

	deleted, err := NewPruner(dir, 0, nil).Prune(context.Background())
	require.NoError(t, err)
	assert.Zero(t, deleted)
	assert.FileExists(t, filepath.Join(dir, "2000-01-01.jsonl"))

	deleted, err = NewPruner(filepath.Join(dir, "absent"), 7, nil).Prune(context.Background())
	require.NoError(t, err)
	assert.Zero(t, deleted)
}

func TestScheduler(t *testing.T) {
	_, err := NewScheduler(NewPruner(t.TempDir(), 7, nil), "not a schedule")
	assert.Error(t, err)

	idle, err := NewScheduler(NewPruner(t.TempDir(), 7, nil), "")
	require.NoError(t, err)
	require.NoError(t, idle.Start(context.Background()))
	assert.False(t, idle.Running())

	s, err := NewScheduler(NewPruner(t.TempDir(), 7, nil), "0 3 * * *")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, s.Start(ctx))
	assert.True(t, s.Running())

	cancel()
	assert.Eventually(t, func() bool { return !s.Running() }, time.Second, 10*time.Millisecond)
}
