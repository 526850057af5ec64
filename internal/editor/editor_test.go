package editor

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/textvault/textvault/internal/language"
	"github.com/textvault/textvault/internal/logging"
)

type changeRecorder struct {
	mu    sync.Mutex
	texts []string
}

func (r *changeRecorder) record(text string) {
	r.mu.Lock()
	r.texts = append(r.texts, text)
	r.mu.Unlock()
}

func (r *changeRecorder) all() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.texts...)
}

func (r *changeRecorder) last() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.texts) == 0 {
		return ""
	}
	return r.texts[len(r.texts)-1]
}

func TestBufferEditNotifiesWholeText(t *testing.T) {
	b := NewBuffer()
	rec := &changeRecorder{}
	b.OnChange(rec.record)

	b.Edit("a")
	b.Edit("ab")

	assert.Equal(t, []string{"a", "ab"}, rec.all())
	assert.Equal(t, "ab", b.Text())

	b.OnChange(nil)
	b.Edit("abc")
	assert.Len(t, rec.all(), 2)
}

func TestBufferSetValueIsSilent(t *testing.T) {
	b := NewBuffer()
	rec := &changeRecorder{}
	b.OnChange(rec.record)

	b.SetValue("seed")
	assert.Equal(t, "seed", b.Text())
	assert.Empty(t, rec.all())
}

func TestBufferMarkReadyOnce(t *testing.T) {
	b := NewBuffer()
	calls := 0
	b.OnReady(func() { calls++ })

	b.MarkReady()
	b.MarkReady()
	assert.Equal(t, 1, calls)
}

func TestRemoteMirrorsCommands(t *testing.T) {
	var sent []Command
	r := NewRemote(func(c Command) { sent = append(sent, c) })

	r.Configure(Settings{Language: language.JavaScript, Theme: "vs-dark"})
	r.SetValue("")
	r.Edit("typed")

	require.Len(t, sent, 2, "edits come from the browser and are not echoed")
	assert.Equal(t, Command{Type: CommandConfigure, Language: "javascript", Theme: "vs-dark"}, sent[0])
	assert.Equal(t, Command{Type: CommandValue}, sent[1])
	assert.Equal(t, language.JavaScript, r.Settings().Language)
	assert.Equal(t, "typed", r.Text())
}

func newTestFileSurface(t *testing.T, path string) *FileSurface {
	t.Helper()
	fs, err := NewFileSurface(path, 20*time.Millisecond, logging.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = fs.Close() })
	return fs
}

func TestFileSurfaceSeedsMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "draft.txt")
	fs := newTestFileSurface(t, path)

	fs.SetValue("hello")

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(b))
}

func TestFileSurfaceKeepsExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "draft.txt")
	require.NoError(t, os.WriteFile(path, []byte("existing"), 0o600))
	fs := newTestFileSurface(t, path)
	rec := &changeRecorder{}
	fs.OnChange(rec.record)

	fs.SetValue("")
	ready := false
	fs.OnReady(func() { ready = true })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, fs.Start(ctx))

	assert.True(t, ready)
	assert.True(t, fs.Ready())
	assert.Equal(t, []string{"existing"}, rec.all())
}

func TestFileSurfaceReportsSaves(t *testing.T) {
	path := filepath.Join(t.TempDir(), "draft.txt")
	fs := newTestFileSurface(t, path)
	rec := &changeRecorder{}
	fs.OnChange(rec.record)
	fs.SetValue("")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, fs.Start(ctx))
	assert.Empty(t, rec.all())

	require.NoError(t, os.WriteFile(path, []byte("package main\n"), 0o600))

	require.Eventually(t, func() bool {
		return rec.last() == "package main\n"
	}, 2*time.Second, 10*time.Millisecond)
}

func TestFileSurfaceIgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	fs := newTestFileSurface(t, filepath.Join(dir, "draft.txt"))
	rec := &changeRecorder{}
	fs.OnChange(rec.record)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, fs.Start(ctx))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.txt"), []byte("x"), 0o600))
	time.Sleep(100 * time.Millisecond)

	assert.Empty(t, rec.all())
}

func TestFileSurfaceReloadDeduplicates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "draft.txt")
	fs := newTestFileSurface(t, path)
	rec := &changeRecorder{}
	fs.OnChange(rec.record)

	require.NoError(t, os.WriteFile(path, []byte("same"), 0o600))
	fs.reload()
	fs.reload()

	require.NoError(t, os.Remove(path))
	fs.reload()

	assert.Equal(t, []string{"same"}, rec.all())
}

func TestFileSurfaceLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "draft.txt")
	fs := newTestFileSurface(t, path)

	text, err := fs.Load()
	require.NoError(t, err)
	assert.Equal(t, "", text)

	require.NoError(t, os.WriteFile(path, []byte("body"), 0o600))
	text, err = fs.Load()
	require.NoError(t, err)
	assert.Equal(t, "body", text)
}

func TestFileSurfaceCloseIdempotent(t *testing.T) {
	fs, err := NewFileSurface(filepath.Join(t.TempDir(), "x"), 0, nil)
	require.NoError(t, err)

	assert.NoError(t, fs.Close())
	assert.NoError(t, fs.Close())
}
