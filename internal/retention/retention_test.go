package retention

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"booktalk/internal/applog"
	"booktalk/internal/config"
	"booktalk/internal/model"
	"booktalk/internal/session"
	sessionMocks "booktalk/internal/session/mocks"
	"booktalk/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func seed(t *testing.T, dir string, store storage.Storage, key string, mtime time.Time) {
	t.Helper()
	_, err := store.Put(context.Background(), key, strings.NewReader(key), storage.PutOptions{Size: -1})
	require.NoError(t, err)
	require.NoError(t, os.Chtimes(filepath.Join(dir, filepath.FromSlash(key)), mtime, mtime))
}

func keys(t *testing.T, store storage.Storage, folder string) []string {
	t.Helper()
	objs, err := store.List(context.Background(), folder)
	require.NoError(t, err)
	var out []string
	for _, o := range objs {
		out = append(out, o.Key)
	}
	return out
}

func TestJanitor_Sweep(t *testing.T) {
	applog.SetOutput(io.Discard)
	t.Cleanup(func() { applog.SetOutput(os.Stdout) })
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("disabled by default", func(t *testing.T) {
		dir := t.TempDir()
		store, err := storage.NewLocal(dir)
		require.NoError(t, err)
		seed(t, dir, store, "tts/old.mp3", now.Add(-48*time.Hour))

		j := NewJanitor(store, config.RetentionConfig{}, "tts")
		n, err := j.Sweep(context.Background())

		require.NoError(t, err)
		assert.Zero(t, n)
		assert.False(t, j.Enabled())
		assert.Len(t, keys(t, store, "tts"), 1)
	})

	t.Run("age removes audio with its transcript", func(t *testing.T) {
		dir := t.TempDir()
		store, err := storage.NewLocal(dir)
		require.NoError(t, err)
		seed(t, dir, store, "tts/old.mp3", now.Add(-48*time.Hour))
		seed(t, dir, store, "tts/old.mp3.txt", now.Add(-48*time.Hour))
		seed(t, dir, store, "tts/new.mp3", now.Add(-time.Minute))
		seed(t, dir, store, "tts/new.mp3.txt", now.Add(-time.Minute))

		j := NewJanitor(store, config.RetentionConfig{MaxAge: 24 * time.Hour}, "tts")
		j.now = func() time.Time { return now }
		n, err := j.Sweep(context.Background())

		require.NoError(t, err)
		assert.Equal(t, 2, n)
		assert.ElementsMatch(t, []string{"tts/new.mp3", "tts/new.mp3.txt"}, keys(t, store, "tts"))
	})

	t.Run("count keeps the newest per folder", func(t *testing.T) {
		dir := t.TempDir()
		store, err := storage.NewLocal(dir)
		require.NoError(t, err)
		seed(t, dir, store, "uploads/a.pdf", now.Add(-3*time.Hour))
		seed(t, dir, store, "uploads/b.pdf", now.Add(-2*time.Hour))
		seed(t, dir, store, "uploads/c.txt", now.Add(-time.Hour))
		seed(t, dir, store, "tts/x.mp3", now.Add(-5*time.Hour))

		j := NewJanitor(store, config.RetentionConfig{MaxFiles: 2}, "uploads", "tts")
		j.now = func() time.Time { return now }
		n, err := j.Sweep(context.Background())

		require.NoError(t, err)
		assert.Equal(t, 1, n)
		assert.ElementsMatch(t, []string{"uploads/b.pdf", "uploads/c.txt"}, keys(t, store, "uploads"))
		assert.Equal(t, []string{"tts/x.mp3"}, keys(t, store, "tts"))
	})
}

func TestJanitor_KeepsActiveDocuments(t *testing.T) {
	applog.SetOutput(io.Discard)
	t.Cleanup(func() { applog.SetOutput(os.Stdout) })
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	ctx := context.Background()

	cases := []struct {
		name string
		cfg  config.RetentionConfig
	}{
		{"count cap", config.RetentionConfig{MaxFiles: 1}},
		{"max age", config.RetentionConfig{MaxAge: time.Hour}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			dir := t.TempDir()
			store, err := storage.NewLocal(dir)
			require.NoError(t, err)
			// The book is the oldest upload; recorded questions arrive after it.
			seed(t, dir, store, "uploads/book.txt", now.Add(-3*time.Hour))
			seed(t, dir, store, "uploads/stale.pdf", now.Add(-2*time.Hour))
			seed(t, dir, store, "uploads/question.wav", now.Add(-time.Minute))

			sessions := session.NewMemory()
			require.NoError(t, sessions.SetDocument(ctx, "s1", model.Document{Key: "uploads/book.txt"}))

			j := NewJanitor(store, tc.cfg, model.FolderUploads).Protect(sessions)
			j.now = func() time.Time { return now }
			n, err := j.Sweep(ctx)

			require.NoError(t, err)
			assert.Equal(t, 1, n)
			assert.ElementsMatch(t, []string{"uploads/book.txt", "uploads/question.wav"}, keys(t, store, model.FolderUploads))

			sess, err := sessions.Get(ctx, "s1")
			require.NoError(t, err)
			rc, _, err := store.Get(ctx, sess.Document.Key)
			require.NoError(t, err, "active document must stay readable")
			rc.Close()
		})
	}
}

func TestJanitor_SweepAbortsWhenActiveKeysFail(t *testing.T) {
	applog.SetOutput(io.Discard)
	t.Cleanup(func() { applog.SetOutput(os.Stdout) })
	dir := t.TempDir()
	store, err := storage.NewLocal(dir)
	require.NoError(t, err)
	seed(t, dir, store, "uploads/book.pdf", time.Now().Add(-48*time.Hour))

	sessions := new(sessionMocks.MockStore)
	sessions.On("ActiveDocumentKeys", mock.Anything).Return(nil, errors.New("db down")).Once()

	j := NewJanitor(store, config.RetentionConfig{MaxAge: time.Hour}, model.FolderUploads).Protect(sessions)
	n, err := j.Sweep(context.Background())

	assert.ErrorContains(t, err, "db down")
	assert.Zero(t, n)
	assert.Equal(t, []string{"uploads/book.pdf"}, keys(t, store, model.FolderUploads))
	sessions.AssertExpectations(t)
}

func TestJanitor_RunStopsOnCancel(t *testing.T) {
	applog.SetOutput(io.Discard)
	t.Cleanup(func() { applog.SetOutput(os.Stdout) })
	store, err := storage.NewLocal(t.TempDir())
	require.NoError(t, err)
	j := NewJanitor(store, config.RetentionConfig{MaxFiles: 1, Interval: time.Millisecond}, "tts")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		j.Run(ctx)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("janitor did not stop")
	}
}
