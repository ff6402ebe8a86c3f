package engine

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Yunitra/AnyDownloadManager/internal/engine/events"
	"github.com/Yunitra/AnyDownloadManager/internal/engine/types"
)

func resumeMeta(url, dir string, total int64) types.DownloadMeta {
	return types.DownloadMeta{
		URL:          url,
		Dest:         filepath.Join(dir, "file.bin"),
		Temp:         filepath.Join(dir, "file.part"),
		Total:        total,
		TotalKnown:   true,
		AcceptRanges: true,
	}
}

func TestResumeFromHalf(t *testing.T) {
	content := testContent(1000000)
	srv, recordedRanges := rangeServer(t, content)

	eng, bus := newTestEngine(t)
	ch, unsubscribe := bus.Subscribe(256)
	defer unsubscribe()

	dir := t.TempDir()
	meta := resumeMeta(srv.URL+"/file.bin", dir, int64(len(content)))
	require.NoError(t, os.WriteFile(meta.Temp, content[:500000], 0o644))
	eng.Register("dl-half", meta)

	require.NoError(t, eng.ResumeDownload(context.Background(), "dl-half", 2))

	// Only the tail is re-tiled; the present prefix is trusted.
	assert.Equal(t, []string{
		"bytes=500000-749999",
		"bytes=750000-999999",
	}, recordedRanges())

	got, err := os.ReadFile(meta.Dest)
	require.NoError(t, err)
	assert.True(t, bytes.Equal(content, got), "resumed content differs")

	_, err = os.Stat(meta.Temp)
	assert.True(t, os.IsNotExist(err), "part file should be gone after resume")

	evs := drainEvents(ch)
	assert.Equal(t, 1, countChannel(evs, events.ChannelCompleted))
	assert.Zero(t, countChannel(evs, events.ChannelFailed))
	assert.Equal(t, 0, eng.Registry().Len())
}

func TestResumeAlreadyComplete(t *testing.T) {
	content := testContent(4096)
	var requests atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		http.ServeContent(w, r, "file.bin", time.Time{}, bytes.NewReader(content))
	}))
	defer srv.Close()

	eng, bus := newTestEngine(t)
	ch, unsubscribe := bus.Subscribe(64)
	defer unsubscribe()

	dir := t.TempDir()
	meta := resumeMeta(srv.URL+"/file.bin", dir, int64(len(content)))
	require.NoError(t, os.WriteFile(meta.Temp, content, 0o644))
	eng.Register("dl-done", meta)

	require.NoError(t, eng.ResumeDownload(context.Background(), "dl-done", 4))

	assert.Zero(t, requests.Load(), "a complete part file must promote without any request")

	got, err := os.ReadFile(meta.Dest)
	require.NoError(t, err)
	assert.True(t, bytes.Equal(content, got))
	_, err = os.Stat(meta.Temp)
	assert.True(t, os.IsNotExist(err))

	evs := drainEvents(ch)
	assert.Equal(t, 1, countChannel(evs, events.ChannelCompleted))
	assert.Equal(t, 0, eng.Registry().Len())
}

func TestResumeReplacesStaleDest(t *testing.T) {
	content := testContent(2048)
	eng, _ := newTestEngine(t)

	dir := t.TempDir()
	meta := resumeMeta("http://unused.invalid/file.bin", dir, int64(len(content)))
	require.NoError(t, os.WriteFile(meta.Temp, content, 0o644))
	require.NoError(t, os.WriteFile(meta.Dest, []byte("stale"), 0o644))
	eng.Register("dl-stale", meta)

	require.NoError(t, eng.ResumeDownload(context.Background(), "dl-stale", 2))

	got, err := os.ReadFile(meta.Dest)
	require.NoError(t, err)
	assert.True(t, bytes.Equal(content, got))
}

func TestResumeFromNothing(t *testing.T) {
	content := testContent(300000)
	srv, recordedRanges := rangeServer(t, content)

	eng, _ := newTestEngine(t)
	dir := t.TempDir()
	meta := resumeMeta(srv.URL+"/file.bin", dir, int64(len(content)))
	// No part file at all: the whole interval is re-tiled.
	eng.Register("dl-zero", meta)

	require.NoError(t, eng.ResumeDownload(context.Background(), "dl-zero", 3))

	assert.Equal(t, []string{
		"bytes=0-99999",
		"bytes=100000-199999",
		"bytes=200000-299999",
	}, recordedRanges())

	got, err := os.ReadFile(meta.Dest)
	require.NoError(t, err)
	assert.True(t, bytes.Equal(content, got))
}

func TestResumeGuards(t *testing.T) {
	eng, _ := newTestEngine(t)
	ctx := context.Background()

	err := eng.ResumeDownload(ctx, "dl-missing", 2)
	assert.ErrorIs(t, err, ErrUnknownID)

	dir := t.TempDir()

	meta := resumeMeta("http://example.com/file.bin", dir, 1000)
	meta.AcceptRanges = false
	eng.Register("dl-noranges", meta)
	err = eng.ResumeDownload(ctx, "dl-noranges", 2)
	assert.ErrorIs(t, err, ErrNoRangeSupport)

	meta = resumeMeta("http://example.com/file.bin", dir, 0)
	meta.TotalKnown = false
	eng.Register("dl-nototal", meta)
	err = eng.ResumeDownload(ctx, "dl-nototal", 2)
	assert.ErrorIs(t, err, ErrUnknownTotal)
}
