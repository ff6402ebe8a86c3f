package engine

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProbeHeadOnly(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodHead {
			t.Errorf("unexpected %s request; the HEAD answered everything", r.Method)
		}
		w.Header().Set("Content-Length", "4096")
		w.Header().Set("Accept-Ranges", "bytes")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	eng, _ := newTestEngine(t)
	info, err := eng.probe(context.Background(), srv.URL+"/data.iso")
	require.NoError(t, err)
	assert.True(t, info.totalKnown)
	assert.Equal(t, int64(4096), info.total)
	assert.True(t, info.acceptRanges)
	assert.Equal(t, "data.iso", info.filename)
}

func TestProbeExtendedFilenameWins(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", "1234")
		w.Header().Set("Content-Disposition",
			`attachment; filename="fallback.bin"; filename*=UTF-8''%E4%B8%AD%E6%96%87.zip`)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	eng, _ := newTestEngine(t)
	result, err := eng.ProbeURL(context.Background(), srv.URL+"/whatever")
	require.NoError(t, err)
	assert.Equal(t, "中文.zip", result.FileName)
	assert.Equal(t, "compressed", result.Category)
	require.NotNil(t, result.Total)
	assert.Equal(t, int64(1234), *result.Total)
	assert.NotEmpty(t, result.DownloadDir)
}

func TestProbeRefinesWithRangedGet(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodHead:
			// Nothing useful: no length, no disposition.
			w.WriteHeader(http.StatusOK)
			w.(http.Flusher).Flush()
		case http.MethodGet:
			assert.Equal(t, "bytes=0-0", r.Header.Get("Range"))
			w.Header().Set("Content-Disposition", `attachment; filename="report.pdf"`)
			w.Header().Set("Content-Range", "bytes 0-0/777216")
			w.Header().Set("Content-Length", "1")
			w.WriteHeader(http.StatusPartialContent)
			w.Write([]byte{0})
		}
	}))
	defer srv.Close()

	eng, _ := newTestEngine(t)
	result, err := eng.ProbeURL(context.Background(), srv.URL+"/download")
	require.NoError(t, err)
	assert.Equal(t, "report.pdf", result.FileName)
	assert.Equal(t, "document", result.Category)
	require.NotNil(t, result.Total)
	assert.Equal(t, int64(777216), *result.Total)
}

func TestProbeUnknownTotalStar(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodHead:
			w.WriteHeader(http.StatusOK)
			w.(http.Flusher).Flush()
		case http.MethodGet:
			w.Header().Set("Content-Range", "bytes 0-0/*")
			w.Header().Set("Content-Length", "1")
			w.WriteHeader(http.StatusPartialContent)
			w.Write([]byte{0})
		}
	}))
	defer srv.Close()

	eng, _ := newTestEngine(t)
	result, err := eng.ProbeURL(context.Background(), srv.URL+"/stream")
	require.NoError(t, err)
	assert.Nil(t, result.Total, "a starred Content-Range total stays unknown")
}

func TestProbeFilenameFromURLFallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", strconv.Itoa(512))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	eng, _ := newTestEngine(t)
	result, err := eng.ProbeURL(context.Background(), srv.URL+"/files/%E4%B8%AD%E6%96%87.zip?token=x")
	require.NoError(t, err)
	assert.Equal(t, "中文.zip", result.FileName)
}
