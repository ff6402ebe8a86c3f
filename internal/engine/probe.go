package engine

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/Yunitra/AnyDownloadManager/internal/engine/types"
	"github.com/Yunitra/AnyDownloadManager/internal/utils"
)

// ProbeResult is the synchronous preview of a URL: what would be downloaded,
// where to, and how big it is.
type ProbeResult struct {
	Total       *int64 `json:"total,omitempty"`
	FileName    string `json:"file_name"`
	Category    string `json:"category"`
	DownloadDir string `json:"download_dir"`
}

// probeInfo is the engine-internal capability summary of a server.
type probeInfo struct {
	total        int64
	totalKnown   bool
	acceptRanges bool
	filename     string
}

// probe negotiates capabilities with the server: a HEAD for length, range
// support, and a suggested filename, then — only when the answers are
// inadequate — a one-byte ranged GET whose headers survive redirects and may
// carry the Content-Disposition and Content-Range the HEAD lacked. It never
// retries; the best information from the headers that did arrive wins.
func (e *Engine) probe(ctx context.Context, rawurl string) (probeInfo, error) {
	var info probeInfo

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, rawurl, nil)
	if err != nil {
		return info, fmt.Errorf("head request: %w", err)
	}
	req.Header.Set("User-Agent", e.ua)

	resp, err := e.probeClient.Do(req)
	if err != nil {
		return info, fmt.Errorf("head request: %w", err)
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()

	if v := resp.Header.Get("Content-Length"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n >= 0 {
			info.total = n
			info.totalKnown = true
		}
	}
	info.acceptRanges = strings.Contains(
		strings.ToLower(resp.Header.Get("Accept-Ranges")), "bytes")

	if name := utils.FilenameFromResponse(resp.Header); name != "" {
		info.filename = name
	} else {
		info.filename = utils.FilenameFromURL(rawurl)
	}
	if info.filename == "" || info.filename == "/" {
		info.filename = types.DefaultFilename
	}

	if !info.totalKnown || !strings.Contains(info.filename, ".") ||
		info.filename == types.DefaultFilename {
		e.refineProbe(ctx, rawurl, &info)
	}

	utils.Debug("probe %s: total=%d known=%v ranges=%v name=%q",
		rawurl, info.total, info.totalKnown, info.acceptRanges, info.filename)
	return info, nil
}

// refineProbe issues a Range: bytes=0-0 GET and patches whatever the HEAD
// left uncertain. Failures here are swallowed: the probe degrades to the
// HEAD's answers.
func (e *Engine) refineProbe(ctx context.Context, rawurl string, info *probeInfo) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawurl, nil)
	if err != nil {
		return
	}
	req.Header.Set("User-Agent", e.ua)
	req.Header.Set("Range", "bytes=0-0")

	resp, err := e.probeClient.Do(req)
	if err != nil {
		return
	}
	defer func() {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}()

	if name := utils.FilenameFromResponse(resp.Header); name != "" {
		info.filename = name
	}
	if resp.StatusCode == http.StatusPartialContent {
		info.acceptRanges = true
	}
	if !info.totalKnown {
		// Content-Range: bytes 0-0/TOTAL (or /* when the length is
		// genuinely unknown).
		cr := resp.Header.Get("Content-Range")
		if idx := strings.LastIndex(cr, "/"); idx != -1 {
			sizeStr := cr[idx+1:]
			if sizeStr != "*" {
				if n, err := strconv.ParseInt(sizeStr, 10, 64); err == nil && n >= 0 {
					info.total = n
					info.totalKnown = true
				}
			}
		}
	}
}

// ProbeURL previews a URL without starting anything: the advertised length,
// the filename the engine would pick, its category, and the directory the
// file would land in.
func (e *Engine) ProbeURL(ctx context.Context, rawurl string) (*ProbeResult, error) {
	info, err := e.probe(ctx, rawurl)
	if err != nil {
		return nil, err
	}
	result := &ProbeResult{
		FileName:    info.filename,
		Category:    utils.GuessCategory(info.filename),
		DownloadDir: DefaultDownloadDir(),
	}
	if info.totalKnown {
		total := info.total
		result.Total = &total
	}
	return result, nil
}
