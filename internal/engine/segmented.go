package engine

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"sync"
	"sync/atomic"

	"github.com/Yunitra/AnyDownloadManager/internal/engine/events"
	"github.com/Yunitra/AnyDownloadManager/internal/engine/state"
	"github.com/Yunitra/AnyDownloadManager/internal/engine/types"
	"github.com/Yunitra/AnyDownloadManager/internal/utils"
)

// segment is one worker's inclusive byte interval.
type segment struct {
	start int64
	end   int64
}

// tileSegments splits [from, total) into at most n disjoint intervals of
// ceil((total-from)/n) bytes. The last one absorbs the remainder; trailing
// empty tiles are skipped.
func tileSegments(from, total int64, n int) []segment {
	remaining := total - from
	if remaining <= 0 || n <= 0 {
		return nil
	}
	chunk := (remaining + int64(n) - 1) / int64(n)
	var segs []segment
	for i := 0; i < n; i++ {
		start := from + int64(i)*chunk
		if start >= total {
			break
		}
		end := start + chunk - 1
		if end > total-1 {
			end = total - 1
		}
		segs = append(segs, segment{start: start, end: end})
	}
	return segs
}

var bufPool = sync.Pool{
	New: func() any {
		buf := make([]byte, types.WorkerBuffer)
		return &buf
	},
}

// newTransferClient builds an http.Client tuned for parallel range requests:
// HTTP/1.1 is forced so each worker really gets its own TCP connection.
func newTransferClient(numConns int) *http.Client {
	maxConns := types.PerHostMax
	if numConns > maxConns {
		maxConns = numConns
	}
	transport := &http.Transport{
		MaxIdleConns:        types.DefaultMaxIdleConns,
		MaxIdleConnsPerHost: maxConns + 2,
		MaxConnsPerHost:     maxConns,

		IdleConnTimeout:       types.DefaultIdleConnTimeout,
		TLSHandshakeTimeout:   types.DefaultTLSHandshakeTimeout,
		ResponseHeaderTimeout: types.DefaultResponseHeaderTimeout,
		ExpectContinueTimeout: types.DefaultExpectContinueTimeout,

		// Files are usually compressed already.
		DisableCompression: true,
		ForceAttemptHTTP2:  false,
		TLSNextProto:       make(map[string]func(authority string, c *tls.Conn) http.RoundTripper),

		DialContext: (&net.Dialer{
			Timeout:   types.DialTimeout,
			KeepAlive: types.KeepAliveDuration,
		}).DialContext,
	}
	return &http.Client{Transport: transport}
}

// runSegmented downloads [resumeFrom, total) with up to threads parallel
// range workers writing into a pre-sized part file. resumeFrom is 0 for a
// fresh transfer; resuming seeds it (and the shared counter) with the bytes
// already on disk.
func (e *Engine) runSegmented(ctx context.Context, id string, meta types.DownloadMeta, threads int, cancel *atomic.Bool, resumeFrom int64) error {
	total := meta.Total

	if total == 0 {
		err := errors.New("empty content")
		e.bus.Emit(events.ChannelFailed, events.FailedPayload{ID: id, Error: err.Error()})
		removeIfExists(meta.Temp)
		e.reg.Remove(id)
		e.setHistoryStatus(id, state.StatusFailed)
		return err
	}

	// Pre-size the part file so workers can write their ranges in any
	// order. A fresh transfer truncates; a resume must keep the prefix.
	flags := os.O_CREATE | os.O_WRONLY
	if resumeFrom == 0 {
		flags |= os.O_TRUNC
	}
	file, err := os.OpenFile(meta.Temp, flags, 0o644)
	if err != nil {
		return e.failed(id, fmt.Errorf("open part file: %w", err))
	}
	if err := file.Truncate(total); err != nil {
		file.Close()
		return e.failed(id, fmt.Errorf("pre-allocate part file: %w", err))
	}
	file.Close()

	segs := tileSegments(resumeFrom, total, threads)

	var counter atomic.Int64
	counter.Store(resumeFrom)

	client := newTransferClient(len(segs))

	stop := make(chan struct{})
	reporterDone := make(chan struct{})
	go func() {
		defer close(reporterDone)
		e.reportProgress(id, total, &counter, cancel, resumeFrom, stop)
	}()

	utils.Debug("segmented %s: %d workers over [%d,%d)", id, len(segs), resumeFrom, total)

	errs := make([]error, len(segs))
	var wg sync.WaitGroup
	for i, seg := range segs {
		wg.Add(1)
		go func(i int, seg segment) {
			defer wg.Done()
			errs[i] = e.rangeWorker(ctx, client, meta.URL, meta.Temp, seg, &counter, cancel)
		}(i, seg)
	}
	wg.Wait()

	// All workers have been joined; release the reporter and wait for its
	// last tick.
	close(stop)
	<-reporterDone

	// The lowest-indexed worker's error stands in for the run when
	// several fail.
	var workerErr error
	for _, err := range errs {
		if err != nil {
			workerErr = err
			break
		}
	}

	switch {
	case cancel.Load():
		return e.canceled(id)
	case workerErr != nil:
		return e.failed(id, workerErr)
	case counter.Load() < total:
		return e.failed(id, fmt.Errorf("incomplete: %d < %d", counter.Load(), total))
	}

	if err := finalize(meta.Temp, meta.Dest); err != nil {
		return e.failed(id, err)
	}
	e.complete(id, meta.Dest)
	return nil
}

// rangeWorker fetches one byte range and writes it at its offset in the part
// file. The worker owns its own file handle; ranges are disjoint so no
// cross-worker synchronization is needed beyond the shared counter.
func (e *Engine) rangeWorker(ctx context.Context, client *http.Client, rawurl, temp string, seg segment, counter *atomic.Int64, cancel *atomic.Bool) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawurl, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", e.ua)
	req.Header.Set("Range", fmt.Sprintf("bytes=%d-%d", seg.start, seg.end))

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("range get: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusPartialContent &&
		(resp.StatusCode < 200 || resp.StatusCode > 299) {
		return fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	file, err := os.OpenFile(temp, os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open part file: %w", err)
	}
	defer file.Close()

	bufPtr := bufPool.Get().(*[]byte)
	defer bufPool.Put(bufPtr)
	buf := *bufPtr

	offset := seg.start
	for {
		if cancel.Load() {
			return nil
		}
		n, readErr := resp.Body.Read(buf)
		if n > 0 {
			if _, err := file.WriteAt(buf[:n], offset); err != nil {
				return fmt.Errorf("write part file: %w", err)
			}
			offset += int64(n)
			counter.Add(int64(n))
		}
		if readErr != nil {
			// A clean end of body is success for however much the
			// server chose to send; the coordinator's counter
			// check catches short deliveries.
			if errors.Is(readErr, io.EOF) {
				return nil
			}
			return fmt.Errorf("read body: %w", readErr)
		}
	}
}
