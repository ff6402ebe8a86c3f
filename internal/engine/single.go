package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync/atomic"
	"time"

	"github.com/Yunitra/AnyDownloadManager/internal/engine/events"
	"github.com/Yunitra/AnyDownloadManager/internal/engine/state"
	"github.com/Yunitra/AnyDownloadManager/internal/engine/types"
	"github.com/Yunitra/AnyDownloadManager/internal/utils"
)

// runSingle streams the whole body over one connection. It is the fallback
// for servers without a known length or range support, and for a worker
// count of one. Progress is emitted inline from the read loop rather than by
// the ticker the segmented path uses.
func (e *Engine) runSingle(ctx context.Context, id string, meta types.DownloadMeta, cancel *atomic.Bool) (string, error) {
	file, err := os.OpenFile(meta.Temp, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return "", e.failed(id, fmt.Errorf("open part file: %w", err))
	}
	defer file.Close()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, meta.URL, nil)
	if err != nil {
		return "", e.failed(id, fmt.Errorf("get request: %w", err))
	}
	req.Header.Set("User-Agent", e.ua)

	resp, err := e.streamClient.Do(req)
	if err != nil {
		return "", e.failed(id, fmt.Errorf("get request: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", e.failed(id, fmt.Errorf("unexpected status: %d", resp.StatusCode))
	}

	var total int64
	if meta.TotalKnown {
		total = meta.Total
	}

	var received int64
	lastBytes := int64(0)
	lastAt := time.Now()
	buf := make([]byte, types.WorkerBuffer)

	for {
		if cancel.Load() {
			break
		}
		n, readErr := resp.Body.Read(buf)
		if n > 0 {
			if _, err := file.Write(buf[:n]); err != nil {
				return "", e.failed(id, fmt.Errorf("write part file: %w", err))
			}
			received += int64(n)

			now := time.Now()
			if now.Sub(lastAt) >= types.StreamReportInterval {
				elapsed := now.Sub(lastAt).Seconds()
				if elapsed < 0.001 {
					elapsed = 0.001
				}
				e.bus.Emit(events.ChannelProgress, events.ProgressPayload{
					ID:       id,
					Received: received,
					Total:    total,
					Speed:    int64(float64(received-lastBytes) / elapsed),
				})
				lastBytes = received
				lastAt = now
			}
		}
		if readErr != nil {
			if errors.Is(readErr, io.EOF) {
				break
			}
			return "", e.failed(id, fmt.Errorf("read body: %w", readErr))
		}
	}

	if cancel.Load() {
		return "", e.canceled(id)
	}

	if received == 0 {
		err := errors.New("no data received")
		e.bus.Emit(events.ChannelFailed, events.FailedPayload{ID: id, Error: err.Error()})
		file.Close()
		removeIfExists(meta.Temp)
		e.reg.Remove(id)
		e.setHistoryStatus(id, state.StatusFailed)
		return "", err
	}

	file.Close()
	if err := finalize(meta.Temp, meta.Dest); err != nil {
		return "", e.failed(id, err)
	}
	utils.Debug("single %s: %d bytes -> %s", id, received, meta.Dest)
	e.complete(id, meta.Dest)
	return meta.Dest, nil
}
