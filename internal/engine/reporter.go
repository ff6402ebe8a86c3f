package engine

import (
	"sync/atomic"
	"time"

	"github.com/Yunitra/AnyDownloadManager/internal/engine/events"
	"github.com/Yunitra/AnyDownloadManager/internal/engine/types"
)

// reportProgress ticks every half second, publishing the shared byte counter
// and the throughput since the previous tick. seed is the byte count already
// on disk when the run started, so the first tick's delta reflects only new
// bytes. The loop exits once the counter reaches total, the cancel flag is
// raised, or the coordinator closes stop (which it does after joining the
// workers, so a failed run cannot leave the reporter behind).
func (e *Engine) reportProgress(id string, total int64, counter *atomic.Int64, cancel *atomic.Bool, seed int64, stop <-chan struct{}) {
	ticker := time.NewTicker(types.ReportInterval)
	defer ticker.Stop()

	last := seed
	lastAt := time.Now()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
		}

		cur := counter.Load()
		now := time.Now()
		elapsed := now.Sub(lastAt).Seconds()
		if elapsed < 0.001 {
			elapsed = 0.001
		}
		speed := int64(float64(cur-last) / elapsed)

		e.bus.Emit(events.ChannelProgress, events.ProgressPayload{
			ID:       id,
			Received: cur,
			Total:    total,
			Speed:    speed,
		})

		last = cur
		lastAt = now

		if cur >= total || cancel.Load() {
			return
		}
	}
}
