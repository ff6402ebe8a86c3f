package clipboard

import (
	"context"
	"time"

	"github.com/Yunitra/AnyDownloadManager/internal/utils"
)

// Watch polls the clipboard and sends each newly copied http(s) URL to out.
// The same URL is not re-sent until something else was copied in between.
// Sends never block; if the consumer is behind, the URL is dropped.
func Watch(ctx context.Context, interval time.Duration, out chan<- string) {
	if interval <= 0 {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var last string
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		url := ReadURL()
		if url == "" {
			last = ""
			continue
		}
		if url == last {
			continue
		}
		last = url
		select {
		case out <- url:
			utils.Debug("clipboard url: %s", url)
		default:
		}
	}
}
