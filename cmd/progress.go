package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"

	"github.com/Yunitra/AnyDownloadManager/internal/engine/events"
)

// followTransfer runs one transfer while rendering its events as a terminal
// progress bar. fn is the blocking engine call; onInterrupt receives the
// download id when the user hits Ctrl+C.
func followTransfer(bus *events.Bus, fn func() error, onInterrupt func(id string)) error {
	eventCh, unsubscribe := bus.Subscribe(128)
	defer unsubscribe()

	errCh := make(chan error, 1)
	go func() {
		errCh <- fn()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	progress := mpb.New(mpb.WithWidth(64))
	var bar *mpb.Bar
	var id string

	finishBar := func(abort bool) {
		if bar == nil {
			return
		}
		if abort {
			bar.Abort(true)
		} else {
			// Progress events may lag the final byte count; snap the
			// bar shut so Wait cannot hang on a near-full bar.
			bar.SetTotal(-1, true)
		}
		bar = nil
	}

	for {
		select {
		case <-sigCh:
			if id != "" && onInterrupt != nil {
				onInterrupt(id)
			}
		case ev := <-eventCh:
			switch p := ev.Payload.(type) {
			case events.StartedPayload:
				id = p.ID
				var total int64
				if p.Total != nil {
					total = *p.Total
				}
				name := p.FileName
				bar = progress.New(total,
					mpb.BarStyle(),
					mpb.PrependDecorators(
						decor.Name(name, decor.WC{W: len(name) + 1, C: decor.DidentRight}),
						decor.CountersKibiByte("% .2f / % .2f"),
					),
					mpb.AppendDecorators(
						decor.AverageSpeed(decor.SizeB1024(0), "% .2f"),
					),
				)
			case events.ProgressPayload:
				if bar != nil {
					bar.SetCurrent(p.Received)
				}
			case events.CompletedPayload:
				finishBar(false)
			case events.FailedPayload, events.CanceledPayload:
				finishBar(true)
			}
		case err := <-errCh:
			finishBar(err != nil)
			progress.Wait()
			return err
		}
	}
}

// printPath reports where a finished download landed.
func printPath(path string) {
	fmt.Printf("Saved to %s\n", path)
}
