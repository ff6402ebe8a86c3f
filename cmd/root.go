package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Yunitra/AnyDownloadManager/internal/bridge"
	"github.com/Yunitra/AnyDownloadManager/internal/clipboard"
	"github.com/Yunitra/AnyDownloadManager/internal/engine"
	"github.com/Yunitra/AnyDownloadManager/internal/engine/events"
	"github.com/Yunitra/AnyDownloadManager/internal/utils"
)

// Version information - set via ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
)

var verboseFlag bool

var rootCmd = &cobra.Command{
	Use:     "adm",
	Short:   "A multi-connection download manager",
	Long:    `adm fetches files over parallel HTTP range requests, with resume support and a localhost bridge for browser extensions.`,
	Version: Version,
	Run: func(cmd *cobra.Command, args []string) {
		isMaster, err := AcquireLock()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error acquiring lock: %v\n", err)
			os.Exit(1)
		}
		if !isMaster {
			fmt.Fprintln(os.Stderr, "Error: adm is already running.")
			os.Exit(1)
		}
		defer ReleaseLock()

		if err := runDaemon(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	},
}

// runDaemon hosts the engine: it serves the localhost bridge, optionally
// watches the clipboard, and starts a download for every URL that arrives.
func runDaemon() error {
	app, err := newApp()
	if err != nil {
		return err
	}
	defer app.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	addCh := make(chan bridge.AddRequest, 16)
	srv := bridge.New(app.settings.Network.BridgeAddr, addCh)
	if err := srv.Start(); err != nil {
		return err
	}
	defer func() {
		shutdownCtx, done := context.WithTimeout(context.Background(), 3*time.Second)
		defer done()
		_ = srv.Shutdown(shutdownCtx)
	}()

	clipCh := make(chan string, 4)
	if app.settings.General.ClipboardMonitor {
		go clipboard.Watch(ctx, time.Second, clipCh)
	}

	eventCh, unsubscribe := app.bus.Subscribe(128)
	defer unsubscribe()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	fmt.Printf("adm %s listening on %s\n", Version, app.settings.Network.BridgeAddr)
	fmt.Println("Press Ctrl+C to exit.")

	start := func(url string) {
		go func() {
			_, err := app.engine.StartDownload(ctx, engine.StartRequest{
				URL:     url,
				Threads: app.settings.Network.DefaultThreads,
				DestDir: app.settings.General.DefaultDownloadDir,
			})
			if err != nil {
				utils.Debug("daemon download %s: %v", url, err)
			}
		}()
	}

	for {
		select {
		case <-sigCh:
			fmt.Println("\nShutting down...")
			return nil
		case req := <-addCh:
			fmt.Printf("Queued %s\n", req.URL)
			start(req.URL)
		case url := <-clipCh:
			fmt.Printf("Clipboard: %s\n", url)
			start(url)
		case ev := <-eventCh:
			printEvent(ev)
		}
	}
}

// printEvent renders one bus event as a daemon log line. Progress ticks are
// skipped; they are for interactive frontends.
func printEvent(ev events.Event) {
	switch p := ev.Payload.(type) {
	case events.StartedPayload:
		fmt.Printf("[%s] started %s -> %s\n", p.ID, p.URL, p.FileName)
	case events.CompletedPayload:
		fmt.Printf("[%s] completed %s\n", p.ID, p.Path)
	case events.FailedPayload:
		fmt.Printf("[%s] failed: %s\n", p.ID, p.Error)
	case events.CanceledPayload:
		fmt.Printf("[%s] canceled\n", p.ID)
	}
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "enable debug logging")
	cobra.OnInitialize(func() {
		utils.SetVerbose(verboseFlag)
	})
}
