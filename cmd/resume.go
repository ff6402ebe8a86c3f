package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Yunitra/AnyDownloadManager/internal/engine"
)

var resumeCmd = &cobra.Command{
	Use:   "resume <id>",
	Short: "Resume an interrupted download",
	Long:  `Continue a download from its partial file. The download must be in the history and the server must support range requests.`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		app, err := newApp()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer app.Close()

		id := args[0]
		threads, _ := cmd.Flags().GetInt("threads")

		// The registry only knows downloads of this process; pull the
		// metadata back out of history first.
		entry, err := app.history.Get(id)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if entry == nil {
			fmt.Fprintf(os.Stderr, "Error: no download with id %s\n", id)
			os.Exit(1)
		}
		app.engine.Register(id, entry.Meta())

		err = followTransfer(app.bus, func() error {
			return app.engine.ResumeDownload(context.Background(), id, threads)
		}, func(id string) {
			_ = app.engine.CancelDownload(id)
		})

		switch {
		case errors.Is(err, engine.ErrCanceled):
			fmt.Println("Canceled. Partial file kept for resuming.")
			os.Exit(1)
		case err != nil:
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		default:
			printPath(entry.DestPath)
		}
	},
}

func init() {
	resumeCmd.Flags().IntP("threads", "n", 0, "number of parallel connections (1-32)")
	rootCmd.AddCommand(resumeCmd)
}
