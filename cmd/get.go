package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Yunitra/AnyDownloadManager/internal/engine"
)

var getCmd = &cobra.Command{
	Use:   "get <url>",
	Short: "Download a file",
	Long:  `Download a file using parallel range requests when the server supports them.`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		app, err := newApp()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer app.Close()

		threads, _ := cmd.Flags().GetInt("threads")
		output, _ := cmd.Flags().GetString("output")
		filename, _ := cmd.Flags().GetString("filename")

		var dest string
		err = followTransfer(app.bus, func() error {
			var runErr error
			dest, runErr = app.engine.StartDownload(context.Background(), engine.StartRequest{
				URL:      args[0],
				Threads:  app.threads(threads),
				DestDir:  app.destDir(output),
				FileName: filename,
			})
			return runErr
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
			printPath(dest)
		}
	},
}

func init() {
	getCmd.Flags().IntP("threads", "n", 0, "number of parallel connections (1-32)")
	getCmd.Flags().StringP("output", "o", "", "destination directory")
	getCmd.Flags().StringP("filename", "f", "", "override the output filename")
	rootCmd.AddCommand(getCmd)
}
