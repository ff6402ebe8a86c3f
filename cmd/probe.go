package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var probeCmd = &cobra.Command{
	Use:   "probe <url>",
	Short: "Inspect a URL without downloading",
	Long:  `Ask the server about a URL: size, suggested filename, category, and where it would be saved.`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		app, err := newApp()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer app.Close()

		result, err := app.engine.ProbeURL(context.Background(), args[0])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		size := "unknown"
		if result.Total != nil {
			size = humanize.IBytes(uint64(*result.Total))
		}
		fmt.Printf("Name:      %s\n", result.FileName)
		fmt.Printf("Size:      %s\n", size)
		fmt.Printf("Category:  %s\n", result.Category)
		fmt.Printf("Directory: %s\n", result.DownloadDir)
	},
}

func init() {
	rootCmd.AddCommand(probeCmd)
}
