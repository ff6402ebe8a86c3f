package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var lsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List downloads",
	Long:  `List the downloads recorded in the history store, newest first.`,
	Run: func(cmd *cobra.Command, args []string) {
		app, err := newApp()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer app.Close()

		entries, err := app.history.List()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if len(entries) == 0 {
			fmt.Println("No downloads.")
			return
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tSIZE\tSTATUS")
		for _, e := range entries {
			size := "unknown"
			if e.TotalKnown {
				size = humanize.IBytes(uint64(e.TotalSize))
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", e.ID, e.Filename, size, e.Status)
		}
		w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(lsCmd)
}
