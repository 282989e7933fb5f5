package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/KaramelBytes/churnviz-cli/internal/charts"
	"github.com/spf13/cobra"
)

var chartsCmd = &cobra.Command{
	Use:   "charts",
	Short: "List the chart catalog",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tFILE\tKIND\tTITLE")
		for _, d := range charts.Catalog {
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", d.ID, d.FileName(), d.Kind, d.Title)
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(chartsCmd)
}
