package cmd

import (
	"fmt"

	"github.com/KaramelBytes/churnviz-cli/internal/analysis"
	"github.com/KaramelBytes/churnviz-cli/internal/pipeline"
	"github.com/KaramelBytes/churnviz-cli/internal/utils"
	"github.com/spf13/cobra"
)

var (
	statsSheet  string
	statsOutput string
	statsJSON   bool
)

var statsCmd = &cobra.Command{
	Use:   "stats <file>",
	Short: "Print churn statistics without rendering charts",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		tbl, vr, err := loadTable(args[0], statsSheet, false)
		if err != nil {
			return fmt.Errorf("%s: %w", pipeline.Kind(err), err)
		}
		s, err := analysis.Summarize(tbl, vr)
		if err != nil {
			return fmt.Errorf("%s: %w", pipeline.Kind(err), err)
		}
		var data []byte
		if statsJSON {
			if data, err = utils.PrettyJSON(s); err != nil {
				return err
			}
		} else {
			data = []byte(s.Text())
		}
		if statsOutput == "" {
			_, err := cmd.OutOrStdout().Write(data)
			return err
		}
		if err := utils.SafeWriteFile(statsOutput, data); err != nil {
			return fmt.Errorf("write output: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s Wrote statistics to %s\n", styleOK.Render("✓"), statsOutput)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)
	statsCmd.Flags().StringVar(&statsSheet, "sheet", "", "XLSX: sheet name to read (default first sheet)")
	statsCmd.Flags().StringVarP(&statsOutput, "output", "o", "", "write statistics to this path instead of stdout")
	statsCmd.Flags().BoolVar(&statsJSON, "json", false, "emit JSON instead of the text report")
}
