package cmd

import (
	"fmt"
	"io"

	"github.com/KaramelBytes/churnviz-cli/internal/dataset"
	"github.com/KaramelBytes/churnviz-cli/internal/pipeline"
	"github.com/spf13/cobra"
)

var (
	valSheet  string
	valStrict bool
)

var validateCmd = &cobra.Command{
	Use:   "validate <file>",
	Short: "Check a dataset against the expected schema and list anomalies",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		tbl, vr, err := loadTable(args[0], valSheet, valStrict)
		if vr != nil {
			printValidation(cmd.OutOrStdout(), vr)
		}
		if err != nil {
			return fmt.Errorf("%s: %w", pipeline.Kind(err), err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s %d rows valid for charting\n", styleOK.Render("✓"), tbl.Len())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
	validateCmd.Flags().StringVar(&valSheet, "sheet", "", "XLSX: sheet name to read (default first sheet)")
	validateCmd.Flags().BoolVar(&valStrict, "strict", false, "fail when any churn flag is not 0 or 1")
}

// loadTable runs the load and validate stages shared by validate and stats.
func loadTable(path, sheet string, strict bool) (*dataset.Table, *dataset.ValidationReport, error) {
	raw, err := dataset.Load(path, dataset.LoadOptions{Sheet: sheet})
	if err != nil {
		return nil, nil, fmt.Errorf("load: %w", err)
	}
	tbl, vr, err := dataset.Validate(raw, dataset.ValidateOptions{Strict: strict})
	if err != nil {
		return nil, vr, fmt.Errorf("validate: %w", err)
	}
	return tbl, vr, nil
}

func printValidation(w io.Writer, vr *dataset.ValidationReport) {
	fmt.Fprintf(w, "%s %s (%d rows)\n", styleTitle.Render("Validation"), vr.Source, vr.Rows)
	if len(vr.ExtraColumns) > 0 {
		fmt.Fprintf(w, "%s ignoring extra columns: %v\n", styleWarn.Render("⚠ Warning:"), vr.ExtraColumns)
	}
	if vr.Total == 0 {
		fmt.Fprintln(w, "No anomalies.")
		return
	}
	fmt.Fprintf(w, "%s %d anomalies, %d cells coerced to missing\n", styleWarn.Render("⚠ Warning:"), vr.Total, vr.CoercedCells())
	for _, k := range vr.Kinds() {
		fmt.Fprintf(w, "  - %s: %d\n", k, vr.ByKind[k])
	}
	for _, a := range vr.Samples {
		fmt.Fprintln(w, styleDim.Render("    "+a.String()))
	}
	if vr.Total > len(vr.Samples) {
		fmt.Fprintln(w, styleDim.Render(fmt.Sprintf("    ... %d more", vr.Total-len(vr.Samples))))
	}
}
