package cmd

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/KaramelBytes/churnviz-cli/internal/testutil"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// resetFlags clears values and Changed state that cobra keeps between
// Execute calls in one process.
func resetFlags(c *cobra.Command) {
	reset := func(fl *pflag.Flag) {
		if sv, ok := fl.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = fl.Value.Set(fl.DefValue)
		}
		fl.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

// execCmd runs the root command with args and returns stdout and the error.
func execCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

// mustRun is execCmd that fails the test on error.
func mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := execCmd(t, args...)
	if err != nil {
		t.Fatalf("command %v failed: %v\n%s", args, err, out)
	}
	return out
}

// isolate points HOME and the working directory at a temp dir.
func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Chdir(home)
	return home
}

func TestCLI_RunRendersSelectedCharts(t *testing.T) {
	home := isolate(t)
	input := testutil.WriteSample(t)
	outDir := filepath.Join(home, "out")

	out := mustRun(t, "run", input, "-o", outDir, "--dpi", "30", "--charts", "1,2", "--xlsx")
	if !strings.Contains(out, "2 of 2 generated") {
		t.Fatalf("missing summary line:\n%s", out)
	}
	for _, name := range []string{"01_churn_distribution_pie.png", "02_churn_by_contract.png", "summary_statistics.txt", "manifest.json", "chart_data.xlsx"} {
		if _, err := os.Stat(filepath.Join(outDir, name)); err != nil {
			t.Fatalf("expected %s: %v", name, err)
		}
	}
	if _, err := os.Stat(filepath.Join(outDir, "03_churn_by_support_calls.png")); err == nil {
		t.Fatalf("chart 3 was not selected")
	}
	for _, name := range []string{"01_churn_distribution_pie.png (", "chart_data.xlsx (", "manifest.json ("} {
		if !strings.Contains(out, "  - "+name) {
			t.Fatalf("created file %q not listed:\n%s", name, out)
		}
	}
	if !strings.Contains(out, " KB)") {
		t.Fatalf("file sizes not listed:\n%s", out)
	}
}

func TestCLI_RootBehavesLikeRun(t *testing.T) {
	home := isolate(t)
	input := testutil.WriteSample(t)
	outDir := filepath.Join(home, "out")

	out := mustRun(t, input, "-o", outDir, "--dpi", "30", "--charts", "1", "--no-summary", "-q")
	if !strings.Contains(out, "1 of 1 generated") {
		t.Fatalf("missing summary line:\n%s", out)
	}
	if strings.Contains(out, "Rendering") || strings.Contains(out, "Created files") {
		t.Fatalf("quiet run printed progress:\n%s", out)
	}
	if _, err := os.Stat(filepath.Join(outDir, "summary_statistics.txt")); err == nil {
		t.Fatalf("--no-summary still wrote the report")
	}
}

func TestCLI_FailOnPartial(t *testing.T) {
	home := isolate(t)
	rows := testutil.Filter(testutil.SampleRowsData(), func(r testutil.Row) bool { return r.Payment != "Electronic" })
	input := testutil.WriteCSV(t, "no_electronic.csv", testutil.CSV(rows))
	outDir := filepath.Join(home, "out")

	out := mustRun(t, "run", input, "-o", outDir, "--dpi", "30", "--charts", "1,4")
	if !strings.Contains(out, "1 of 2 generated") || !strings.Contains(out, "04_churn_by_payment.png: EmptyGroup") {
		t.Fatalf("unexpected output:\n%s", out)
	}

	_, err := execCmd(t, "run", input, "-o", outDir, "--dpi", "30", "--charts", "1,4", "--fail-on-partial")
	if !errors.Is(err, ErrPartial) {
		t.Fatalf("expected ErrPartial, got %v", err)
	}
}

func TestCLI_RunMissingInput(t *testing.T) {
	home := isolate(t)
	_, err := execCmd(t, "run", filepath.Join(home, "nope.csv"))
	if err == nil || !strings.Contains(err.Error(), "NotFound") {
		t.Fatalf("expected NotFound, got %v", err)
	}
}

func TestCLI_ValidateAndStats(t *testing.T) {
	isolate(t)
	content := testutil.Header + "\n" +
		"C1,30,12,50.00,600.00,2,1,One year,Electronic,1\n" +
		"C2,abc,24,70.00,1680.00,1,0,Month-to-month,Credit card,0\n"
	input := testutil.WriteCSV(t, "small.csv", content)

	out := mustRun(t, "validate", input)
	if !strings.Contains(out, "1 anomalies") || !strings.Contains(out, "2 rows valid") {
		t.Fatalf("unexpected validate output:\n%s", out)
	}

	out = mustRun(t, "stats", input)
	if !strings.Contains(out, "[OVERALL CHURN]") || !strings.Contains(out, "Churned: 1 of 2 (50.0%)") {
		t.Fatalf("unexpected stats output:\n%s", out)
	}

	out = mustRun(t, "stats", input, "--json")
	if !strings.Contains(out, `"Rows": 2`) {
		t.Fatalf("unexpected stats json:\n%s", out)
	}
}

func TestCLI_ChartsList(t *testing.T) {
	isolate(t)
	out := mustRun(t, "charts")
	if !strings.Contains(out, "10_dashboard_overview.png") || strings.Count(out, "\n") != 11 {
		t.Fatalf("unexpected catalog listing:\n%s", out)
	}
}

func TestCLI_ConfigSetShow(t *testing.T) {
	home := isolate(t)
	mustRun(t, "config", "init")
	if _, err := os.Stat(filepath.Join(home, ".churnviz", "config.yaml")); err != nil {
		t.Fatalf("config not written: %v", err)
	}
	mustRun(t, "config", "set", "dpi", "150")
	out := mustRun(t, "config", "show")
	if !strings.Contains(out, "dpi: 150") {
		t.Fatalf("dpi not persisted:\n%s", out)
	}
	if _, err := execCmd(t, "config", "set", "charts", "99"); err == nil {
		t.Fatalf("expected error for unknown chart id")
	}
}
