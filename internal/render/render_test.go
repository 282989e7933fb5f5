package render

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/KaramelBytes/churnviz-cli/internal/charts"
	"github.com/KaramelBytes/churnviz-cli/internal/dataset"
	"github.com/KaramelBytes/churnviz-cli/internal/testutil"
	"github.com/stretchr/testify/require"
)

var pngMagic = []byte("\x89PNG\r\n\x1a\n")

func prepared(t *testing.T) []*charts.ChartData {
	t.Helper()
	raw, err := dataset.Load(testutil.WriteSample(t), dataset.LoadOptions{})
	require.NoError(t, err)
	tbl, _, err := dataset.Validate(raw, dataset.ValidateOptions{})
	require.NoError(t, err)
	var out []*charts.ChartData
	for _, d := range charts.Catalog {
		cd, err := charts.Prepare(tbl, d, charts.DefaultPalette())
		require.NoError(t, err)
		out = append(out, cd)
	}
	return out
}

func TestPNG_RendersEveryCatalogChart(t *testing.T) {
	dir := t.TempDir()
	r := PNG{DPI: 50}
	for _, cd := range prepared(t) {
		path := filepath.Join(dir, cd.Descriptor.FileName())
		require.NoError(t, r.Render(context.Background(), cd, path), cd.Descriptor.FileName())
		b, err := os.ReadFile(path)
		require.NoError(t, err)
		require.True(t, bytes.HasPrefix(b, pngMagic), "%s is not a PNG", path)
	}
}

func TestPNG_WriteFailure(t *testing.T) {
	cd := prepared(t)[0]
	path := filepath.Join(t.TempDir(), "missing", "01.png")
	err := PNG{DPI: 50}.Render(context.Background(), cd, path)
	require.ErrorIs(t, err, ErrWriteFailure)
	var we *WriteError
	require.ErrorAs(t, err, &we)
	require.Equal(t, path, we.Path)
}

func TestPNG_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := PNG{}.Render(ctx, prepared(t)[0], filepath.Join(t.TempDir(), "x.png"))
	require.True(t, errors.Is(err, context.Canceled), "got %v", err)
}

func TestPNG_RejectsUnknownKind(t *testing.T) {
	cd := &charts.ChartData{Descriptor: charts.Descriptor{ID: 99, Slug: "x", Kind: "radar", Figure: charts.Figure{Width: 2, Height: 2}}}
	err := PNG{DPI: 20}.Render(context.Background(), cd, filepath.Join(t.TempDir(), "x.png"))
	require.ErrorContains(t, err, "unsupported chart kind")
	require.NotErrorIs(t, err, ErrWriteFailure)
}
