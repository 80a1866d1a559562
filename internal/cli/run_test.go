package cli

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/nxcore/internal/datastore"
	"github.com/roach88/nxcore/internal/pipeline"
	"github.com/roach88/nxcore/internal/store"
	"github.com/roach88/nxcore/internal/structure"
	"github.com/roach88/nxcore/internal/testutil"
)

func readBack(t *testing.T, path string) *structure.DataStructure {
	t.Helper()
	st, err := store.Open(path)
	require.NoError(t, err)
	defer st.Close()
	ds, err := st.Read(context.Background())
	require.NoError(t, err)
	return ds
}

func TestRun_WritesGraph(t *testing.T) {
	dir := t.TempDir()
	pipelinePath := writeFile(t, dir, "mask.yaml", maskPipeline)
	out := filepath.Join(dir, "grains.db")

	stdout, err := execute(NewRunCommand(&RootOptions{Format: "text"}), "--out", out, pipelinePath)
	require.NoError(t, err)
	assert.Contains(t, stdout, "Pipeline mask (execute)")
	assert.Contains(t, stdout, "✓ Wrote 4 object(s) to "+out)

	ds := readBack(t, out)
	assert.Equal(t, []float64{3, 3, 3, 3, 3, 3, 3, 3}, testutil.Values(t, ds, "Image/CellData/Values"))
	assert.Equal(t, []float64{1, 1, 1, 1, 1, 1, 1, 1}, testutil.Values(t, ds, "Image/CellData/Mask"))
}

func TestRun_JSON(t *testing.T) {
	dir := t.TempDir()
	pipelinePath := writeFile(t, dir, "mask.yaml", maskPipeline)
	out := filepath.Join(dir, "grains.db")

	stdout, err := execute(NewRunCommand(&RootOptions{Format: "json"}), "--out", out, pipelinePath)
	require.NoError(t, err)

	var resp struct {
		Status string     `json:"status"`
		Data   RunSummary `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, out, resp.Data.Output)
	assert.Equal(t, 4, resp.Data.Objects)
	assert.Equal(t, "execute", resp.Data.Report.Mode)
}

func TestRun_OutOfCoreArrays(t *testing.T) {
	dir := t.TempDir()
	pipelinePath := writeFile(t, dir, "mask.yaml", maskPipeline)
	out := filepath.Join(dir, "grains.db")

	cfg := pipeline.DefaultConfig()
	cfg.ChunkDir = filepath.Join(dir, "chunks")
	cfg.OutOfCoreBytes = 16
	opts := &RootOptions{Format: "text", Pipeline: cfg}

	_, err := execute(NewRunCommand(opts), "--out", out, pipelinePath)
	require.NoError(t, err)

	ds := readBack(t, out)
	arr, err := structure.ResolveAs[*structure.DataArray](ds, testutil.Path("Image/CellData/Values"))
	require.NoError(t, err)
	assert.Equal(t, datastore.KindMemory, arr.Store().Kind(), "graph files always reload on the heap")
	assert.Equal(t, []float64{3, 3, 3, 3, 3, 3, 3, 3}, testutil.Values(t, ds, "Image/CellData/Values"))
}

func TestRun_FailingFilterWritesNothing(t *testing.T) {
	dir := t.TempDir()
	pipelinePath := writeFile(t, dir, "dup.yaml", duplicatePipeline)
	out := filepath.Join(dir, "dup.db")

	stdout, err := execute(NewRunCommand(&RootOptions{Format: "text"}), "--out", out, pipelinePath)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, ExitCode(err))
	assert.Contains(t, stdout, "Error [E202]")

	_, statErr := os.Stat(out)
	assert.True(t, os.IsNotExist(statErr), "no graph file after a failed run")
}

func TestRun_Cancelled(t *testing.T) {
	dir := t.TempDir()
	pipelinePath := writeFile(t, dir, "mask.yaml", maskPipeline)
	out := filepath.Join(dir, "grains.db")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cmd := NewRunCommand(&RootOptions{Format: "text"})
	cmd.SetContext(ctx)
	stdout, err := execute(cmd, "--out", out, pipelinePath)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, ExitCode(err))
	assert.Contains(t, stdout, "Error [E203]")

	_, statErr := os.Stat(out)
	assert.True(t, os.IsNotExist(statErr))
}

func TestRun_RequiresOut(t *testing.T) {
	pipelinePath := writeFile(t, t.TempDir(), "mask.yaml", maskPipeline)

	_, err := execute(NewRunCommand(&RootOptions{Format: "text"}), pipelinePath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "out")
}

func TestRun_OutputLocked(t *testing.T) {
	dir := t.TempDir()
	pipelinePath := writeFile(t, dir, "mask.yaml", maskPipeline)
	out := filepath.Join(dir, "grains.db")

	held, err := store.Open(out)
	require.NoError(t, err)
	defer held.Close()

	stdout, err := execute(NewRunCommand(&RootOptions{Format: "text"}), "--out", out, pipelinePath)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, ExitCode(err))
	assert.ErrorIs(t, err, store.ErrLocked)
	assert.Contains(t, stdout, "Error [E007]")
}
