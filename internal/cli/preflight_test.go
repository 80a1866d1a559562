package cli

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/nxcore/internal/pipeline"
)

func TestPreflight_Text(t *testing.T) {
	path := writeFile(t, t.TempDir(), "mask.yaml", maskPipeline)

	out, err := execute(NewPreflightCommand(&RootOptions{Format: "text"}), path)
	require.NoError(t, err)

	assert.Contains(t, out, "Pipeline mask (preflight)")
	assert.Contains(t, out, "[0] create_image_geometry")
	assert.Contains(t, out, "+ CreateImageGeometry Image")
	assert.Contains(t, out, "cells = 8")
	assert.Contains(t, out, "[2] threshold_array")
	assert.Contains(t, out, "✓ Preflight passed (3 filter(s), 0 warning(s))")
}

func TestPreflight_JSON(t *testing.T) {
	path := writeFile(t, t.TempDir(), "mask.yaml", maskPipeline)

	out, err := execute(NewPreflightCommand(&RootOptions{Format: "json"}), path)
	require.NoError(t, err)

	var resp struct {
		Status string          `json:"status"`
		Data   pipeline.Report `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "mask", resp.Data.Pipeline)
	assert.Equal(t, "preflight", resp.Data.Mode)
	require.Len(t, resp.Data.Nodes, 3)
	assert.Equal(t, "create_data_array", resp.Data.Nodes[1].Filter)
}

func TestPreflight_FailingFilter(t *testing.T) {
	path := writeFile(t, t.TempDir(), "dup.yaml", duplicatePipeline)

	out, err := execute(NewPreflightCommand(&RootOptions{Format: "text"}), path)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, ExitCode(err))
	assert.Contains(t, out, "[1] create_data_group")
	assert.Contains(t, out, "Error [E201]")
	assert.Contains(t, out, "filter 1 (create_data_group)")
	assert.NotContains(t, out, "Preflight passed")
}

func TestPreflight_FailingFilterJSON(t *testing.T) {
	path := writeFile(t, t.TempDir(), "dup.yaml", duplicatePipeline)

	out, err := execute(NewPreflightCommand(&RootOptions{Format: "json"}), path)
	require.Error(t, err)

	var resp Envelope
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, CodePreflight, resp.Error.Code)
	assert.NotNil(t, resp.Error.Details, "the partial report is attached")
}

func TestPreflight_LoadErrors(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name string
		path string
		code string
	}{
		{"missing file", filepath.Join(dir, "nope.yaml"), pipeline.ErrCodeRead},
		{"unknown filter", writeFile(t, dir, "unknown.yaml", "pipeline:\n  - filter: sharpen_image\n"), pipeline.ErrCodeUnknownFilter},
		{"unsupported extension", writeFile(t, dir, "mask.txt", maskPipeline), pipeline.ErrCodeFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := execute(NewPreflightCommand(&RootOptions{Format: "text"}), tt.path)
			require.Error(t, err)
			assert.Equal(t, ExitCommandError, ExitCode(err))
			assert.Contains(t, out, "Error ["+tt.code+"]")
		})
	}
}

func TestPreflight_RequiresOneArgument(t *testing.T) {
	_, err := execute(NewPreflightCommand(&RootOptions{Format: "text"}))
	require.Error(t, err)
}
