package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/nxcore/internal/pipeline"
	"github.com/roach88/nxcore/internal/result"
)

func TestPrinter_ResultJSON(t *testing.T) {
	buf := &bytes.Buffer{}
	p := &Printer{JSON: true, Out: buf}

	require.NoError(t, p.Result(RunSummary{Output: "grains.db", Objects: 4}))

	var resp struct {
		Status string     `json:"status"`
		Data   RunSummary `json:"data"`
		Error  *ErrorBody `json:"error"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 4, resp.Data.Objects)
	assert.Nil(t, resp.Error)
}

func TestPrinter_ResultText(t *testing.T) {
	buf := &bytes.Buffer{}
	p := &Printer{Out: buf}

	require.NoError(t, p.Result(RunSummary{Output: "grains.db", Objects: 4}))
	require.NoError(t, p.Result("done"))
	assert.Equal(t, "✓ Wrote 4 object(s) to grains.db\ndone\n", buf.String())
}

func TestPrinter_PreflightResultKeepsReportShape(t *testing.T) {
	buf := &bytes.Buffer{}
	rep := pipeline.Report{Pipeline: "mask", Mode: "preflight", Nodes: []pipeline.NodeReport{{Filter: "create_data_group"}}}

	require.NoError(t, (&Printer{JSON: true, Out: buf}).Result(preflightResult{Report: rep, warnings: 2}))
	var resp struct {
		Data pipeline.Report `json:"data"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "mask", resp.Data.Pipeline)
	require.Len(t, resp.Data.Nodes, 1)

	buf.Reset()
	require.NoError(t, (&Printer{Out: buf}).Result(preflightResult{Report: rep, warnings: 2}))
	assert.Equal(t, "✓ Preflight passed (1 filter(s), 2 warning(s))\n", buf.String())
}

func TestPrinter_FailJSON(t *testing.T) {
	buf := &bytes.Buffer{}
	p := &Printer{JSON: true, Out: buf}

	loadErr := &pipeline.LoadError{Code: pipeline.ErrCodeUnknownFilter, Message: "step 1: unknown filter"}
	err := p.Fail(loadFailure("mask.yaml", loadErr))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, ExitCode(err))

	var resp Envelope
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, Code(pipeline.ErrCodeUnknownFilter), resp.Error.Code)
	assert.Equal(t, loadErr.Error(), resp.Error.Message)
	assert.Equal(t, map[string]any{"file": "mask.yaml"}, resp.Error.Details)
}

func TestPrinter_FailText(t *testing.T) {
	tests := []struct {
		name        string
		verbose     bool
		wantDetails bool
	}{
		{"quiet", false, false},
		{"verbose", true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			p := &Printer{Out: buf, Verbose: tt.verbose}

			f := commandFailure(CodeWrite, "write graph", errors.New("disk full"))
			f.Details = map[string]string{"file": "grains.db"}
			err := p.Fail(f)

			assert.Same(t, f, err)
			assert.Contains(t, buf.String(), "Error [E007]: disk full")
			if tt.wantDetails {
				assert.Contains(t, buf.String(), "Details:")
			} else {
				assert.NotContains(t, buf.String(), "Details:")
			}
		})
	}
}

func TestPrinter_Logf(t *testing.T) {
	tests := []struct {
		name    string
		verbose bool
		wantLog bool
	}{
		{"verbose_enabled", true, true},
		{"verbose_disabled", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := &bytes.Buffer{}
			diag := &bytes.Buffer{}
			p := &Printer{JSON: true, Out: out, Diag: diag, Verbose: tt.verbose}

			p.Logf("Loading %s", "mask.yaml")

			assert.Empty(t, out.String(), "diagnostics never go to stdout")
			if tt.wantLog {
				assert.Equal(t, "Loading mask.yaml\n", diag.String())
			} else {
				assert.Empty(t, diag.String())
			}
		})
	}
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitSuccess},
		{"plain error", errors.New("boom"), ExitFailure},
		{"command failure", commandFailure(CodeNotFound, "graph file not found", nil), ExitCommandError},
		{"wrapped run failure", fmt.Errorf("outer: %w", &Failure{Exit: ExitFailure, Code: CodeExecute, Op: "execute failed"}), ExitFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExitCode(tt.err))
		})
	}
}

func TestFailure_Error(t *testing.T) {
	cause := errors.New("disk full")
	f := commandFailure(CodeWrite, "write graph", cause)

	assert.Equal(t, "write graph: disk full", f.Error())
	assert.ErrorIs(t, f, cause)
	assert.Equal(t, "no cause", commandFailure(CodeGeneric, "no cause", nil).Error())
}

func TestLoadFailure_PlainErrorIsGeneric(t *testing.T) {
	f := loadFailure("mask.yaml", errors.New("other"))
	assert.Equal(t, CodeGeneric, f.Code)
	assert.Equal(t, ExitCommandError, f.Exit)
}

func TestRunFailure(t *testing.T) {
	rep := pipeline.Report{Pipeline: "mask", Mode: "execute"}

	assert.Nil(t, runFailure(CodeExecute, result.Ok(rep)))

	failed := result.Result[pipeline.Report]{
		Value:  rep,
		Errors: []*result.Error{{Kind: result.KindShapeMismatch, Code: -104, Message: "tuple count mismatch"}},
	}
	f := runFailure(CodeExecute, failed)
	require.NotNil(t, f)
	assert.Equal(t, CodeExecute, f.Code)
	assert.Equal(t, ExitFailure, f.Exit)
	assert.Equal(t, "execute failed", f.Op)
	assert.Equal(t, rep, f.Details)

	rep.Cancelled = true
	f = runFailure(CodeExecute, result.Ok(rep))
	require.NotNil(t, f)
	assert.Equal(t, CodeCancelled, f.Code)
	assert.Equal(t, "execute cancelled", f.Error())
}
