package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/roach88/nxcore/internal/pipeline"
	"github.com/roach88/nxcore/internal/result"
)

// Exit statuses of the nxcore binary.
const (
	ExitSuccess      = 0
	ExitFailure      = 1 // a filter failed or the run was cancelled
	ExitCommandError = 2 // bad flags, unreadable pipeline, missing or unwritable graph file
)

// Code classifies a failure in command output. Pipeline file errors report
// their P-code instead.
type Code string

const (
	CodeGeneric   Code = "E001"
	CodeNotFound  Code = "E005"
	CodeWrite     Code = "E007"
	CodeRead      Code = "E008"
	CodePreflight Code = "E201"
	CodeExecute   Code = "E202"
	CodeCancelled Code = "E203"
)

// Failure is the error a command returns when it stops early. Exit is the
// process status; Code and Details are what the user sees.
type Failure struct {
	Exit    int
	Code    Code
	Op      string
	Err     error
	Details any
}

func (f *Failure) Error() string {
	if f.Err == nil {
		return f.Op
	}
	return f.Op + ": " + f.Err.Error()
}

func (f *Failure) Unwrap() error { return f.Err }

// message is the cause when there is one, the operation otherwise.
func (f *Failure) message() string {
	if f.Err == nil {
		return f.Op
	}
	return f.Err.Error()
}

// commandFailure reports a problem with a command's inputs or outputs.
func commandFailure(code Code, op string, err error) *Failure {
	return &Failure{Exit: ExitCommandError, Code: code, Op: op, Err: err}
}

// loadFailure reports a pipeline file that could not be loaded, under the
// file's P-code when it has one.
func loadFailure(path string, err error) *Failure {
	f := commandFailure(CodeGeneric, "load pipeline", err)
	var loadErr *pipeline.LoadError
	if errors.As(err, &loadErr) {
		f.Code = Code(loadErr.Code)
	}
	f.Details = map[string]string{"file": path}
	return f
}

// runFailure turns a failed or cancelled pipeline result into a Failure
// carrying the partial report. It returns nil when r passed.
func runFailure(code Code, r result.Result[pipeline.Report]) *Failure {
	switch {
	case r.Invalid():
		return &Failure{Exit: ExitFailure, Code: code, Op: r.Value.Mode + " failed", Err: r.Err(), Details: r.Value}
	case r.Value.Cancelled:
		return &Failure{Exit: ExitFailure, Code: CodeCancelled, Op: r.Value.Mode + " cancelled", Details: r.Value}
	}
	return nil
}

// ExitCode maps the error returned by the root command to a process exit
// status. Errors that are not a Failure exit with ExitFailure.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var f *Failure
	if errors.As(err, &f) {
		return f.Exit
	}
	return ExitFailure
}

// Envelope is the JSON document every command prints in JSON mode.
type Envelope struct {
	Status string     `json:"status"` // "ok" or "error"
	Data   any        `json:"data,omitempty"`
	Error  *ErrorBody `json:"error,omitempty"`
}

// ErrorBody is the error half of an Envelope.
type ErrorBody struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// textForm is implemented by results that render their own text output.
type textForm interface {
	writeText(w io.Writer)
}

// Printer writes command results to Out as text or as an Envelope.
// Verbose diagnostics go to Diag so they never mix with JSON.
type Printer struct {
	JSON    bool
	Verbose bool
	Out     io.Writer
	Diag    io.Writer
}

// Result prints v. In text mode v renders itself when it has a text form
// and is printed with fmt otherwise.
func (p *Printer) Result(v any) error {
	if p.JSON {
		return json.NewEncoder(p.Out).Encode(Envelope{Status: "ok", Data: v})
	}
	if t, ok := v.(textForm); ok {
		t.writeText(p.Out)
		return nil
	}
	_, err := fmt.Fprintln(p.Out, v)
	return err
}

// Fail prints f and returns it, so a command can end with return p.Fail(f).
func (p *Printer) Fail(f *Failure) error {
	if p.JSON {
		_ = json.NewEncoder(p.Out).Encode(Envelope{
			Status: "error",
			Error:  &ErrorBody{Code: f.Code, Message: f.message(), Details: f.Details},
		})
		return f
	}
	fmt.Fprintf(p.Out, "Error [%s]: %s\n", f.Code, f.message())
	if p.Verbose && f.Details != nil {
		fmt.Fprintf(p.Out, "Details: %v\n", f.Details)
	}
	return f
}

// Logf writes a diagnostic line when verbose output is on.
func (p *Printer) Logf(format string, args ...any) {
	if !p.Verbose || p.Diag == nil {
		return
	}
	fmt.Fprintf(p.Diag, format+"\n", args...)
}
