package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
)

const maskPipeline = `name: mask
pipeline:
  - filter: create_image_geometry
    args:
      path: Image
      dimensions: [4, 2, 1]
  - filter: create_data_array
    args:
      output: Image/CellData/Values
      tuple_shape: [1, 2, 4]
      data_type: float32
      fill_value: 3
  - filter: threshold_array
    args:
      input: Image/CellData/Values
      operator: ">="
      value: 3
      output: Image/CellData/Mask
`

// duplicatePipeline fails at its second filter.
const duplicatePipeline = `name: duplicate
pipeline:
  - filter: create_data_group
    args: {path: A}
  - filter: create_data_group
    args: {path: A}
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// execute runs cmd with args and returns what it wrote to stdout.
func execute(cmd *cobra.Command, args ...string) (string, error) {
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}
