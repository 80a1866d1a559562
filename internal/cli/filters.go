package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/nxcore/internal/filter"
	"github.com/roach88/nxcore/internal/filters"
)

// FilterInfo describes a registered filter.
type FilterInfo struct {
	Name       string          `json:"name"`
	HumanName  string          `json:"human_name"`
	UUID       string          `json:"uuid"`
	Parameters []ParameterInfo `json:"parameters"`
}

// filterList renders one block per filter in text mode.
type filterList []FilterInfo

// ParameterInfo describes one filter parameter.
type ParameterInfo struct {
	filter.Info
	Type     string `json:"type"`
	Default  any    `json:"default,omitempty"`
	Required bool   `json:"required"`
}

// NewFiltersCommand creates the filters command.
func NewFiltersCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "filters",
		Short: "List the filters pipelines can use",
		Long: `List every built-in filter with its UUID and parameters.

Pipeline steps reference a filter by name or UUID.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFilters(rootOpts, cmd)
		},
	}

	return cmd
}

func runFilters(opts *RootOptions, cmd *cobra.Command) error {
	out := opts.printer(cmd)

	reg, err := filters.NewRegistry()
	if err != nil {
		return out.Fail(&Failure{Exit: ExitFailure, Code: CodeGeneric, Op: "build filter registry", Err: err})
	}
	return out.Result(describeFilters(reg.All()))
}

func describeFilters(all []filter.Filter) filterList {
	out := make(filterList, 0, len(all))
	for _, f := range all {
		info := FilterInfo{
			Name:       f.Name(),
			HumanName:  f.HumanName(),
			UUID:       f.UUID().String(),
			Parameters: make([]ParameterInfo, 0, len(f.Parameters())),
		}
		for _, p := range f.Parameters() {
			def := p.DefaultValue()
			info.Parameters = append(info.Parameters, ParameterInfo{
				Info:     p.Info(),
				Type:     p.TypeName(),
				Default:  def,
				Required: def == nil,
			})
		}
		out = append(out, info)
	}
	return out
}

func (infos filterList) writeText(w io.Writer) {
	for _, f := range infos {
		fmt.Fprintf(w, "%s  %s (%s)\n", f.UUID, f.Name, f.HumanName)
		for _, p := range f.Parameters {
			fmt.Fprintf(w, "    %-16s %s", p.Key, p.Type)
			if p.Required {
				fmt.Fprint(w, " (required)")
			} else {
				fmt.Fprintf(w, " = %v", p.Default)
			}
			fmt.Fprintln(w)
		}
	}
}
