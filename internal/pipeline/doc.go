// Package pipeline runs an ordered list of filters against one
// DataStructure.
//
// Preflight walks the list once, applying every filter's actions in
// ModePreflight so later filters see the shapes earlier ones will create.
// Execute walks it again: each filter is preflighted against the live
// graph, its actions are applied in ModeExecute, and then its Execute runs
// with the parallel settings from Config.
//
// Pipelines are usually loaded from a YAML or CUE file:
//
//	name: mask
//	pipeline:
//	  - filter: create_data_array
//	    args: {output: Values, tuple_shape: [8], fill_value: 3}
//	  - filter: threshold_array
//	    args: {input: Values, operator: ">", value: 2, output: Mask}
package pipeline
