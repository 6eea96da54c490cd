// Package harness provides conformance testing for the obfuscation
// pipeline.
//
// The harness loads a scenario, runs the module through the reference
// interpreter to capture its baseline behavior, applies the obfuscation
// pipeline, runs the transformed module again, and hands both results to
// the caller for comparison. The central contract it exists to check is
// semantic equivalence: obfuscation may rewrite the control-flow graph
// and the data section, but observable behavior (program output and exit
// value) must not change.
//
// # Scenario Format
//
// Scenarios are YAML files:
//
//	name: scenario_name
//	description: "What this scenario validates"
//	source: modules/hello.vir
//	config:
//	  bogus_blocks: 2
//	  string_level: 2
//	  insert_nops: 4
//	  loop_wrap: true
//
// The source path is resolved relative to the scenario file. The config
// mapping uses the profile format and is validated against the same
// schema; when absent, defaults apply.
//
// # Deterministic Testing
//
// Every transformation is deterministic: opaque predicates derive from
// function names, block labels and value numbering follow arena order,
// and the canonical dump renumbers values in placement order. Identical
// inputs therefore produce byte-identical dumps, which makes the
// post-obfuscation dump suitable for golden file comparison via goldie:
//
//	go test ./internal/harness -update
package harness
