// Package harness provides scenario testing for propsolve models.
//
// The harness loads CUE model documents, runs a sequence of analysis passes
// against a fresh store, and checks the resolved properties, the collected
// constraints and the stored pass history.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: scenario_name
//	description: "What this scenario validates"
//	specs:
//	  - path/to/model.cue
//	solver: constraint
//	overrides:
//	  actor_constraint: SRC_EQUALS_GREATER
//	steps:
//	  - mode: annotate
//	    expect:
//	      properties: { top.B.in: Int }
//	  - mode: train
//	  - mode: test
//	assertions:
//	  - type: property
//	    component: top.B.in
//	    element: Int
//	  - type: constraint_count
//	    count: 1
//
// # Assertion Types
//
// The following assertion types are supported:
//
//   - property: A component resolved to an element in the last pass
//   - constraint_contains: A constraint was collected in the last pass
//   - constraint_order: Constraints appear in the given order
//   - constraint_count: The last pass collected exactly N constraints
//   - stat: A statistics counter of the last pass has the given value
//   - stored_passes: The store holds N passes, optionally of one status
//   - feedback_loops: The model has exactly N feedback loops
//
// # Deterministic Testing
//
// Pass ids come from testutil.PassIDs and seq from a fresh logical clock, so
// the same scenario always produces the same history. Each run uses its own
// in-memory SQLite database.
//
// # Usage
//
//	scenario, err := harness.LoadScenario("testdata/scenarios/pipeline.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	result, err := harness.Run(ctx, scenario)
//	if !result.Pass {
//	    for _, msg := range result.Errors {
//	        log.Println(msg)
//	    }
//	}
package harness
