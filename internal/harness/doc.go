// Package harness runs YAML query scenarios through the real engine.
//
// A scenario bundles a table snapshot, an optional schema, a rule set, and
// a list of cases. Each case is either free text (matched against the
// catalog) or ad-hoc SQL, with an expected outcome:
//
//	name: risk_stock
//	tables:
//	  inventory:
//	    - {material_name: 螺栓, status: risk, qty: 40}
//	rules:
//	  - intent_name: risk_stock
//	    trigger_words: [风险, 库存]
//	    action_target: SELECT material_name FROM inventory WHERE status = 'risk'
//	cases:
//	  - input: 风险库存
//	    expect:
//	      status: matched
//	      rule: risk_stock
//	      rows:
//	        - {material_name: 螺栓}
//
// Rows in tables keep the field order written in the file. Query IDs are
// generated from the scenario name, so a result can be snapshotted with
// AssertGolden.
package harness
