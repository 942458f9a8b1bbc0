// Package harness runs association scenarios as executable tests.
//
// A scenario names a set of CUE rule files, a pool of items, and what the
// generated associations must look like. The harness compiles the rules,
// runs the engine with sequential association IDs, and evaluates the
// expectations.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: nircam_image
//	description: "Images through one filter share an association"
//	rules:
//	  - rules/image.cue
//	pool:
//	  - {filename: a.fits, program: "99009", filter: F070LP}
//	  - {filename: b.fits, program: "99009", filter: F070LP}
//	expect:
//	  associations: 1
//	  orphans: 0
//	  by_rule: {Asn_Image: 1}
//	assertions:
//	  - type: member_of
//	    rule: Asn_Image
//	    item: {filename: a.fits}
//	  - type: bound_value
//	    rule: Asn_Image
//	    name: opt_elem
//	    value: F070LP
//
// A scenario gives either an inline pool or a pool_file (YAML or
// pipe-delimited table, see package pool). Rule and pool paths are
// relative to the scenario file unless a base path is supplied.
//
// # Assertion Types
//
//   - member_of: some association (of rule, if given) holds a member whose
//     attributes include item; with count, exactly that many do
//   - bound_value: some association (of rule, if given) bound constraint
//     name to value
//   - orphan: some orphaned pool item's attributes include item
//
// # Deterministic Testing
//
// Association IDs come from testutil.SequentialIDGenerator, so a scenario
// produces identical output on every run and golden snapshots compare
// byte for byte.
package harness
