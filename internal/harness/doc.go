// Package harness runs conformance suites through the translator.
//
// A suite is a YAML or CUE file listing queries and the SQL they must
// translate to, or the error code they must fail with:
//
//	name: bug_scenario
//	description: "Create, query and delete bugs"
//	cases:
//	  - name: create_ant
//	    query: "CREATE (a:Bug {name: 'Ant'})"
//	    expect:
//	      - "INSERT INTO nodes (label, properties) VALUES ('Bug','{\"name\":\"Ant\"}');"
//	  - name: unbound
//	    query: "MATCH (a) RETURN b"
//	    error: UNBOUND_VARIABLE
//
// With execute: true, each case also runs against a fresh in-memory
// database after its setup queries, and may assert the row count of the
// last SELECT and the final sizes of the nodes and edges tables. Executed
// cases fail if any edge is left pointing at a missing node.
//
// Results can be snapshotted into testdata/golden/{name}.golden with
// RunWithGolden, or compared with CompareGolden from the CLI.
package harness
