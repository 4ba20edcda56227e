// Package store provides a SQLite database carrying the fixed graph schema:
//
//	nodes(id, label, properties)
//	edges(id, src_id, dst_id, type, properties)
//
// It is used to check that translated statements execute: edges reference
// nodes with foreign keys enforced, so deleting a node that still has edges
// fails unless its edges were deleted first.
//
// # Database Configuration
//
//   - foreign_keys=ON: Enforce referential integrity
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - WAL mode and synchronous=NORMAL for file databases
//   - A single connection, so ":memory:" databases persist across calls
//
// Apply runs a batch of statements in one transaction; a failing statement
// rolls the whole batch back.
package store
