// Package ast provides the statement tree produced by the pattern parser.
//
// This package contains type definitions, the ordered property map and the
// translation error taxonomy. The lexer, parser, binder and desugarer import
// ast; ast imports nothing internal.
//
// Key design constraints:
//   - Property maps preserve insertion order; output must be identical for
//     identical input text
//   - Numbers are kept as their source text, never reparsed into floats
//   - A relationship pattern is always directed left to right (->)
//   - A tree is built once per statement and never mutated after parsing
package ast
