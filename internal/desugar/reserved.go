package desugar

import "strings"

// reserved lists SQLite keywords that cannot be used as a bare table alias.
var reserved = map[string]bool{
	"all": true, "and": true, "as": true, "between": true, "by": true,
	"case": true, "check": true, "collate": true, "constraint": true,
	"create": true, "cross": true, "default": true, "delete": true,
	"distinct": true, "drop": true, "else": true, "end": true, "escape": true,
	"except": true, "exists": true, "foreign": true, "from": true,
	"full": true, "glob": true, "group": true, "having": true, "in": true,
	"index": true, "inner": true, "insert": true, "intersect": true,
	"into": true, "is": true, "isnull": true, "join": true, "key": true,
	"left": true, "like": true, "limit": true, "natural": true, "not": true,
	"notnull": true, "null": true, "offset": true, "on": true, "or": true,
	"order": true, "outer": true, "primary": true, "references": true,
	"right": true, "select": true, "set": true, "table": true, "then": true,
	"to": true, "union": true, "unique": true, "update": true, "using": true,
	"values": true, "when": true, "where": true,
}

func isReserved(name string) bool {
	return reserved[strings.ToLower(name)]
}
