package ast

import (
	"iter"
	"strings"
)

// Value is a sealed interface for property values.
// Only StringLiteral and NumberLiteral implement it.
type Value interface {
	value() // Sealed - only these types implement it
}

// StringLiteral is an unquoted string value.
type StringLiteral string

func (StringLiteral) value() {}

// NumberLiteral is a numeric value kept as its source text
// (e.g. "42", "3.14") so it is never reparsed lossily.
type NumberLiteral string

func (NumberLiteral) value() {}

// Canonical returns the number with redundant leading zeros of the integer
// part removed ("007" -> "7", "00.50" -> "0.50"). The fraction is untouched.
func (n NumberLiteral) Canonical() string {
	s := string(n)
	intPart, frac, hasFrac := strings.Cut(s, ".")
	intPart = strings.TrimLeft(intPart, "0")
	if intPart == "" {
		intPart = "0"
	}
	if hasFrac {
		return intPart + "." + frac
	}
	return intPart
}

// Property is one key/value member of a PropertyMap.
type Property struct {
	Key   string
	Value Value
}

// PropertyMap is an insertion-ordered mapping from property key to value.
// Keys are unique. The zero value and a nil *PropertyMap are empty maps.
type PropertyMap struct {
	entries []Property
	index   map[string]int
}

// NewPropertyMap creates a map holding the given properties in order.
// Later duplicates of a key are ignored; use Set to detect them.
func NewPropertyMap(props ...Property) *PropertyMap {
	m := &PropertyMap{}
	for _, p := range props {
		m.Set(p.Key, p.Value)
	}
	return m
}

// Set appends key with value. It returns false, leaving the map unchanged,
// if the key is already present.
func (m *PropertyMap) Set(key string, v Value) bool {
	if m.index == nil {
		m.index = make(map[string]int)
	}
	if _, exists := m.index[key]; exists {
		return false
	}
	m.index[key] = len(m.entries)
	m.entries = append(m.entries, Property{Key: key, Value: v})
	return true
}

// Get returns the value for key.
func (m *PropertyMap) Get(key string) (Value, bool) {
	if m == nil {
		return nil, false
	}
	i, ok := m.index[key]
	if !ok {
		return nil, false
	}
	return m.entries[i].Value, true
}

// Len returns the number of properties.
func (m *PropertyMap) Len() int {
	if m == nil {
		return 0
	}
	return len(m.entries)
}

// Keys returns the keys in insertion order.
func (m *PropertyMap) Keys() []string {
	if m == nil {
		return nil
	}
	keys := make([]string, len(m.entries))
	for i, e := range m.entries {
		keys[i] = e.Key
	}
	return keys
}

// All iterates the properties in insertion order.
func (m *PropertyMap) All() iter.Seq2[string, Value] {
	return func(yield func(string, Value) bool) {
		if m == nil {
			return
		}
		for _, e := range m.entries {
			if !yield(e.Key, e.Value) {
				return
			}
		}
	}
}
