// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package config implements the typed configuration layer named in the
// Design Notes: a permissive parser for the spec.md §6 grammar
// (`<N>KEY: [value]`, scalar or comma/arrow-separated sub-key values)
// feeding a fixed set of typed per-operator records, replacing the
// dynamic hash-of-hash configuration the original tool used.
package config

import "github.com/kortschak/phyg/phygerr"

// Comparator is one of the five string-valued comparators spec.md §4.1
// recognises in a blast filter expression. Unknown tokens are rejected at
// parse time rather than carried as a string, per the Design Notes item
// on enumerating comparators explicitly.
type Comparator int

const (
	LT Comparator = iota
	LE
	EQ
	GE
	GT
)

func (c Comparator) String() string {
	switch c {
	case LT:
		return "<"
	case LE:
		return "<="
	case EQ:
		return "=="
	case GE:
		return ">="
	case GT:
		return ">"
	default:
		return "?"
	}
}

// Eval applies the comparator to a <op> b.
func (c Comparator) Eval(a, b int) bool {
	switch c {
	case LT:
		return a < b
	case LE:
		return a <= b
	case EQ:
		return a == b
	case GE:
		return a >= b
	case GT:
		return a > b
	default:
		return false
	}
}

// ParseComparator parses one of "<", "<=", "==", ">=", ">". Any other
// token is an InputError.
func ParseComparator(s string) (Comparator, error) {
	switch s {
	case "<":
		return LT, nil
	case "<=":
		return LE, nil
	case "==":
		return EQ, nil
	case ">=":
		return GE, nil
	case ">":
		return GT, nil
	default:
		return 0, phygerr.Newf(phygerr.Input, "config: unknown comparator %q", s)
	}
}
