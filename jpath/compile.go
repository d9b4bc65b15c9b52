// Copyright (C) 2025 The flatjson Authors. All Rights Reserved.

package jpath

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-flatjson/flatjson/query"
)

// ErrUnsupportedStep is returned by Compile when an expression contains a
// script ("(...)") or filter ("?(...)") step. Neither jtree's jpath package
// nor this one carries an expression evaluator to back arbitrary embedded
// script text, so these steps parse (Parse accepts the same grammar jtree
// does) but do not compile.
var ErrUnsupportedStep = errors.New("jpath: script and filter steps are not supported")

// Compile lowers e into a query.Query that performs the equivalent
// traversal over a flatjson arena. Member, Index, Slice, Wildcard, and
// Recur steps all have a direct query.Query counterpart; Script and Filter
// steps fail with ErrUnsupportedStep.
func (e Expr) Compile() (query.Query, error) {
	steps := make([]query.Query, 0, len(e))
	for _, s := range e {
		q, err := s.compile()
		if err != nil {
			return nil, err
		}
		steps = append(steps, q)
	}
	return query.Seq(steps), nil
}

func (s Step) compile() (query.Query, error) {
	switch s.Op {
	case Member, Name, QName:
		return query.Path(s.Arg1), nil

	case Recur:
		if s.Arg2 == "*" || s.Arg1 == "*" {
			return query.Recur(), nil
		}
		return query.Recur(s.Arg1), nil

	case Wildcard:
		return query.Glob(), nil

	case Index:
		return compileIndex(s.Arg1)

	case Slice:
		lo, err := parseSliceBound(s.Arg1, 0)
		if err != nil {
			return nil, fmt.Errorf("slice lower bound %q: %w", s.Arg1, err)
		}
		hi, err := parseSliceBound(s.Arg2, 0)
		if err != nil {
			return nil, fmt.Errorf("slice upper bound %q: %w", s.Arg2, err)
		}
		return query.Slice(lo, hi), nil

	case Filter, Script:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedStep, s.Op)

	default:
		return nil, fmt.Errorf("jpath: invalid step %v", s.Op)
	}
}

// compileIndex handles both a single index ("3", "-1") and the
// comma-separated index list indexRE also accepts ("0,-1"), which becomes
// a query.Pick of the parsed offsets.
func compileIndex(arg string) (query.Query, error) {
	parts := strings.Split(arg, ",")
	offsets := make([]int, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("index %q: %w", p, err)
		}
		offsets = append(offsets, n)
	}
	if len(offsets) == 1 {
		return query.Path(offsets[0]), nil
	}
	return query.Pick(offsets...), nil
}

func parseSliceBound(s string, def int) (int, error) {
	if s == "" {
		return def, nil
	}
	return strconv.Atoi(s)
}
