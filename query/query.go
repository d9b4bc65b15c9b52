// Copyright (C) 2025 The flatjson Authors. All Rights Reserved.

// Package query implements structural queries over a flatjson arena.
//
// A query describes a syntactic substructure of a JSON value, such as an
// object member, array element, or a path through the tree. Evaluating a
// query against a concrete node traverses the structure described by the
// query and returns the resulting node.
//
// The simplest query is for a "path", a sequence of object keys and/or
// array indices that describes a path from some node. For example, given
// the JSON value
//
//	[{"a": 1, "b": 2}, {"c": {"d": true}, "e": false}]
//
// the query
//
//	query.Path(1, "c", "d")
//
// yields the value "true".
//
// Queries that must construct a value not already present in the document
// (Selection, Mapping, Object, Array, Glob, Pick, Slice, and the constant
// constructors) append the new nodes to the same Store the query is
// evaluated against, through the build package — the flat arena has no
// notion of a detached result tree the way jtree's ast.Value does, so a
// constructed result is simply more nodes at the end of the same arena.
package query

import (
	"errors"
	"fmt"

	"github.com/go-flatjson/flatjson"
	"github.com/go-flatjson/flatjson/build"
)

// Eval evaluates q beginning from root, against source and into s (which
// receives any newly constructed nodes), returning the resulting node.
func Eval(s *flatjson.Store, source []byte, root flatjson.NodeRef, q Query) (flatjson.NodeRef, error) {
	return q.eval(s, source, root)
}

// A Query describes a traversal of, or construction derived from, a node.
type Query interface {
	eval(s *flatjson.Store, source []byte, ref flatjson.NodeRef) (flatjson.NodeRef, error)
}

// Path traverses a sequence of nested object keys or array indices from
// the root. If no keys are given, the root is returned unchanged. Each key
// must be a string, an int, or a Query.
func Path(keys ...any) Query {
	if len(keys) == 1 {
		return pathElem(keys[0])
	}
	pq := make(Seq, 0, len(keys))
	for _, key := range keys {
		q := pathElem(key)
		if sq, ok := q.(Seq); ok {
			pq = append(pq, sq...)
		} else {
			pq = append(pq, q)
		}
	}
	return pq
}

func pathElem(key any) Query {
	switch t := key.(type) {
	case string:
		return objKey(t)
	case int:
		return nthQuery(t)
	case Query:
		return t
	default:
		panic("query: invalid path element")
	}
}

type objKey string

func (o objKey) eval(s *flatjson.Store, source []byte, ref flatjson.NodeRef) (flatjson.NodeRef, error) {
	if s.At(ref).Type != flatjson.Object {
		return flatjson.NoNode, fmt.Errorf("got %v, want object", s.At(ref).Type)
	}
	v, ok := s.ObjectValue(source, ref, []byte(o))
	if !ok {
		return flatjson.NoNode, fmt.Errorf("key %q not found", string(o))
	}
	return v, nil
}

type nthQuery int

func (nq nthQuery) eval(s *flatjson.Store, source []byte, ref flatjson.NodeRef) (flatjson.NodeRef, error) {
	n := s.At(ref)
	if n.Type != flatjson.Array {
		return flatjson.NoNode, fmt.Errorf("got %v, want array", n.Type)
	}
	idx := int(nq)
	if idx < 0 {
		idx += int(n.Children)
	}
	v, ok := s.ArrayElement(ref, idx)
	if !ok {
		return flatjson.NoNode, fmt.Errorf("index %d out of range (0..%d)", nq, n.Children)
	}
	return v, nil
}

// arrayElements collects the NodeRefs of ref's direct array elements.
func arrayElements(s *flatjson.Store, ref flatjson.NodeRef) ([]flatjson.NodeRef, error) {
	n := s.At(ref)
	if n.Type != flatjson.Array {
		return nil, fmt.Errorf("got %v, want array", n.Type)
	}
	out := make([]flatjson.NodeRef, 0, n.Children)
	cur, ok := s.FirstChild(ref)
	for ok && uint32(len(out)) < n.Children {
		out = append(out, cur)
		cur, ok = s.NextSibling(cur)
	}
	return out, nil
}

// Slice selects a slice of an array from offsets lo to hi. The range
// includes lo but excludes hi. Negative offsets select from the end of the
// array. If hi == 0, the length of the array is used.
func Slice(lo, hi int) Query { return sliceQuery{lo, hi} }

type sliceQuery struct{ lo, hi int }

func (q sliceQuery) eval(s *flatjson.Store, source []byte, ref flatjson.NodeRef) (flatjson.NodeRef, error) {
	elems, err := arrayElements(s, ref)
	if err != nil {
		return flatjson.NoNode, err
	}
	n := len(elems)
	lox, hix := q.lo, q.hi
	if lox < 0 {
		lox += n
	}
	if hix <= 0 {
		hix += n
	}
	if lox < 0 || lox > n {
		return flatjson.NoNode, fmt.Errorf("index %d out of range (0..%d)", q.lo, n)
	} else if hix < 0 || hix > n {
		return flatjson.NoNode, fmt.Errorf("index %d out of range (0..%d)", q.hi, n)
	} else if lox > hix {
		return flatjson.NoNode, fmt.Errorf("index start %d > end %d", q.lo, q.hi)
	}
	return buildArrayOf(s, source, elems[lox:hix])
}

// Pick constructs an array by picking the designated offsets from an
// array. Negative offsets select from the end of the input array.
func Pick(offsets ...int) Query { return pickQuery(offsets) }

type pickQuery []int

func (q pickQuery) eval(s *flatjson.Store, source []byte, ref flatjson.NodeRef) (flatjson.NodeRef, error) {
	elems, err := arrayElements(s, ref)
	if err != nil {
		return flatjson.NoNode, err
	}
	picked := make([]flatjson.NodeRef, 0, len(q))
	for _, off := range q {
		idx := off
		if idx < 0 {
			idx += len(elems)
		}
		if idx < 0 || idx >= len(elems) {
			return flatjson.NoNode, fmt.Errorf("index %d out of range (0..%d)", off, len(elems))
		}
		picked = append(picked, elems[idx])
	}
	return buildArrayOf(s, source, picked)
}

// Object constructs an object whose members are the given keys mapped to
// the results of evaluating the corresponding queries against ref.
type Object map[string]Query

func (o Object) eval(s *flatjson.Store, source []byte, ref flatjson.NodeRef) (flatjson.NodeRef, error) {
	// Evaluate every member's query to completion before constructing obj:
	// a query may itself append fresh nodes at the tail of s, and those
	// must not land between obj and its first member, or ObjectSet's
	// contiguity requirement (spec.md §4.5) breaks. Only once every value
	// is known does building obj, and copying each value in immediately
	// after its key, become safe.
	type member struct {
		key string
		val flatjson.NodeRef
	}
	members := make([]member, 0, len(o))
	for key, q := range o {
		v, err := q.eval(s, source, ref)
		if err != nil {
			return flatjson.NoNode, fmt.Errorf("match %q: %w", key, err)
		}
		members = append(members, member{key, v})
	}

	obj, ok := build.Object(s)
	if !ok {
		return flatjson.NoNode, errors.New("arena capacity exceeded")
	}
	for _, m := range members {
		if !build.ObjectSet(s, obj, m.key, func() (flatjson.NodeRef, bool) { return copyInto(s, source, m.val) }) {
			return flatjson.NoNode, errors.New("arena capacity exceeded")
		}
	}
	return obj, nil
}

// Array constructs an array with the values produced by evaluating the
// given queries against ref.
type Array []Query

func (a Array) eval(s *flatjson.Store, source []byte, ref flatjson.NodeRef) (flatjson.NodeRef, error) {
	refs := make([]flatjson.NodeRef, len(a))
	for i, q := range a {
		v, err := q.eval(s, source, ref)
		if err != nil {
			return flatjson.NoNode, fmt.Errorf("index %d: %w", i, err)
		}
		refs[i] = v
	}
	return buildArrayOf(s, source, refs)
}

// Selection constructs an array of the elements of its input array for
// which the given function returns true.
type Selection func(*flatjson.Store, []byte, flatjson.NodeRef) bool

func (q Selection) eval(s *flatjson.Store, source []byte, ref flatjson.NodeRef) (flatjson.NodeRef, error) {
	elems, err := arrayElements(s, ref)
	if err != nil {
		return flatjson.NoNode, err
	}
	var kept []flatjson.NodeRef
	for _, e := range elems {
		if q(s, source, e) {
			kept = append(kept, e)
		}
	}
	return buildArrayOf(s, source, kept)
}

// Mapping constructs an array in which each value is replaced by the
// result of evaluating the given query against the corresponding input
// value.
type Mapping struct{ Query }

func (q Mapping) eval(s *flatjson.Store, source []byte, ref flatjson.NodeRef) (flatjson.NodeRef, error) {
	elems, err := arrayElements(s, ref)
	if err != nil {
		return flatjson.NoNode, err
	}
	mapped := make([]flatjson.NodeRef, len(elems))
	for i, e := range elems {
		v, err := q.Query.eval(s, source, e)
		if err != nil {
			return flatjson.NoNode, fmt.Errorf("index %d: %w", i, err)
		}
		mapped[i] = v
	}
	return buildArrayOf(s, source, mapped)
}

// buildArrayOf materializes a new Array node in s whose elements are
// copies of the values at refs (copies, not aliases, since a node's arena
// slot can only have one parent — spec.md §3's document-prefix invariant
// forbids a node's subtree occupying two places in the arena at once).
func buildArrayOf(s *flatjson.Store, source []byte, refs []flatjson.NodeRef) (flatjson.NodeRef, error) {
	arr, ok := build.Array(s)
	if !ok {
		return flatjson.NoNode, errors.New("arena capacity exceeded")
	}
	for _, r := range refs {
		if !build.ArrayAppend(s, arr, func() (flatjson.NodeRef, bool) { return copyInto(s, source, r) }) {
			return flatjson.NoNode, errors.New("arena capacity exceeded")
		}
	}
	return arr, nil
}

// copyInto appends a structural copy of src's subtree as the next node(s)
// in s.
func copyInto(s *flatjson.Store, source []byte, src flatjson.NodeRef) (flatjson.NodeRef, bool) {
	n := s.At(src)
	switch n.Type {
	case flatjson.Null:
		return build.Null(s)
	case flatjson.True:
		return build.Bool(s, true)
	case flatjson.False:
		return build.Bool(s, false)
	case flatjson.IntNumber:
		v, _ := flatjson.AsInt(n, source)
		return build.Int(s, v)
	case flatjson.FloatNumber:
		v, _ := flatjson.AsFloat(n, source)
		return build.Float(s, v)
	case flatjson.String:
		// n's raw bytes are still JSON-escaped (verbatim-preserved input);
		// build.String expects the unescaped payload, since Serialize
		// re-escapes builder-owned strings on output. Unescaping here, not
		// storing the raw escaped form, avoids double-escaping a copied
		// string the next time it is serialized.
		unescaped, err := flatjson.Unescape(n, source)
		if err != nil {
			return flatjson.NoNode, false
		}
		return build.String(s, string(unescaped))
	case flatjson.Array:
		elems, err := arrayElements(s, src)
		if err != nil {
			return flatjson.NoNode, false
		}
		return buildArrayOfNoErr(s, source, elems)
	case flatjson.Object:
		return copyObject(s, source, src)
	default:
		return flatjson.NoNode, false
	}
}

func buildArrayOfNoErr(s *flatjson.Store, source []byte, refs []flatjson.NodeRef) (flatjson.NodeRef, bool) {
	ref, err := buildArrayOf(s, source, refs)
	return ref, err == nil
}

func copyObject(s *flatjson.Store, source []byte, src flatjson.NodeRef) (flatjson.NodeRef, bool) {
	obj, ok := build.Object(s)
	if !ok {
		return flatjson.NoNode, false
	}
	members := s.At(src).Children
	key, ok := s.FirstChild(src)
	for i := uint32(0); ok && i < members; i++ {
		keyNode := s.At(key)
		// The source key's raw bytes are still JSON-escaped; ObjectSet
		// computes the copied key's hash itself and stores it as an owned
		// StrVal that Serialize will re-escape, so (as with copyInto's
		// String case) the payload handed to ObjectSet must be unescaped
		// first to avoid escaping it twice.
		unescapedKey, err := flatjson.Unescape(keyNode, source)
		if err != nil {
			return flatjson.NoNode, false
		}
		keyText := string(unescapedKey)
		valRef, ok2 := s.NextSibling(key)
		if !ok2 {
			return flatjson.NoNode, false
		}
		if !build.ObjectSet(s, obj, keyText, func() (flatjson.NodeRef, bool) { return copyInto(s, source, valRef) }) {
			return flatjson.NoNode, false
		}
		key, ok = s.NextSibling(valRef)
	}
	return obj, true
}

// Len returns an integer representing the length of ref: for an object,
// the number of members; for an array, the number of elements; for a
// string, the byte length of its raw (still-escaped) payload; for null,
// zero.
func Len() Query { return lenQuery{} }

type lenQuery struct{}

func (lenQuery) eval(s *flatjson.Store, source []byte, ref flatjson.NodeRef) (flatjson.NodeRef, error) {
	n := s.At(ref)
	switch n.Type {
	case flatjson.Object, flatjson.Array:
		v, ok := build.Int(s, int64(n.Children))
		return v, okOrErr(ok)
	case flatjson.String:
		v, ok := build.Int(s, int64(n.Len))
		return v, okOrErr(ok)
	case flatjson.Null:
		v, ok := build.Int(s, 0)
		return v, okOrErr(ok)
	default:
		return flatjson.NoNode, fmt.Errorf("cannot take length of %v", n.Type)
	}
}

func okOrErr(ok bool) error {
	if ok {
		return nil
	}
	return errors.New("arena capacity exceeded")
}

// Seq is a sequential composition of queries. An empty sequence selects
// the input unchanged; otherwise each query is applied to the result
// selected by the previous query in the sequence.
type Seq []Query

func (q Seq) eval(s *flatjson.Store, source []byte, ref flatjson.NodeRef) (flatjson.NodeRef, error) {
	cur := ref
	for _, sq := range q {
		next, err := sq.eval(s, source, cur)
		if err != nil {
			return flatjson.NoNode, err
		}
		cur = next
	}
	return cur, nil
}

// Alt selects among a sequence of alternatives: the result of the first
// alternative that does not report an error. If there are no
// alternatives, or none succeed, Alt fails.
type Alt []Query

func (q Alt) eval(s *flatjson.Store, source []byte, ref flatjson.NodeRef) (flatjson.NodeRef, error) {
	for _, alt := range q {
		if v, err := alt.eval(s, source, ref); err == nil {
			return v, nil
		}
	}
	return flatjson.NoNode, errors.New("no matching alternatives")
}

// Recur applies a query to each recursive descendant of ref (ref included)
// and constructs an array of the results for which the query did not
// fail. "Descendant" walks array elements and object member values, the
// same set ast.Array/ast.Object expose in jtree — not object key nodes.
// The arguments have the same constraints as Path.
func Recur(keys ...any) Query { return recQuery{Path(keys...)} }

type recQuery struct{ Query }

func (q recQuery) eval(s *flatjson.Store, source []byte, ref flatjson.NodeRef) (flatjson.NodeRef, error) {
	var matched []flatjson.NodeRef
	var walk func(flatjson.NodeRef)
	walk = func(cur flatjson.NodeRef) {
		if v, err := q.Query.eval(s, source, cur); err == nil {
			matched = append(matched, v)
		}
		members := s.At(cur).Children
		switch s.At(cur).Type {
		case flatjson.Array:
			i := uint32(0)
			for c, ok := s.FirstChild(cur); ok && i < members; c, ok = s.NextSibling(c) {
				walk(c)
				i++
			}
		case flatjson.Object:
			key, ok := s.FirstChild(cur)
			for i := uint32(0); ok && i < members; i++ {
				val, ok2 := s.NextSibling(key)
				if !ok2 {
					break
				}
				walk(val)
				key, ok = s.NextSibling(val)
			}
		}
	}
	walk(ref)
	if len(matched) == 0 {
		return flatjson.NoNode, errors.New("no matches")
	}
	return buildArrayOf(s, source, matched)
}

// Each applies a query to each element of an array and constructs an array
// of the results. It fails if ref is not an array. The arguments have the
// same constraints as Path.
func Each(keys ...any) Query { return Mapping{Path(keys...)} }

// Glob returns an array of all of ref's direct values: an object's member
// values, or an array's elements unchanged.
func Glob() Query { return globQuery{} }

type globQuery struct{}

func (globQuery) eval(s *flatjson.Store, source []byte, ref flatjson.NodeRef) (flatjson.NodeRef, error) {
	n := s.At(ref)
	switch n.Type {
	case flatjson.Array:
		elems, _ := arrayElements(s, ref)
		return buildArrayOf(s, source, elems)
	case flatjson.Object:
		var vals []flatjson.NodeRef
		key, ok := s.FirstChild(ref)
		for i := uint32(0); ok && i < n.Children; i++ {
			val, ok2 := s.NextSibling(key)
			if !ok2 {
				break
			}
			vals = append(vals, val)
			key, ok = s.NextSibling(val)
		}
		return buildArrayOf(s, source, vals)
	default:
		return flatjson.NoNode, errors.New("no matching values")
	}
}

// Null, Bool, Int, Float, and String each construct a constant query that
// ignores its input and appends a fresh node of the given value.
func Null() Query { return constQuery{build.Null} }

func Bool(b bool) Query {
	return constQuery{func(s *flatjson.Store) (flatjson.NodeRef, bool) { return build.Bool(s, b) }}
}

func Int(z int64) Query {
	return constQuery{func(s *flatjson.Store) (flatjson.NodeRef, bool) { return build.Int(s, z) }}
}

func Float(f float64) Query {
	return constQuery{func(s *flatjson.Store) (flatjson.NodeRef, bool) { return build.Float(s, f) }}
}

func String(v string) Query {
	return constQuery{func(s *flatjson.Store) (flatjson.NodeRef, bool) { return build.String(s, v) }}
}

type constQuery struct {
	build func(*flatjson.Store) (flatjson.NodeRef, bool)
}

func (c constQuery) eval(s *flatjson.Store, _ []byte, _ flatjson.NodeRef) (flatjson.NodeRef, error) {
	v, ok := c.build(s)
	return v, okOrErr(ok)
}
