// Copyright (C) 2025 The flatjson Authors. All Rights Reserved.

// Package cursor implements traversal over a flatjson arena.
package cursor

import (
	"fmt"

	"github.com/go-flatjson/flatjson"
)

// Path traverses a sequential path into the structure of store starting
// from origin, where path elements are as documented for Cursor.Down. This
// is a convenience wrapper for creating a Cursor, applying path, and
// retrieving its resulting node; unlike jtree's generic cursor.Path, there
// is no value-type parameter to check, since every flatjson node is the
// same Go type regardless of its NodeType.
func Path(store *flatjson.Store, source []byte, origin flatjson.NodeRef, path ...any) (flatjson.NodeRef, error) {
	c := New(store, source, origin).Down(path...)
	if err := c.Err(); err != nil {
		return flatjson.NoNode, err
	}
	return c.Value(), nil
}

// A Cursor is a pointer that navigates into the structure of a Store,
// relative to a fixed source buffer and origin node.
type Cursor struct {
	store  *flatjson.Store
	source []byte
	org    flatjson.NodeRef
	stk    []flatjson.NodeRef
	err    error
}

// New constructs a new Cursor to traverse store starting from origin.
// source must be the buffer the Parser or builder used to produce store's
// arena; it is threaded through to every Down step that needs to read raw
// bytes (object key comparison).
func New(store *flatjson.Store, source []byte, origin flatjson.NodeRef) *Cursor {
	return &Cursor{store: store, source: source, org: origin}
}

// Origin returns the origin node of c.
func (c *Cursor) Origin() flatjson.NodeRef { return c.org }

// AtOrigin reports whether c is at its origin.
func (c *Cursor) AtOrigin() bool { return len(c.stk) == 0 }

// Value reports the node currently under the cursor.
func (c *Cursor) Value() flatjson.NodeRef {
	if c.AtOrigin() {
		return c.org
	}
	return c.stk[len(c.stk)-1]
}

// Path reports the complete sequence of nodes from the origin to the
// current location in c.
func (c *Cursor) Path() []flatjson.NodeRef {
	return append([]flatjson.NodeRef{c.org}, c.stk...)
}

// Err reports the error from the most recent traversal operation, if any.
func (c *Cursor) Err() error { return c.err }

// Up moves the cursor one position upward in the structure, if possible.
// It returns c to permit chaining.
func (c *Cursor) Up() *Cursor {
	if n := len(c.stk); n > 0 {
		c.stk = c.stk[:n-1]
	}
	return c
}

// Reset resets the cursor to its origin and clears its error.
func (c *Cursor) Reset() { c.stk = c.stk[:0]; c.err = nil }

// Down traverses a sequential path into the structure of c starting from
// the current node, where path elements are either strings (denoting
// object keys), integers (denoting offsets into arrays), functions (see
// below), or nil. It returns c to permit chaining; if the path is valid, c
// is left at the node reached (see Value). If the path cannot be completely
// consumed, traversal stops and an error is recorded. Use Err to recover the
// error.
//
// If a path element is a string, the current node must be an object, and
// the string resolves an object member with that name.
//
// If a path element is an integer, the current node must be an array, and
// the integer resolves to an index in the array. Negative indices count
// backward from the end (-1 is last, -2 second last). An error is reported
// if the index is out of bounds.
//
// If a path element is a function, the function is executed with the
// current store, source, and node, and its result becomes the next node in
// the sequence. The function must have a signature
//
//	func(*flatjson.Store, []byte, flatjson.NodeRef) (flatjson.NodeRef, error)
//
// If the function reports an error, traversal stops and the error is
// recorded.
func (c *Cursor) Down(path ...any) *Cursor {
	c.err = nil // reset error
	cur := c.Value()
	for _, elt := range path {
		switch t := elt.(type) {
		case string:
			n := c.store.At(cur)
			if n.Type != flatjson.Object {
				return c.setErrorf("cannot traverse %v with %q", n.Type, t)
			}
			v, ok := c.store.ObjectValue(c.source, cur, []byte(t))
			if !ok {
				return c.setErrorf("key %q not found", t)
			}
			cur = c.push(v)

		case int:
			n := c.store.At(cur)
			if n.Type != flatjson.Array {
				return c.setErrorf("cannot traverse %v with %d", n.Type, t)
			}
			i, ok := fixArrayBound(int(n.Children), t)
			if !ok {
				return c.setErrorf("array index %d out of bounds (n=%d)", t, n.Children)
			}
			v, ok := c.store.ArrayElement(cur, i)
			if !ok {
				return c.setErrorf("array index %d out of bounds (n=%d)", t, n.Children)
			}
			cur = c.push(v)

		case func(*flatjson.Store, []byte, flatjson.NodeRef) (flatjson.NodeRef, error):
			next, err := t(c.store, c.source, cur)
			if err != nil {
				c.err = err
				return c
			}
			cur = c.push(next)

		case nil:
			// Do nothing.

		default:
			return c.setErrorf("invalid path element %T", elt)
		}
	}
	return c
}

func (c *Cursor) push(v flatjson.NodeRef) flatjson.NodeRef { c.stk = append(c.stk, v); return v }

func (c *Cursor) setErrorf(msg string, args ...any) *Cursor {
	c.err = fmt.Errorf(msg, args...)
	return c
}

func fixArrayBound(n, i int) (int, bool) {
	if i < 0 {
		i += n
	}
	return i, i >= 0 && i < n
}
