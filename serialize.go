// Copyright (C) 2025 The flatjson Authors. All Rights Reserved.

package flatjson

import (
	"github.com/go-flatjson/flatjson/internal/escape"

	"go4.org/mem"
)

// A Sink is a growable byte destination. It is the idiomatic-Go shape of
// spec.md §6's "growable byte sink" external collaborator, itself grounded
// on original_source/stringbuf.h's StringBuf: Sink may either own its
// buffer (ByteSink, growing by amortized doubling, mirroring
// stringbuf_reserve) or be implemented over a caller-owned fixed buffer
// that reports an error instead of growing.
type Sink interface {
	// Grow ensures at least n additional bytes of capacity are available,
	// the analogue of stringbuf_reserve. It reports false if that much
	// capacity cannot be made available.
	Grow(n int) bool

	// Write appends p, the analogue of stringbuf_append. It reports false
	// (writing nothing) if the sink cannot grow to hold it.
	Write(p []byte) bool

	// WriteString appends s without requiring the caller to convert it to
	// a []byte first, the analogue of stringbuf_append_str.
	WriteString(s string) bool

	// WriteByte appends a single byte, the analogue of stringbuf_append_char.
	WriteByte(c byte) bool

	// Bytes returns the sink's contents so far.
	Bytes() []byte

	// Len returns the number of bytes written so far.
	Len() int

	// Reset empties the sink without releasing its backing storage, the
	// analogue of stringbuf_clear.
	Reset()
}

// A ByteSink is an owning Sink that grows by doubling, as
// original_source/stringbuf.h's stringbuf_reserve does. The zero ByteSink
// is empty and ready to use.
type ByteSink struct {
	buf []byte
}

// NewByteSink allocates a ByteSink with the given initial capacity hint.
func NewByteSink(capacityHint int) *ByteSink {
	return &ByteSink{buf: make([]byte, 0, capacityHint)}
}

func (s *ByteSink) Grow(n int) bool {
	if cap(s.buf)-len(s.buf) >= n {
		return true
	}
	need := len(s.buf) + n
	newCap := cap(s.buf) * 2
	if newCap < need {
		newCap = need
	}
	if newCap < 128 {
		newCap = 128
	}
	grown := make([]byte, len(s.buf), newCap)
	copy(grown, s.buf)
	s.buf = grown
	return true
}

func (s *ByteSink) Write(p []byte) bool {
	if !s.Grow(len(p)) {
		return false
	}
	s.buf = append(s.buf, p...)
	return true
}

func (s *ByteSink) WriteString(str string) bool {
	if !s.Grow(len(str)) {
		return false
	}
	s.buf = append(s.buf, str...)
	return true
}

func (s *ByteSink) WriteByte(c byte) bool {
	if !s.Grow(1) {
		return false
	}
	s.buf = append(s.buf, c)
	return true
}

func (s *ByteSink) Bytes() []byte { return s.buf }
func (s *ByteSink) Len() int      { return len(s.buf) }
func (s *ByteSink) Reset()        { s.buf = s.buf[:0] }

// Serialize writes the subtree rooted at ref to sink as JSON, in either
// pretty (2-space indent, newline between siblings) or compact form
// (spec.md §4.4). source must be the buffer the producing Parser was fed
// (see Store.ObjectValue's doc for why this is a parameter rather than
// state the Store retains). It reports false, having written a possibly
// incomplete prefix, the first time sink refuses to grow.
func Serialize(sink Sink, store *Store, ref NodeRef, source []byte, pretty bool) bool {
	w := &serializer{sink: sink, store: store, source: source, pretty: pretty}
	return w.node(ref, 0)
}

type serializer struct {
	sink   Sink
	store  *Store
	source []byte
	pretty bool
}

func (w *serializer) indent(depth int) bool {
	if !w.pretty {
		return true
	}
	if !w.sink.WriteByte('\n') {
		return false
	}
	for i := 0; i < depth; i++ {
		if !w.sink.WriteString("  ") {
			return false
		}
	}
	return true
}

func (w *serializer) node(ref NodeRef, depth int) bool {
	n := w.store.At(ref)
	switch n.Type {
	case Null:
		return w.sink.WriteString("null")
	case True:
		return w.sink.WriteString("true")
	case False:
		return w.sink.WriteString("false")
	case IntNumber, FloatNumber:
		return w.sink.Write(n.rawBytes(w.source))
	case String:
		return w.writeString(n)
	case Array:
		return w.container(ref, n, depth, '[', ']', false)
	case Object:
		return w.container(ref, n, depth, '{', '}', true)
	default:
		return false
	}
}

// writeString emits a String node's bytes quoted. For a Parser-produced
// node, Offset/Len cover only the content between the delimiting quotes
// (spec.md §3), so this is a zero-copy verbatim replay of that content —
// preserving whatever escapes were present on input — bracketed by a fresh
// pair of quote bytes. A builder-created node (StrVal set, raw unescaped
// text) instead goes through the escape_write-equivalent path, since its
// payload may contain raw control bytes that an encoder must escape before
// they reach the sink.
func (w *serializer) writeString(n *Node) bool {
	if !w.sink.WriteByte('"') {
		return false
	}
	if n.StrVal != nil {
		if !w.sink.Write(escape.Quote(mem.B(n.StrVal))) {
			return false
		}
	} else if !w.sink.Write(n.rawBytes(w.source)) {
		return false
	}
	return w.sink.WriteByte('"')
}

func (w *serializer) container(ref NodeRef, n *Node, depth int, open, closeByte byte, isObject bool) bool {
	if !w.sink.WriteByte(open) {
		return false
	}
	if n.Children == 0 {
		return w.sink.WriteByte(closeByte)
	}

	child, ok := w.store.FirstChild(ref)
	for i := uint32(0); ok && i < n.Children; i++ {
		if i > 0 {
			if !w.sink.WriteByte(',') {
				return false
			}
		}
		if !w.indent(depth + 1) {
			return false
		}
		if isObject {
			if !w.node(child, depth+1) {
				return false
			}
			if !w.sink.WriteByte(':') {
				return false
			}
			if w.pretty {
				if !w.sink.WriteByte(' ') {
					return false
				}
			}
			valRef, ok2 := w.store.NextSibling(child)
			if !ok2 {
				return false
			}
			if !w.node(valRef, depth+1) {
				return false
			}
			child, ok = w.store.NextSibling(valRef)
		} else {
			if !w.node(child, depth+1) {
				return false
			}
			child, ok = w.store.NextSibling(child)
		}
	}
	if !w.indent(depth) {
		return false
	}
	return w.sink.WriteByte(closeByte)
}
