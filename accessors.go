// Copyright (C) 2025 The flatjson Authors. All Rights Reserved.

package flatjson

import (
	"strconv"

	"github.com/go-flatjson/flatjson/internal/escape"

	"go4.org/mem"
)

// AsInt converts an IntNumber node to its native value. ok is false if n is
// not an IntNumber, or if the raw token is not entirely consumed by the
// conversion (which should not happen for any node the Parser produced,
// but can for a hand-built Node with a malformed StrVal).
func AsInt(n *Node, source []byte) (int64, bool) {
	if n.Type != IntNumber {
		return 0, false
	}
	v, err := strconv.ParseInt(string(n.rawBytes(source)), 10, 64)
	return v, err == nil
}

// AsFloat converts a FloatNumber (or, for convenience, an IntNumber) node to
// its native value.
func AsFloat(n *Node, source []byte) (float64, bool) {
	if n.Type != FloatNumber && n.Type != IntNumber {
		return 0, false
	}
	v, err := strconv.ParseFloat(string(n.rawBytes(source)), 64)
	return v, err == nil
}

// AsBool reports whether n is the literal true.
func AsBool(n *Node) bool { return n.Type == True }

// StrInto copies at most len(buf)-1 bytes of n's raw (still-escaped) string
// payload into buf, NUL-terminates it, and returns the written prefix of
// buf (not including the terminator). For a non-string node, or a zero- or
// negative-length buf, it returns an empty slice.
func StrInto(n *Node, source []byte, buf []byte) []byte {
	if n.Type != String || len(buf) == 0 {
		return buf[:0]
	}
	raw := n.rawBytes(source)
	m := len(buf) - 1
	if m > len(raw) {
		m = len(raw)
	}
	copy(buf, raw[:m])
	buf[m] = 0
	return buf[:m]
}

// Unescape decodes a String node's raw payload, replacing JSON escape
// sequences with their unescaped equivalents. It is a convenience beyond
// spec.md's core accessor contract (which only requires verbatim-escaped
// access via StrInto), mirroring jtree's ast.String.Unescape.
func Unescape(n *Node, source []byte) ([]byte, error) {
	if n.Type != String {
		return nil, nil
	}
	return escape.Unquote(mem.B(n.rawBytes(source)))
}
