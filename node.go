// Copyright (C) 2025 The flatjson Authors. All Rights Reserved.

package flatjson

import "go4.org/mem"

// NodeType classifies the value a Node represents. There is no class
// hierarchy: every operation on a Node switches on Type, the same way
// jtree's Token distinguishes lexical tokens.
type NodeType uint8

// The complete set of node types.
const (
	Null NodeType = iota
	True
	False
	IntNumber
	FloatNumber
	String
	Array
	Object
)

var nodeTypeStr = [...]string{
	Null:        "null",
	True:        "true",
	False:       "false",
	IntNumber:   "integer",
	FloatNumber: "float",
	String:      "string",
	Array:       "array",
	Object:      "object",
}

func (t NodeType) String() string {
	if int(t) < len(nodeTypeStr) {
		return nodeTypeStr[t]
	}
	return "invalid"
}

// IsContainer reports whether t is Array or Object.
func (t NodeType) IsContainer() bool { return t == Array || t == Object }

// A Node is a single fixed-size record in a Store's arena. See spec.md §3
// for the full field contract; in short:
//
//   - Offset/Len locate the value's raw bytes in the logical source stream
//     that was fed to the Parser (or, for builder-created nodes, are unused
//     in favor of StrVal).
//   - Children counts direct children: 0 for scalars, element count for
//     arrays, key+value pair count for objects.
//   - Hash is dual-purpose: for a string node that is an object key, the
//     28-bit DJB2 hash of its raw bytes; for a value node that follows a key
//     in an object, the copied hash of that key; for a container, after it
//     closes, the total count of descendant nodes (all levels), enabling
//     O(1) sibling skipping. Design notes (spec.md §9) call out that this
//     field could be split in two without changing behavior; it stays
//     unioned here to keep the record small, exactly as the field is
//     documented.
type Node struct {
	Type     NodeType
	Offset   uint32
	Len      uint32
	Children uint32
	Hash     uint32

	// StrVal is nil for nodes written by the Parser, which reference the
	// source buffer via Offset/Len. It holds an owned textual form for
	// nodes created through the build package (integer/float textualization,
	// or a string payload), which have no source bytes to point into.
	StrVal []byte
}

// Span reports n's byte range in the source buffer it was parsed from, the
// same role ast.Value.Span() plays in jtree's tree model. A builder-created
// node (StrVal set) has no source bytes and reports a zero-width Span at
// offset 0.
func (n *Node) Span() Span { return Span{Pos: int(n.Offset), End: int(n.Offset) + int(n.Len)} }

// rawBytes returns the node's raw payload bytes: StrVal if the node owns its
// text, otherwise the slice of source between Offset and Offset+Len.
func (n *Node) rawBytes(source []byte) []byte {
	if n.StrVal != nil {
		return n.StrVal
	}
	return source[n.Offset : n.Offset+n.Len]
}

// NodeRef is an index into a Store's arena. Arena indices are stable for the
// lifetime of the Store: there is no compaction and no removal.
type NodeRef int32

// NoNode is the sentinel reported by navigation methods that found nothing.
const NoNode NodeRef = -1

// A Store owns a flat, contiguous arena of Nodes. Nodes are appended in
// strict document-prefix order (spec.md §3, invariant 1): for a container at
// index i, its descendants occupy exactly [i+1, i+1+Hash(i)).
//
// A Store has no notion of the source bytes its Nodes' Offset/Len fields
// refer to: that buffer is borrowed, not owned (spec.md §5), and callers
// must pass it explicitly to any operation that needs to read raw bytes
// (ObjectValue, the accessors, Serialize). This makes the borrow visible at
// every call site instead of hiding a possibly-stale pointer inside the
// Store, which is how spec.md's design notes (§9) ask for the lifetime to be
// encoded in a language without manual lifetimes.
type Store struct {
	nodes []Node
}

// NewStore allocates a Store with a fixed node capacity. The arena never
// grows past capacity: Append reports capacity exhaustion instead of
// reallocating, matching spec.md §4.1's capacity policy.
func NewStore(capacity int) *Store {
	return &Store{nodes: make([]Node, 0, capacity)}
}

// Len reports the number of nodes currently in the arena.
func (s *Store) Len() int { return len(s.nodes) }

// Cap reports the arena's fixed capacity.
func (s *Store) Cap() int { return cap(s.nodes) }

// At returns a pointer to the node at ref, for reading or (during parsing or
// building) in-place mutation of a container's Len/Children/Hash after its
// children have been appended.
func (s *Store) At(ref NodeRef) *Node { return &s.nodes[ref] }

// Append adds n to the end of the arena and returns its index. It reports
// false without mutating the arena if doing so would exceed capacity.
func (s *Store) Append(n Node) (NodeRef, bool) {
	if len(s.nodes) >= cap(s.nodes) {
		return NoNode, false
	}
	s.nodes = append(s.nodes, n)
	return NodeRef(len(s.nodes) - 1), true
}

// Root returns the first node in the arena, or NoNode if the arena is empty.
func (s *Store) Root() (NodeRef, bool) {
	if len(s.nodes) == 0 {
		return NoNode, false
	}
	return 0, true
}

// FirstChild returns the first direct child of the container at ref, or
// NoNode if ref is a scalar or an empty container.
func (s *Store) FirstChild(ref NodeRef) (NodeRef, bool) {
	n := &s.nodes[ref]
	if !n.Type.IsContainer() || n.Children == 0 {
		return NoNode, false
	}
	return ref + 1, true
}

// NextSibling returns the node immediately following ref's subtree, or
// NoNode if ref is the last node in the arena.
//
// This is the operation the whole node encoding exists to make O(1): a
// container's Hash field holds its total descendant count once closed, so
// skipping it means adding 1+Hash instead of walking its children. Using
// only the direct child count here (a natural-looking bug) would skip past
// the wrong number of nodes for any container containing another container,
// per spec.md §4.2's "critical correctness point".
func (s *Store) NextSibling(ref NodeRef) (NodeRef, bool) {
	n := &s.nodes[ref]
	var next NodeRef
	if n.Type.IsContainer() {
		next = ref + 1 + NodeRef(n.Hash)
	} else {
		next = ref + 1
	}
	if int(next) >= len(s.nodes) {
		return NoNode, false
	}
	return next, true
}

// ArrayElement returns the i'th element (0-based) of the array at ref, or
// NoNode if i is out of range or ref is not an array with that many
// elements.
func (s *Store) ArrayElement(ref NodeRef, i int) (NodeRef, bool) {
	n := &s.nodes[ref]
	if n.Type != Array || i < 0 || uint32(i) >= n.Children {
		return NoNode, false
	}
	cur, ok := s.FirstChild(ref)
	for ; i > 0 && ok; i-- {
		cur, ok = s.NextSibling(cur)
	}
	return cur, ok
}

// ObjectValue returns the value associated with key in the object at ref, or
// NoNode if ref is not an object or has no member with that key. source must
// be the same (or an equally-addressed) buffer that was fed to the Parser
// that produced ref's arena, since key comparison reads raw key bytes via
// Offset/Len.
//
// Per spec.md's open question on hash collisions, a match on the 28-bit
// DJB2 hash is only ever a filter: ObjectValue always performs a full
// byte-wise comparison afterward, and never returns a value based on the
// hash alone.
func (s *Store) ObjectValue(source []byte, ref NodeRef, key []byte) (NodeRef, bool) {
	n := &s.nodes[ref]
	if n.Type != Object {
		return NoNode, false
	}
	want := mem.B(key)
	h := djb2(key)
	child, ok := s.FirstChild(ref)
	for i := uint32(0); ok && i < n.Children; i++ {
		kn := &s.nodes[child]
		// Compare the key's payload (StrVal or source span) rather than Len,
		// which is unset on builder-created keys.
		if kn.Type == String && kn.Hash == h && mem.B(kn.rawBytes(source)).Equal(want) {
			return s.NextSibling(child)
		}
		// Advance past this key's value to the next key.
		valRef, ok2 := s.NextSibling(child)
		if !ok2 {
			return NoNode, false
		}
		child, ok = s.NextSibling(valRef)
	}
	return NoNode, false
}

// djb2 computes the 28-bit truncated DJB2 hash spec.md uses for object key
// nodes: h = h*33 ^ byte, seeded at 0.
func djb2(data []byte) uint32 {
	var h uint32
	for _, b := range data {
		h = h*33 ^ uint32(b)
	}
	return h & 0x0FFFFFFF
}

// KeyHash exposes the object-key hash function to the build package, which
// must compute a key node's Hash itself since it appends nodes directly
// rather than through the Parser's string-scanning path.
func KeyHash(key []byte) uint32 { return djb2(key) }
