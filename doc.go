// Copyright (C) 2025 The flatjson Authors. All Rights Reserved.

// Package flatjson implements an incremental, chunk-fed, zero-copy JSON
// parser that decodes directly into a flat, contiguous array of typed
// nodes rather than a tree of pointers.
//
// # Parsing
//
// The Parser type accepts JSON text one chunk at a time and reports its
// structure into a Store. Construct a Parser with a fixed node and
// container-stack capacity, feed it byte slices as they arrive, and call
// Finish once the document is complete:
//
//	p := flatjson.NewParser(1024, 64)
//	for chunk := range chunks {
//	   if !p.Feed(chunk) {
//	      log.Fatalf("parse failed: %v", p.Err())
//	   }
//	}
//	if !p.Finish() {
//	   log.Fatalf("parse failed: %v", p.Err())
//	}
//
// Feed may be called any number of times with chunks of any size,
// including chunks that split a string escape, a number, or a literal
// across the boundary; the Parser's state machine carries partial tokens
// forward between calls. Once an error is recorded, Feed and Finish become
// no-ops and continue reporting the same error.
//
// # Navigation
//
// A Store owns the arena a Parser fills in. Root returns the document's
// root node; FirstChild, NextSibling, ArrayElement, and ObjectValue
// traverse from there. NextSibling is the operation the node encoding
// exists to make O(1): skipping over a container's entire subtree, no
// matter how deeply nested, costs one arithmetic step rather than a walk.
//
//	root, _ := p.Store().Root()
//	v, ok := p.Store().ObjectValue(source, root, []byte("name"))
//
// source is the same buffer (or byte-for-byte equal buffer) that was fed
// to the Parser: the Store holds only Offset/Len spans into it, never a
// copy, so every operation that reads raw text takes source explicitly.
//
// # Building
//
// The build package constructs trees programmatically, appending directly
// into a Store's arena the same way the Parser does. It is the escape
// hatch for producing flatjson documents without parsing JSON text at all.
//
// # Serialization
//
// Serialize writes the subtree rooted at any node back out as JSON, in
// either compact or pretty form, to any Sink (ByteSink is the provided
// growable implementation).
//
// # Querying
//
// The query package implements structural queries (path lookups,
// selections, mappings, slices) over a Store, and the jpath package
// compiles a JSONPath-like expression string into a query.Query.
package flatjson
