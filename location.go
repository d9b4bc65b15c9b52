// Copyright (C) 2025 The flatjson Authors. All Rights Reserved.

package flatjson

// A Span describes a contiguous span of a source input, as absolute byte
// offsets into the logical (reassembled) stream fed to a Parser.
type Span struct {
	Pos int // the start offset, 0-based
	End int // the end offset, 0-based (noninclusive)
}

// A LineCol describes the line number and column offset of a location in
// source text.
type LineCol struct {
	Line   int // line number, 1-based
	Column int // byte offset of column in line, 0-based
}

// A Location describes the complete location of a span of source text,
// including line and column offsets for both ends of the span, mirroring
// jtree's Location (location.go) which pairs a Span with First/Last
// LineCol. Parser itself only tracks a running line counter for error
// reporting (spec.md §4.1, ParseError.Line) and never a column, since doing
// so during incremental Feed calls would mean carrying a "column since last
// newline" counter that error reporting alone does not need; Locate exists
// for callers, such as a REPL or a linter built on this package, that hold
// the full source and want a human-facing position for an arbitrary Node.
type Location struct {
	Span
	First, Last LineCol
}

// Locate computes the Location of span within source by counting newlines.
// Unlike Parser's running line counter, this walks source directly and so
// requires the caller to hold the complete (already-reassembled) buffer; it
// is not meant to be called per-token during incremental parsing.
func Locate(source []byte, span Span) Location {
	return Location{
		Span:  span,
		First: lineCol(source, span.Pos),
		Last:  lineCol(source, span.End),
	}
}

// lineCol reports the 1-based line number and 0-based column of byte offset
// pos in source, clamping pos to [0, len(source)].
func lineCol(source []byte, pos int) LineCol {
	if pos < 0 {
		pos = 0
	}
	if pos > len(source) {
		pos = len(source)
	}
	line, col := 1, 0
	for _, b := range source[:pos] {
		if b == '\n' {
			line++
			col = 0
		} else {
			col++
		}
	}
	return LineCol{Line: line, Column: col}
}
