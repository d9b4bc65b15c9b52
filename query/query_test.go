// Copyright (C) 2025 The flatjson Authors. All Rights Reserved.

package query_test

import (
	"testing"

	"github.com/go-flatjson/flatjson"
	"github.com/go-flatjson/flatjson/query"
)

func parse(t *testing.T, doc string) (*flatjson.Store, []byte, flatjson.NodeRef) {
	t.Helper()
	p := flatjson.NewParser(64, 16)
	src := []byte(doc)
	if !p.Feed(src) || !p.Finish() {
		t.Fatalf("parse %q: %v", doc, p.Err())
	}
	root, ok := p.Store().Root()
	if !ok {
		t.Fatalf("parse %q: no root", doc)
	}
	return p.Store(), src, root
}

const sample = `[{"a": 1, "b": 2}, {"c": {"d": true}, "e": false}]`

func TestPath(t *testing.T) {
	s, src, root := parse(t, sample)

	ref, err := query.Eval(s, src, root, query.Path(1, "c", "d"))
	if err != nil {
		t.Fatalf("Path(1, c, d): %v", err)
	}
	if !flatjson.AsBool(s.At(ref)) {
		t.Fatal("Path(1, c, d): want true")
	}

	if _, err := query.Eval(s, src, root, query.Path(1, "z")); err == nil {
		t.Fatal("Path(1, z): want error")
	}
	if _, err := query.Eval(s, src, root, query.Path(5)); err == nil {
		t.Fatal("Path(5): want error (index out of range)")
	}
}

func TestSeqEmptyIsIdentity(t *testing.T) {
	s, src, root := parse(t, sample)
	ref, err := query.Eval(s, src, root, query.Seq{})
	if err != nil || ref != root {
		t.Fatalf("Seq{}: got (%v, %v); want (%v, nil)", ref, err, root)
	}
}

func TestAlt(t *testing.T) {
	s, src, root := parse(t, sample)
	ref, err := query.Eval(s, src, root, query.Alt{
		query.Path(1, "nope"),
		query.Path(0, "b"),
	})
	if err != nil {
		t.Fatalf("Alt: %v", err)
	}
	if v, _ := flatjson.AsInt(s.At(ref), src); v != 2 {
		t.Fatalf("Alt result = %d; want 2", v)
	}
}

func TestSelectionAndMapping(t *testing.T) {
	s, src, root := parse(t, `[1, 2, 3, 4, 5]`)

	even := query.Selection(func(s *flatjson.Store, src []byte, ref flatjson.NodeRef) bool {
		v, _ := flatjson.AsInt(s.At(ref), src)
		return v%2 == 0
	})
	ref, err := query.Eval(s, src, root, even)
	if err != nil {
		t.Fatalf("Selection: %v", err)
	}
	var got []int64
	for c, ok := s.FirstChild(ref); ok; c, ok = s.NextSibling(c) {
		v, _ := flatjson.AsInt(s.At(c), src)
		got = append(got, v)
	}
	if len(got) != 2 || got[0] != 2 || got[1] != 4 {
		t.Fatalf("Selection result = %v; want [2 4]", got)
	}

	doubled := query.Mapping{query.Int(0)} // every element replaced by the constant 0
	ref2, err := query.Eval(s, src, root, doubled)
	if err != nil {
		t.Fatalf("Mapping: %v", err)
	}
	var zeros []int64
	for c, ok := s.FirstChild(ref2); ok; c, ok = s.NextSibling(c) {
		v, _ := flatjson.AsInt(s.At(c), src)
		zeros = append(zeros, v)
	}
	if len(zeros) != 5 {
		t.Fatalf("Mapping result length = %d; want 5", len(zeros))
	}
	for _, v := range zeros {
		if v != 0 {
			t.Fatalf("Mapping result = %v; want all zero", zeros)
		}
	}
}

func TestLen(t *testing.T) {
	s, src, root := parse(t, sample)
	ref, err := query.Eval(s, src, root, query.Len())
	if err != nil {
		t.Fatalf("Len: %v", err)
	}
	if v, _ := flatjson.AsInt(s.At(ref), src); v != 2 {
		t.Fatalf("Len(root array) = %d; want 2", v)
	}
}

func TestGlobAndEach(t *testing.T) {
	s, src, root := parse(t, `{"x": 1, "y": 2}`)

	ref, err := query.Eval(s, src, root, query.Glob())
	if err != nil {
		t.Fatalf("Glob: %v", err)
	}
	if s.At(ref).Children != 2 {
		t.Fatalf("Glob: %d elements; want 2", s.At(ref).Children)
	}

	s2, src2, root2 := parse(t, `[{"v": 1}, {"v": 2}, {"v": 3}]`)
	ref2, err := query.Eval(s2, src2, root2, query.Each("v"))
	if err != nil {
		t.Fatalf("Each(v): %v", err)
	}
	var got []int64
	for c, ok := s2.FirstChild(ref2); ok; c, ok = s2.NextSibling(c) {
		v, _ := flatjson.AsInt(s2.At(c), src2)
		got = append(got, v)
	}
	if len(got) != 3 || got[0] != 1 || got[2] != 3 {
		t.Fatalf("Each(v) = %v; want [1 2 3]", got)
	}
}

func TestSliceAndPick(t *testing.T) {
	s, src, root := parse(t, `[10, 20, 30, 40, 50]`)

	ref, err := query.Eval(s, src, root, query.Slice(1, 3))
	if err != nil {
		t.Fatalf("Slice: %v", err)
	}
	var got []int64
	for c, ok := s.FirstChild(ref); ok; c, ok = s.NextSibling(c) {
		v, _ := flatjson.AsInt(s.At(c), src)
		got = append(got, v)
	}
	if len(got) != 2 || got[0] != 20 || got[1] != 30 {
		t.Fatalf("Slice(1,3) = %v; want [20 30]", got)
	}

	ref2, err := query.Eval(s, src, root, query.Pick(0, -1))
	if err != nil {
		t.Fatalf("Pick: %v", err)
	}
	var picked []int64
	for c, ok := s.FirstChild(ref2); ok; c, ok = s.NextSibling(c) {
		v, _ := flatjson.AsInt(s.At(c), src)
		picked = append(picked, v)
	}
	if len(picked) != 2 || picked[0] != 10 || picked[1] != 50 {
		t.Fatalf("Pick(0,-1) = %v; want [10 50]", picked)
	}
}

func TestObjectAndArrayConstructors(t *testing.T) {
	s, src, root := parse(t, sample)

	ref, err := query.Eval(s, src, root, query.Object{
		"first": query.Path(0, "a"),
		"nested": query.Array{
			query.Path(1, "c", "d"),
			query.Int(99),
		},
	})
	if err != nil {
		t.Fatalf("Object: %v", err)
	}
	if s.At(ref).Type != flatjson.Object || s.At(ref).Children != 2 {
		t.Fatalf("Object result: type=%v children=%d", s.At(ref).Type, s.At(ref).Children)
	}

	firstVal, ok := s.ObjectValue(src, ref, []byte("first"))
	if !ok {
		t.Fatal("Object result: missing key \"first\"")
	}
	if v, _ := flatjson.AsInt(s.At(firstVal), src); v != 1 {
		t.Fatalf("first = %d; want 1", v)
	}

	nestedVal, ok := s.ObjectValue(src, ref, []byte("nested"))
	if !ok {
		t.Fatal("Object result: missing key \"nested\"")
	}
	if s.At(nestedVal).Type != flatjson.Array || s.At(nestedVal).Children != 2 {
		t.Fatalf("nested: type=%v children=%d", s.At(nestedVal).Type, s.At(nestedVal).Children)
	}

	// NextSibling must correctly skip the whole constructed Object, proving
	// its Hash (built through repeated ObjectSet calls, never an explicit
	// close step) accounts for nested's own descendants too.
	if _, ok := s.NextSibling(ref); ok {
		t.Fatal("NextSibling(constructed object): want none (it is the last node)")
	}
}

func TestCopiedStringRoundTripsWithoutDoubleEscaping(t *testing.T) {
	s, src, root := parse(t, `{"s": "a\nb"}`)
	arr, err := query.Eval(s, src, root, query.Array{query.Path("s")})
	if err != nil {
		t.Fatalf("Array{Path(s)}: %v", err)
	}
	copied, ok := s.FirstChild(arr)
	if !ok {
		t.Fatal("copied element not found")
	}
	if s.At(copied).StrVal == nil {
		t.Fatal("copied string node has no owned StrVal")
	}
	if got := string(s.At(copied).StrVal); got != "a\nb" {
		t.Fatalf("copied StrVal = %q; want %q (unescaped, not %q)", got, "a\nb", `a\nb`)
	}
}

// TestCopiedObjectKeyRoundTripsWithoutDoubleEscaping is the object-key
// analogue of TestCopiedStringRoundTripsWithoutDoubleEscaping: copying a
// whole object (as opposed to a single string value) must unescape its
// keys' raw bytes before handing them to build.ObjectSet, or a key
// containing an escape sequence gets escaped a second time on the next
// serialize.
func TestCopiedObjectKeyRoundTripsWithoutDoubleEscaping(t *testing.T) {
	s, src, root := parse(t, `{"outer": {"a\tb": 1}}`)
	arr, err := query.Eval(s, src, root, query.Array{query.Path("outer")})
	if err != nil {
		t.Fatalf("Array{Path(outer)}: %v", err)
	}
	copied, ok := s.FirstChild(arr)
	if !ok {
		t.Fatal("copied element not found")
	}
	if s.At(copied).Type != flatjson.Object {
		t.Fatalf("copied element type = %v; want Object", s.At(copied).Type)
	}
	key, ok := s.FirstChild(copied)
	if !ok {
		t.Fatal("copied object has no members")
	}
	if s.At(key).StrVal == nil {
		t.Fatal("copied key node has no owned StrVal")
	}
	if got := string(s.At(key).StrVal); got != "a\tb" {
		t.Fatalf("copied key StrVal = %q; want %q (unescaped, not %q)", got, "a\tb", `a\tb`)
	}
	if want := flatjson.KeyHash([]byte("a\tb")); s.At(key).Hash != want {
		t.Fatalf("copied key hash = %d; want KeyHash(unescaped) = %d", s.At(key).Hash, want)
	}
}
