// Copyright (C) 2025 The flatjson Authors. All Rights Reserved.

package build_test

import (
	"testing"

	"github.com/go-flatjson/flatjson"
	"github.com/go-flatjson/flatjson/build"

	"github.com/creachadair/mds/mtest"
)

func TestScalars(t *testing.T) {
	s := flatjson.NewStore(8)

	if _, ok := build.Null(s); !ok {
		t.Fatal("Null: want ok")
	}
	if ref, ok := build.Bool(s, true); !ok || s.At(ref).Type != flatjson.True {
		t.Fatal("Bool(true): want True node")
	}
	if ref, ok := build.Int(s, -42); !ok {
		t.Fatal("Int: want ok")
	} else if v, ok := flatjson.AsInt(s.At(ref), nil); !ok || v != -42 {
		t.Fatalf("AsInt = %d, %v; want -42, true", v, ok)
	}
	if ref, ok := build.Float(s, 1.5); !ok {
		t.Fatal("Float: want ok")
	} else if v, ok := flatjson.AsFloat(s.At(ref), nil); !ok || v != 1.5 {
		t.Fatalf("AsFloat = %v, %v; want 1.5, true", v, ok)
	}
	if ref, ok := build.String(s, "hi\nthere"); !ok {
		t.Fatal("String: want ok")
	} else if got := string(s.At(ref).StrVal); got != "hi\nthere" {
		t.Fatalf("StrVal = %q", got)
	}
}

func TestArray(t *testing.T) {
	s := flatjson.NewStore(16)
	arr, ok := build.Array(s)
	if !ok {
		t.Fatal("Array: want ok")
	}
	for _, v := range []int64{1, 2, 3} {
		v := v
		if !build.ArrayAppend(s, arr, func() (flatjson.NodeRef, bool) { return build.Int(s, v) }) {
			t.Fatalf("ArrayAppend(%d): want ok", v)
		}
	}

	n := s.At(arr)
	if n.Children != 3 {
		t.Fatalf("Children = %d; want 3", n.Children)
	}
	if n.Hash != 3 {
		t.Fatalf("Hash (descendant count) = %d; want 3", n.Hash)
	}

	for i, want := range []int64{1, 2, 3} {
		ref, ok := s.ArrayElement(arr, i)
		if !ok {
			t.Fatalf("ArrayElement(%d): not found", i)
		}
		if got, _ := flatjson.AsInt(s.At(ref), nil); got != want {
			t.Fatalf("element %d = %d; want %d", i, got, want)
		}
	}
}

func TestObjectAndNesting(t *testing.T) {
	s := flatjson.NewStore(16)
	obj, ok := build.Object(s)
	if !ok {
		t.Fatal("Object: want ok")
	}

	if !build.ObjectSet(s, obj, "name", func() (flatjson.NodeRef, bool) {
		return build.String(s, "ok")
	}) {
		t.Fatal("ObjectSet(name): want ok")
	}

	if !build.ObjectSet(s, obj, "nums", func() (flatjson.NodeRef, bool) {
		arr, ok := build.Array(s)
		if !ok {
			return flatjson.NoNode, false
		}
		for _, v := range []int64{10, 20} {
			v := v
			if !build.ArrayAppend(s, arr, func() (flatjson.NodeRef, bool) { return build.Int(s, v) }) {
				return flatjson.NoNode, false
			}
		}
		return arr, true
	}) {
		t.Fatal("ObjectSet(nums): want ok")
	}

	o := s.At(obj)
	if o.Children != 2 {
		t.Fatalf("Children = %d; want 2", o.Children)
	}
	// key("name") + "ok" + key("nums") + array header + 10 + 20 = 6 descendants.
	if o.Hash != 6 {
		t.Fatalf("Hash (descendant count) = %d; want 6", o.Hash)
	}

	if ref, ok := s.ObjectValue(nil, obj, []byte("name")); !ok {
		t.Fatal("ObjectValue(name): not found")
	} else if string(s.At(ref).StrVal) != "ok" {
		t.Fatalf("value = %q", s.At(ref).StrVal)
	}

	numsRef, ok := s.ObjectValue(nil, obj, []byte("nums"))
	if !ok {
		t.Fatal("ObjectValue(nums): not found")
	}
	if got, _ := s.ArrayElement(numsRef, 1); got == flatjson.NoNode {
		t.Fatal("nums[1]: not found")
	} else if v, _ := flatjson.AsInt(s.At(got), nil); v != 20 {
		t.Fatalf("nums[1] = %d; want 20", v)
	}

	// NextSibling must skip clean over the nested array to find nothing
	// after it, proving the object's Hash correctly counted the array's
	// own descendants rather than just its direct Children.
	if _, ok := s.NextSibling(numsRef); ok {
		t.Fatal("NextSibling(nums): want no further sibling")
	}
}

func TestMisuseePanics(t *testing.T) {
	s := flatjson.NewStore(8)
	scalar, _ := build.Int(s, 1)

	mtest.MustPanic(t, func() {
		build.ArrayAppend(s, scalar, func() (flatjson.NodeRef, bool) { return build.Null(s) })
	})
	mtest.MustPanic(t, func() {
		build.ObjectSet(s, scalar, "k", func() (flatjson.NodeRef, bool) { return build.Null(s) })
	})
}

func TestFreeTree(t *testing.T) {
	s := flatjson.NewStore(8)
	arr, _ := build.Array(s)
	build.ArrayAppend(s, arr, func() (flatjson.NodeRef, bool) { return build.String(s, "owned") })

	build.FreeTree(s, arr)

	child, ok := s.FirstChild(arr)
	if !ok {
		t.Fatal("FirstChild: not found")
	}
	if s.At(child).StrVal != nil {
		t.Fatal("FreeTree: StrVal still set")
	}
}
