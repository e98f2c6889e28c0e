// Copyright 2023 Sneller, Inc.
//
//  Licensed under the Apache License, Version 2.0 (the "License");
//  you may not use this file except in compliance with the License.
//  You may obtain a copy of the License at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
//  Unless required by applicable law or agreed to in writing, software
//  distributed under the License is distributed on an "AS IS" BASIS,
//  WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
//  See the License for the specific language governing permissions and
//  limitations under the License.

package composition

import (
	"errors"
	"testing"

	"github.com/adolgert/samplerdome/keyed"
	"github.com/adolgert/samplerdome/segtree"
	"github.com/adolgert/samplerdome/weighted"
)

func newGroup() weighted.Container[string, float64] {
	return keyed.NewRemoval[string, float64](segtree.New[float64](4))
}

func TestDispatcherChoosesGroupThenMember(t *testing.T) {
	g1, g2 := newGroup(), newGroup()
	_ = g1.Set("a", 1.0)
	_ = g1.Set("b", 1.0)
	_ = g2.Set("c", 8.0)

	d, err := New[string, float64](g1, g2)
	if err != nil {
		t.Fatal(err)
	}
	if got := d.Total(); got != 10.0 {
		t.Fatalf("Total() = %v, want 10.0", got)
	}

	g, k, w, err := d.Choose(5.0)
	if err != nil {
		t.Fatal(err)
	}
	if g != 2 || k != "c" || w != 8.0 {
		t.Fatalf("Choose(5.0) = (%d, %q, %v), want (2, \"c\", 8.0)", g, k, w)
	}

	g, k, _, err = d.Choose(0.5)
	if err != nil {
		t.Fatal(err)
	}
	if g != 1 {
		t.Fatalf("Choose(0.5) group = %d, want 1", g)
	}
	if k != "a" && k != "b" {
		t.Fatalf("Choose(0.5) key = %q, want a or b", k)
	}
}

func TestDispatcherSetUpdatesGroupTotal(t *testing.T) {
	g1, g2 := newGroup(), newGroup()
	d, err := New[string, float64](g1, g2)
	if err != nil {
		t.Fatal(err)
	}
	if err := d.Set(1, "x", 3.0); err != nil {
		t.Fatal(err)
	}
	if err := d.Set(2, "y", 7.0); err != nil {
		t.Fatal(err)
	}
	if got := d.Total(); got != 10.0 {
		t.Fatalf("Total() = %v, want 10.0", got)
	}
	d.Erase(2, "y")
	if got := d.Total(); got != 3.0 {
		t.Fatalf("Total() after erase = %v, want 3.0", got)
	}
	if got := d.Len(); got != 1 {
		t.Fatalf("Len() = %d, want 1", got)
	}
}

func TestNewRejectsEmptyGroupList(t *testing.T) {
	_, err := New[string, float64]()
	if !errors.Is(err, weighted.ErrInvalidCapacity) {
		t.Fatalf("New() with no groups: err = %v, want ErrInvalidCapacity", err)
	}
}

func TestGroupOutOfRange(t *testing.T) {
	d, err := New[string, float64](newGroup())
	if err != nil {
		t.Fatal(err)
	}
	if err := d.Set(2, "x", 1.0); !errors.Is(err, weighted.ErrInternal) {
		t.Fatalf("Set(2, ...) on a 1-group dispatcher: err = %v, want ErrInternal", err)
	}
}
