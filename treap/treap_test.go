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

package treap

import (
	"testing"

	"github.com/adolgert/samplerdome/internal/containertest"
	"github.com/adolgert/samplerdome/internal/xhash"
	"github.com/adolgert/samplerdome/weighted"
)

func newTreap() weighted.Container[string, float64] {
	return New[string, float64](0, 1, xhash.HashString)
}

func TestTreapContract(t *testing.T) {
	containertest.RunContract(t, newTreap, []string{"a", "b", "c", "d", "e"})
}

// TestSeedScenario4 walks the spec's worked example: insert a:1, b:2,
// c:3, d:4 (total 10), delete b (total 8), and check that choosing the
// two boundary points of u lands on the first and last keys in
// ordinate order with their correct weights.
func TestSeedScenario4(t *testing.T) {
	tr := New[string, float64](0, 1, xhash.HashString)
	_ = tr.Set("a", 1)
	_ = tr.Set("b", 2)
	_ = tr.Set("c", 3)
	_ = tr.Set("d", 4)
	if got := tr.Total(); got != 10 {
		t.Fatalf("Total() = %v, want 10", got)
	}

	tr.Erase("b")
	if got := tr.Total(); got != 8 {
		t.Fatalf("Total() after delete b = %v, want 8", got)
	}
	if tr.Has("b") {
		t.Fatalf("Has(b) after delete = true")
	}

	var inOrder []string
	var weights []float64
	tr.Range(func(k string, w float64) bool {
		inOrder = append(inOrder, k)
		weights = append(weights, w)
		return true
	})
	if len(inOrder) != 3 {
		t.Fatalf("Range() yielded %d keys, want 3", len(inOrder))
	}

	firstKey, firstW, err := tr.Choose(0)
	if err != nil {
		t.Fatal(err)
	}
	if firstKey != inOrder[0] || firstW != weights[0] {
		t.Fatalf("Choose(0) = (%q, %v), want (%q, %v)", firstKey, firstW, inOrder[0], weights[0])
	}

	lastKey, lastW, err := tr.Choose(7.999)
	if err != nil {
		t.Fatal(err)
	}
	if lastKey != inOrder[len(inOrder)-1] || lastW != weights[len(weights)-1] {
		t.Fatalf("Choose(7.999) = (%q, %v), want (%q, %v)", lastKey, lastW, inOrder[len(inOrder)-1], weights[len(weights)-1])
	}
}

// TestOrdinateCounterBreaksHashCollisionTies checks that two keys whose
// hashes happen to collide still both insert, get distinct ordinates
// via the monotone counter, and both remain independently choosable.
func TestOrdinateCounterBreaksHashCollisionTies(t *testing.T) {
	collidingHash := func(k string, seed uint64) uint64 { return 42 }
	tr := New[string, float64](0, 1, collidingHash)
	_ = tr.Set("x", 1)
	_ = tr.Set("y", 1)
	if got := tr.Len(); got != 2 {
		t.Fatalf("Len() = %d, want 2", got)
	}
	if got := tr.Total(); got != 2 {
		t.Fatalf("Total() = %v, want 2", got)
	}
	seen := map[string]bool{}
	kx, _, err := tr.Choose(0)
	if err != nil {
		t.Fatal(err)
	}
	seen[kx] = true
	ky, _, err := tr.Choose(1)
	if err != nil {
		t.Fatal(err)
	}
	seen[ky] = true
	if len(seen) != 2 {
		t.Fatalf("Choose at the two unit boundaries returned the same key twice: %v", seen)
	}
}
