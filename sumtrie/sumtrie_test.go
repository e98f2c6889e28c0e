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

package sumtrie

import (
	"math/rand"
	"testing"

	"github.com/adolgert/samplerdome/internal/containertest"
	"github.com/adolgert/samplerdome/internal/xhash"
	"github.com/adolgert/samplerdome/weighted"
)

const (
	s1 = 111
	s2 = 222
)

func newSumTrie() weighted.Container[string, float64] {
	return New[string, float64](s1, s2, xhash.HashString)
}

func TestSumTrieContract(t *testing.T) {
	containertest.RunContract(t, newSumTrie, []string{"a", "b", "c", "d", "e"})
}

// collidingOrdinateHash gives "p" and "q" the same Hi word and Lo words
// that differ only in the least significant bit, so their ordinates
// share every branch above the trie's deepest possible crit bit.
func collidingOrdinateHash(k string, seed uint64) uint64 {
	if seed == s1 {
		return 0xDEADBEEF
	}
	switch k {
	case "p":
		return 0x10
	case "q":
		return 0x11
	default:
		return 0
	}
}

// TestSeedScenario5 checks the spec's worked boundary case: two keys
// whose ordinates differ only in the lowest bit share a single branch
// node, and choosing exactly the left subtree's weight falls through
// to the right leaf rather than the left one.
func TestSeedScenario5(t *testing.T) {
	tr := New[string, float64](s1, s2, collidingOrdinateHash)
	if err := tr.Set("p", 3.0); err != nil {
		t.Fatal(err)
	}
	if err := tr.Set("q", 4.0); err != nil {
		t.Fatal(err)
	}
	if got := tr.Total(); got != 7.0 {
		t.Fatalf("Total() = %v, want 7.0", got)
	}
	if got := tr.Height(); got != 1 {
		t.Fatalf("Height() = %d, want 1 (single branch separating p and q)", got)
	}

	k, w, err := tr.Choose(3.0)
	if err != nil {
		t.Fatal(err)
	}
	if k != "q" || w != 4.0 {
		t.Fatalf("Choose(3.0) = (%q, %v), want (\"q\", 4.0)", k, w)
	}

	k, w, err = tr.Choose(2.999)
	if err != nil {
		t.Fatal(err)
	}
	if k != "p" || w != 3.0 {
		t.Fatalf("Choose(2.999) = (%q, %v), want (\"p\", 3.0)", k, w)
	}
}

// TestHeightBounded checks spec.md §8's height <= 128 property across a
// large randomized population of keys.
func TestHeightBounded(t *testing.T) {
	tr := New[int, float64](1, 2, xhash.HashInt)
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 5000; i++ {
		if err := tr.Set(rng.Int(), rng.Float64()*10+0.01); err != nil {
			t.Fatal(err)
		}
	}
	if h := tr.Height(); h > 128 {
		t.Fatalf("Height() = %d, want <= 128", h)
	}
}

func TestEraseCollapsesBranch(t *testing.T) {
	tr := New[string, float64](s1, s2, collidingOrdinateHash)
	_ = tr.Set("p", 3.0)
	_ = tr.Set("q", 4.0)
	tr.Erase("p")
	if tr.Has("p") {
		t.Fatalf("Has(p) after erase = true")
	}
	if got := tr.Total(); got != 4.0 {
		t.Fatalf("Total() after erasing p = %v, want 4.0", got)
	}
	if got := tr.Height(); got != 0 {
		t.Fatalf("Height() after collapsing to one key = %d, want 0", got)
	}
	k, w, err := tr.Choose(0)
	if err != nil {
		t.Fatal(err)
	}
	if k != "q" || w != 4.0 {
		t.Fatalf("Choose(0) = (%q, %v), want (\"q\", 4.0)", k, w)
	}
}
