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

package segtree

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/adolgert/samplerdome/weighted"
)

func TestSeedScenario1(t *testing.T) {
	tr := New[float64](4)
	for i, w := range []float64{1.0, 2.0, 5.0, 2.0} {
		if err := tr.Update(i+1, w); err != nil {
			t.Fatal(err)
		}
	}
	if got := tr.Total(); got != 10.0 {
		t.Fatalf("Total() = %v, want 10.0", got)
	}

	cases := []struct {
		u       float64
		wantI   int
		wantW   float64
	}{
		{0, 1, 1.0},
		{0.999, 1, 1.0},
		{1.0, 2, 2.0},
		{7.999, 3, 5.0},
		{8.0, 4, 2.0},
	}
	for _, c := range cases {
		i, w, err := tr.Choose(c.u)
		if err != nil {
			t.Fatalf("Choose(%v): %v", c.u, err)
		}
		if i != c.wantI || w != c.wantW {
			t.Fatalf("Choose(%v) = (%d, %v), want (%d, %v)", c.u, i, w, c.wantI, c.wantW)
		}
	}
}

func TestChooseOutOfRange(t *testing.T) {
	tr := New[float64](4)
	_ = tr.Update(1, 3.0)
	if _, _, err := tr.Choose(-1); !errors.Is(err, weighted.ErrOutOfRange) {
		t.Fatalf("Choose(-1): err = %v, want ErrOutOfRange", err)
	}
	if _, _, err := tr.Choose(3.0); !errors.Is(err, weighted.ErrOutOfRange) {
		t.Fatalf("Choose(total): err = %v, want ErrOutOfRange", err)
	}
}

func TestPrefixBefore(t *testing.T) {
	tr := New[float64](4)
	weights := []float64{1.0, 2.0, 5.0, 2.0}
	for i, w := range weights {
		_ = tr.Update(i+1, w)
	}
	want := 0.0
	for i := 1; i <= 4; i++ {
		got, err := tr.PrefixBefore(i)
		if err != nil {
			t.Fatal(err)
		}
		if got != want {
			t.Fatalf("PrefixBefore(%d) = %v, want %v", i, got, want)
		}
		want += weights[i-1]
	}
	last, err := tr.PrefixBefore(5)
	if err != nil {
		t.Fatal(err)
	}
	if last != tr.Total() {
		t.Fatalf("PrefixBefore(cap+1) = %v, want Total() = %v", last, tr.Total())
	}
}

func TestGrowPreservesWeights(t *testing.T) {
	tr := New[float64](2)
	_ = tr.Update(1, 3.0)
	_ = tr.Update(2, 4.0)
	if err := tr.Grow(10); err != nil {
		t.Fatal(err)
	}
	if got := tr.Total(); got != 7.0 {
		t.Fatalf("Total() after grow = %v, want 7.0", got)
	}
	_ = tr.Update(10, 1.0)
	if got := tr.Total(); got != 8.0 {
		t.Fatalf("Total() after grow+update = %v, want 8.0", got)
	}
	i, w, err := tr.Choose(7.5)
	if err != nil {
		t.Fatal(err)
	}
	if i != 10 || w != 1.0 {
		t.Fatalf("Choose(7.5) = (%d, %v), want (10, 1.0)", i, w)
	}
}

func TestRandomizedAgainstBruteForce(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	const cap = 37
	tr := New[float64](cap)
	weights := make([]float64, cap+1)
	for i := 1; i <= cap; i++ {
		w := rng.Float64() * 10
		weights[i] = w
		_ = tr.Update(i, w)
	}
	total := 0.0
	for _, w := range weights {
		total += w
	}
	for trial := 0; trial < 500; trial++ {
		u := rng.Float64() * total
		i, w, err := tr.Choose(u)
		if err != nil {
			t.Fatal(err)
		}
		// brute-force prefix scan
		running := 0.0
		wantI := -1
		for j := 1; j <= cap; j++ {
			if u < running+weights[j] {
				wantI = j
				break
			}
			running += weights[j]
		}
		if i != wantI || w != weights[i] {
			t.Fatalf("Choose(%v) = (%d, %v), want (%d, %v)", u, i, w, wantI, weights[wantI])
		}
	}
}
