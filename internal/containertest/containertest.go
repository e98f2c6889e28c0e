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

// Package containertest holds the spec.md §8 "universal properties"
// checks shared by every keyed weighted.Container implementation's own
// _test.go file, so each variant exercises the same contract instead
// of reinventing it.
package containertest

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"golang.org/x/exp/slices"

	"github.com/adolgert/samplerdome/weighted"
)

const tolerance = 1e-6

func approxEqual(a, b float64) bool {
	d := a - b
	if d < 0 {
		d = -d
	}
	return d <= tolerance
}

// RunContract exercises the universal properties of spec.md §8 against
// a freshly constructed, empty container, using the given sample keys.
// newContainer must return a new, empty container on every call.
func RunContract(t *testing.T, newContainer func() weighted.Container[string, float64], keys []string) {
	t.Helper()
	if len(keys) < 3 {
		t.Fatalf("RunContract needs at least 3 sample keys, got %d", len(keys))
	}

	t.Run("total matches sum of sets", func(t *testing.T) {
		c := newContainer()
		want := 0.0
		for i, k := range keys {
			w := float64(i + 1)
			if err := c.Set(k, w); err != nil {
				t.Fatalf("Set(%q, %v): %v", k, w, err)
			}
			want += w
		}
		if got := c.Total(); !approxEqual(got, want) {
			t.Fatalf("Total() = %v, want %v", got, want)
		}
	})

	t.Run("get returns most recent set", func(t *testing.T) {
		c := newContainer()
		k := keys[0]
		if err := c.Set(k, 3); err != nil {
			t.Fatal(err)
		}
		if err := c.Set(k, 7); err != nil {
			t.Fatal(err)
		}
		got, err := c.Get(k)
		if err != nil {
			t.Fatal(err)
		}
		if !approxEqual(got, 7) {
			t.Fatalf("Get(%q) = %v, want 7", k, got)
		}
	})

	t.Run("get on absent key fails with ErrNotFound", func(t *testing.T) {
		c := newContainer()
		_, err := c.Get(keys[0])
		if !errors.Is(err, weighted.ErrNotFound) {
			t.Fatalf("Get on empty container: err = %v, want ErrNotFound", err)
		}
	})

	t.Run("choose returns a live key with its weight", func(t *testing.T) {
		c := newContainer()
		want := map[string]float64{}
		for i, k := range keys {
			w := float64(i + 1)
			if err := c.Set(k, w); err != nil {
				t.Fatal(err)
			}
			want[k] = w
		}
		total := c.Total()
		rng := rand.New(rand.NewSource(1))
		for i := 0; i < 200; i++ {
			u := rng.Float64() * total
			k, w, err := c.Choose(u)
			if err != nil {
				t.Fatalf("Choose(%v): %v", u, err)
			}
			if !c.Has(k) {
				t.Fatalf("Choose(%v) returned dead key %q", u, k)
			}
			if wantW := want[k]; !approxEqual(w, wantW) {
				t.Fatalf("Choose(%v) = (%q, %v), want weight %v", u, k, w, wantW)
			}
		}
	})

	t.Run("choose out of range fails", func(t *testing.T) {
		c := newContainer()
		if err := c.Set(keys[0], 5); err != nil {
			t.Fatal(err)
		}
		if _, _, err := c.Choose(-1); !errors.Is(err, weighted.ErrOutOfRange) {
			t.Fatalf("Choose(-1): err = %v, want ErrOutOfRange", err)
		}
		if _, _, err := c.Choose(5); !errors.Is(err, weighted.ErrOutOfRange) {
			t.Fatalf("Choose(total): err = %v, want ErrOutOfRange", err)
		}
	})

	t.Run("idempotent erase", func(t *testing.T) {
		c := newContainer()
		for i, k := range keys {
			if err := c.Set(k, float64(i+1)); err != nil {
				t.Fatal(err)
			}
		}
		c.Erase(keys[0])
		totalAfterOne := c.Total()
		lenAfterOne := c.Len()
		c.Erase(keys[0])
		if got := c.Total(); !approxEqual(got, totalAfterOne) {
			t.Fatalf("Total() after double erase = %v, want %v", got, totalAfterOne)
		}
		if got := c.Len(); got != lenAfterOne {
			t.Fatalf("Len() after double erase = %d, want %d", got, lenAfterOne)
		}
		if c.Has(keys[0]) {
			t.Fatalf("Has(%q) after erase = true", keys[0])
		}
	})

	t.Run("set then erase restores total", func(t *testing.T) {
		c := newContainer()
		for i, k := range keys {
			if err := c.Set(k, float64(i+1)); err != nil {
				t.Fatal(err)
			}
		}
		before := c.Total()
		extra := "zzz-not-in-keys-zzz"
		if err := c.Set(extra, 42); err != nil {
			t.Fatal(err)
		}
		c.Erase(extra)
		if got := c.Total(); !approxEqual(got, before) {
			t.Fatalf("Total() after set-then-erase = %v, want %v", got, before)
		}
	})

	t.Run("zero equals erase for sampling", func(t *testing.T) {
		cZero := newContainer()
		cErase := newContainer()
		for i, k := range keys {
			w := float64(i + 1)
			if err := cZero.Set(k, w); err != nil {
				t.Fatal(err)
			}
			if err := cErase.Set(k, w); err != nil {
				t.Fatal(err)
			}
		}
		if err := cZero.Set(keys[0], 0); err != nil {
			t.Fatal(err)
		}
		cErase.Erase(keys[0])
		if !approxEqual(cZero.Total(), cErase.Total()) {
			t.Fatalf("total after zero (%v) != total after erase (%v)", cZero.Total(), cErase.Total())
		}
		rng := rand.New(rand.NewSource(2))
		total := cZero.Total()
		for i := 0; i < 50; i++ {
			u := rng.Float64() * total
			k, _, err := cZero.Choose(u)
			if err != nil {
				t.Fatal(err)
			}
			if k == keys[0] {
				t.Fatalf("Choose after Set(k,0) returned the zeroed key %q", k)
			}
		}
	})

	t.Run("boundary choose(0) returns a live key", func(t *testing.T) {
		c := newContainer()
		for i, k := range keys {
			if err := c.Set(k, float64(i+1)); err != nil {
				t.Fatal(err)
			}
		}
		k, w, err := c.Choose(0)
		if err != nil {
			t.Fatal(err)
		}
		if w <= 0 {
			t.Fatalf("Choose(0) returned non-positive weight %v", w)
		}
		if !c.Has(k) {
			t.Fatalf("Choose(0) returned dead key %q", k)
		}
	})

	t.Run("distribution law converges to weight share", func(t *testing.T) {
		c := newContainer()
		for i, k := range keys {
			if err := c.Set(k, float64(i+1)); err != nil {
				t.Fatal(err)
			}
		}
		total := c.Total()
		const n = 20000
		counts := map[string]int{}
		rng := rand.New(rand.NewSource(3))
		for i := 0; i < n; i++ {
			u := rng.Float64() * total
			k, _, err := c.Choose(u)
			if err != nil {
				t.Fatal(err)
			}
			counts[k]++
		}
		for i, k := range keys {
			w := float64(i + 1)
			want := w / total
			got := float64(counts[k]) / float64(n)
			// O(1/sqrt(n)) convergence; a generous multiple of the
			// expected standard error keeps this from flaking.
			tol := 8 / math.Sqrt(float64(n))
			if diff := got - want; diff > tol || diff < -tol {
				t.Fatalf("key %q: empirical frequency %v, want ~%v (tol %v)", k, got, want, tol)
			}
		}
	})

	t.Run("range visits exactly the live key set", func(t *testing.T) {
		c := newContainer()
		for i, k := range keys {
			if err := c.Set(k, float64(i+1)); err != nil {
				t.Fatal(err)
			}
		}
		var seen []string
		c.Range(func(k string, w float64) bool {
			seen = append(seen, k)
			return true
		})
		want := slices.Clone(keys)
		slices.Sort(want)
		slices.Sort(seen)
		if !slices.Equal(seen, want) {
			t.Fatalf("Range() visited %v, want %v", seen, want)
		}
	})
}
