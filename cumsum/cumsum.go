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

// Package cumsum implements a dense prefix-sum container backed by a
// lazily rebuilt cumulative-sum array (spec.md §4.3). Updates are O(1)
// hot-path; Choose amortizes the rebuild cost across the updates that
// preceded it.
package cumsum

import (
	"fmt"
	"sort"

	"github.com/adolgert/samplerdome/internal/ints"
	"github.com/adolgert/samplerdome/weighted"
)

// Tree is a dense lazy-cumulative-sum container over slots [1, n].
type Tree[T weighted.Weight] struct {
	vals      []T // 1-based: vals[1..n]
	cum       []T // 1-based: cum[1..n], valid only up to dirtyFrom-1
	dirtyFrom int // smallest index whose cum entry is stale; n+1 means clean
}

var _ weighted.Dense[float64] = (*Tree[float64])(nil)

// New returns an empty Tree sized for at least capHint slots.
func New[T weighted.Weight](capHint int) *Tree[T] {
	capHint = ints.Max(capHint, 1)
	t := &Tree[T]{
		vals: make([]T, capHint+1),
		cum:  make([]T, capHint+1),
	}
	t.dirtyFrom = capHint + 1
	return t
}

func (t *Tree[T]) n() int { return len(t.vals) - 1 }

// Grow increases capacity to at least n, preserving existing weights.
func (t *Tree[T]) Grow(newN int) error {
	if newN <= t.n() {
		return nil
	}
	nv := make([]T, newN+1)
	nc := make([]T, newN+1)
	copy(nv, t.vals)
	copy(nc, t.cum)
	t.vals = nv
	t.cum = nc
	return nil
}

func (t *Tree[T]) checkSlot(i int) error {
	if i < 1 || i > t.n() {
		return fmt.Errorf("cumsum: slot %d out of [1,%d]: %w", i, t.n(), weighted.ErrInternal)
	}
	return nil
}

// Update writes vals[i] = w and marks the cumulative array dirty from
// i onward.
func (t *Tree[T]) Update(i int, w T) error {
	if err := t.checkSlot(i); err != nil {
		return err
	}
	t.vals[i] = w
	if i < t.dirtyFrom {
		t.dirtyFrom = i
	}
	return nil
}

// refresh recomputes cum[j] = cum[j-1] + vals[j] for j in [dirtyFrom, n]
// and resets dirtyFrom to n+1.
func (t *Tree[T]) refresh() {
	n := t.n()
	if t.dirtyFrom > n {
		return
	}
	for j := t.dirtyFrom; j <= n; j++ {
		var prev T
		if j > 1 {
			prev = t.cum[j-1]
		}
		t.cum[j] = prev + t.vals[j]
	}
	t.dirtyFrom = n + 1
}

// Total returns cum[n] after a refresh.
func (t *Tree[T]) Total() T {
	t.refresh()
	n := t.n()
	if n == 0 {
		var zero T
		return zero
	}
	return t.cum[n]
}

// Choose refreshes, then binary-searches the smallest j with
// cum[j] > u, returning (j, vals[j]).
func (t *Tree[T]) Choose(u T) (int, T, error) {
	var zero T
	total := t.Total() // forces refresh
	if u < zero || u >= total {
		return 0, zero, fmt.Errorf("cumsum: choose(%v) against total %v: %w", u, total, weighted.ErrOutOfRange)
	}
	n := t.n()
	j := sort.Search(n, func(k int) bool {
		// k is 0-based; slot index is k+1.
		return t.cum[k+1] > u
	}) + 1
	if j < 1 || j > n {
		return 0, zero, fmt.Errorf("cumsum: choose landed on slot %d outside [1,%d]: %w", j, n, weighted.ErrInternal)
	}
	return j, t.vals[j], nil
}

// PrefixBefore returns the sum of weights in slots [1, i).
func (t *Tree[T]) PrefixBefore(i int) (T, error) {
	var zero T
	n := t.n()
	if i < 1 || i > n+1 {
		return zero, fmt.Errorf("cumsum: prefix_before(%d) out of [1,%d]: %w", i, n+1, weighted.ErrInternal)
	}
	if i == 1 {
		return zero, nil
	}
	t.refresh()
	return t.cum[i-1], nil
}

// Len returns the current capacity.
func (t *Tree[T]) Len() int {
	return t.n()
}

// Clear resets every slot to zero weight without changing capacity.
func (t *Tree[T]) Clear() {
	for i := range t.vals {
		t.vals[i] = 0
		t.cum[i] = 0
	}
	t.dirtyFrom = t.n() + 1
}
