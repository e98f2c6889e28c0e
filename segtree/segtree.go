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

// Package segtree implements a dense, fixed-capacity prefix-sum
// container as a complete binary tree laid out breadth-first in a flat
// array (spec.md §4.2). Update and Choose are O(log cap); Total is O(1).
package segtree

import (
	"fmt"

	"github.com/adolgert/samplerdome/internal/ints"
	"github.com/adolgert/samplerdome/weighted"
)

// Tree is a dense segment-tree prefix-sum over slots [1, cap].
// Cell 1 is the root; cells 2i and 2i+1 are the children of cell i.
// Leaves occupy [offset, offset+cap) where offset is the smallest
// power of two >= cap.
type Tree[T weighted.Weight] struct {
	nodes  []T // 1-based; nodes[1] is the root
	offset int
	cap    int
}

var _ weighted.Dense[float64] = (*Tree[float64])(nil)

// New returns an empty Tree sized for at least capHint slots.
func New[T weighted.Weight](capHint int) *Tree[T] {
	t := &Tree[T]{}
	t.relayout(ints.Max(capHint, 1))
	return t
}

func (t *Tree[T]) relayout(newCap int) {
	offset := ints.NextPow2(newCap)
	old := t.nodes
	oldOffset := t.offset
	t.nodes = make([]T, 2*offset)
	t.offset = offset
	t.cap = newCap
	// Copy surviving leaves into their new positions, then
	// recompute every internal sum bottom-up.
	if old != nil {
		for i := 1; i <= newCap && i <= t.cap; i++ {
			if oldOffset+i-1 < len(old) {
				t.nodes[offset+i-1] = old[oldOffset+i-1]
			}
		}
	}
	for i := offset - 1; i >= 1; i-- {
		t.nodes[i] = t.nodes[2*i] + t.nodes[2*i+1]
	}
}

// Grow increases capacity to at least n, preserving existing weights.
func (t *Tree[T]) Grow(n int) error {
	if n <= t.cap {
		return nil
	}
	t.relayout(n)
	return nil
}

func (t *Tree[T]) checkSlot(i int) error {
	if i < 1 || i > t.cap {
		return fmt.Errorf("segtree: slot %d out of [1,%d]: %w", i, t.cap, weighted.ErrInternal)
	}
	return nil
}

// Update writes the weight of slot i (1-based) and fixes every
// ancestor's cached sum on the way back to the root.
func (t *Tree[T]) Update(i int, w T) error {
	if err := t.checkSlot(i); err != nil {
		return err
	}
	idx := t.offset + i - 1
	t.nodes[idx] = w
	for idx > 1 {
		idx /= 2
		t.nodes[idx] = t.nodes[2*idx] + t.nodes[2*idx+1]
	}
	return nil
}

// Total returns the sum of every slot's weight, O(1).
func (t *Tree[T]) Total() T {
	if t.offset == 0 {
		var zero T
		return zero
	}
	return t.nodes[1]
}

// Choose descends from the root, going left whenever u is strictly
// less than the left child's sum (the boundary u == left.sum goes
// right), and returns the slot index and weight it lands on.
func (t *Tree[T]) Choose(u T) (int, T, error) {
	var zero T
	if u < zero || u >= t.Total() {
		return 0, zero, fmt.Errorf("segtree: choose(%v) against total %v: %w", u, t.Total(), weighted.ErrOutOfRange)
	}
	idx := 1
	for idx < t.offset {
		left := 2 * idx
		if u < t.nodes[left] {
			idx = left
		} else {
			u -= t.nodes[left]
			idx = left + 1
		}
	}
	i := idx - t.offset + 1
	if i < 1 || i > t.cap {
		return 0, zero, fmt.Errorf("segtree: choose landed on slot %d outside [1,%d]: %w", i, t.cap, weighted.ErrInternal)
	}
	return i, t.nodes[idx], nil
}

// PrefixBefore returns the sum of weights in slots [1, i), walking
// from the leaf up and accumulating the left sibling whenever the
// current index is a right child.
func (t *Tree[T]) PrefixBefore(i int) (T, error) {
	var sum T
	if i < 1 || i > t.cap+1 {
		return sum, fmt.Errorf("segtree: prefix_before(%d) out of [1,%d]: %w", i, t.cap+1, weighted.ErrInternal)
	}
	if i > t.offset {
		// i == cap+1 == offset+1 has no leaf cell; it covers every slot.
		return t.Total(), nil
	}
	idx := t.offset + i - 1
	for idx > 1 {
		if idx%2 == 1 {
			sum += t.nodes[idx-1]
		}
		idx /= 2
	}
	return sum, nil
}

// Len returns the current capacity.
func (t *Tree[T]) Len() int {
	return t.cap
}

// Clear resets every slot to zero weight without changing capacity.
func (t *Tree[T]) Clear() {
	for i := range t.nodes {
		t.nodes[i] = 0
	}
}
