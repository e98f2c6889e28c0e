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

// Package keyed wraps any weighted.Dense[T] container with a key map,
// turning a slot-indexed L0 structure into a keyed weighted.Container
// (spec.md §4.4, §4.5).
package keyed

import (
	"fmt"

	"github.com/adolgert/samplerdome/weighted"
)

// Removal wraps a weighted.Dense[T] and reuses vacated slots on erase
// (spec.md §4.4). Erased keys' slots are zeroed and pushed onto a free
// stack; the next insertion pops a free slot before growing, so slot
// churn stays bounded by the largest simultaneous live-key count.
type Removal[K comparable, T weighted.Weight] struct {
	dense   weighted.Dense[T]
	slotOf  map[K]int
	keyOf   []K // 1-based: keyOf[i] is meaningful while liveAt[i]
	weight  []T // 1-based: weight[i] is the last weight set for slot i
	liveAt  []bool
	free    []int
	hiWater int
}

var _ weighted.Container[string, float64] = (*Removal[string, float64])(nil)

// NewRemoval wraps dense (assumed empty) as a keyed removal container.
func NewRemoval[K comparable, T weighted.Weight](dense weighted.Dense[T]) *Removal[K, T] {
	return &Removal[K, T]{
		dense:  dense,
		slotOf: make(map[K]int),
	}
}

func (r *Removal[K, T]) ensureSlotArrays(i int) {
	for len(r.keyOf) <= i {
		var zeroK K
		var zeroT T
		r.keyOf = append(r.keyOf, zeroK)
		r.weight = append(r.weight, zeroT)
		r.liveAt = append(r.liveAt, false)
	}
}

// Set inserts or updates the weight for k.
func (r *Removal[K, T]) Set(k K, w T) error {
	if i, ok := r.slotOf[k]; ok {
		if err := r.dense.Update(i, w); err != nil {
			return err
		}
		r.weight[i] = w
		return nil
	}
	var i int
	if n := len(r.free); n > 0 {
		i = r.free[n-1]
		r.free = r.free[:n-1]
	} else {
		r.hiWater++
		i = r.hiWater
		if i > r.dense.Len() {
			if err := r.dense.Grow(i); err != nil {
				return fmt.Errorf("keyed.Removal: grow: %w", err)
			}
		}
	}
	if err := r.dense.Update(i, w); err != nil {
		return err
	}
	r.slotOf[k] = i
	r.ensureSlotArrays(i)
	r.keyOf[i] = k
	r.weight[i] = w
	r.liveAt[i] = true
	return nil
}

// Get returns the current weight for k.
func (r *Removal[K, T]) Get(k K) (T, error) {
	i, ok := r.slotOf[k]
	if !ok {
		var zero T
		return zero, fmt.Errorf("keyed.Removal: %w", weighted.ErrNotFound)
	}
	return r.weight[i], nil
}

// Has reports whether k currently has a live entry.
func (r *Removal[K, T]) Has(k K) bool {
	_, ok := r.slotOf[k]
	return ok
}

// Erase removes k, zeroing and free-listing its slot. No-op if absent.
func (r *Removal[K, T]) Erase(k K) {
	i, ok := r.slotOf[k]
	if !ok {
		return
	}
	_ = r.dense.Update(i, 0)
	delete(r.slotOf, k)
	r.liveAt[i] = false
	var zeroK K
	var zeroT T
	r.keyOf[i] = zeroK
	r.weight[i] = zeroT
	r.free = append(r.free, i)
}

// Total returns the sum of all live weights.
func (r *Removal[K, T]) Total() T {
	return r.dense.Total()
}

// Choose returns the live key whose weight interval contains u.
func (r *Removal[K, T]) Choose(u T) (K, T, error) {
	var zero K
	i, w, err := r.dense.Choose(u)
	if err != nil {
		return zero, 0, err
	}
	if i >= len(r.liveAt) || !r.liveAt[i] {
		return zero, 0, fmt.Errorf("keyed.Removal: choose landed on a freed slot %d: %w", i, weighted.ErrInternal)
	}
	return r.keyOf[i], w, nil
}

// Len returns the number of live keys.
func (r *Removal[K, T]) Len() int {
	return len(r.slotOf)
}

// Clear removes every key and resets the underlying dense container.
func (r *Removal[K, T]) Clear() {
	r.dense.Clear()
	r.slotOf = make(map[K]int)
	r.keyOf = nil
	r.weight = nil
	r.liveAt = nil
	r.free = nil
	r.hiWater = 0
}

// Range calls yield for every live key, in slot order.
func (r *Removal[K, T]) Range(yield func(k K, w T) bool) {
	for i := 1; i <= r.hiWater; i++ {
		if i >= len(r.liveAt) || !r.liveAt[i] {
			continue
		}
		if !yield(r.keyOf[i], r.weight[i]) {
			return
		}
	}
}
