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

package keyed

import (
	"fmt"

	"github.com/adolgert/samplerdome/weighted"
)

// Keep wraps a weighted.Dense[T] and never frees a slot: once a key has
// been assigned slot i, erasing it zeroes the slot but keeps the k->i
// mapping retired rather than reused (spec.md §4.5). Intended for
// workloads where the same keys return repeatedly.
type Keep[K comparable, T weighted.Weight] struct {
	dense  weighted.Dense[T]
	slotOf map[K]int
	keyOf  []K // 1-based
	weight []T // 1-based
	liveAt []bool
	next   int
}

var _ weighted.Container[string, float64] = (*Keep[string, float64])(nil)

// NewKeep wraps dense (assumed empty) as a keyed keep container.
func NewKeep[K comparable, T weighted.Weight](dense weighted.Dense[T]) *Keep[K, T] {
	return &Keep[K, T]{
		dense:  dense,
		slotOf: make(map[K]int),
	}
}

func (kp *Keep[K, T]) ensureSlotArrays(i int) {
	for len(kp.keyOf) <= i {
		var zeroK K
		var zeroT T
		kp.keyOf = append(kp.keyOf, zeroK)
		kp.weight = append(kp.weight, zeroT)
		kp.liveAt = append(kp.liveAt, false)
	}
}

// Set inserts or updates the weight for k. A key that was previously
// erased and is set again reoccupies its original slot.
func (kp *Keep[K, T]) Set(k K, w T) error {
	i, ok := kp.slotOf[k]
	if !ok {
		kp.next++
		i = kp.next
		if i > kp.dense.Len() {
			if err := kp.dense.Grow(i); err != nil {
				return fmt.Errorf("keyed.Keep: grow: %w", err)
			}
		}
		kp.slotOf[k] = i
		kp.ensureSlotArrays(i)
		kp.keyOf[i] = k
	}
	if err := kp.dense.Update(i, w); err != nil {
		return err
	}
	kp.weight[i] = w
	kp.liveAt[i] = true
	return nil
}

// Get returns the current weight for k.
func (kp *Keep[K, T]) Get(k K) (T, error) {
	i, ok := kp.slotOf[k]
	if !ok || !kp.liveAt[i] {
		var zero T
		return zero, fmt.Errorf("keyed.Keep: %w", weighted.ErrNotFound)
	}
	return kp.weight[i], nil
}

// Has reports whether k currently has a live entry.
func (kp *Keep[K, T]) Has(k K) bool {
	i, ok := kp.slotOf[k]
	return ok && kp.liveAt[i]
}

// Erase zeroes k's slot but keeps it retired for k; a future Set(k, ...)
// reoccupies the same slot. No-op if absent or already erased.
func (kp *Keep[K, T]) Erase(k K) {
	i, ok := kp.slotOf[k]
	if !ok || !kp.liveAt[i] {
		return
	}
	_ = kp.dense.Update(i, 0)
	kp.liveAt[i] = false
	var zero T
	kp.weight[i] = zero
}

// Total returns the sum of all live weights.
func (kp *Keep[K, T]) Total() T {
	return kp.dense.Total()
}

// Choose returns the live key whose weight interval contains u.
func (kp *Keep[K, T]) Choose(u T) (K, T, error) {
	var zero K
	i, w, err := kp.dense.Choose(u)
	if err != nil {
		return zero, 0, err
	}
	if i >= len(kp.liveAt) || !kp.liveAt[i] {
		return zero, 0, fmt.Errorf("keyed.Keep: choose landed on a zeroed slot %d: %w", i, weighted.ErrInternal)
	}
	return kp.keyOf[i], w, nil
}

// Len returns the number of live keys.
func (kp *Keep[K, T]) Len() int {
	n := 0
	for _, live := range kp.liveAt {
		if live {
			n++
		}
	}
	return n
}

// Clear removes every key and resets the underlying dense container.
func (kp *Keep[K, T]) Clear() {
	kp.dense.Clear()
	kp.slotOf = make(map[K]int)
	kp.keyOf = nil
	kp.weight = nil
	kp.liveAt = nil
	kp.next = 0
}

// Range calls yield for every live key, in slot order.
func (kp *Keep[K, T]) Range(yield func(k K, w T) bool) {
	for i := 1; i <= kp.next; i++ {
		if i >= len(kp.liveAt) || !kp.liveAt[i] {
			continue
		}
		if !yield(kp.keyOf[i], kp.weight[i]) {
			return
		}
	}
}
