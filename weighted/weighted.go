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

// Package weighted defines the contract shared by every keyed
// weighted-sampling container in this module (KeyedRemoval, KeyedKeep,
// HashBuckets, Treap, SumTrie) and by the dense slot-indexed containers
// that back the L1 wrappers (SegTree, CumSum).
package weighted

import "golang.org/x/exp/constraints"

// Weight is the set of types usable as container weights.
type Weight interface {
	constraints.Float
}

// Container is the keyed weighted-sampling contract of spec.md §4.1.
// K is any comparable key type; T is a nonnegative floating-point weight.
type Container[K comparable, T Weight] interface {
	// Set inserts or updates the weight for k.
	Set(k K, w T) error
	// Get returns the current weight for k, or ErrNotFound.
	Get(k K) (T, error)
	// Has reports whether k currently has a live entry.
	Has(k K) bool
	// Erase removes k. It is a no-op if k is absent.
	Erase(k K)
	// Total returns the sum of all live weights.
	Total() T
	// Choose returns the key whose half-open weight interval contains u,
	// for u in [0, Total()). Returns ErrOutOfRange otherwise.
	Choose(u T) (K, T, error)
	// Len returns the number of live keys.
	Len() int
	// Clear removes every key, restoring the container to empty.
	Clear()
	// Range calls yield for every live key in the container's chosen
	// order, stopping early if yield returns false.
	Range(yield func(k K, w T) bool)
}

// Dense is the slot-indexed contract exposed by the L0 containers
// (SegTree, CumSum) and consumed by the L1 keyed wrappers.
type Dense[T Weight] interface {
	// Update sets the weight of slot i (1-based) to w.
	Update(i int, w T) error
	// Choose returns the slot whose interval contains u.
	Choose(u T) (int, T, error)
	// Total returns the sum of all slot weights.
	Total() T
	// PrefixBefore returns the sum of weights in slots [1, i).
	PrefixBefore(i int) (T, error)
	// Len returns the current capacity (number of usable slots).
	Len() int
	// Clear resets every slot to zero weight.
	Clear()
	// Grow increases capacity to at least n, preserving existing
	// slot weights. It is a no-op if n does not exceed the current
	// capacity.
	Grow(n int) error
}
