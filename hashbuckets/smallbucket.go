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

package hashbuckets

import (
	"fmt"

	"github.com/adolgert/samplerdome/weighted"
)

// SmallBucket is a plain parallel-arrays weighted.Container with a
// linear-scan Set/Get/Has/Erase/Choose. spec.md §9's Open Question notes
// that the source's inner-bucket choose performs exactly this linear
// scan even where the component is documented as logarithmic; this
// type is the deliberate small-bucket option that makes that choice
// explicit rather than accidental, for use where expected per-bucket
// load (n/B) is small enough that O(load) beats the constant factors
// of a tree.
type SmallBucket[K comparable, T weighted.Weight] struct {
	keys    []K
	weights []T
}

var _ weighted.Container[string, float64] = (*SmallBucket[string, float64])(nil)

// NewSmallBucket returns an empty SmallBucket.
func NewSmallBucket[K comparable, T weighted.Weight]() weighted.Container[K, T] {
	return &SmallBucket[K, T]{}
}

func (s *SmallBucket[K, T]) indexOf(k K) int {
	for i, kk := range s.keys {
		if kk == k {
			return i
		}
	}
	return -1
}

// Set inserts or updates the weight for k.
func (s *SmallBucket[K, T]) Set(k K, w T) error {
	if i := s.indexOf(k); i >= 0 {
		s.weights[i] = w
		return nil
	}
	s.keys = append(s.keys, k)
	s.weights = append(s.weights, w)
	return nil
}

// Get returns the current weight for k.
func (s *SmallBucket[K, T]) Get(k K) (T, error) {
	if i := s.indexOf(k); i >= 0 {
		return s.weights[i], nil
	}
	var zero T
	return zero, fmt.Errorf("hashbuckets.SmallBucket: %w", weighted.ErrNotFound)
}

// Has reports whether k currently has a live entry.
func (s *SmallBucket[K, T]) Has(k K) bool {
	return s.indexOf(k) >= 0
}

// Erase removes k, swapping the last entry into its place. No-op if absent.
func (s *SmallBucket[K, T]) Erase(k K) {
	i := s.indexOf(k)
	if i < 0 {
		return
	}
	last := len(s.keys) - 1
	s.keys[i] = s.keys[last]
	s.weights[i] = s.weights[last]
	s.keys = s.keys[:last]
	s.weights = s.weights[:last]
}

// Total returns the sum of all live weights, summed fresh every call.
func (s *SmallBucket[K, T]) Total() T {
	var total T
	for _, w := range s.weights {
		total += w
	}
	return total
}

// Choose linear-scans the bucket's entries, accumulating a running
// prefix sum until it covers u.
func (s *SmallBucket[K, T]) Choose(u T) (K, T, error) {
	var zero K
	var running T
	total := s.Total()
	if u < 0 || u >= total {
		return zero, 0, fmt.Errorf("hashbuckets.SmallBucket: choose(%v) against total %v: %w", u, total, weighted.ErrOutOfRange)
	}
	for i, w := range s.weights {
		if u < running+w {
			return s.keys[i], w, nil
		}
		running += w
	}
	return zero, 0, fmt.Errorf("hashbuckets.SmallBucket: choose(%v) fell off the end: %w", u, weighted.ErrInternal)
}

// Len returns the number of live keys.
func (s *SmallBucket[K, T]) Len() int {
	return len(s.keys)
}

// Clear removes every key.
func (s *SmallBucket[K, T]) Clear() {
	s.keys = nil
	s.weights = nil
}

// Range calls yield for every live key, in storage order.
func (s *SmallBucket[K, T]) Range(yield func(k K, w T) bool) {
	for i, k := range s.keys {
		if !yield(k, s.weights[i]) {
			return
		}
	}
}
