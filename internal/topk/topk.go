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

// Package topk finds the k heaviest entries of a weighted.Container
// using a bounded min-heap, for reporting in cmd/samplerdome-bench.
package topk

import (
	"sort"

	"github.com/adolgert/samplerdome/internal/heap"
	"github.com/adolgert/samplerdome/weighted"
)

// Entry is one (key, weight) pair returned by Top.
type Entry[K comparable, T weighted.Weight] struct {
	Key    K
	Weight T
}

// Top returns the k entries of c with the largest weight, sorted by
// weight descending. If c has fewer than k live keys, it returns all
// of them. Which of several equal-weight entries are kept, and their
// order in the result, are not defined.
func Top[K comparable, T weighted.Weight](c weighted.Container[K, T], k int) []Entry[K, T] {
	if k <= 0 {
		return nil
	}
	less := func(a, b Entry[K, T]) bool { return a.Weight < b.Weight }
	var h []Entry[K, T]
	c.Range(func(key K, w T) bool {
		e := Entry[K, T]{Key: key, Weight: w}
		if len(h) < k {
			heap.PushSlice(&h, e, less)
		} else if less(h[0], e) {
			heap.PopSlice(&h, less)
			heap.PushSlice(&h, e, less)
		}
		return true
	})
	sort.Slice(h, func(i, j int) bool { return h[i].Weight > h[j].Weight })
	return h
}
