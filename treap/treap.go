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

// Package treap implements an order-statistics treap keyed by 128-bit
// hashes with cached subtree sums (spec.md §4.7): a self-contained
// keyed weighted-sampling container with no dependency on an L0 Dense
// structure.
package treap

import (
	"fmt"
	"math/rand"

	"github.com/adolgert/samplerdome/internal/xhash"
	"github.com/adolgert/samplerdome/weighted"
)

type node[K comparable, T weighted.Weight] struct {
	ok    xhash.Ordinate128
	key   K
	w     T
	sum   T
	prio  uint64
	left  *node[K, T]
	right *node[K, T]
}

func sumOf[K comparable, T weighted.Weight](n *node[K, T]) T {
	if n == nil {
		var zero T
		return zero
	}
	return n.sum
}

func fixSum[K comparable, T weighted.Weight](n *node[K, T]) {
	n.sum = n.w + sumOf(n.left) + sumOf(n.right)
}

// Tree is an order-statistics treap: BST-ordered by a 128-bit ordinate
// (the high-64-bits of a seeded key hash, paired with a per-key
// monotone counter in the low bits for total order stability), and
// heap-ordered (min-heap) by a per-node random priority.
type Tree[K comparable, T weighted.Weight] struct {
	root    *node[K, T]
	hash    xhash.Hasher[K]
	seed    uint64
	counter uint64
	rng     *rand.Rand
	entries map[K]entry[T]
	size    int
}

type entry[T weighted.Weight] struct {
	ok xhash.Ordinate128
	w  T
}

var _ weighted.Container[string, float64] = (*Tree[string, float64])(nil)

// New returns an empty Tree. seed parameterizes the key hash used to
// build ordinates; prioSeed parameterizes the node-priority generator
// so test runs are deterministic.
func New[K comparable, T weighted.Weight](seed uint64, prioSeed int64, hash xhash.Hasher[K]) *Tree[K, T] {
	return &Tree[K, T]{
		hash:    hash,
		seed:    seed,
		rng:     rand.New(rand.NewSource(prioSeed)),
		entries: make(map[K]entry[T]),
	}
}

func insert[K comparable, T weighted.Weight](n, added *node[K, T]) *node[K, T] {
	if n == nil {
		fixSum(added)
		return added
	}
	if added.prio < n.prio {
		l, r := split(n, added.ok)
		added.left, added.right = l, r
		fixSum(added)
		return added
	}
	if added.ok.Less(n.ok) {
		n.left = insert(n.left, added)
	} else {
		n.right = insert(n.right, added)
	}
	fixSum(n)
	return n
}

// split divides n into (ordinates < ok, ordinates >= ok), preserving
// heap order in each half.
func split[K comparable, T weighted.Weight](n *node[K, T], ok xhash.Ordinate128) (*node[K, T], *node[K, T]) {
	if n == nil {
		return nil, nil
	}
	if n.ok.Less(ok) {
		l, r := split(n.right, ok)
		n.right = l
		fixSum(n)
		return n, r
	}
	l, r := split(n.left, ok)
	n.left = r
	fixSum(n)
	return l, n
}

func merge[K comparable, T weighted.Weight](l, r *node[K, T]) *node[K, T] {
	if l == nil {
		return r
	}
	if r == nil {
		return l
	}
	if l.prio < r.prio {
		l.right = merge(l.right, r)
		fixSum(l)
		return l
	}
	r.left = merge(l, r.left)
	fixSum(r)
	return r
}

func updateWeight[K comparable, T weighted.Weight](n *node[K, T], ok xhash.Ordinate128, w T) *node[K, T] {
	if n == nil {
		return nil
	}
	if n.ok.Equal(ok) {
		n.w = w
		fixSum(n)
		return n
	}
	if ok.Less(n.ok) {
		n.left = updateWeight(n.left, ok, w)
	} else {
		n.right = updateWeight(n.right, ok, w)
	}
	fixSum(n)
	return n
}

func deleteOrdinate[K comparable, T weighted.Weight](n *node[K, T], ok xhash.Ordinate128) *node[K, T] {
	if n == nil {
		return nil
	}
	if n.ok.Equal(ok) {
		return merge(n.left, n.right)
	}
	if ok.Less(n.ok) {
		n.left = deleteOrdinate(n.left, ok)
	} else {
		n.right = deleteOrdinate(n.right, ok)
	}
	fixSum(n)
	return n
}

// Set inserts or updates the weight for k.
func (t *Tree[K, T]) Set(k K, w T) error {
	if e, ok := t.entries[k]; ok {
		t.root = updateWeight(t.root, e.ok, w)
		t.entries[k] = entry[T]{ok: e.ok, w: w}
		return nil
	}
	t.counter++
	ordinate := xhash.Ordinate128{Hi: t.hash(k, t.seed), Lo: t.counter}
	n := &node[K, T]{ok: ordinate, key: k, w: w, prio: t.rng.Uint64()}
	t.root = insert(t.root, n)
	t.entries[k] = entry[T]{ok: ordinate, w: w}
	t.size++
	return nil
}

// Get returns the current weight for k.
func (t *Tree[K, T]) Get(k K) (T, error) {
	if e, ok := t.entries[k]; ok {
		return e.w, nil
	}
	var zero T
	return zero, fmt.Errorf("treap: %w", weighted.ErrNotFound)
}

// Has reports whether k currently has a live entry.
func (t *Tree[K, T]) Has(k K) bool {
	_, ok := t.entries[k]
	return ok
}

// Erase removes k. No-op if absent.
func (t *Tree[K, T]) Erase(k K) {
	e, ok := t.entries[k]
	if !ok {
		return
	}
	t.root = deleteOrdinate(t.root, e.ok)
	delete(t.entries, k)
	t.size--
}

// Total returns the root's cached subtree sum.
func (t *Tree[K, T]) Total() T {
	return sumOf(t.root)
}

// Choose descends the tree comparing u against each node's left
// subtree sum and own weight, as in spec.md §4.7.
func (t *Tree[K, T]) Choose(u T) (K, T, error) {
	var zero K
	total := t.Total()
	if u < 0 || u >= total {
		return zero, 0, fmt.Errorf("treap: choose(%v) against total %v: %w", u, total, weighted.ErrOutOfRange)
	}
	n := t.root
	for n != nil {
		l := sumOf(n.left)
		if u < l {
			n = n.left
			continue
		}
		u -= l
		if u < n.w {
			return n.key, n.w, nil
		}
		u -= n.w
		n = n.right
	}
	return zero, 0, fmt.Errorf("treap: choose fell off the tree: %w", weighted.ErrInternal)
}

// Len returns the number of live keys.
func (t *Tree[K, T]) Len() int {
	return t.size
}

// Clear removes every key, returning the treap to empty. The per-key
// ordinate counter resets to zero, which is safe because no node
// referencing an old counter value survives the clear.
func (t *Tree[K, T]) Clear() {
	t.root = nil
	t.entries = make(map[K]entry[T])
	t.counter = 0
	t.size = 0
}

// Range calls yield for every live key in ordinate order.
func (t *Tree[K, T]) Range(yield func(k K, w T) bool) {
	var walk func(n *node[K, T]) bool
	walk = func(n *node[K, T]) bool {
		if n == nil {
			return true
		}
		if !walk(n.left) {
			return false
		}
		if !yield(n.key, n.w) {
			return false
		}
		return walk(n.right)
	}
	walk(t.root)
}
