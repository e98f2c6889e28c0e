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

// Package sumtrie implements a PATRICIA (crit-bit) sum-trie over the
// bits of a deterministic 128-bit key ordinate (spec.md §4.8): a
// self-contained keyed weighted-sampling container with height bounded
// by 128.
package sumtrie

import (
	"fmt"

	"github.com/adolgert/samplerdome/internal/xhash"
	"github.com/adolgert/samplerdome/weighted"
)

// trieNode is either a branch (left and right both non-nil, crit holds
// the bit index the two children's ordinates disagree on) or a leaf
// (left and right both nil, ok holds the shared ordinate of every key
// in its collision bucket).
type trieNode[K comparable, T weighted.Weight] struct {
	crit  int
	left  *trieNode[K, T]
	right *trieNode[K, T]

	ok      xhash.Ordinate128
	keys    []K
	weights []T

	sum T // subtree sum; for a leaf this equals the sum of its own bucket
}

func isLeaf[K comparable, T weighted.Weight](n *trieNode[K, T]) bool {
	return n.left == nil && n.right == nil
}

func newLeaf[K comparable, T weighted.Weight](ok xhash.Ordinate128, k K, w T) *trieNode[K, T] {
	return &trieNode[K, T]{ok: ok, keys: []K{k}, weights: []T{w}, sum: w}
}

func indexOfKey[K comparable](keys []K, k K) int {
	for i, kk := range keys {
		if kk == k {
			return i
		}
	}
	return -1
}

// Trie is a PATRICIA sum-trie keyed by 128-bit ordinates
// ok(k) = (hash(k,s1) << 64) | hash(k,s2).
type Trie[K comparable, T weighted.Weight] struct {
	root *trieNode[K, T]
	hash xhash.Hasher[K]
	s1   uint64
	s2   uint64
	size int
}

var _ weighted.Container[string, float64] = (*Trie[string, float64])(nil)

// New returns an empty Trie using hash seeded independently by s1 and s2.
func New[K comparable, T weighted.Weight](s1, s2 uint64, hash xhash.Hasher[K]) *Trie[K, T] {
	return &Trie[K, T]{hash: hash, s1: s1, s2: s2}
}

func (t *Trie[K, T]) ordinate(k K) xhash.Ordinate128 {
	return xhash.Ordinate128{Hi: t.hash(k, t.s1), Lo: t.hash(k, t.s2)}
}

// nearestLeaf descends by crit bits without validating the ordinate,
// exactly as spec.md §4.8 describes ("descend by crit bits to a leaf
// L"); the caller checks L.ok against the target afterward.
func nearestLeaf[K comparable, T weighted.Weight](n *trieNode[K, T], ok xhash.Ordinate128) *trieNode[K, T] {
	for !isLeaf(n) {
		if ok.Bit(n.crit) == 0 {
			n = n.left
		} else {
			n = n.right
		}
	}
	return n
}

func updateExisting[K comparable, T weighted.Weight](n *trieNode[K, T], ok xhash.Ordinate128, k K, w T) *trieNode[K, T] {
	if isLeaf(n) {
		if idx := indexOfKey(n.keys, k); idx >= 0 {
			n.sum += w - n.weights[idx]
			n.weights[idx] = w
		} else {
			n.keys = append(n.keys, k)
			n.weights = append(n.weights, w)
			n.sum += w
		}
		return n
	}
	if ok.Bit(n.crit) == 0 {
		n.left = updateExisting(n.left, ok, k, w)
	} else {
		n.right = updateExisting(n.right, ok, k, w)
	}
	n.sum = n.left.sum + n.right.sum
	return n
}

// insertWithCrit splices a new leaf for (ok,k,w) into n at the first
// ancestor whose crit is <= kcrit, per spec.md §4.8. It recomputes
// every visited ancestor's sum on the way back, which is exactly the
// "propagate +w upward along every ancestor whose crit > kcrit" rule.
func insertWithCrit[K comparable, T weighted.Weight](n *trieNode[K, T], ok xhash.Ordinate128, k K, w T, kcrit int) *trieNode[K, T] {
	if n == nil || isLeaf(n) || n.crit <= kcrit {
		leaf := newLeaf[K, T](ok, k, w)
		branch := &trieNode[K, T]{crit: kcrit}
		if ok.Bit(kcrit) == 0 {
			branch.left, branch.right = leaf, n
		} else {
			branch.left, branch.right = n, leaf
		}
		branch.sum = branch.left.sum + branch.right.sum
		return branch
	}
	if ok.Bit(n.crit) == 0 {
		n.left = insertWithCrit(n.left, ok, k, w, kcrit)
	} else {
		n.right = insertWithCrit(n.right, ok, k, w, kcrit)
	}
	n.sum = n.left.sum + n.right.sum
	return n
}

// Set inserts or updates the weight for k.
func (t *Trie[K, T]) Set(k K, w T) error {
	ok := t.ordinate(k)
	if t.root == nil {
		t.root = newLeaf[K, T](ok, k, w)
		t.size++
		return nil
	}
	leaf := nearestLeaf(t.root, ok)
	if leaf.ok.Equal(ok) {
		isNewKey := indexOfKey(leaf.keys, k) < 0
		t.root = updateExisting(t.root, ok, k, w)
		if isNewKey {
			t.size++
		}
		return nil
	}
	kcrit := xhash.HighestDifferingBit(ok, leaf.ok)
	t.root = insertWithCrit(t.root, ok, k, w, kcrit)
	t.size++
	return nil
}

func (t *Trie[K, T]) find(k K) (T, bool) {
	var zero T
	if t.root == nil {
		return zero, false
	}
	ok := t.ordinate(k)
	leaf := nearestLeaf(t.root, ok)
	if !leaf.ok.Equal(ok) {
		return zero, false
	}
	if idx := indexOfKey(leaf.keys, k); idx >= 0 {
		return leaf.weights[idx], true
	}
	return zero, false
}

// Get returns the current weight for k.
func (t *Trie[K, T]) Get(k K) (T, error) {
	if w, ok := t.find(k); ok {
		return w, nil
	}
	var zero T
	return zero, fmt.Errorf("sumtrie: %w", weighted.ErrNotFound)
}

// Has reports whether k currently has a live entry.
func (t *Trie[K, T]) Has(k K) bool {
	_, ok := t.find(k)
	return ok
}

func eraseRec[K comparable, T weighted.Weight](n *trieNode[K, T], ok xhash.Ordinate128, k K) (*trieNode[K, T], bool) {
	if isLeaf(n) {
		if !n.ok.Equal(ok) {
			return n, false
		}
		idx := indexOfKey(n.keys, k)
		if idx < 0 {
			return n, false
		}
		w := n.weights[idx]
		n.keys = append(n.keys[:idx], n.keys[idx+1:]...)
		n.weights = append(n.weights[:idx], n.weights[idx+1:]...)
		n.sum -= w
		if len(n.keys) == 0 {
			return nil, true
		}
		return n, true
	}
	if ok.Bit(n.crit) == 0 {
		newLeft, removed := eraseRec(n.left, ok, k)
		if !removed {
			return n, false
		}
		if newLeft == nil {
			return n.right, true
		}
		n.left = newLeft
		n.sum = n.left.sum + n.right.sum
		return n, true
	}
	newRight, removed := eraseRec(n.right, ok, k)
	if !removed {
		return n, false
	}
	if newRight == nil {
		return n.left, true
	}
	n.right = newRight
	n.sum = n.left.sum + n.right.sum
	return n, true
}

// Erase removes k. No-op if absent.
func (t *Trie[K, T]) Erase(k K) {
	if t.root == nil {
		return
	}
	ok := t.ordinate(k)
	newRoot, removed := eraseRec(t.root, ok, k)
	if !removed {
		return
	}
	t.root = newRoot
	t.size--
}

// Total returns the root's cached subtree sum.
func (t *Trie[K, T]) Total() T {
	if t.root == nil {
		var zero T
		return zero
	}
	return t.root.sum
}

// Choose descends from the root comparing u against each branch's
// left-subtree sum, then linear-scans the landed leaf's collision
// bucket (expected length 1).
func (t *Trie[K, T]) Choose(u T) (K, T, error) {
	var zero K
	total := t.Total()
	if u < 0 || u >= total {
		return zero, 0, fmt.Errorf("sumtrie: choose(%v) against total %v: %w", u, total, weighted.ErrOutOfRange)
	}
	n := t.root
	for !isLeaf(n) {
		ls := n.left.sum
		if u < ls {
			n = n.left
		} else {
			u -= ls
			n = n.right
		}
	}
	var running T
	for i, w := range n.weights {
		if u < running+w {
			return n.keys[i], w, nil
		}
		running += w
	}
	return zero, 0, fmt.Errorf("sumtrie: choose(%v) fell off the leaf bucket: %w", u, weighted.ErrInternal)
}

// Len returns the number of live keys.
func (t *Trie[K, T]) Len() int {
	return t.size
}

// Clear removes every key, returning the trie to empty.
func (t *Trie[K, T]) Clear() {
	t.root = nil
	t.size = 0
}

// Range calls yield for every live key in ordinate order.
func (t *Trie[K, T]) Range(yield func(k K, w T) bool) {
	var walk func(n *trieNode[K, T]) bool
	walk = func(n *trieNode[K, T]) bool {
		if n == nil {
			return true
		}
		if isLeaf(n) {
			for i, k := range n.keys {
				if !yield(k, n.weights[i]) {
					return false
				}
			}
			return true
		}
		if !walk(n.left) {
			return false
		}
		return walk(n.right)
	}
	walk(t.root)
}

// Height returns the depth of the tree in edges, for tests asserting
// the spec.md §8 height <= 128 property.
func (t *Trie[K, T]) Height() int {
	var depth func(n *trieNode[K, T]) int
	depth = func(n *trieNode[K, T]) int {
		if n == nil || isLeaf(n) {
			return 0
		}
		l, r := depth(n.left), depth(n.right)
		if l > r {
			return l + 1
		}
		return r + 1
	}
	return depth(t.root)
}
