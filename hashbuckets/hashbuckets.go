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

// Package hashbuckets implements the two-level hashed keyed container
// of spec.md §4.6: an outer SegTree over B bucket totals, each bucket a
// small self-contained weighted.Container.
package hashbuckets

import (
	"fmt"

	"github.com/adolgert/samplerdome/internal/ints"
	"github.com/adolgert/samplerdome/internal/xhash"
	"github.com/adolgert/samplerdome/segtree"
	"github.com/adolgert/samplerdome/weighted"
)

// Buckets is a hashed two-level weighted.Container: an outer segtree.Tree
// over B bucket totals, and B inner weighted.Container instances, one
// per bucket.
type Buckets[K comparable, T weighted.Weight] struct {
	outer       *segtree.Tree[T]
	inner       []weighted.Container[K, T]
	bucketTotal []T // 1-based mirror of outer leaf weights, read during updates
	b           int
	seed        uint64
	hash        xhash.Hasher[K]
}

var _ weighted.Container[string, float64] = (*Buckets[string, float64])(nil)

// New constructs a Buckets container with nbuckets buckets (must be a
// power of two) seeded with seed, using newInner to build each bucket's
// inner container.
func New[K comparable, T weighted.Weight](nbuckets int, seed uint64, hash xhash.Hasher[K], newInner func() weighted.Container[K, T]) (*Buckets[K, T], error) {
	if !ints.IsPow2(nbuckets) {
		return nil, fmt.Errorf("hashbuckets: nbuckets %d is not a power of two: %w", nbuckets, weighted.ErrInvalidCapacity)
	}
	b := &Buckets[K, T]{
		outer:       segtree.New[T](nbuckets),
		inner:       make([]weighted.Container[K, T], nbuckets+1),
		bucketTotal: make([]T, nbuckets+1),
		b:           nbuckets,
		seed:        seed,
		hash:        hash,
	}
	for i := 1; i <= nbuckets; i++ {
		b.inner[i] = newInner()
	}
	return b, nil
}

func (b *Buckets[K, T]) bucketOf(k K) int {
	return int(b.hash(k, b.seed)&uint64(b.b-1)) + 1
}

// Set inserts or updates the weight for k.
func (b *Buckets[K, T]) Set(k K, w T) error {
	i := b.bucketOf(k)
	var old T
	if b.inner[i].Has(k) {
		var err error
		old, err = b.inner[i].Get(k)
		if err != nil {
			return err
		}
	}
	if err := b.inner[i].Set(k, w); err != nil {
		return err
	}
	delta := w - old
	if delta != 0 {
		b.bucketTotal[i] += delta
		if err := b.outer.Update(i, b.bucketTotal[i]); err != nil {
			return err
		}
	}
	return nil
}

// Get returns the current weight for k.
func (b *Buckets[K, T]) Get(k K) (T, error) {
	return b.inner[b.bucketOf(k)].Get(k)
}

// Has reports whether k currently has a live entry.
func (b *Buckets[K, T]) Has(k K) bool {
	return b.inner[b.bucketOf(k)].Has(k)
}

// Erase removes k. No-op if absent.
func (b *Buckets[K, T]) Erase(k K) {
	i := b.bucketOf(k)
	if !b.inner[i].Has(k) {
		return
	}
	old, err := b.inner[i].Get(k)
	if err != nil {
		return
	}
	b.inner[i].Erase(k)
	if old != 0 {
		b.bucketTotal[i] -= old
		_ = b.outer.Update(i, b.bucketTotal[i])
	}
}

// Total returns the outer tree's root sum.
func (b *Buckets[K, T]) Total() T {
	return b.outer.Total()
}

// Choose locates the bucket whose interval contains u, then delegates
// to that bucket's own Choose with u shifted by the buckets before it.
func (b *Buckets[K, T]) Choose(u T) (K, T, error) {
	var zero K
	i, _, err := b.outer.Choose(u)
	if err != nil {
		return zero, 0, err
	}
	left, err := b.outer.PrefixBefore(i)
	if err != nil {
		return zero, 0, err
	}
	k, w, err := b.inner[i].Choose(u - left)
	if err != nil {
		return zero, 0, fmt.Errorf("hashbuckets: bucket %d: %w", i, err)
	}
	return k, w, nil
}

// Len returns the total number of live keys across all buckets.
func (b *Buckets[K, T]) Len() int {
	n := 0
	for i := 1; i <= b.b; i++ {
		n += b.inner[i].Len()
	}
	return n
}

// Clear removes every key from every bucket.
func (b *Buckets[K, T]) Clear() {
	b.outer.Clear()
	for i := 1; i <= b.b; i++ {
		b.inner[i].Clear()
		b.bucketTotal[i] = 0
	}
}

// Range calls yield for every live key across all buckets, in bucket order.
func (b *Buckets[K, T]) Range(yield func(k K, w T) bool) {
	for i := 1; i <= b.b; i++ {
		stop := false
		b.inner[i].Range(func(k K, w T) bool {
			if !yield(k, w) {
				stop = true
				return false
			}
			return true
		})
		if stop {
			return
		}
	}
}

// BucketOf exposes which bucket k hashes to, for tests verifying the
// "bucket_of(k) is stable across the key's lifetime" property.
func (b *Buckets[K, T]) BucketOf(k K) int {
	return b.bucketOf(k)
}
