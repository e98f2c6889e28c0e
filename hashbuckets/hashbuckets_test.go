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
	"errors"
	"testing"

	"github.com/adolgert/samplerdome/internal/containertest"
	"github.com/adolgert/samplerdome/internal/xhash"
	"github.com/adolgert/samplerdome/weighted"
)

func newBucketsOverSmallBucket() weighted.Container[string, float64] {
	b, err := New[string, float64](4, 0, xhash.HashString, NewSmallBucket[string, float64])
	if err != nil {
		panic(err)
	}
	return b
}

func TestBucketsContract(t *testing.T) {
	containertest.RunContract(t, newBucketsOverSmallBucket, []string{"a", "b", "c", "d", "e"})
}

func TestNewRejectsNonPowerOfTwo(t *testing.T) {
	_, err := New[string, float64](3, 0, xhash.HashString, NewSmallBucket[string, float64])
	if !errors.Is(err, weighted.ErrInvalidCapacity) {
		t.Fatalf("New(3, ...): err = %v, want ErrInvalidCapacity", err)
	}
}

// TestSeedScenario2 walks the spec's worked example: four keys with
// weights 10/20/5/15 (total 50), then Set(a,25) raises the total to
// 65, then Erase(b) drops it to 45 and b is no longer present.
func TestSeedScenario2(t *testing.T) {
	b, err := New[string, float64](4, 0, xhash.HashString, NewSmallBucket[string, float64])
	if err != nil {
		t.Fatal(err)
	}
	weights := map[string]float64{"a": 10, "b": 20, "c": 5, "d": 15}
	for k, w := range weights {
		if err := b.Set(k, w); err != nil {
			t.Fatal(err)
		}
	}
	if got := b.Total(); got != 50 {
		t.Fatalf("Total() = %v, want 50", got)
	}

	if err := b.Set("a", 25); err != nil {
		t.Fatal(err)
	}
	if got := b.Total(); got != 65 {
		t.Fatalf("Total() after Set(a,25) = %v, want 65", got)
	}

	b.Erase("b")
	if got := b.Total(); got != 45 {
		t.Fatalf("Total() after Erase(b) = %v, want 45", got)
	}
	if b.Has("b") {
		t.Fatalf("Has(b) after erase = true")
	}
}

// TestBucketOfStableAcrossLifetime checks spec.md §8's "bucket_of(k) is
// stable across the key's lifetime" property: repeated Set/Erase never
// moves a key to a different bucket.
func TestBucketOfStableAcrossLifetime(t *testing.T) {
	b, err := New[string, float64](8, 42, xhash.HashString, NewSmallBucket[string, float64])
	if err != nil {
		t.Fatal(err)
	}
	keys := []string{"alpha", "beta", "gamma", "delta", "epsilon"}
	initial := map[string]int{}
	for _, k := range keys {
		initial[k] = b.BucketOf(k)
		if err := b.Set(k, 1.0); err != nil {
			t.Fatal(err)
		}
	}
	for round := 0; round < 3; round++ {
		for _, k := range keys {
			b.Erase(k)
			if err := b.Set(k, float64(round+2)); err != nil {
				t.Fatal(err)
			}
			if got := b.BucketOf(k); got != initial[k] {
				t.Fatalf("round %d: BucketOf(%q) = %d, want %d", round, k, got, initial[k])
			}
		}
	}
}

// TestOuterTotalsRecomputedNotAccumulated sets one key to the same
// weight many times and then checks that the outer tree's total equals
// that key's weight exactly: Sets that leave a weight unchanged must
// not add anything to the bucket total.
func TestOuterTotalsRecomputedNotAccumulated(t *testing.T) {
	b, err := New[string, float64](2, 7, xhash.HashString, NewSmallBucket[string, float64])
	if err != nil {
		t.Fatal(err)
	}
	k := "only-key"
	for i := 0; i < 10000; i++ {
		if err := b.Set(k, 0.1); err != nil {
			t.Fatal(err)
		}
	}
	w, err := b.Get(k)
	if err != nil {
		t.Fatal(err)
	}
	if got := b.Total(); got != w {
		t.Fatalf("Total() = %v, want exactly Get(k) = %v", got, w)
	}
}
