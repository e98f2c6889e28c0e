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

// Command samplerdome-bench loads a keyed weighted.Container with one
// random weight per key, then times a run of random Choose calls.
package main

import (
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/adolgert/samplerdome/cumsum"
	"github.com/adolgert/samplerdome/hashbuckets"
	"github.com/adolgert/samplerdome/internal/ints"
	"github.com/adolgert/samplerdome/internal/topk"
	"github.com/adolgert/samplerdome/internal/xhash"
	"github.com/adolgert/samplerdome/keyed"
	"github.com/adolgert/samplerdome/segtree"
	"github.com/adolgert/samplerdome/sumtrie"
	"github.com/adolgert/samplerdome/treap"
	"github.com/adolgert/samplerdome/weighted"
)

var (
	kind    = flag.String("kind", "segtree", "container kind: segtree, cumsum, hashbuckets, treap, sumtrie")
	keys    = flag.Int("keys", 10000, "number of distinct keys")
	choices = flag.Int("choices", 100000, "number of Choose calls to time")
	seed    = flag.Int64("seed", 1, "random seed")
	top     = flag.Int("top", 0, "print the N heaviest keys after loading, 0 to skip")
)

func buildContainer(n int) (weighted.Container[int, float64], error) {
	switch *kind {
	case "segtree":
		return keyed.NewRemoval[int, float64](segtree.New[float64](n)), nil
	case "cumsum":
		return keyed.NewRemoval[int, float64](cumsum.New[float64](n)), nil
	case "hashbuckets":
		return hashbuckets.New[int, float64](64, 0, xhash.HashInt, hashbuckets.NewSmallBucket[int, float64])
	case "treap":
		return treap.New[int, float64](0, *seed, xhash.HashInt), nil
	case "sumtrie":
		return sumtrie.New[int, float64](0, xhash.AltSeed, xhash.HashInt), nil
	default:
		return nil, fmt.Errorf("unknown -kind %q", *kind)
	}
}

func main() {
	flag.Parse()
	runID := uuid.New()
	*keys = ints.Clamp(*keys, 1, 10_000_000)
	*choices = ints.Clamp(*choices, 1, 100_000_000)
	log.Printf("samplerdome-bench run=%s kind=%s keys=%d choices=%d", runID, *kind, *keys, *choices)

	c, err := buildContainer(*keys)
	if err != nil {
		log.Fatal(err)
	}

	rng := rand.New(rand.NewSource(*seed))
	for i := 0; i < *keys; i++ {
		w := rng.Float64()*10 + 0.01
		if err := c.Set(i, w); err != nil {
			log.Fatalf("Set(%d, %v): %v", i, w, err)
		}
	}

	if *top > 0 {
		for _, e := range topk.Top[int, float64](c, *top) {
			fmt.Fprintf(os.Stdout, "top key=%d weight=%v\n", e.Key, e.Weight)
		}
	}

	total := c.Total()
	start := time.Now()
	for i := 0; i < *choices; i++ {
		u := rng.Float64() * total
		if _, _, err := c.Choose(u); err != nil {
			log.Fatalf("Choose(%v): %v", u, err)
		}
	}
	elapsed := time.Since(start)

	fmt.Fprintf(os.Stdout, "run=%s kind=%s keys=%d choices=%d elapsed=%s per_choice=%s\n",
		runID, *kind, c.Len(), *choices, elapsed, elapsed/time.Duration(*choices))
}
