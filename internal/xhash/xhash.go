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

// Package xhash provides seeded, non-cryptographic hashing for container
// keys: a 64-bit hash for bucket selection and a 128-bit ordinate for
// imposing a total order on keys in Treap and SumTrie.
package xhash

import (
	"encoding/binary"
	"math/bits"

	"github.com/dchest/siphash"
)

// AltSeed derives an independent-enough second seed from the first, per
// the rule in spec.md: s2 = s1 xor a fixed odd constant.
const AltSeed = 0x9e3779b97f4a7c15

// Hasher hashes a key under a given seed. Containers that need a
// deterministic order over K (HashBuckets' bucket selector, Treap and
// SumTrie's ordinates) take one of these at construction time.
type Hasher[K comparable] func(k K, seed uint64) uint64

// Bytes hashes a raw byte slice with siphash under the given seed,
// holding k0 fixed at zero the way expr.redactBuf and zll.Hash64 do.
func Bytes(seed uint64, p []byte) uint64 {
	return siphash.Hash(0, seed, p)
}

// HashString hashes a string key under seed.
func HashString(k string, seed uint64) uint64 {
	return Bytes(seed, []byte(k))
}

// HashInt64 hashes an int64 key under seed.
func HashInt64(k int64, seed uint64) uint64 {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(k))
	return Bytes(seed, buf[:])
}

// HashUint64 hashes a uint64 key under seed.
func HashUint64(k uint64, seed uint64) uint64 {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], k)
	return Bytes(seed, buf[:])
}

// HashInt hashes an int key under seed.
func HashInt(k int, seed uint64) uint64 {
	return HashInt64(int64(k), seed)
}

// Ordinate128 is a 128-bit value used to impose a total order on keys
// independent of K's natural order: Hi holds the more significant word.
type Ordinate128 struct {
	Hi, Lo uint64
}

// Less reports whether o orders strictly before other.
func (o Ordinate128) Less(other Ordinate128) bool {
	if o.Hi != other.Hi {
		return o.Hi < other.Hi
	}
	return o.Lo < other.Lo
}

// Equal reports whether o and other are the same ordinate.
func (o Ordinate128) Equal(other Ordinate128) bool {
	return o.Hi == other.Hi && o.Lo == other.Lo
}

// Bit returns the value of bit index i, where i=0 is the least
// significant bit of Lo and i=127 is the most significant bit of Hi.
// A larger index is a more significant bit, so crit indices decrease
// from the root of a crit-bit tree toward its leaves.
func (o Ordinate128) Bit(i int) uint64 {
	if i < 64 {
		return (o.Lo >> i) & 1
	}
	return (o.Hi >> (i - 64)) & 1
}

// HighestDifferingBit returns the largest bit index i (127=MSB of Hi,
// 0=LSB of Lo) at which a and b disagree. It panics if a == b;
// callers must not call it on equal ordinates.
func HighestDifferingBit(a, b Ordinate128) int {
	if a.Equal(b) {
		panic("xhash: HighestDifferingBit of equal ordinates")
	}
	if a.Hi != b.Hi {
		return 127 - bits.LeadingZeros64(a.Hi^b.Hi)
	}
	return 63 - bits.LeadingZeros64(a.Lo^b.Lo)
}

