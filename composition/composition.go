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

// Package composition implements the composition-rejection style
// two-stage choice: pick a group by proportional weight, then delegate
// to that group's own weighted.Container to pick a member. It does not
// perform a rejection test; that requires the distribution objects this
// module does not implement.
package composition

import (
	"fmt"

	"github.com/adolgert/samplerdome/segtree"
	"github.com/adolgert/samplerdome/weighted"
)

// Dispatcher holds one weighted.Container per group and an outer
// segtree.Tree mirroring each group's current total, so choosing a
// group is itself a weighted choice over group totals.
type Dispatcher[K comparable, T weighted.Weight] struct {
	groups  *segtree.Tree[T]
	members []weighted.Container[K, T]
}

// New returns a Dispatcher over the given groups, in order: group g
// (1-based) is backed by members[g-1].
func New[K comparable, T weighted.Weight](members ...weighted.Container[K, T]) (*Dispatcher[K, T], error) {
	if len(members) == 0 {
		return nil, fmt.Errorf("composition: no groups given: %w", weighted.ErrInvalidCapacity)
	}
	d := &Dispatcher[K, T]{
		groups:  segtree.New[T](len(members)),
		members: members,
	}
	for g, m := range members {
		if err := d.groups.Update(g+1, m.Total()); err != nil {
			return nil, err
		}
	}
	return d, nil
}

func (d *Dispatcher[K, T]) checkGroup(g int) error {
	if g < 1 || g > len(d.members) {
		return fmt.Errorf("composition: group %d out of [1,%d]: %w", g, len(d.members), weighted.ErrInternal)
	}
	return nil
}

// Set inserts or updates the weight for k within group g.
func (d *Dispatcher[K, T]) Set(g int, k K, w T) error {
	if err := d.checkGroup(g); err != nil {
		return err
	}
	if err := d.members[g-1].Set(k, w); err != nil {
		return err
	}
	return d.groups.Update(g, d.members[g-1].Total())
}

// Erase removes k from group g. No-op if absent.
func (d *Dispatcher[K, T]) Erase(g int, k K) {
	if err := d.checkGroup(g); err != nil {
		return
	}
	d.members[g-1].Erase(k)
	_ = d.groups.Update(g, d.members[g-1].Total())
}

// Total returns the sum of every group's total.
func (d *Dispatcher[K, T]) Total() T {
	return d.groups.Total()
}

// Choose picks a group proportionally to its total, then delegates to
// that group's Choose for the member, returning both the group index
// and the chosen key and weight.
func (d *Dispatcher[K, T]) Choose(u T) (int, K, T, error) {
	var zero K
	g, _, err := d.groups.Choose(u)
	if err != nil {
		return 0, zero, 0, err
	}
	left, err := d.groups.PrefixBefore(g)
	if err != nil {
		return 0, zero, 0, err
	}
	k, w, err := d.members[g-1].Choose(u - left)
	if err != nil {
		return 0, zero, 0, fmt.Errorf("composition: group %d: %w", g, err)
	}
	return g, k, w, nil
}

// Len returns the total number of live keys across every group.
func (d *Dispatcher[K, T]) Len() int {
	n := 0
	for _, m := range d.members {
		n += m.Len()
	}
	return n
}

// GroupCount returns the number of groups.
func (d *Dispatcher[K, T]) GroupCount() int {
	return len(d.members)
}
