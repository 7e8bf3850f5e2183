// Copyright 2026 The capacitor Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package resource

import (
	"errors"
	"fmt"
	"sort"
)

// Inventory holds the static rank topology and the two dynamic partitions
// derived from it. At any instant each rank is in exactly one of: the
// available set (no cores assigned), the partial set (some but not all cores
// assigned), or neither (fully allocated). Only the scheduler loop touches an
// Inventory, so no locking is done here.
type Inventory struct {
	ranks      map[int]*Rank
	rankIDs    []int
	available  rankSet
	partial    rankSet
	totalCores int
}

// NewInventory queries the topology source once and builds the inventory.
// Every rank starts fully available.
func NewInventory(src TopologySource) (*Inventory, error) {
	tops, err := src.Ranks()
	if err != nil {
		return nil, err
	}

	inv := &Inventory{
		ranks:     make(map[int]*Rank),
		available: newRankSet(),
		partial:   newRankSet(),
	}

	for _, top := range tops {
		if _, ok := inv.ranks[top.ID]; ok {
			return nil, fmt.Errorf("duplicate rank %d in topology", top.ID)
		}
		if len(top.Cores) == 0 {
			return nil, fmt.Errorf("rank %d has no cores", top.ID)
		}
		inv.ranks[top.ID] = NewRank(top.ID, top.Cores)
		inv.rankIDs = append(inv.rankIDs, top.ID)
		inv.available.add(top.ID)
		inv.totalCores += len(top.Cores)
	}

	if inv.totalCores == 0 {
		return nil, errors.New("topology contains no cores")
	}

	sort.Ints(inv.rankIDs)
	return inv, nil
}

func (inv *Inventory) TotalRanks() int {
	return len(inv.rankIDs)
}

func (inv *Inventory) TotalCores() int {
	return inv.totalCores
}

func (inv *Inventory) Rank(id int) *Rank {
	return inv.ranks[id]
}

// AvailableRankIDs returns the ids of entirely unassigned ranks, ascending.
func (inv *Inventory) AvailableRankIDs() []int {
	return inv.available.values()
}

// PartialRankIDs returns the ids of partly assigned ranks, ascending.
func (inv *Inventory) PartialRankIDs() []int {
	return inv.partial.values()
}

// AvailableCoreCount sums the available pools of every rank.
func (inv *Inventory) AvailableCoreCount() int {
	count := 0
	for _, r := range inv.ranks {
		count += r.AvailableCores()
	}
	return count
}

// Reclassify re-partitions a rank after its available pool changed. Removal
// from a set the rank is not in is a no-op.
func (inv *Inventory) Reclassify(r *Rank) {
	switch {
	case r.AvailableCores() == 0:
		inv.available.remove(r.ID())
		inv.partial.remove(r.ID())
	case r.AvailableCores() == r.TotalCores():
		inv.partial.remove(r.ID())
		inv.available.add(r.ID())
	default:
		inv.available.remove(r.ID())
		inv.partial.add(r.ID())
	}
}

// rankSet is a small id set with sorted traversal, keeping rank visitation
// deterministic.
type rankSet struct {
	ids map[int]struct{}
}

func newRankSet() rankSet {
	return rankSet{ids: make(map[int]struct{})}
}

func (s rankSet) add(id int) {
	s.ids[id] = struct{}{}
}

func (s rankSet) remove(id int) {
	delete(s.ids, id)
}

func (s rankSet) values() []int {
	ids := make([]int, 0, len(s.ids))
	for id := range s.ids {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}
