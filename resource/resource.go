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

// Core identifies one schedulable unit of compute within a rank. It is
// immutable after topology discovery.
type Core struct {
	RankID       int `json:"rankId"`
	OSIndex      int `json:"osIndex"`
	LogicalIndex int `json:"logicalIndex"`
}

// Rank is a cluster node owning a fixed set of cores. The owned set is
// immutable after discovery; the available pool shrinks and grows as the
// allocator claims and returns cores.
type Rank struct {
	id        int
	cores     []Core
	available []Core
}

func NewRank(id int, cores []Core) *Rank {
	available := make([]Core, len(cores))
	copy(available, cores)
	return &Rank{
		id:        id,
		cores:     cores,
		available: available,
	}
}

func (r *Rank) ID() int {
	return r.id
}

func (r *Rank) TotalCores() int {
	return len(r.cores)
}

func (r *Rank) AvailableCores() int {
	return len(r.available)
}

// Take removes up to n cores from the available pool and returns them.
func (r *Rank) Take(n int) []Core {
	if n > len(r.available) {
		n = len(r.available)
	}
	taken := make([]Core, n)
	copy(taken, r.available[:n])
	r.available = r.available[n:]
	return taken
}

// TakeAll drains the available pool entirely.
func (r *Rank) TakeAll() []Core {
	return r.Take(len(r.available))
}

// Return places cores back into the available pool. Cores already available
// are skipped, so a stray double-return cannot inflate the pool past the
// owned set.
func (r *Rank) Return(cores []Core) {
	present := make(map[int]struct{}, len(r.available))
	for _, c := range r.available {
		present[c.LogicalIndex] = struct{}{}
	}
	for _, c := range cores {
		if c.RankID != r.id {
			continue
		}
		if _, ok := present[c.LogicalIndex]; ok {
			continue
		}
		present[c.LogicalIndex] = struct{}{}
		r.available = append(r.available, c)
	}
}
