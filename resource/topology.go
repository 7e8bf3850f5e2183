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
	"fmt"
	"os"
	"runtime"

	"gopkg.in/yaml.v3"
)

// RankTopology is one rank's worth of discovered hardware.
type RankTopology struct {
	ID    int
	Cores []Core
}

// TopologySource produces the physical rank/core layout. It is queried
// exactly once, at inventory construction.
type TopologySource interface {
	Ranks() ([]RankTopology, error)
}

// StaticTopology describes a uniform cluster of RankCount ranks with
// CoresPerRank cores each.
type StaticTopology struct {
	RankCount    int
	CoresPerRank int
}

func (t StaticTopology) Ranks() ([]RankTopology, error) {
	if t.RankCount < 1 || t.CoresPerRank < 1 {
		return nil, fmt.Errorf("invalid static topology: %d ranks x %d cores", t.RankCount, t.CoresPerRank)
	}

	tops := make([]RankTopology, t.RankCount)
	for r := 0; r < t.RankCount; r++ {
		cores := make([]Core, t.CoresPerRank)
		for c := 0; c < t.CoresPerRank; c++ {
			cores[c] = Core{RankID: r, OSIndex: c, LogicalIndex: c}
		}
		tops[r] = RankTopology{ID: r, Cores: cores}
	}
	return tops, nil
}

// LocalTopology exposes the local machine as a single rank with one core per
// logical CPU.
type LocalTopology struct{}

func (t LocalTopology) Ranks() ([]RankTopology, error) {
	ncpu := runtime.NumCPU()
	cores := make([]Core, ncpu)
	for c := 0; c < ncpu; c++ {
		cores[c] = Core{RankID: 0, OSIndex: c, LogicalIndex: c}
	}
	return []RankTopology{{ID: 0, Cores: cores}}, nil
}

// FileTopology reads the rank layout from a YAML file of the form:
//
//	ranks:
//	  - id: 0
//	    cores: [0, 1, 2, 3]
//
// where the core list holds OS indices in logical order.
type FileTopology struct {
	Path string
}

type topologyFile struct {
	Ranks []struct {
		ID    int   `yaml:"id"`
		Cores []int `yaml:"cores"`
	} `yaml:"ranks"`
}

func (t FileTopology) Ranks() ([]RankTopology, error) {
	data, err := os.ReadFile(t.Path)
	if err != nil {
		return nil, err
	}

	var tf topologyFile
	if err := yaml.Unmarshal(data, &tf); err != nil {
		return nil, fmt.Errorf("unable to parse topology file %s: %v", t.Path, err)
	}

	tops := make([]RankTopology, 0, len(tf.Ranks))
	for _, rt := range tf.Ranks {
		cores := make([]Core, len(rt.Cores))
		for i, osIndex := range rt.Cores {
			cores[i] = Core{RankID: rt.ID, OSIndex: osIndex, LogicalIndex: i}
		}
		tops = append(tops, RankTopology{ID: rt.ID, Cores: cores})
	}
	return tops, nil
}
