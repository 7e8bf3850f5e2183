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

package config

import (
	"flag"
	"io"
	"strconv"

	"github.com/BurntSushi/toml"
	log "github.com/golang/glog"

	"github.com/chu11/capacitor/engine"
	"github.com/chu11/capacitor/registry"
	"github.com/chu11/capacitor/scheduler"
)

type Config struct {
	EtcdServers   []string `toml:"etcd_servers"`
	EtcdKeyPrefix string   `toml:"etcd_key_prefix"`

	// Topology selection: a topology file wins over a static layout; with
	// neither, the local machine is used as a single rank.
	TopologyFile string `toml:"topology_file"`
	Ranks        int    `toml:"ranks"`
	CoresPerRank int    `toml:"cores_per_rank"`

	AllocationPolicy string `toml:"allocation_policy"`
	MaxPending       int    `toml:"max_pending"`
	IntakeBuffer     int    `toml:"intake_buffer"`
	EventBuffer      int    `toml:"event_buffer"`
	Verbosity        int    `toml:"verbosity"`
}

func NewConfig() *Config {
	return &Config{
		EtcdServers:      []string{"http://127.0.0.1:2379", "http://127.0.0.1:4001"},
		EtcdKeyPrefix:    registry.DefaultKeyPrefix,
		AllocationPolicy: scheduler.DefaultPolicy,
		MaxPending:       engine.DefaultMaxPending,
		IntakeBuffer:     100,
		EventBuffer:      10000,
	}
}

func UpdateConfigFromFile(conf *Config, f io.Reader) error {
	_, err := toml.NewDecoder(f).Decode(conf)
	return err
}

// UpdateFlagsFromConfig pushes the configured verbosity into glog's -v flag.
func UpdateFlagsFromConfig(conf *Config) {
	err := flag.Lookup("v").Value.Set(strconv.Itoa(conf.Verbosity))
	if err != nil {
		log.Errorf("Failed to apply config.Verbosity to flag.v: %s", err.Error())
	}
}
