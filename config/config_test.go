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
	"bytes"
	"reflect"
	"testing"
)

func TestConfigDefaults(t *testing.T) {
	conf := NewConfig()
	if len(conf.EtcdServers) != 2 {
		t.Errorf("expected 2 default etcd servers, got %v", conf.EtcdServers)
	}
	if conf.AllocationPolicy != "binpack" {
		t.Errorf("unexpected default allocation policy %q", conf.AllocationPolicy)
	}
	if conf.MaxPending != 100 {
		t.Errorf("unexpected default max_pending %d", conf.MaxPending)
	}
	if conf.TopologyFile != "" || conf.Ranks != 0 {
		t.Errorf("expected no default topology, got file=%q ranks=%d", conf.TopologyFile, conf.Ranks)
	}
}

func TestUpdateConfigFromFile(t *testing.T) {
	cfg := `
etcd_servers = ["http://10.0.0.1:2379"]
etcd_key_prefix = "/testing/"
ranks = 4
cores_per_rank = 8
allocation_policy = "binpack"
max_pending = 25
verbosity = 2
`
	conf := NewConfig()
	if err := UpdateConfigFromFile(conf, bytes.NewBufferString(cfg)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !reflect.DeepEqual(conf.EtcdServers, []string{"http://10.0.0.1:2379"}) {
		t.Errorf("unexpected etcd servers %v", conf.EtcdServers)
	}
	if conf.EtcdKeyPrefix != "/testing/" {
		t.Errorf("unexpected key prefix %q", conf.EtcdKeyPrefix)
	}
	if conf.Ranks != 4 || conf.CoresPerRank != 8 {
		t.Errorf("unexpected topology %d x %d", conf.Ranks, conf.CoresPerRank)
	}
	if conf.MaxPending != 25 {
		t.Errorf("unexpected max_pending %d", conf.MaxPending)
	}
	if conf.Verbosity != 2 {
		t.Errorf("unexpected verbosity %d", conf.Verbosity)
	}

	// fields absent from the file keep their defaults
	if conf.IntakeBuffer != 100 {
		t.Errorf("expected default intake_buffer, got %d", conf.IntakeBuffer)
	}
}

func TestUpdateConfigFromFileInvalid(t *testing.T) {
	conf := NewConfig()
	if err := UpdateConfigFromFile(conf, bytes.NewBufferString("not valid toml [")); err == nil {
		t.Errorf("expected error for malformed config")
	}
}
