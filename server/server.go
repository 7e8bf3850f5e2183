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

package server

import (
	log "github.com/golang/glog"

	"github.com/chu11/capacitor/config"
	"github.com/chu11/capacitor/engine"
	"github.com/chu11/capacitor/etcd"
	"github.com/chu11/capacitor/event"
	"github.com/chu11/capacitor/job"
	"github.com/chu11/capacitor/registry"
	"github.com/chu11/capacitor/resource"
	"github.com/chu11/capacitor/scheduler"
	"github.com/chu11/capacitor/supply"
)

// Server wires the three units together: supplier, scheduler loop, watcher.
type Server struct {
	engine  *engine.Engine
	watcher *event.Watcher
	intake  chan supply.Message
	events  chan job.StateChange
}

func New(cfg config.Config) (*Server, error) {
	src := topologySource(cfg)
	inv, err := resource.NewInventory(src)
	if err != nil {
		return nil, err
	}
	log.Infof("Inventory built: %d ranks, %d cores", inv.TotalRanks(), inv.TotalCores())

	alloc, err := scheduler.NewAllocator(cfg.AllocationPolicy, inv)
	if err != nil {
		return nil, err
	}

	eClient := etcd.NewClient(cfg.EtcdServers)
	reg := registry.NewEtcdRegistry(eClient, cfg.EtcdKeyPrefix)

	return NewWithRegistry(cfg, reg, inv, alloc), nil
}

// NewWithRegistry assembles a server around an explicit backend, which lets
// tests plug in the fake registry.
func NewWithRegistry(cfg config.Config, reg registry.Registry, inv *resource.Inventory, alloc scheduler.Allocator) *Server {
	intake := make(chan supply.Message, cfg.IntakeBuffer)
	events := make(chan job.StateChange, cfg.EventBuffer)

	watcher := event.NewWatcher(reg, events)
	eng := engine.New(reg, alloc, inv, watcher, intake, events, cfg.MaxPending)

	return &Server{
		engine:  eng,
		watcher: watcher,
		intake:  intake,
		events:  events,
	}
}

func topologySource(cfg config.Config) resource.TopologySource {
	if cfg.TopologyFile != "" {
		return resource.FileTopology{Path: cfg.TopologyFile}
	}
	if cfg.Ranks > 0 {
		return resource.StaticTopology{RankCount: cfg.Ranks, CoresPerRank: cfg.CoresPerRank}
	}
	return resource.LocalTopology{}
}

// Run starts the watcher and the supplier, then drives the scheduler loop to
// completion. It returns whether every accepted job finished, plus any fatal
// loop error.
func (s *Server) Run(sup supply.Supplier) (bool, error) {
	go s.watcher.Run()
	go func() {
		if err := sup.Supply(s.intake); err != nil {
			log.Errorf("Job supplier failed: %v", err)
		}
	}()

	err := s.engine.Run()
	return s.engine.Idle(), err
}
