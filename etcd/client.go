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

package etcd

import (
	goetcd "github.com/coreos/go-etcd/etcd"
)

// Client is the subset of the etcd client the registry depends on, kept as
// an interface so tests can stand in for a live cluster.
type Client interface {
	AddChild(key string, value string, ttl uint64) (*goetcd.Response, error)
	Create(key string, value string, ttl uint64) (*goetcd.Response, error)
	Delete(key string, recursive bool) (*goetcd.Response, error)
	Get(key string, sort, recursive bool) (*goetcd.Response, error)
	Set(key string, value string, ttl uint64) (*goetcd.Response, error)

	Watch(prefix string, waitIndex uint64, recursive bool, receiver chan *goetcd.Response, stop chan bool) (*goetcd.Response, error)
}

func NewClient(servers []string) Client {
	c := goetcd.NewClient(servers)
	c.SetConsistency(goetcd.STRONG_CONSISTENCY)
	return c
}
