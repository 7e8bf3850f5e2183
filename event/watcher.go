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

package event

import (
	log "github.com/golang/glog"

	"github.com/chu11/capacitor/job"
	"github.com/chu11/capacitor/registry"
)

const requestBacklog = 16

type requestKind int

const (
	requestArm requestKind = iota
	requestUnwatch
	requestShutdown
)

// request is the tagged control message carried on the watcher's channel:
// arm a watch (with a rendezvous acknowledgement), drop one, or shut down.
type request struct {
	kind  requestKind
	jobID string
	tasks int
	ack   chan error
}

// Watcher owns the backend state subscriptions. It runs as its own unit; the
// scheduler loop talks to it only through the request channel, and the
// backend's notifications flow out through the shared state-change channel.
type Watcher struct {
	reg      registry.Registry
	events   chan<- job.StateChange
	requests chan request
	done     chan struct{}
}

func NewWatcher(reg registry.Registry, events chan<- job.StateChange) *Watcher {
	return &Watcher{
		reg:      reg,
		events:   events,
		requests: make(chan request, requestBacklog),
		done:     make(chan struct{}),
	}
}

func (w *Watcher) Run() {
	stops := make(map[string]chan struct{})

	for req := range w.requests {
		switch req.kind {
		case requestArm:
			stop := make(chan struct{})
			err := w.reg.WatchJob(req.jobID, w.events, stop)
			if err != nil {
				close(stop)
			} else {
				stops[req.jobID] = stop
				log.V(1).Infof("Watching Job(%s), expecting %d tasks", req.jobID, req.tasks)
			}
			req.ack <- err
		case requestUnwatch:
			if stop, ok := stops[req.jobID]; ok {
				close(stop)
				delete(stops, req.jobID)
				log.V(1).Infof("Dropped watch on Job(%s)", req.jobID)
			}
		case requestShutdown:
			for jobID, stop := range stops {
				close(stop)
				delete(stops, jobID)
			}
			close(w.done)
			return
		}
	}
}

// Arm subscribes to the job's state notifications and blocks until the
// watcher has processed the request. Once Arm returns, no state change for
// the job can be missed.
func (w *Watcher) Arm(jobID string, tasks int) error {
	ack := make(chan error, 1)
	w.requests <- request{kind: requestArm, jobID: jobID, tasks: tasks, ack: ack}
	return <-ack
}

// Unwatch drops the job's subscription. Called once a job reaches its
// terminal state; fire-and-forget.
func (w *Watcher) Unwatch(jobID string) {
	w.requests <- request{kind: requestUnwatch, jobID: jobID}
}

// Stop sends the shutdown sentinel and waits for the watcher to wind down.
func (w *Watcher) Stop() {
	w.requests <- request{kind: requestShutdown}
	<-w.done
}
