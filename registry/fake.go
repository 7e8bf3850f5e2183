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

package registry

import (
	"fmt"
	"sync"

	"github.com/chu11/capacitor/job"
)

func NewFakeRegistry() *FakeRegistry {
	return &FakeRegistry{
		jobs:         map[string]job.JobSpec{},
		assignments:  map[string]map[int]int{},
		committed:    map[string]bool{},
		runRequested: map[string]bool{},
		watches:      map[string]fakeWatch{},
	}
}

// FakeRegistry is an in-memory stand-in for the backend, used by tests. It
// doubles as a hand-cranked backend: ReportState plays the role of the
// resource manager moving a job through its lifecycle.
type FakeRegistry struct {
	sync.Mutex

	seq          int
	jobs         map[string]job.JobSpec
	assignments  map[string]map[int]int
	committed    map[string]bool
	runRequested map[string]bool
	watches      map[string]fakeWatch

	createErr error
}

type fakeWatch struct {
	events chan<- job.StateChange
	stop   <-chan struct{}
}

// SetCreateError makes subsequent CreateJob calls fail, simulating an
// unreachable job creation service.
func (f *FakeRegistry) SetCreateError(err error) {
	f.Lock()
	defer f.Unlock()
	f.createErr = err
}

func (f *FakeRegistry) CreateJob(spec job.JobSpec) (string, error) {
	f.Lock()
	defer f.Unlock()

	if f.createErr != nil {
		return "", f.createErr
	}

	f.seq++
	jobID := fmt.Sprintf("job-%d", f.seq)
	f.jobs[jobID] = spec
	return jobID, nil
}

func (f *FakeRegistry) SetResourceAssignment(jobID string, rankID, tasks int) error {
	f.Lock()
	defer f.Unlock()

	if _, ok := f.jobs[jobID]; !ok {
		return fmt.Errorf("unknown job %s", jobID)
	}
	if f.assignments[jobID] == nil {
		f.assignments[jobID] = map[int]int{}
	}
	f.assignments[jobID][rankID] = tasks
	return nil
}

func (f *FakeRegistry) CommitAssignment(jobID string) error {
	f.Lock()
	defer f.Unlock()
	f.committed[jobID] = true
	return nil
}

func (f *FakeRegistry) NotifyRun(jobID string) error {
	f.Lock()
	defer f.Unlock()
	f.runRequested[jobID] = true
	return nil
}

func (f *FakeRegistry) WatchJob(jobID string, events chan<- job.StateChange, stop <-chan struct{}) error {
	f.Lock()
	defer f.Unlock()
	f.watches[jobID] = fakeWatch{events: events, stop: stop}
	return nil
}

// ReportState delivers a backend state notification through the job's armed
// watch. It fails if no watch has been armed, which is exactly the race the
// arming rendezvous exists to prevent.
func (f *FakeRegistry) ReportState(jobID string, state job.JobState) error {
	f.Lock()
	w, ok := f.watches[jobID]
	f.Unlock()

	if !ok {
		return fmt.Errorf("no watch armed for job %s", jobID)
	}

	select {
	case <-w.stop:
		return fmt.Errorf("watch for job %s stopped", jobID)
	case w.events <- job.StateChange{JobID: jobID, State: state}:
		return nil
	}
}

func (f *FakeRegistry) Watching(jobID string) bool {
	f.Lock()
	defer f.Unlock()

	w, ok := f.watches[jobID]
	if !ok {
		return false
	}
	select {
	case <-w.stop:
		return false
	default:
		return true
	}
}

// Assignments returns a copy of the per-rank task counts recorded for a job.
func (f *FakeRegistry) Assignments(jobID string) map[int]int {
	f.Lock()
	defer f.Unlock()

	out := map[int]int{}
	for rankID, tasks := range f.assignments[jobID] {
		out[rankID] = tasks
	}
	return out
}

func (f *FakeRegistry) Committed(jobID string) bool {
	f.Lock()
	defer f.Unlock()
	return f.committed[jobID]
}

func (f *FakeRegistry) RunRequested(jobID string) bool {
	f.Lock()
	defer f.Unlock()
	return f.runRequested[jobID]
}
