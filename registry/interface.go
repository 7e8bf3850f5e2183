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
	"github.com/chu11/capacitor/job"
)

// Registry is the backend contract the scheduling core depends on: job
// creation, the per-job resource record, the run signal, and the state
// subscription.
type Registry interface {
	// CreateJob stores the spec with the backend and returns the
	// backend-assigned job identifier. Synchronous; an error means the
	// job never entered the pipeline.
	CreateJob(spec job.JobSpec) (string, error)

	// SetResourceAssignment annotates the job record with the task count
	// granted on one rank.
	SetResourceAssignment(jobID string, rankID, tasks int) error

	// CommitAssignment makes the job's resource assignment visible to the
	// backend. Must be called before NotifyRun.
	CommitAssignment(jobID string) error

	// NotifyRun signals the backend to start the job. No acknowledgement
	// is expected.
	NotifyRun(jobID string) error

	// WatchJob arms a state subscription for the job. By the time it
	// returns, the subscription window is open: no later state transition
	// can be missed. Events flow into events until stop is closed.
	WatchJob(jobID string, events chan<- job.StateChange, stop <-chan struct{}) error
}
