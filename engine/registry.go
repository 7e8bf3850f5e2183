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

package engine

import (
	"github.com/chu11/capacitor/job"
	"github.com/chu11/capacitor/pkg"
)

// JobRegistry owns every job the loop has accepted, partitioned into three
// insertion-ordered collections. A job id is in exactly one of pending,
// running or completed at any time, matching the job's State field. Jobs are
// never removed; completed jobs are retained for the life of the process.
type JobRegistry struct {
	jobs      map[string]*job.Job
	pending   *pkg.OrderedSet
	running   *pkg.OrderedSet
	completed *pkg.OrderedSet
}

func NewJobRegistry() *JobRegistry {
	return &JobRegistry{
		jobs:      make(map[string]*job.Job),
		pending:   pkg.NewOrderedSet(),
		running:   pkg.NewOrderedSet(),
		completed: pkg.NewOrderedSet(),
	}
}

// Add registers a freshly submitted job as pending.
func (r *JobRegistry) Add(j *job.Job) {
	r.jobs[j.ID] = j
	r.pending.Add(j.ID)
	j.State = job.JobStatePending
}

// Drop forgets a job that failed between registration and scheduling.
func (r *JobRegistry) Drop(j *job.Job) {
	r.pending.Remove(j.ID)
	delete(r.jobs, j.ID)
}

func (r *JobRegistry) Get(jobID string) *job.Job {
	return r.jobs[jobID]
}

// MarkRunning moves a pending job into the running collection. Idempotent
// for a job already running.
func (r *JobRegistry) MarkRunning(j *job.Job) {
	r.pending.Remove(j.ID)
	r.running.Add(j.ID)
	j.State = job.JobStateRunning
}

func (r *JobRegistry) MarkComplete(j *job.Job) {
	r.running.Remove(j.ID)
	r.completed.Add(j.ID)
	j.State = job.JobStateComplete
}

func (r *JobRegistry) IsRunning(jobID string) bool {
	return r.running.Contains(jobID)
}

// PendingJobs returns the pending jobs in submission order.
func (r *JobRegistry) PendingJobs() []*job.Job {
	ids := r.pending.Values()
	jobs := make([]*job.Job, 0, len(ids))
	for _, id := range ids {
		jobs = append(jobs, r.jobs[id])
	}
	return jobs
}

func (r *JobRegistry) PendingCount() int {
	return r.pending.Length()
}

func (r *JobRegistry) RunningCount() int {
	return r.running.Length()
}

func (r *JobRegistry) CompletedCount() int {
	return r.completed.Length()
}

// Idle reports whether no jobs remain pending or running.
func (r *JobRegistry) Idle() bool {
	return r.pending.Length() == 0 && r.running.Length() == 0
}
