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

package job

import (
	"errors"
	"time"

	"github.com/chu11/capacitor/resource"
)

// JobSpec describes a job as requested by a command supplier, before the
// backend has assigned it an identifier.
type JobSpec struct {
	// NNodes is the requested rank count. Zero means unconstrained: the
	// job is allocated by core count instead of whole ranks.
	NNodes int `json:"nnodes"`

	// NTasks is the requested task count. Always >= 1, and >= NNodes
	// whenever NNodes is set.
	NTasks int `json:"ntasks"`

	Command   string            `json:"command"`
	Dir       string            `json:"dir"`
	Env       map[string]string `json:"env,omitempty"`
	CreatedAt time.Time         `json:"createdAt"`
}

// NewJobSpec validates a job request. A task count below one is rejected; a
// task count below the node count is raised to match it.
func NewJobSpec(command string, ntasks, nnodes int, dir string, env map[string]string) (*JobSpec, error) {
	if command == "" {
		return nil, errors.New("job command must not be empty")
	}
	if ntasks < 1 {
		return nil, errors.New("job must request at least one task")
	}
	if nnodes < 0 {
		return nil, errors.New("job node count must not be negative")
	}
	if nnodes > 0 && ntasks < nnodes {
		ntasks = nnodes
	}

	return &JobSpec{
		NNodes:    nnodes,
		NTasks:    ntasks,
		Command:   command,
		Dir:       dir,
		Env:       env,
		CreatedAt: time.Now(),
	}, nil
}

// RankAssignment records the tasks and cores a job holds on one rank in
// node-exclusive mode. Cores holds every core drained from the rank, even
// those no task was placed on: the job owns the whole rank.
type RankAssignment struct {
	RankID int
	Tasks  int
	Cores  []resource.Core
}

// CoreAssignment records the tasks placed on a single core in core-granular
// mode. Tasks may exceed one when the job oversubscribes the cluster.
type CoreAssignment struct {
	Core  resource.Core
	Tasks int
}

// ResourceSet is the full resource grant of a scheduled job. Exactly one of
// Ranks or Cores is populated, depending on the allocation mode.
type ResourceSet struct {
	Ranks []RankAssignment
	Cores []CoreAssignment
}

// TasksByRank flattens the grant into per-rank task counts, the shape the
// backend job record expects.
func (rs *ResourceSet) TasksByRank() map[int]int {
	tasks := make(map[int]int)
	for _, ra := range rs.Ranks {
		tasks[ra.RankID] += ra.Tasks
	}
	for _, ca := range rs.Cores {
		tasks[ca.Core.RankID] += ca.Tasks
	}
	return tasks
}

// Job is a single submitted job, identified by the backend-assigned ID.
type Job struct {
	ID        string
	Spec      JobSpec
	State     JobState
	Resources *ResourceSet
}

func NewJob(id string, spec JobSpec) *Job {
	return &Job{
		ID:    id,
		Spec:  spec,
		State: JobStateSubmitted,
	}
}

// TakeResources removes and returns the job's resource grant. The second
// call returns nil, which makes release idempotent.
func (j *Job) TakeResources() *ResourceSet {
	rs := j.Resources
	j.Resources = nil
	return rs
}
