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
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	log "github.com/golang/glog"

	"github.com/chu11/capacitor/event"
	"github.com/chu11/capacitor/job"
	"github.com/chu11/capacitor/metrics"
	"github.com/chu11/capacitor/registry"
	"github.com/chu11/capacitor/resource"
	"github.com/chu11/capacitor/scheduler"
	"github.com/chu11/capacitor/supply"
)

const DefaultMaxPending = 100

// Engine is the scheduler loop. It multiplexes the job-intake and
// state-change channels and is the only unit that touches the inventory, the
// allocator and the job registry, so none of that state needs locking.
type Engine struct {
	reg     registry.Registry
	alloc   scheduler.Allocator
	inv     *resource.Inventory
	watcher *event.Watcher
	jobs    *JobRegistry

	intake     <-chan supply.Message
	events     chan job.StateChange
	maxPending int
}

func New(reg registry.Registry, alloc scheduler.Allocator, inv *resource.Inventory, watcher *event.Watcher, intake <-chan supply.Message, events chan job.StateChange, maxPending int) *Engine {
	if maxPending <= 0 {
		maxPending = DefaultMaxPending
	}
	return &Engine{
		reg:        reg,
		alloc:      alloc,
		inv:        inv,
		watcher:    watcher,
		jobs:       NewJobRegistry(),
		intake:     intake,
		events:     events,
		maxPending: maxPending,
	}
}

// Run drives the loop until the intake stream has closed and no job remains
// pending or running, then sends the watcher its shutdown sentinel. A
// protocol violation terminates the loop early with an error.
func (e *Engine) Run() error {
	intakeOpen := true

	for {
		if !intakeOpen && e.jobs.Idle() {
			break
		}

		// Stop accepting new submissions while too many jobs are
		// queued; state changes still flow.
		intake := e.intake
		if !intakeOpen || e.jobs.PendingCount() >= e.maxPending {
			intake = nil
		}

		select {
		case msg := <-intake:
			if msg.Kind == supply.MessageClose {
				log.V(1).Infof("Job intake stream closed")
				intakeOpen = false
				continue
			}
			e.submit(msg.Spec)
		case sc := <-e.events:
			if err := e.handleAndDrain(sc); err != nil {
				log.Errorf("Terminating scheduler loop: %v", err)
				e.watcher.Stop()
				return err
			}
		}
	}

	e.watcher.Stop()
	return nil
}

// handleAndDrain processes one state change, then drains whatever else is
// buffered so consequent re-scheduling happens in batches.
func (e *Engine) handleAndDrain(sc job.StateChange) error {
	if err := e.stateChange(sc); err != nil {
		return err
	}
	for {
		select {
		case sc := <-e.events:
			if err := e.stateChange(sc); err != nil {
				return err
			}
		default:
			return nil
		}
	}
}

// Idle reports whether every accepted job completed. The daemon uses it to
// decide its exit status.
func (e *Engine) Idle() bool {
	return e.jobs.Idle()
}

func (e *Engine) CompletedCount() int {
	return e.jobs.CompletedCount()
}

// submit runs the submission path: feasibility check, backend job creation,
// registration, watch-arming rendezvous, then a first scheduling attempt.
func (e *Engine) submit(spec *job.JobSpec) {
	if spec.NNodes > e.inv.TotalRanks() {
		err := &InfeasibleRequestError{NNodes: spec.NNodes, TotalRanks: e.inv.TotalRanks()}
		log.Errorf("Rejecting job: %v", err)
		metrics.SubmissionFailure("infeasible")
		return
	}

	jobID, err := e.reg.CreateJob(*spec)
	if err != nil {
		log.Errorf("Job creation failed: %v", err)
		metrics.SubmissionFailure("backend")
		return
	}

	j := job.NewJob(jobID, *spec)
	e.jobs.Add(j)
	metrics.JobSubmitted()
	log.Infof("Job(%s) submitted: ntasks=%d nnodes=%d", jobID, spec.NTasks, spec.NNodes)

	// Block until the watch is armed so no state notification can beat
	// the subscription.
	if err := e.watcher.Arm(jobID, spec.NTasks); err != nil {
		log.Errorf("Unable to arm watch for Job(%s), dropping job: %v", jobID, err)
		e.jobs.Drop(j)
		metrics.SubmissionFailure("watch")
		return
	}

	e.schedule(j)
}

// schedule attempts to place one pending job. On success the assignment is
// recorded with the backend, committed, and the run signal fired. On
// deferral the job simply stays pending.
func (e *Engine) schedule(j *job.Job) {
	start := time.Now()
	placed, err := e.alloc.Schedule(j)
	metrics.SchedulePassDuration(start)

	if err != nil {
		log.Errorf("Unable to schedule Job(%s): %v", j.ID, err)
		return
	}
	if !placed {
		log.V(1).Infof("Insufficient resources for Job(%s), deferring", j.ID)
		metrics.JobDeferred()
		return
	}

	if err := e.recordAssignment(j); err != nil {
		log.Errorf("Unable to record assignment of Job(%s), releasing and deferring: %v", j.ID, err)
		e.alloc.Release(j)
		metrics.JobDeferred()
		return
	}

	e.jobs.MarkRunning(j)
	log.Infof("Job(%s) scheduled: %s", j.ID, assignmentSummary(j))
}

func (e *Engine) recordAssignment(j *job.Job) error {
	byRank := j.Resources.TasksByRank()

	rankIDs := make([]int, 0, len(byRank))
	for rankID := range byRank {
		rankIDs = append(rankIDs, rankID)
	}
	sort.Ints(rankIDs)

	for _, rankID := range rankIDs {
		if err := e.reg.SetResourceAssignment(j.ID, rankID, byRank[rankID]); err != nil {
			return err
		}
	}
	if err := e.reg.CommitAssignment(j.ID); err != nil {
		return err
	}
	return e.reg.NotifyRun(j.ID)
}

// stateChange applies one backend notification to the job registry.
func (e *Engine) stateChange(sc job.StateChange) error {
	j := e.jobs.Get(sc.JobID)
	if j == nil {
		return &ProtocolViolationError{JobID: sc.JobID, Reason: "state change for unknown job"}
	}

	log.V(1).Infof("Job(%s) state notification: %s", sc.JobID, sc.State)

	switch sc.State {
	case job.JobStateRunning:
		// The lifecycle only moves forward. A running notification for a
		// job already running is the backend echoing the run signal; one
		// for a completed job is stale.
		if !j.State.Precedes(job.JobStateRunning) {
			if j.State == job.JobStateComplete {
				log.Warningf("Ignoring stale running notification for completed Job(%s)", j.ID)
			}
			return nil
		}
		e.jobs.MarkRunning(j)
	case job.JobStateComplete:
		if !e.jobs.IsRunning(j.ID) {
			return &ProtocolViolationError{JobID: j.ID, Reason: "completion for job not running"}
		}
		e.complete(j)
	default:
		// submitted/pending echoes carry no new information
	}
	return nil
}

func (e *Engine) complete(j *job.Job) {
	e.jobs.MarkComplete(j)
	e.alloc.Release(j)
	e.watcher.Unwatch(j.ID)
	metrics.JobCompleted()
	log.Infof("Job(%s) complete (%d completed, %d running, %d pending)", j.ID, e.jobs.CompletedCount(), e.jobs.RunningCount(), e.jobs.PendingCount())

	if e.jobs.Idle() {
		log.Infof("All jobs complete")
		return
	}

	// One retry pass over the pending jobs, in submission order. Jobs
	// that still do not fit stay pending until the next completion.
	for _, p := range e.jobs.PendingJobs() {
		e.schedule(p)
	}
}

func assignmentSummary(j *job.Job) string {
	if len(j.Resources.Ranks) > 0 {
		ids := make([]string, len(j.Resources.Ranks))
		for i, ra := range j.Resources.Ranks {
			ids[i] = strconv.Itoa(ra.RankID)
		}
		return fmt.Sprintf("%d tasks node-exclusive on ranks %s", j.Spec.NTasks, strings.Join(ids, ","))
	}
	return fmt.Sprintf("%d tasks on %d cores", j.Spec.NTasks, len(j.Resources.Cores))
}
