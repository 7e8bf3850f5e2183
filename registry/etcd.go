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
	"encoding/json"
	"path"
	"strconv"
	"time"

	goetcd "github.com/coreos/go-etcd/etcd"
	log "github.com/golang/glog"

	"github.com/chu11/capacitor/etcd"
	"github.com/chu11/capacitor/job"
	"github.com/chu11/capacitor/metrics"
)

const (
	DefaultKeyPrefix = "/capacitor.io/capacitor/"

	jobPrefix      = "job"
	sequencePrefix = "sequence"
)

// EtcdRegistry keeps job records in etcd under a key prefix:
//
//	<prefix>/job/<id>/object        JSON-encoded JobSpec
//	<prefix>/job/<id>/state         backend-owned lifecycle state
//	<prefix>/job/<id>/assign/<rank> granted task count on that rank
//	<prefix>/job/<id>/assign-state  "committed" once the grant is final
//	<prefix>/job/<id>/target-state  run signal published for the backend
type EtcdRegistry struct {
	etcd      etcd.Client
	keyPrefix string
}

func NewEtcdRegistry(client etcd.Client, keyPrefix string) *EtcdRegistry {
	return &EtcdRegistry{etcd: client, keyPrefix: keyPrefix}
}

func (r *EtcdRegistry) jobPath(jobID string, elems ...string) string {
	return path.Join(append([]string{r.keyPrefix, jobPrefix, jobID}, elems...)...)
}

// CreateJob mints a new job identifier from the backend sequence, then stores
// the spec and seeds the lifecycle state.
func (r *EtcdRegistry) CreateJob(spec job.JobSpec) (string, error) {
	start := time.Now()

	resp, err := r.etcd.AddChild(path.Join(r.keyPrefix, sequencePrefix), "", 0)
	if err != nil {
		metrics.RegistryFailure("create")
		return "", err
	}
	jobID := path.Base(resp.Node.Key)

	val, err := json.Marshal(spec)
	if err != nil {
		metrics.RegistryFailure("create")
		return "", err
	}

	if _, err := r.etcd.Create(r.jobPath(jobID, "object"), string(val), 0); err != nil {
		r.destroyJob(jobID)
		metrics.RegistryFailure("create")
		return "", err
	}
	if _, err := r.etcd.Set(r.jobPath(jobID, "state"), string(job.JobStateSubmitted), 0); err != nil {
		r.destroyJob(jobID)
		metrics.RegistryFailure("create")
		return "", err
	}

	metrics.RegistrySuccess("create", start)
	return jobID, nil
}

// destroyJob removes whatever was written for a job whose creation failed
// partway, so no half-built record lingers in the backend.
func (r *EtcdRegistry) destroyJob(jobID string) {
	if _, err := r.etcd.Delete(r.jobPath(jobID), true); err != nil {
		log.Errorf("Unable to remove partial record of Job(%s): %v", jobID, err)
	}
}

func (r *EtcdRegistry) SetResourceAssignment(jobID string, rankID, tasks int) error {
	start := time.Now()
	key := r.jobPath(jobID, "assign", strconv.Itoa(rankID))
	if _, err := r.etcd.Set(key, strconv.Itoa(tasks), 0); err != nil {
		metrics.RegistryFailure("assign")
		return err
	}
	metrics.RegistrySuccess("assign", start)
	return nil
}

func (r *EtcdRegistry) CommitAssignment(jobID string) error {
	start := time.Now()
	if _, err := r.etcd.Set(r.jobPath(jobID, "assign-state"), "committed", 0); err != nil {
		metrics.RegistryFailure("commit")
		return err
	}
	metrics.RegistrySuccess("commit", start)
	return nil
}

// NotifyRun publishes the run signal by setting the job's target state. The
// backend moves the actual state key through running and complete.
func (r *EtcdRegistry) NotifyRun(jobID string) error {
	start := time.Now()
	if _, err := r.etcd.Set(r.jobPath(jobID, "target-state"), string(job.JobStateRunning), 0); err != nil {
		metrics.RegistryFailure("notify_run")
		return err
	}
	metrics.RegistrySuccess("notify_run", start)
	return nil
}

// WatchJob arms an etcd watch on the job's state key. The watch index is
// captured before returning, so transitions that happen after WatchJob
// returns are always observed even if the watch goroutine starts late.
func (r *EtcdRegistry) WatchJob(jobID string, events chan<- job.StateChange, stop <-chan struct{}) error {
	key := r.jobPath(jobID, "state")

	var waitIndex uint64
	if resp, err := r.etcd.Get(key, false, false); err == nil {
		waitIndex = resp.EtcdIndex + 1
	}

	receiver := make(chan *goetcd.Response)
	etcdStop := make(chan bool)

	go func() {
		<-stop
		close(etcdStop)
	}()

	go func() {
		if _, err := r.etcd.Watch(key, waitIndex, false, receiver, etcdStop); err != nil && err != goetcd.ErrWatchStoppedByUser {
			log.Errorf("Watch on Job(%s) state failed: %v", jobID, err)
		}
	}()

	go func() {
		for {
			select {
			case <-stop:
				return
			case resp, ok := <-receiver:
				if !ok {
					return
				}
				if resp == nil || resp.Node == nil {
					continue
				}
				state, err := job.ParseJobState(resp.Node.Value)
				if err != nil {
					log.Errorf("Ignoring bad state for Job(%s): %v", jobID, err)
					continue
				}
				select {
				case events <- job.StateChange{JobID: jobID, State: state}:
				case <-stop:
					return
				}
			}
		}
	}()

	return nil
}
