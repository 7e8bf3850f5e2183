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
	"fmt"
)

type JobState string

const (
	JobStateSubmitted JobState = "submitted"
	JobStatePending   JobState = "pending"
	JobStateRunning   JobState = "running"
	JobStateComplete  JobState = "complete"
)

// stateOrder defines the monotonic lifecycle. A job only ever moves to a
// state with a strictly greater order.
var stateOrder = map[JobState]int{
	JobStateSubmitted: 0,
	JobStatePending:   1,
	JobStateRunning:   2,
	JobStateComplete:  3,
}

func ParseJobState(s string) (JobState, error) {
	js := JobState(s)
	if _, ok := stateOrder[js]; !ok {
		return JobState(""), fmt.Errorf("invalid job state %q", s)
	}
	return js, nil
}

// Precedes reports whether s comes strictly before o in the lifecycle.
func (s JobState) Precedes(o JobState) bool {
	return stateOrder[s] < stateOrder[o]
}

// StateChange is a backend state notification for a single job, delivered to
// the scheduler loop over the state-change channel.
type StateChange struct {
	JobID string
	State JobState
}
