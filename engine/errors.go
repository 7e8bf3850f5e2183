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
)

// InfeasibleRequestError marks a job whose node count exceeds the cluster.
// Fatal to that job only: it never enters the pipeline.
type InfeasibleRequestError struct {
	NNodes     int
	TotalRanks int
}

func (e *InfeasibleRequestError) Error() string {
	return fmt.Sprintf("job requests %d ranks, cluster has %d", e.NNodes, e.TotalRanks)
}

// ProtocolViolationError marks a backend notification that contradicts the
// scheduler's own bookkeeping. Always a programming or integration error,
// and fatal to the scheduler loop.
type ProtocolViolationError struct {
	JobID  string
	Reason string
}

func (e *ProtocolViolationError) Error() string {
	return fmt.Sprintf("protocol violation on Job(%s): %s", e.JobID, e.Reason)
}
