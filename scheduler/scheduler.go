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

package scheduler

import (
	"fmt"

	"github.com/chu11/capacitor/job"
	"github.com/chu11/capacitor/resource"
)

const DefaultPolicy = "binpack"

// Allocator places jobs onto the inventory and takes their resources back on
// completion. Schedule returns false, with no error, when the job cannot be
// placed right now and should stay pending. Implementations are only ever
// driven from the scheduler loop and hold no locks.
type Allocator interface {
	Schedule(j *job.Job) (bool, error)
	Release(j *job.Job)
}

// NewAllocator selects an allocation policy by name. The policy is fixed for
// the life of the process.
func NewAllocator(policy string, inv *resource.Inventory) (Allocator, error) {
	switch policy {
	case "", DefaultPolicy:
		return &binPacker{inv: inv}, nil
	}
	return nil, fmt.Errorf("unknown allocation policy %q", policy)
}
