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
	log "github.com/golang/glog"

	"github.com/chu11/capacitor/job"
	"github.com/chu11/capacitor/resource"
)

// binPacker is the fragmentation-aware bin-packing policy. Node-exclusive
// jobs (NNodes > 0) get whole ranks; core-granular jobs (NNodes == 0) get
// individual cores, drawn from partly assigned ranks before whole ranks are
// broken up.
type binPacker struct {
	inv *resource.Inventory
}

func (bp *binPacker) Schedule(j *job.Job) (bool, error) {
	if j.Spec.NNodes > 0 {
		return bp.scheduleNodes(j), nil
	}
	return bp.scheduleCores(j), nil
}

// scheduleNodes grants the job exactly NNodes entirely unassigned ranks,
// spreading tasks as evenly as possible across them. Each granted rank is
// drained to empty: the job owns the whole node no matter how many tasks
// land on it.
func (bp *binPacker) scheduleNodes(j *job.Job) bool {
	avail := bp.inv.AvailableRankIDs()
	if len(avail) < j.Spec.NNodes {
		log.V(1).Infof("Job(%s) wants %d ranks, only %d available, deferring", j.ID, j.Spec.NNodes, len(avail))
		return false
	}

	base := j.Spec.NTasks / j.Spec.NNodes
	extra := j.Spec.NTasks % j.Spec.NNodes

	ranks := make([]job.RankAssignment, 0, j.Spec.NNodes)
	for i, id := range avail[:j.Spec.NNodes] {
		tasks := base
		if i < extra {
			tasks++
		}

		r := bp.inv.Rank(id)
		cores := r.TakeAll()
		bp.inv.Reclassify(r)

		ranks = append(ranks, job.RankAssignment{RankID: id, Tasks: tasks, Cores: cores})
	}

	j.Resources = &job.ResourceSet{Ranks: ranks}
	return true
}

// scheduleCores grants the job min(NTasks, totalCores) individual cores.
// When NTasks exceeds the granted core count the surplus is oversubscribed
// onto the granted cores: each core gets floor(tasksRequired/coresRequired)
// tasks, and while a remainder persists the next core assigned absorbs one
// straggler task, reducing tasksRequired for every core visited after it.
func (bp *binPacker) scheduleCores(j *job.Job) bool {
	coresRequired := j.Spec.NTasks
	if coresRequired > bp.inv.TotalCores() {
		coresRequired = bp.inv.TotalCores()
	}

	tasksRequired := j.Spec.NTasks
	assigned := make([]job.CoreAssignment, 0, coresRequired)

	claim := func(ids []int) {
		for _, id := range ids {
			if len(assigned) == coresRequired {
				return
			}

			r := bp.inv.Rank(id)
			cores := r.Take(coresRequired - len(assigned))
			bp.inv.Reclassify(r)

			for _, c := range cores {
				tasks := tasksRequired / coresRequired
				if tasksRequired%coresRequired != 0 {
					tasks++
					tasksRequired--
				}
				assigned = append(assigned, job.CoreAssignment{Core: c, Tasks: tasks})
			}
		}
	}

	// Drain partly assigned ranks first to avoid fragmenting whole ranks,
	// then break into available ranks.
	claim(bp.inv.PartialRankIDs())
	claim(bp.inv.AvailableRankIDs())

	if len(assigned) < coresRequired {
		log.V(1).Infof("Job(%s) wants %d cores, found %d, rolling back and deferring", j.ID, coresRequired, len(assigned))
		bp.returnCores(assigned)
		return false
	}

	j.Resources = &job.ResourceSet{Cores: assigned}
	return true
}

// Release returns every granted rank and core to its owning rank's available
// pool. The job's resource set is consumed on the first call, so calling
// Release again is a no-op.
func (bp *binPacker) Release(j *job.Job) {
	rs := j.TakeResources()
	if rs == nil {
		return
	}

	for _, ra := range rs.Ranks {
		r := bp.inv.Rank(ra.RankID)
		r.Return(ra.Cores)
		bp.inv.Reclassify(r)
	}
	bp.returnCores(rs.Cores)
}

func (bp *binPacker) returnCores(assigned []job.CoreAssignment) {
	byRank := make(map[int][]resource.Core)
	for _, ca := range assigned {
		byRank[ca.Core.RankID] = append(byRank[ca.Core.RankID], ca.Core)
	}
	for id, cores := range byRank {
		r := bp.inv.Rank(id)
		r.Return(cores)
		bp.inv.Reclassify(r)
	}
}
