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

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const Namespace = "capacitor"

var (
	jobsSubmittedCount = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: Namespace,
		Subsystem: "engine",
		Name:      "jobs_submitted_total",
		Help:      "Counter of jobs accepted into the pipeline.",
	})

	jobsDeferredCount = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: Namespace,
		Subsystem: "engine",
		Name:      "jobs_deferred_total",
		Help:      "Counter of scheduling attempts deferred for lack of resources.",
	})

	jobsCompletedCount = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: Namespace,
		Subsystem: "engine",
		Name:      "jobs_completed_total",
		Help:      "Counter of jobs that reached the complete state.",
	})

	submissionFailureCount = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Subsystem: "engine",
		Name:      "submission_failure_count_total",
		Help:      "Counter of submissions rejected before entering the pipeline.",
	}, []string{"reason"})

	schedulePassDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: Namespace,
		Subsystem: "engine",
		Name:      "schedule_pass_duration_second",
		Help:      "Histogram of time (in seconds) each scheduling pass takes.",
	})

	registryCount = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Subsystem: "registry",
		Name:      "operation_count_total",
		Help:      "Counter of registry operations.",
	}, []string{"type"})

	registryFailureCount = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Subsystem: "registry",
		Name:      "operation_failed_count_total",
		Help:      "Counter of failed registry operations.",
	}, []string{"type"})

	registryDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: Namespace,
		Subsystem: "registry",
		Name:      "operation_duration_second",
		Help:      "Histogram of time (in seconds) each registry operation takes.",
	}, []string{"type"})
)

func init() {
	prometheus.MustRegister(jobsSubmittedCount)
	prometheus.MustRegister(jobsDeferredCount)
	prometheus.MustRegister(jobsCompletedCount)
	prometheus.MustRegister(submissionFailureCount)
	prometheus.MustRegister(schedulePassDuration)
	prometheus.MustRegister(registryCount)
	prometheus.MustRegister(registryFailureCount)
	prometheus.MustRegister(registryDuration)
}

func JobSubmitted() {
	jobsSubmittedCount.Inc()
}

func JobDeferred() {
	jobsDeferredCount.Inc()
}

func JobCompleted() {
	jobsCompletedCount.Inc()
}

func SubmissionFailure(reason string) {
	submissionFailureCount.WithLabelValues(reason).Inc()
}

func SchedulePassDuration(start time.Time) {
	schedulePassDuration.Observe(float64(time.Since(start)) / float64(time.Second))
}

func RegistrySuccess(op string, start time.Time) {
	registryDuration.WithLabelValues(op).Observe(float64(time.Since(start)) / float64(time.Second))
	registryCount.WithLabelValues(op).Inc()
}

func RegistryFailure(op string) {
	registryFailureCount.WithLabelValues(op).Inc()
}
