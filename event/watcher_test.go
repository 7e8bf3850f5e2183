package event

import (
	"testing"
	"time"

	"github.com/chu11/capacitor/job"
	"github.com/chu11/capacitor/registry"
)

func TestWatcherArmUnwatch(t *testing.T) {
	fake := registry.NewFakeRegistry()
	events := make(chan job.StateChange, 10)

	w := NewWatcher(fake, events)
	go w.Run()
	defer w.Stop()

	if err := w.Arm("job-1", 4); err != nil {
		t.Fatalf("unexpected error arming watch: %v", err)
	}

	// Arm blocks until the watcher processed the request, so the
	// subscription is live the moment it returns
	if !fake.Watching("job-1") {
		t.Fatalf("expected job-1 watch armed after Arm returned")
	}

	if err := fake.ReportState("job-1", job.JobStateRunning); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	select {
	case sc := <-events:
		if sc.JobID != "job-1" || sc.State != job.JobStateRunning {
			t.Errorf("unexpected event %v", sc)
		}
	case <-time.After(time.Second):
		t.Fatalf("no event delivered")
	}

	w.Unwatch("job-1")
	deadline := time.Now().Add(time.Second)
	for fake.Watching("job-1") {
		if time.Now().After(deadline) {
			t.Fatalf("watch not dropped after Unwatch")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestWatcherShutdownSentinel(t *testing.T) {
	fake := registry.NewFakeRegistry()
	events := make(chan job.StateChange, 10)

	w := NewWatcher(fake, events)
	go w.Run()

	if err := w.Arm("job-1", 1); err != nil {
		t.Fatalf("unexpected error arming watch: %v", err)
	}

	// Stop blocks until the watcher wound down every subscription
	w.Stop()
	if fake.Watching("job-1") {
		t.Errorf("expected all watches dropped at shutdown")
	}
}
