package job

import (
	"testing"
)

func TestNewJobSpec(t *testing.T) {
	tests := []struct {
		command string
		ntasks  int
		nnodes  int
		wantErr bool
		eTasks  int
	}{
		// plain core-granular request
		{command: "hostname", ntasks: 4, nnodes: 0, eTasks: 4},

		// node-exclusive request
		{command: "hostname", ntasks: 10, nnodes: 3, eTasks: 10},

		// task count raised to match node count
		{command: "hostname", ntasks: 2, nnodes: 4, eTasks: 4},

		// zero tasks is invalid
		{command: "hostname", ntasks: 0, nnodes: 0, wantErr: true},

		// negative node count is invalid
		{command: "hostname", ntasks: 1, nnodes: -1, wantErr: true},

		// empty command is invalid
		{command: "", ntasks: 1, nnodes: 0, wantErr: true},
	}

	for i, tt := range tests {
		spec, err := NewJobSpec(tt.command, tt.ntasks, tt.nnodes, "", nil)
		if tt.wantErr {
			if err == nil {
				t.Errorf("case %d: expected error, got none", i)
			}
			continue
		}
		if err != nil {
			t.Errorf("case %d: unexpected error: %v", i, err)
			continue
		}
		if spec.NTasks != tt.eTasks {
			t.Errorf("case %d: expected NTasks=%d, got %d", i, tt.eTasks, spec.NTasks)
		}
		if spec.CreatedAt.IsZero() {
			t.Errorf("case %d: CreatedAt not set", i)
		}
	}
}

func TestParseJobState(t *testing.T) {
	for _, s := range []string{"submitted", "pending", "running", "complete"} {
		js, err := ParseJobState(s)
		if err != nil {
			t.Errorf("unexpected error parsing %q: %v", s, err)
		}
		if string(js) != s {
			t.Errorf("expected state %q, got %q", s, js)
		}
	}

	if _, err := ParseJobState("exploded"); err == nil {
		t.Errorf("expected error parsing invalid state, got none")
	}
}

func TestJobStatePrecedes(t *testing.T) {
	order := []JobState{JobStateSubmitted, JobStatePending, JobStateRunning, JobStateComplete}
	for i, earlier := range order {
		for j, later := range order {
			want := i < j
			if got := earlier.Precedes(later); got != want {
				t.Errorf("%s.Precedes(%s): expected %t, got %t", earlier, later, want, got)
			}
		}
	}
}

func TestTakeResourcesIdempotent(t *testing.T) {
	j := NewJob("job-1", JobSpec{NTasks: 1, Command: "true"})
	j.Resources = &ResourceSet{}

	if rs := j.TakeResources(); rs == nil {
		t.Fatalf("first TakeResources returned nil")
	}
	if rs := j.TakeResources(); rs != nil {
		t.Fatalf("second TakeResources returned %v, expected nil", rs)
	}
}
