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

package supply

import (
	"fmt"
	"os"

	log "github.com/golang/glog"
	"gopkg.in/yaml.v3"

	"github.com/chu11/capacitor/job"
)

type MessageKind int

const (
	// MessageJob carries one job specification.
	MessageJob MessageKind = iota
	// MessageClose marks the end of the intake stream. No further
	// messages follow it.
	MessageClose
)

// Message is the tagged unit carried on the job-intake channel.
type Message struct {
	Kind MessageKind
	Spec *job.JobSpec
}

// Supplier feeds job specifications into the intake channel. Implementations
// must finish with a MessageClose even on failure, or the scheduler loop
// never terminates.
type Supplier interface {
	Supply(intake chan<- Message) error
}

// FileSupplier reads a YAML job file of the form:
//
//	jobs:
//	  - command: "hostname"
//	    ntasks: 4
//	    nnodes: 0
//	    dir: /tmp
//	    env:
//	      FOO: bar
type FileSupplier struct {
	Path string
}

type jobFile struct {
	Jobs []struct {
		Command string            `yaml:"command"`
		NTasks  int               `yaml:"ntasks"`
		NNodes  int               `yaml:"nnodes"`
		Dir     string            `yaml:"dir"`
		Env     map[string]string `yaml:"env"`
	} `yaml:"jobs"`
}

func (s *FileSupplier) Supply(intake chan<- Message) error {
	defer func() {
		intake <- Message{Kind: MessageClose}
	}()

	data, err := os.ReadFile(s.Path)
	if err != nil {
		return err
	}

	var jf jobFile
	if err := yaml.Unmarshal(data, &jf); err != nil {
		return fmt.Errorf("unable to parse job file %s: %v", s.Path, err)
	}

	for i, entry := range jf.Jobs {
		spec, err := job.NewJobSpec(entry.Command, entry.NTasks, entry.NNodes, entry.Dir, entry.Env)
		if err != nil {
			log.Errorf("Skipping job %d in %s: %v", i, s.Path, err)
			continue
		}
		intake <- Message{Kind: MessageJob, Spec: spec}
	}

	return nil
}

// SliceSupplier feeds a fixed list of specs, mainly for tests and embedding.
type SliceSupplier struct {
	Specs []*job.JobSpec
}

func (s *SliceSupplier) Supply(intake chan<- Message) error {
	for _, spec := range s.Specs {
		intake <- Message{Kind: MessageJob, Spec: spec}
	}
	intake <- Message{Kind: MessageClose}
	return nil
}
