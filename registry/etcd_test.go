package registry

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	goetcd "github.com/coreos/go-etcd/etcd"

	"github.com/chu11/capacitor/job"
)

// fakeEtcdClient records writes and lets tests push watch responses.
type fakeEtcdClient struct {
	sync.Mutex

	seq       int
	index     uint64
	values    map[string]string
	failures  map[string]error
	receivers map[string]chan *goetcd.Response
}

func newFakeEtcdClient() *fakeEtcdClient {
	return &fakeEtcdClient{
		values:    map[string]string{},
		failures:  map[string]error{},
		receivers: map[string]chan *goetcd.Response{},
	}
}

// failKey makes writes to the given key fail with err.
func (c *fakeEtcdClient) failKey(key string, err error) {
	c.Lock()
	defer c.Unlock()
	c.failures[key] = err
}

func (c *fakeEtcdClient) respond(key, value string) *goetcd.Response {
	c.index++
	return &goetcd.Response{
		Node:      &goetcd.Node{Key: key, Value: value, ModifiedIndex: c.index},
		EtcdIndex: c.index,
	}
}

func (c *fakeEtcdClient) AddChild(key string, value string, ttl uint64) (*goetcd.Response, error) {
	c.Lock()
	defer c.Unlock()
	c.seq++
	childKey := fmt.Sprintf("%s/%08d", key, c.seq)
	c.values[childKey] = value
	return c.respond(childKey, value), nil
}

func (c *fakeEtcdClient) Create(key string, value string, ttl uint64) (*goetcd.Response, error) {
	c.Lock()
	defer c.Unlock()
	if err := c.failures[key]; err != nil {
		return nil, err
	}
	if _, ok := c.values[key]; ok {
		return nil, &goetcd.EtcdError{ErrorCode: 105, Message: "Key already exists"}
	}
	c.values[key] = value
	return c.respond(key, value), nil
}

func (c *fakeEtcdClient) Set(key string, value string, ttl uint64) (*goetcd.Response, error) {
	c.Lock()
	defer c.Unlock()
	if err := c.failures[key]; err != nil {
		return nil, err
	}
	c.values[key] = value
	return c.respond(key, value), nil
}

func (c *fakeEtcdClient) Delete(key string, recursive bool) (*goetcd.Response, error) {
	c.Lock()
	defer c.Unlock()
	delete(c.values, key)
	if recursive {
		for k := range c.values {
			if strings.HasPrefix(k, key+"/") {
				delete(c.values, k)
			}
		}
	}
	return c.respond(key, ""), nil
}

func (c *fakeEtcdClient) Get(key string, sort, recursive bool) (*goetcd.Response, error) {
	c.Lock()
	defer c.Unlock()
	val, ok := c.values[key]
	if !ok {
		return nil, &goetcd.EtcdError{ErrorCode: 100, Message: "Key not found"}
	}
	return c.respond(key, val), nil
}

func (c *fakeEtcdClient) Watch(prefix string, waitIndex uint64, recursive bool, receiver chan *goetcd.Response, stop chan bool) (*goetcd.Response, error) {
	c.Lock()
	c.receivers[prefix] = receiver
	c.Unlock()
	<-stop
	return nil, goetcd.ErrWatchStoppedByUser
}

func (c *fakeEtcdClient) push(t *testing.T, key, value string) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for {
		c.Lock()
		receiver, ok := c.receivers[key]
		if ok {
			resp := c.respond(key, value)
			c.Unlock()
			receiver <- resp
			return
		}
		c.Unlock()
		if time.Now().After(deadline) {
			t.Fatalf("no watch registered on %s", key)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func (c *fakeEtcdClient) value(key string) string {
	c.Lock()
	defer c.Unlock()
	return c.values[key]
}

func TestEtcdRegistryCreateJob(t *testing.T) {
	client := newFakeEtcdClient()
	reg := NewEtcdRegistry(client, "/capacitor-test/")

	spec, _ := job.NewJobSpec("hostname", 2, 0, "", nil)
	jobID, err := reg.CreateJob(*spec)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if jobID != "00000001" {
		t.Errorf("expected backend-minted id 00000001, got %q", jobID)
	}

	if client.value("/capacitor-test/job/00000001/object") == "" {
		t.Errorf("expected job object stored")
	}
	if got := client.value("/capacitor-test/job/00000001/state"); got != "submitted" {
		t.Errorf("expected seeded state submitted, got %q", got)
	}

	// a second job gets the next identifier
	jobID2, err := reg.CreateJob(*spec)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if jobID2 != "00000002" {
		t.Errorf("expected id 00000002, got %q", jobID2)
	}
}

// A job whose creation fails partway must leave no record behind.
func TestEtcdRegistryCreateJobRollback(t *testing.T) {
	client := newFakeEtcdClient()
	reg := NewEtcdRegistry(client, "/capacitor-test/")

	stateErr := errors.New("etcd write failed")
	client.failKey("/capacitor-test/job/00000001/state", stateErr)

	spec, _ := job.NewJobSpec("hostname", 1, 0, "", nil)
	if _, err := reg.CreateJob(*spec); err != stateErr {
		t.Fatalf("expected %v, got %v", stateErr, err)
	}

	if got := client.value("/capacitor-test/job/00000001/object"); got != "" {
		t.Errorf("expected partial job record removed, object key still holds %q", got)
	}

	// the sequence key stays consumed, so the next job gets a fresh id
	jobID, err := reg.CreateJob(*spec)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if jobID != "00000002" {
		t.Errorf("expected id 00000002, got %q", jobID)
	}
}

func TestEtcdRegistryAssignment(t *testing.T) {
	client := newFakeEtcdClient()
	reg := NewEtcdRegistry(client, "/capacitor-test/")

	spec, _ := job.NewJobSpec("hostname", 4, 2, "", nil)
	jobID, err := reg.CreateJob(*spec)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := reg.SetResourceAssignment(jobID, 0, 2); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := reg.SetResourceAssignment(jobID, 1, 2); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := reg.CommitAssignment(jobID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := reg.NotifyRun(jobID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	base := "/capacitor-test/job/" + jobID
	if got := client.value(base + "/assign/0"); got != "2" {
		t.Errorf("expected assign/0=2, got %q", got)
	}
	if got := client.value(base + "/assign/1"); got != "2" {
		t.Errorf("expected assign/1=2, got %q", got)
	}
	if got := client.value(base + "/assign-state"); got != "committed" {
		t.Errorf("expected committed assignment, got %q", got)
	}
	if got := client.value(base + "/target-state"); got != "running" {
		t.Errorf("expected run signal via target-state, got %q", got)
	}
}

func TestEtcdRegistryWatchJob(t *testing.T) {
	client := newFakeEtcdClient()
	reg := NewEtcdRegistry(client, "/capacitor-test/")

	spec, _ := job.NewJobSpec("hostname", 1, 0, "", nil)
	jobID, err := reg.CreateJob(*spec)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	events := make(chan job.StateChange, 10)
	stop := make(chan struct{})
	defer close(stop)

	if err := reg.WatchJob(jobID, events, stop); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	stateKey := "/capacitor-test/job/" + jobID + "/state"
	client.push(t, stateKey, "running")
	client.push(t, stateKey, "garbage")
	client.push(t, stateKey, "complete")

	expect := []job.JobState{job.JobStateRunning, job.JobStateComplete}
	for _, state := range expect {
		select {
		case sc := <-events:
			if sc.JobID != jobID || sc.State != state {
				t.Errorf("expected (%s, %s), got %v", jobID, state, sc)
			}
		case <-time.After(time.Second):
			t.Fatalf("no %s event delivered", state)
		}
	}
}
