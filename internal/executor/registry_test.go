package executor

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/aryankumar/jobexec/internal/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

type fakeJob struct {
	id        string
	cancelErr error
	cancels   atomic.Int32
}

func (j *fakeJob) JobID() string {
	return j.id
}

func (j *fakeJob) CancelJob(ctx context.Context) error {
	j.cancels.Add(1)
	return j.cancelErr
}

func TestRegistry_RegisterDeregister(t *testing.T) {
	r := NewRegistry(nil, nil)

	r.Register(&fakeJob{id: "20"})
	r.Register(&fakeJob{id: "10"})
	if r.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", r.Len())
	}

	ids := r.JobIDs()
	if len(ids) != 2 || ids[0] != "10" || ids[1] != "20" {
		t.Errorf("JobIDs() = %v, want [10 20]", ids)
	}

	if _, ok := r.Get("10"); !ok {
		t.Error("Get(10) should find the job")
	}

	r.Deregister("10")
	r.Deregister("unknown")
	if r.Len() != 1 {
		t.Errorf("Len() after deregister = %d, want 1", r.Len())
	}
	if _, ok := r.Get("10"); ok {
		t.Error("Get(10) should not find a deregistered job")
	}
}

func TestRegistry_StopRunningJobs(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector := metrics.NewCollectorWithRegistry(reg)
	r := NewRegistry(nil, collector)

	jobs := []*fakeJob{
		{id: "1"},
		{id: "2", cancelErr: errors.New("scancel unavailable")},
		{id: "3"},
	}
	for _, j := range jobs {
		r.Register(j)
	}

	err := r.StopRunningJobs(context.Background())
	if err == nil {
		t.Fatal("expected aggregated error, got nil")
	}
	if r.Len() != 0 {
		t.Errorf("Len() = %d, want 0 after stop", r.Len())
	}

	for _, j := range jobs {
		if n := j.cancels.Load(); n != 1 {
			t.Errorf("job %s cancelled %d times, want 1", j.id, n)
		}
	}

	expected := `
# HELP jobexec_jobs_cancelled_total Cluster jobs cancelled by the shutdown path
# TYPE jobexec_jobs_cancelled_total counter
jobexec_jobs_cancelled_total 2
# HELP jobexec_jobs_running Cluster jobs currently held in the running-job registry
# TYPE jobexec_jobs_running gauge
jobexec_jobs_running 0
`
	if err := testutil.GatherAndCompare(reg, strings.NewReader(expected),
		"jobexec_jobs_cancelled_total", "jobexec_jobs_running"); err != nil {
		t.Error(err)
	}

	// A second stop has nothing left to cancel
	if err := r.StopRunningJobs(context.Background()); err != nil {
		t.Errorf("second StopRunningJobs() error = %v", err)
	}
	for _, j := range jobs {
		if n := j.cancels.Load(); n != 1 {
			t.Errorf("job %s cancelled %d times after second stop, want 1", j.id, n)
		}
	}
}

func TestRegistry_Concurrent(t *testing.T) {
	r := NewRegistry(nil, nil)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			j := &fakeJob{id: string(rune('a' + i%26)) + string(rune('0'+i/26))}
			r.Register(j)
			if i%2 == 0 {
				r.Deregister(j.id)
			}
		}(i)
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		r.StopRunningJobs(context.Background())
	}()
	wg.Wait()

	r.StopRunningJobs(context.Background())
	if r.Len() != 0 {
		t.Errorf("Len() = %d, want 0", r.Len())
	}
}
