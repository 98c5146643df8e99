package job

import (
	"errors"
	"testing"
	"time"

	"github.com/slidev/export-pipeline/internal/slide"
)

func newRunningJob(id string, startedAt time.Time) *slide.VideoJob {
	return &slide.VideoJob{ID: id, Status: slide.JobRunning, StartedAt: startedAt}
}

func TestJobLifecycle_StatusMonotone(t *testing.T) {
	r := NewRegistry(time.Hour)
	j := newRunningJob("job-1", time.Now())
	r.Register(j, func() {})

	got, ok := r.Get("job-1")
	if !ok || got.Status != slide.JobRunning {
		t.Fatalf("expected running job, got %+v ok=%v", got, ok)
	}

	r.Complete("job-1", "/out/job-1.mp4", "job-1.mp4", nil)
	got, _ = r.Get("job-1")
	if got.Status != slide.JobDone {
		t.Fatalf("status = %v; want done", got.Status)
	}

	// A second terminal transition must not un-complete the job.
	r.Fail("job-1", errors.New("too late"))
	got, _ = r.Get("job-1")
	if got.Status != slide.JobDone {
		t.Fatalf("status after double transition = %v; want done", got.Status)
	}
}

func TestSweepExpired(t *testing.T) {
	r := NewRegistry(10 * time.Millisecond)
	start := time.Now().Add(-time.Hour)
	j := newRunningJob("old", start)
	r.Register(j, func() {})
	r.Complete("old", "/out/old.mp4", "old.mp4", nil)

	// Complete sets CompletedAt to time.Now(), not start; force it into the
	// past so the TTL has actually elapsed.
	past := time.Now().Add(-time.Hour)
	got, _ := r.Get("old")
	got.CompletedAt = &past

	r.Sweep(time.Now())

	if _, ok := r.Get("old"); ok {
		t.Fatalf("expected expired job to be swept")
	}
}

func TestCancelRunningJob(t *testing.T) {
	r := NewRegistry(time.Hour)
	cancelled := false
	j := newRunningJob("job-2", time.Now())
	r.Register(j, func() { cancelled = true })

	if !r.Cancel("job-2") {
		t.Fatal("expected Cancel to succeed for a running job")
	}
	if !cancelled {
		t.Fatal("expected the cancel func to be invoked")
	}

	got, _ := r.Get("job-2")
	if got.Status != slide.JobError {
		t.Fatalf("status after cancel = %v; want error", got.Status)
	}

	if r.Cancel("job-2") {
		t.Fatal("expected Cancel to fail for an already-finished job")
	}
	if r.Cancel("no-such-job") {
		t.Fatal("expected Cancel to fail for an unknown job")
	}
}

func TestListOrdersByStartedAtDescending(t *testing.T) {
	r := NewRegistry(time.Hour)
	now := time.Now()
	r.Register(newRunningJob("a", now.Add(-2*time.Minute)), func() {})
	r.Register(newRunningJob("b", now), func() {})
	r.Register(newRunningJob("c", now.Add(-1*time.Minute)), func() {})

	list := r.List()
	if len(list) != 3 {
		t.Fatalf("len(list) = %d; want 3", len(list))
	}
	if list[0].ID != "b" || list[1].ID != "c" || list[2].ID != "a" {
		t.Fatalf("order = %v, %v, %v; want b, c, a", list[0].ID, list[1].ID, list[2].ID)
	}
}
