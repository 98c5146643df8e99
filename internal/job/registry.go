// Package job implements the Job Service (§4.G): an in-process registry of
// background MP4 export jobs plus the HTTP surface for creating, polling,
// downloading, and cancelling them. Grounded on the teacher's
// Worker.sessions map+mutex bookkeeping in internal/recorder/recorder.go.
package job

import (
	"context"
	"sync"
	"time"

	"golang.org/x/exp/slices"

	"github.com/slidev/export-pipeline/internal/slide"
)

// Registry is the single in-process job map with a documented
// single-writer discipline (§5): status updates only come from the job's
// own background task or from Sweep.
type Registry struct {
	mu       sync.RWMutex
	jobs     map[string]*slide.VideoJob
	sessions map[string]context.CancelFunc
	ttl      time.Duration
}

// NewRegistry builds an empty registry with the given retention TTL.
func NewRegistry(ttl time.Duration) *Registry {
	return &Registry{
		jobs:     make(map[string]*slide.VideoJob),
		sessions: make(map[string]context.CancelFunc),
		ttl:      ttl,
	}
}

// Register inserts a new running job and its cancellation function.
func (r *Registry) Register(j *slide.VideoJob, cancel context.CancelFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.jobs[j.ID] = j
	r.sessions[j.ID] = cancel
}

// Get returns a job by id, sweeping expired entries first. The second
// return value is false if the job does not exist (including "existed but
// expired").
func (r *Registry) Get(id string) (*slide.VideoJob, bool) {
	r.Sweep(time.Now())
	r.mu.RLock()
	defer r.mu.RUnlock()
	j, ok := r.jobs[id]
	return j, ok
}

// Complete marks a running job done with its output file and name. A job
// that has already finished keeps its status (transitions are monotone).
func (r *Registry) Complete(id, file, filename string, warnings []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	j, ok := r.jobs[id]
	if !ok || j.Status != slide.JobRunning {
		return
	}
	now := time.Now()
	j.Status = slide.JobDone
	j.File = file
	j.Filename = filename
	j.Warnings = warnings
	j.CompletedAt = &now
	delete(r.sessions, id)
}

// Fail marks a running job errored with the given message. A job that has
// already finished keeps its status (transitions are monotone).
func (r *Registry) Fail(id string, cause error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	j, ok := r.jobs[id]
	if !ok || j.Status != slide.JobRunning {
		return
	}
	now := time.Now()
	j.Status = slide.JobError
	j.Err = cause.Error()
	j.CompletedAt = &now
	delete(r.sessions, id)
}

// Cancel invokes the job's cancellation function, if it is still running,
// and marks it errored. Returns false if the job is unknown or already
// finished (the supplemented `DELETE /export/video/:id` endpoint, §9 open
// question resolved in DESIGN.md).
func (r *Registry) Cancel(id string) bool {
	r.mu.Lock()
	cancel, ok := r.sessions[id]
	r.mu.Unlock()
	if !ok {
		return false
	}
	cancel()
	r.Fail(id, errCancelled)
	return true
}

var errCancelled = cancelledError{}

type cancelledError struct{}

func (cancelledError) Error() string { return "job cancelled by client" }

// List returns every job ordered by StartedAt descending (§4.G
// `GET /export/video/jobs`), sweeping expired entries first.
func (r *Registry) List() []*slide.VideoJob {
	r.Sweep(time.Now())
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*slide.VideoJob, 0, len(r.jobs))
	for _, j := range r.jobs {
		out = append(out, j)
	}
	slices.SortFunc(out, func(a, b *slide.VideoJob) int {
		return b.StartedAt.Compare(a.StartedAt)
	})
	return out
}

// Sweep removes every non-running job older than the registry's TTL (§4.G
// "a lazy sweep on every request").
func (r *Registry) Sweep(now time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, j := range r.jobs {
		if j.Expired(now, r.ttl) {
			delete(r.jobs, id)
			delete(r.sessions, id)
		}
	}
}
