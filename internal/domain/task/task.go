// Package task runs background work submitted by request handlers, so slow
// jobs (audit exports, notification fan-out, cache warming) never hold an
// HTTP response open. Submission returns a task ID the client can poll.
package task

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"catalog-server-go/internal/domain/eventbus"
)

// Status is the lifecycle state of a submitted task.
type Status string

const (
	StatusPending  Status = "pending"
	StatusRunning  Status = "running"
	StatusComplete Status = "complete"
	StatusFailed   Status = "failed"
)

// Executor performs the work for one task kind. The payload is whatever the
// submitter provided; executors validate it themselves.
type Executor func(ctx context.Context, payload map[string]any) (any, error)

// Task is the observable state of a submitted job.
type Task struct {
	ID          string         `json:"id"`
	Kind        string         `json:"kind"`
	Status      Status         `json:"status"`
	Payload     map[string]any `json:"payload,omitempty"`
	Result      any            `json:"result,omitempty"`
	Error       string         `json:"error,omitempty"`
	SubmittedAt time.Time      `json:"submitted_at"`
	FinishedAt  time.Time      `json:"finished_at,omitzero"`
}

// Logger is the logging contract required by the runner.
type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// Runner owns a fixed worker pool draining a buffered queue. Task state is
// kept in memory for the process lifetime; restarting the server forgets
// finished tasks.
type Runner struct {
	executors map[string]Executor
	tasks     map[string]*Task
	queue     chan string
	logger    Logger

	mutex  sync.RWMutex
	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
	closed bool
}

// NewRunner builds a runner with the given number of workers and queue
// capacity. Submissions fail fast once the queue is full.
func NewRunner(workers, queueSize int, logger Logger) *Runner {
	if workers <= 0 {
		workers = 4
	}
	if queueSize <= 0 {
		queueSize = 64
	}
	ctx, cancel := context.WithCancel(context.Background())
	r := &Runner{
		executors: make(map[string]Executor),
		tasks:     make(map[string]*Task),
		queue:     make(chan string, queueSize),
		logger:    logger,
		ctx:       ctx,
		cancel:    cancel,
	}
	for i := 0; i < workers; i++ {
		r.wg.Add(1)
		go r.worker()
	}
	return r
}

// RegisterExecutor binds a task kind to its executor. Registration happens
// at startup, before any submissions.
func (r *Runner) RegisterExecutor(kind string, exec Executor) error {
	if kind == "" || exec == nil {
		return fmt.Errorf("executor registration requires kind and function")
	}
	r.mutex.Lock()
	defer r.mutex.Unlock()
	if _, exists := r.executors[kind]; exists {
		return fmt.Errorf("executor already registered for kind %q", kind)
	}
	r.executors[kind] = exec
	return nil
}

// Submit enqueues a task and returns its ID immediately.
func (r *Runner) Submit(kind string, payload map[string]any) (string, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if r.closed {
		return "", fmt.Errorf("task runner is shut down")
	}
	if _, ok := r.executors[kind]; !ok {
		return "", fmt.Errorf("no executor for task kind %q", kind)
	}

	t := &Task{
		ID:          uuid.NewString(),
		Kind:        kind,
		Status:      StatusPending,
		Payload:     payload,
		SubmittedAt: time.Now(),
	}
	r.tasks[t.ID] = t

	select {
	case r.queue <- t.ID:
	default:
		delete(r.tasks, t.ID)
		return "", fmt.Errorf("task queue is full")
	}
	if r.logger != nil {
		r.logger.Debug("submitted task %s kind=%s", t.ID, kind)
	}
	return t.ID, nil
}

// Get returns a snapshot of a task's state.
func (r *Runner) Get(id string) (Task, bool) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	t, ok := r.tasks[id]
	if !ok {
		return Task{}, false
	}
	return *t, true
}

// List returns snapshots of all known tasks.
func (r *Runner) List() []Task {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	out := make([]Task, 0, len(r.tasks))
	for _, t := range r.tasks {
		out = append(out, *t)
	}
	return out
}

// Shutdown stops accepting new tasks and waits for in-flight work.
func (r *Runner) Shutdown() {
	r.mutex.Lock()
	if r.closed {
		r.mutex.Unlock()
		return
	}
	r.closed = true
	r.mutex.Unlock()

	close(r.queue)
	r.wg.Wait()
	r.cancel()
}

func (r *Runner) worker() {
	defer r.wg.Done()
	for id := range r.queue {
		r.run(id)
	}
}

func (r *Runner) run(id string) {
	r.mutex.Lock()
	t, ok := r.tasks[id]
	if !ok {
		r.mutex.Unlock()
		return
	}
	exec := r.executors[t.Kind]
	t.Status = StatusRunning
	payload := t.Payload
	r.mutex.Unlock()

	defer func() {
		if rec := recover(); rec != nil {
			r.finish(id, nil, fmt.Errorf("task panicked: %v", rec))
		}
	}()

	result, err := exec(r.ctx, payload)
	r.finish(id, result, err)
}

func (r *Runner) finish(id string, result any, err error) {
	r.mutex.Lock()
	t, ok := r.tasks[id]
	if ok {
		t.FinishedAt = time.Now()
		if err != nil {
			t.Status = StatusFailed
			t.Error = err.Error()
		} else {
			t.Status = StatusComplete
			t.Result = result
		}
	}
	var snapshot Task
	if ok {
		snapshot = *t
	}
	r.mutex.Unlock()

	if !ok {
		return
	}
	if err != nil && r.logger != nil {
		r.logger.Warn("task %s kind=%s failed: %v", id, snapshot.Kind, err)
	}
	eventbus.Publish(eventbus.TopicTaskFinished, snapshot)
}
