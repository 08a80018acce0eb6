// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline sequences stage invocations. Triggering a stage returns
// a task handle immediately; completion is observed through the handle
// rather than by polling for new artifacts. The full-run driver waits a
// bounded time per stage and then deliberately proceeds with whatever data
// exists: the pipeline is best-effort, not transactional.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrTimeout is returned by Task.Wait when the stage has not finished
// within the allowed time. The stage keeps running; only the wait gives up.
var ErrTimeout = errors.New("timed out waiting for stage")

// Runner executes one stage.
type Runner func(ctx context.Context) error

// TaskState describes where a task is in its lifecycle.
type TaskState string

const (
	TaskRunning   TaskState = "running"
	TaskSucceeded TaskState = "succeeded"
	TaskFailed    TaskState = "failed"
)

// Task is the handle for one triggered stage run.
type Task struct {
	ID    string
	Stage string

	done chan struct{}

	mu  sync.Mutex
	err error
}

// Wait blocks until the task finishes or timeout elapses. It returns the
// stage error, or ErrTimeout if the stage is still running.
func (t *Task) Wait(timeout time.Duration) error {
	select {
	case <-t.done:
		return t.Err()
	case <-time.After(timeout):
		return fmt.Errorf("%w: %s", ErrTimeout, t.Stage)
	}
}

// State returns the task's current lifecycle state.
func (t *Task) State() TaskState {
	select {
	case <-t.done:
		if t.Err() != nil {
			return TaskFailed
		}
		return TaskSucceeded
	default:
		return TaskRunning
	}
}

// Err returns the stage error once the task has finished, nil otherwise.
func (t *Task) Err() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.err
}

// Driver launches stages and retains handles for later lookup.
type Driver struct {
	mu    sync.Mutex
	tasks map[string]*Task
}

// NewDriver returns an empty driver.
func NewDriver() *Driver {
	return &Driver{tasks: make(map[string]*Task)}
}

// Trigger starts run in a goroutine and returns its handle immediately.
// A panic inside the stage is recovered into the task error; nothing
// escapes the stage boundary.
func (d *Driver) Trigger(ctx context.Context, stage string, run Runner) *Task {
	task := &Task{
		ID:    uuid.NewString(),
		Stage: stage,
		done:  make(chan struct{}),
	}

	d.mu.Lock()
	d.tasks[task.ID] = task
	d.mu.Unlock()

	go func() {
		defer close(task.done)
		defer func() {
			if r := recover(); r != nil {
				task.mu.Lock()
				task.err = fmt.Errorf("stage %s panicked: %v", stage, r)
				task.mu.Unlock()
			}
		}()
		if err := run(ctx); err != nil {
			task.mu.Lock()
			task.err = err
			task.mu.Unlock()
		}
	}()

	return task
}

// Lookup returns a previously triggered task by ID.
func (d *Driver) Lookup(id string) (*Task, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	task, ok := d.tasks[id]
	return task, ok
}

// StageRun names one stage in a full pipeline run.
type StageRun struct {
	Stage string
	Run   Runner
}

// RunAll triggers each stage in order, waiting up to stageTimeout for each
// one. A stage that times out or fails is logged and the driver proceeds
// to the next stage with whatever snapshots exist.
func (d *Driver) RunAll(ctx context.Context, stages []StageRun, stageTimeout time.Duration, w io.Writer) {
	for _, s := range stages {
		fmt.Fprintf(w, "--- stage %s ---\n", s.Stage)
		task := d.Trigger(ctx, s.Stage, s.Run)
		if err := task.Wait(stageTimeout); err != nil {
			fmt.Fprintf(w, "warning: %s did not complete cleanly, proceeding: %v\n", s.Stage, err)
		}
	}
}
