package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"

	"callprep/internal/logging"
)

// DefaultMaxConcurrent is the worker count used when none is configured.
const DefaultMaxConcurrent = 4

var (
	// ErrRunnerStopped is returned by Submit after Stop.
	ErrRunnerStopped = errors.New("lifecycle: runner stopped")
	// ErrTaskExists is returned when a task for the handle is already queued or running.
	ErrTaskExists = errors.New("lifecycle: task already scheduled")
)

// Task is one detached lifecycle. Recover, when set, receives the value of a
// panic raised by Run.
type Task struct {
	Handle  string
	Run     func(ctx context.Context)
	Recover func(recovered any)
}

// Runner is a fixed-size worker pool for detached lifecycles. Tasks run under
// the context given to NewRunner; cancelling it is the only way to cut a
// running lifecycle short.
type Runner struct {
	ctx    context.Context
	logger *slog.Logger

	mu      sync.Mutex
	pending []Task
	done    map[string]chan struct{}
	stopped bool
	wake    chan struct{}

	wg sync.WaitGroup
}

// NewRunner starts workers goroutines that execute submitted tasks.
func NewRunner(ctx context.Context, workers int, logger *slog.Logger) *Runner {
	if workers <= 0 {
		workers = DefaultMaxConcurrent
	}
	r := &Runner{
		ctx:    ctx,
		logger: logging.NewComponentLogger(logger, "lifecycle-runner"),
		done:   make(map[string]chan struct{}),
		wake:   make(chan struct{}, workers),
	}
	r.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go r.work()
	}
	return r
}

// Submit queues a task. It never blocks on busy workers.
func (r *Runner) Submit(task Task) error {
	if task.Run == nil {
		return fmt.Errorf("lifecycle: task %s has no run function", task.Handle)
	}
	r.mu.Lock()
	if r.stopped {
		r.mu.Unlock()
		return ErrRunnerStopped
	}
	if _, exists := r.done[task.Handle]; exists {
		r.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrTaskExists, task.Handle)
	}
	r.done[task.Handle] = make(chan struct{})
	r.pending = append(r.pending, task)
	select {
	case r.wake <- struct{}{}:
	default:
	}
	r.mu.Unlock()
	return nil
}

// Wait blocks until the task for handle has finished. It returns immediately
// for handles that are not queued or running.
func (r *Runner) Wait(handle string) {
	r.mu.Lock()
	ch, ok := r.done[handle]
	r.mu.Unlock()
	if ok {
		<-ch
	}
}

// Pending reports how many tasks are queued or running.
func (r *Runner) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.done)
}

// Stop refuses new tasks and waits for queued and running tasks to finish.
// Cancel the runner's context first to make them finish quickly.
func (r *Runner) Stop() {
	r.mu.Lock()
	if r.stopped {
		r.mu.Unlock()
		r.wg.Wait()
		return
	}
	r.stopped = true
	close(r.wake)
	r.mu.Unlock()
	r.wg.Wait()
}

func (r *Runner) work() {
	defer r.wg.Done()
	for {
		task, ok := r.next()
		if ok {
			r.execute(task)
			continue
		}
		if _, open := <-r.wake; !open {
			// Drain whatever was queued before Stop.
			for {
				task, ok := r.next()
				if !ok {
					return
				}
				r.execute(task)
			}
		}
	}
}

func (r *Runner) next() (Task, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.pending) == 0 {
		return Task{}, false
	}
	task := r.pending[0]
	r.pending[0] = Task{}
	r.pending = r.pending[1:]
	return task, true
}

func (r *Runner) execute(task Task) {
	defer func() {
		r.mu.Lock()
		ch := r.done[task.Handle]
		delete(r.done, task.Handle)
		r.mu.Unlock()
		if ch != nil {
			close(ch)
		}
	}()
	defer func() {
		recovered := recover()
		if recovered == nil {
			return
		}
		r.logger.Error("detached lifecycle panicked",
			logging.String(logging.FieldCallHandle, task.Handle),
			logging.String(logging.FieldEventType, "runner_panic"),
			logging.Alert("panic"),
			logging.Any("panic", recovered),
			logging.String("stack", string(debug.Stack())),
		)
		if task.Recover != nil {
			task.Recover(recovered)
		}
	}()
	task.Run(r.ctx)
}
