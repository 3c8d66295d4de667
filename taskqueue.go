package wlshell

import "sync"

// Task is a deferred unit of work run on the dispatch goroutine.
type Task func()

// TaskQueue is the cooperative work queue drained at the top of every
// Dispatch pass, before protocol events. Post is safe from any
// goroutine; draining happens on the dispatch goroutine only.
type TaskQueue struct {
	mu    sync.Mutex
	tasks []Task
}

// NewTaskQueue returns an empty queue.
func NewTaskQueue() *TaskQueue {
	return &TaskQueue{}
}

// Post appends a task for the next drain.
func (q *TaskQueue) Post(t Task) {
	if t == nil {
		return
	}
	q.mu.Lock()
	q.tasks = append(q.tasks, t)
	q.mu.Unlock()
}

// Len returns the number of queued tasks.
func (q *TaskQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.tasks)
}

// Iterate runs one queued task and reports whether more remain.
func (q *TaskQueue) Iterate() bool {
	q.mu.Lock()
	if len(q.tasks) == 0 {
		q.mu.Unlock()
		return false
	}
	t := q.tasks[0]
	q.tasks = q.tasks[1:]
	more := len(q.tasks) > 0
	q.mu.Unlock()

	t()
	return more
}

// Drain runs every task queued at the moment of the call and returns the
// count. Tasks posted by running tasks wait for the next drain, so a
// self-reposting task cannot starve the event loop.
func (q *TaskQueue) Drain() int {
	q.mu.Lock()
	batch := q.tasks
	q.tasks = nil
	q.mu.Unlock()

	for _, t := range batch {
		t()
	}
	return len(batch)
}
