// Implements the single-worker FIFO queue serializing writes.

package jsondb

import (
	"errors"
	"fmt"
	"sync"
)

// ErrClosed is returned when a write is submitted to a closed Store.
var ErrClosed = errors.New("store is closed")

type writeTask struct {
	fn     func() error
	result chan error
}

// writeQueue runs submitted tasks one at a time, in submission order.
//
// Submitters block on an unbuffered channel; the runtime wakes blocked senders
// in the order they started waiting so the worker receives tasks FIFO.
type writeQueue struct {
	mu     sync.RWMutex
	closed bool
	tasks  chan *writeTask
	done   chan struct{}
}

func newWriteQueue() *writeQueue {
	q := &writeQueue{
		tasks: make(chan *writeTask),
		done:  make(chan struct{}),
	}
	go q.run()
	return q
}

func (q *writeQueue) run() {
	defer close(q.done)
	for t := range q.tasks {
		t.result <- runTask(t.fn)
	}
}

// runTask runs fn, turning a panic into an error so the worker keeps draining.
func runTask(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("write task panicked: %v", r)
		}
	}()
	return fn()
}

// do enqueues fn and waits for it to complete.
func (q *writeQueue) do(fn func() error) error {
	q.mu.RLock()
	if q.closed {
		q.mu.RUnlock()
		return ErrClosed
	}
	t := &writeTask{fn: fn, result: make(chan error, 1)}
	q.tasks <- t
	q.mu.RUnlock()
	return <-t.result
}

// close stops accepting tasks, lets the ones already submitted finish and
// waits for the worker to exit.
func (q *writeQueue) close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		<-q.done
		return
	}
	q.closed = true
	close(q.tasks)
	q.mu.Unlock()
	<-q.done
}
