// Package notify delivers email notifications on a small pool of background workers.
package notify

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

var (
	// ErrQueueFull is returned when the dispatcher cannot accept more work.
	ErrQueueFull = errors.New("notify: queue full")
	// ErrClosed is returned for submissions after Close.
	ErrClosed = errors.New("notify: dispatcher closed")
)

const sendTimeout = 30 * time.Second

// Sender delivers a single message.
type Sender interface {
	Send(ctx context.Context, to, subject, body string) error
}

// Message is one email to deliver.
type Message struct {
	To      string
	Subject string
	Body    string
}

// Task is the pending result of a submitted message.
type Task struct {
	done chan struct{}
	err  error
}

func newTask() *Task { return &Task{done: make(chan struct{})} }

func (t *Task) finish(err error) {
	t.err = err
	close(t.done)
}

// Wait blocks until the message was handled or ctx ends.
func (t *Task) Wait(ctx context.Context) error {
	select {
	case <-t.done:
		return t.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Done is closed once the task has a result.
func (t *Task) Done() <-chan struct{} { return t.done }

type job struct {
	msg  Message
	task *Task
}

// Dispatcher queues messages and sends them from worker goroutines.
type Dispatcher struct {
	sender Sender
	logger *zap.Logger
	queue  chan job
	wg     sync.WaitGroup

	mu     sync.RWMutex
	closed bool
}

// NewDispatcher starts workers goroutines reading from a queue of queueSize.
func NewDispatcher(sender Sender, workers, queueSize int, logger *zap.Logger) *Dispatcher {
	if workers <= 0 {
		workers = 1
	}
	if queueSize < 0 {
		queueSize = 0
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	d := &Dispatcher{
		sender: sender,
		logger: logger,
		queue:  make(chan job, queueSize),
	}
	d.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go d.work()
	}
	return d
}

// Submit enqueues msg without blocking. The returned task may be awaited or ignored.
func (d *Dispatcher) Submit(msg Message) *Task {
	t := newTask()
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		d.logger.Warn("notification dropped", zap.String("to", msg.To), zap.Error(ErrClosed))
		t.finish(ErrClosed)
		return t
	}
	select {
	case d.queue <- job{msg: msg, task: t}:
	default:
		d.logger.Warn("notification dropped", zap.String("to", msg.To), zap.Error(ErrQueueFull))
		t.finish(ErrQueueFull)
	}
	return t
}

// Close stops accepting messages and waits for queued ones to be sent.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	close(d.queue)
	d.mu.Unlock()
	d.wg.Wait()
}

func (d *Dispatcher) work() {
	defer d.wg.Done()
	for j := range d.queue {
		ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
		err := d.sender.Send(ctx, j.msg.To, j.msg.Subject, j.msg.Body)
		cancel()
		if err != nil {
			d.logger.Error("notification failed", zap.String("to", j.msg.To), zap.Error(err))
		} else {
			d.logger.Info("notification sent", zap.String("to", j.msg.To))
		}
		j.task.finish(err)
	}
}
