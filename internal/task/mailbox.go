package task

import (
	"context"
	"errors"
	"log/slog"
	"sync"
)

// ErrMailboxClosed is returned by Call once the mailbox has been closed.
var ErrMailboxClosed = errors.New("task: mailbox closed")

// Mailbox is an Executor that runs posted functions one at a time, in post
// order, on a single goroutine. It is the home execution context of a
// controller: everything that reads or writes controller state runs here.
//
// Post never blocks; the queue grows as needed so that a worker delivering a
// result is never held up by a busy controller.
type Mailbox struct {
	mu      sync.Mutex
	queue   []func()
	wake    chan struct{}
	done    chan struct{}
	closed  bool
	started bool
	logger  *slog.Logger
}

// NewMailbox creates a mailbox. Call Start to begin running posted work.
func NewMailbox(name string, logger *slog.Logger) *Mailbox {
	return &Mailbox{
		wake:   make(chan struct{}, 1),
		done:   make(chan struct{}),
		logger: logger.With("component", "mailbox", "mailbox", name),
	}
}

// Start launches the mailbox goroutine. Calling Start more than once is a no-op.
func (m *Mailbox) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.started || m.closed {
		return
	}
	m.started = true
	go m.loop()
}

// Post queues fn to run on the mailbox goroutine.
func (m *Mailbox) Post(fn func()) bool {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return false
	}
	m.queue = append(m.queue, fn)
	m.mu.Unlock()

	select {
	case m.wake <- struct{}{}:
	default:
	}
	return true
}

// Call posts fn and waits for it to finish running.
func (m *Mailbox) Call(ctx context.Context, fn func()) error {
	finished := make(chan struct{})
	if !m.Post(func() {
		defer close(finished)
		fn()
	}) {
		return ErrMailboxClosed
	}

	select {
	case <-finished:
		return nil
	case <-m.done:
		// The loop may have run fn right before exiting.
		select {
		case <-finished:
			return nil
		default:
			return ErrMailboxClosed
		}
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Purge drops every queued function that has not started yet and returns
// how many were dropped.
func (m *Mailbox) Purge() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := len(m.queue)
	m.queue = nil
	if n > 0 {
		m.logger.Debug("purged queued callbacks", "count", n)
	}
	return n
}

// Close stops accepting work. Functions already queued still run; Close
// returns once the mailbox goroutine has exited.
func (m *Mailbox) Close() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		<-m.done
		return
	}
	m.closed = true
	started := m.started
	m.mu.Unlock()

	if !started {
		close(m.done)
		return
	}

	select {
	case m.wake <- struct{}{}:
	default:
	}
	<-m.done
}

// Done is closed when the mailbox goroutine exits.
func (m *Mailbox) Done() <-chan struct{} {
	return m.done
}

func (m *Mailbox) loop() {
	defer close(m.done)
	for {
		m.mu.Lock()
		if len(m.queue) == 0 {
			closed := m.closed
			m.mu.Unlock()
			if closed {
				return
			}
			<-m.wake
			continue
		}
		fn := m.queue[0]
		m.queue[0] = nil
		m.queue = m.queue[1:]
		m.mu.Unlock()

		m.run(fn)
	}
}

func (m *Mailbox) run(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			m.logger.Error("posted function panicked", "panic", r)
			panic(r)
		}
	}()
	fn()
}

var _ Executor = (*Mailbox)(nil)
