// Package task owns the lifecycle of boot UI actions issued to the worker.
//
// A Registry holds every outstanding or completed task together with the
// listeners currently waiting on it. Results are handed to listeners on their
// own home Executor, never on the goroutine that produced them, so a slow or
// reentrant listener cannot stall the worker. Task ids outlive any single
// listener attachment: a controller may detach, come back later with a new
// listener and still collect the result exactly once.
//
// The package also provides the plumbing the worker runs on: a bounded job
// Queue, a WorkerPool that drains it and a Mailbox that serializes work onto
// a single goroutine.
package task
