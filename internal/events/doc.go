// Package events carries worker-level notifications that are not tied to the
// result of any single task.
//
// The worker emits a FaultEvent on a FaultBus when its privileged helper
// cannot be reached. The task registry subscribes and forwards each fault to
// every listener still waiting on an in-flight task.
package events
