// Package api exposes the worker over HTTP: task snapshots, action
// scheduling, release and counters. It adapts HTTP concerns to worker
// operations and never leaks internal error text to clients.
package api
