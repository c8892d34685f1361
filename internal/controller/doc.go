// Package controller is the short-lived side of the boot UI task protocol.
//
// A Controller owns three task slots (version query, install, uninstall)
// and the display state derived from their results. All of its state lives
// on a single home goroutine, a task.Mailbox; results from the worker are
// posted there. A Controller can be detached from the worker and attached
// again, or shut down and recreated from a saved Bundle, without losing or
// duplicating a result.
package controller
