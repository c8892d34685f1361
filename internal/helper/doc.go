// Package helper talks to the privileged helper daemon that performs the
// concrete boot UI work (reading the installed version, installing and
// uninstalling). It contains both ends of the channel: an HTTP client used
// by the worker and a chi server run by the daemon.
//
// Every request carries a short-lived HS256 bearer token and every response
// carries the daemon's protocol revision. Failures to talk to the daemon are
// reported as *ConnectionError so the worker can broadcast them as faults.
package helper
