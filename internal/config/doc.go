// Package config handles configuration loading, parsing, and validation
// from defaults, an optional config file and BOOTUI_ environment variables.
// It provides type-safe access to the settings needed by the worker, the
// helper daemon and the CLI while keeping configuration details separate
// from the task lifecycle.
package config
