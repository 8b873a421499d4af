// Package daemon wires the job store, generation pipeline, and HTTP API
// into a single-instance background process.
package daemon
