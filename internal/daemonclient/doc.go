// Package daemonclient is the HTTP client the CLI uses to talk to a
// running coachcast daemon.
package daemonclient
