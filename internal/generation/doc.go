// Package generation implements the coach-video pipeline. One request moves
// a pending job through speech synthesis, audio upload, and video-provider
// dispatch, then hands off to a detached poller (for the polled provider)
// that drives the job row to completed or error. Every job finishes in a
// terminal state exactly once; terminal rows are never rewritten.
package generation
