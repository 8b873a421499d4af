// Package did implements the polled avatar-video provider. A talk is
// created from a coach image and an audio URL, then its status endpoint is
// probed until done, error, or rejected.
package did
