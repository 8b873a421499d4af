// Package heygen implements the fire-and-forget avatar-video provider.
// HeyGen reports completion out-of-band, so jobs dispatched here stay in
// the generating state as far as this daemon is concerned.
package heygen
