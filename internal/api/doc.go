// Package api defines the transport payload types shared by the daemon's
// HTTP surface and the CLI client, plus converters from queue rows.
package api
