// Package services holds cross-cutting helpers shared by the external
// service clients and the generation pipeline: the error taxonomy used to
// classify pipeline failures, and context plumbing for job/step/correlation
// identifiers consumed by structured logging.
package services
