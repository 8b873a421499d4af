// Package queue persists coach-video jobs in SQLite and exposes the status
// lifecycle the generation pipeline drives.
//
// The Store manages database connections, schema initialization, and the
// pending → generating → completed/error transitions. Terminal transitions
// are conditional SQL writes so that completed and error rows are never
// mutated again and overlapping submissions for the same job id surface as
// detectable no-ops.
//
// The database is transient storage for in-flight and recent jobs rather
// than a long-term archive. Schema changes bump the version in schema.go;
// users clear the database to adopt the new schema.
package queue
