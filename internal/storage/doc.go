// Package storage provides the object-storage client used to persist
// synthesized audio. Objects are addressed by bucket-relative path; each
// upload is an idempotent PUT-style replace and every object has a stable
// public URL handed to the video providers.
package storage
