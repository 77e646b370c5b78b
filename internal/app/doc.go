// Package app composes the engine for callers: a Document binds one
// script buffer to its analysis orchestrator and the three standard
// taggers, a Manager tracks open documents over a shared worker pool,
// and the logging bootstrap builds the root zerolog logger the rest of
// the engine picks up from context.
package app
