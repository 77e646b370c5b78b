// Package remote runs the richer parse out of process. The client side
// spawns a parser peer (by default this binary's own parser-server
// subcommand), speaks a length-prefixed msgpack frame protocol over the
// peer's stdio, and restarts a crashed peer with exponential backoff.
// The server side is the Serve loop the peer runs.
//
// Every failure on this path is the caller's cue to degrade to the fast
// in-process error set; nothing here ever aborts an analysis pass.
package remote
