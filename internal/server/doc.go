// Package server manages the HTTP listener lifecycle: non-blocking start,
// graceful shutdown with request draining, SIGINT/SIGTERM handling, and an
// error channel for asynchronous serve failures.
package server
