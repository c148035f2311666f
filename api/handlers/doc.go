// Package handlers implements the HTTP surface of the retrieval pipeline:
// search, entity lookup, grounded summaries, and chat. All responses share
// one JSON envelope; errors map the pipeline's error codes onto HTTP status
// codes in one place.
package handlers
