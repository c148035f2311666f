// Package kg defines the read-side contract of the pandemic knowledge graph
// and an in-memory implementation used for tests and offline mode.
//
// The production graph query engine sits behind the Store interface; this
// package does not reimplement it. Entities are read-only snapshots; the
// pipeline never writes back, and entity embeddings are populated by the
// external enrichment job.
package kg
