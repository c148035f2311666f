// Package embedding provides the embedding provider abstraction: a
// network-backed client for the /embed inference endpoint and a
// deterministic in-process mock for tests and offline mode.
package embedding
