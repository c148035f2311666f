// Package rerank provides the second-pass relevance scoring abstraction: a
// network-backed client for the /rerank cross-encoder endpoint and a
// deterministic in-process mock.
package rerank
