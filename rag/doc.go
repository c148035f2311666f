/*
Package rag orchestrates the hybrid retrieval and grounded generation
pipeline: parallel keyword and semantic retrieval, score fusion, optional
cross-encoder reranking, bounded context assembly, and generation.

The orchestrator degrades gracefully. A failing embedding provider drops the
semantic leg, a failing rerank provider keeps the fused order, and a failing
generation provider still returns the retrieved sources. Only a keyword
retrieval failure, when no other signal succeeded, is fatal: some result
always beats no result.
*/
package rag
