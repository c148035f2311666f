// Package retrieval implements the hybrid retrieval pipeline: lexical and
// semantic candidate search over the knowledge graph, score fusion, optional
// cross-encoder reranking, and stable pagination.
//
// All orderings produced by this package are fully deterministic: scores are
// total-order keys and every tie is broken by entity id, so repeating a
// search against an unchanged corpus returns the identical ranking.
package retrieval
