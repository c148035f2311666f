/*
Package metrics centralizes Prometheus instrumentation for the retrieval
pipeline: HTTP surface, search runs, provider calls, graceful degradations,
and chat/session activity.

All metrics are registered through a single Collector so the full metric
surface of a deployment is declared in one place. The Collector takes a
prometheus.Registerer at construction; production wires the default
registerer, tests pass an isolated registry.
*/
package metrics
