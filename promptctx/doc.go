// Package promptctx renders retrieved entities and chat history into a
// bounded prompt context for the generation provider. Assembly is pure and
// deterministic: the same inputs and budget always produce the same context.
package promptctx
