// Package generation provides the text generation abstraction: a
// network-backed client for the /generate inference endpoint and a
// deterministic in-process mock for tests and offline mode.
package generation
