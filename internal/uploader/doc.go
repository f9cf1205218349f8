// Package uploader posts telemetry batches to a ThingsBoard-style HTTP
// ingestion endpoint.
//
// Dispatch is synchronous and strictly ordered: one POST per batch, each
// blocking until the server responds or the transport fails, with a
// configurable pause between consecutive batches of a stream. The pause
// is skipped after a stream's final batch. No two requests are ever in
// flight at once.
//
// # Error Handling
//
// Transport failures (connection refused, timeout, DNS) are returned to
// the caller and terminate the run; there is no retry. Non-2xx responses
// are observed and logged but ignored by default — best-effort upload is
// the historical behavior. Strict mode turns the first non-2xx response
// into an error instead.
package uploader
