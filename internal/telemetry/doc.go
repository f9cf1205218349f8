// Package telemetry reshapes tabular rows into ThingsBoard telemetry
// points and splits them into upload batches.
//
// A point is the ingestion API's wire unit:
//
//	{"ts": 1756742602000, "values": {"temperature": 22.5, "humidity": 60}}
//
// Two transformations are provided. TransformSingle treats every row as
// one point for a single device, with arbitrary columns as telemetry
// keys. TransformMulti partitions rows by an access-token column so one
// file can feed many devices, each row contributing a single key/value
// pair.
//
// All functions are pure: they take rows in, return points out, and touch
// no shared state.
package telemetry
