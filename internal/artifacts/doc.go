// Package artifacts persists the metadata record so later pipeline jobs can read the decisions made at the start of
// the run. Records are encoded as JSON or CBOR and written to a directory-backed store together with their
// retention window.
package artifacts
