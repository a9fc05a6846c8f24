// Package stream reassembles complete CoT event documents from an unbounded
// sequence of byte chunks.
//
// Boundaries are found by protocol-aware substring scanning, not by a
// conformant markup parse. A closing-tag-shaped substring inside an attribute
// value would end a document early. NextDocument is the only place that
// knows the boundary rules, so it can be replaced without touching callers.
package stream
