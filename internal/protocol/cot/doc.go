// Package cot owns the Cursor-on-Target entity model and its wire text.
//
// Ownership boundary:
// - tactical entity state and the two-tier staleness policy
// - serialization to one event document
// - first-match attribute extraction from one received document
//
// The parser is not a general XML parser. It understands the event, point,
// contact and __group element shapes the protocol emits.
package cot
