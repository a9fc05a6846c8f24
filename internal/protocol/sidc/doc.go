// Package sidc owns the 20-digit MIL-STD-2525D symbol identification code.
//
// Ownership boundary:
// - fixed-width field encoding and structural validation
// - static lookup tables for affiliation, dimension, function and echelon labels
// - best-effort mapping from a code to a CoT type string
//
// Validation is structural only. Function, echelon and country values are
// never checked against a registry.
package sidc
