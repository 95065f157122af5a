// Package id provides 128-bit, lexicographically sortable request identifiers.
//
// # Format
//
// The ID is 16 bytes big-endian: [8 bytes µs_timestamp][8 bytes sequence].
// Byte-wise comparison preserves generation order, and IDs generated within
// the same microsecond remain strictly increasing by sequence.
//
// The request server stamps every exchange with one of these so log lines
// for a single request can be correlated.
//
// Usage
//
//	g := id.NewGenerator()
//	rid := g.Next()
//	s := rid.String() // 32 hex chars
package id
