// Package store holds records in memory and evicts them probabilistically.
//
// Every record carries a retention weight drawn uniformly from [0,1) when it
// is written. An eviction sweep picks one live record uniformly at random,
// draws a fresh roll from [0,1) and removes the record when the roll exceeds
// its weight. Records with a weight near 1 almost always survive a sweep that
// targets them; records near 0 almost never do.
//
// All access goes through a single mutex that covers the whole map, reads
// included. The Evictor runs sweeps on a fixed interval and contends for the
// same lock as request handlers.
//
// Randomness is injected through RandomSource so tests can script id
// allocation, weights and rolls exactly.
package store
