// Package storage provides task store implementations.
//
// Implementations:
//   - redis: Redis hashes with a Lua compare-and-swap on status
//   - memory: In-memory for testing
package storage
