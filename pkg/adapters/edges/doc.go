// Package edges provides dependency edge store implementations.
//
// Implementations:
//   - redis: JSON records with per-task index sets
//   - memory: In-memory for testing
package edges
