// Package workflow implements the dependency-gated task state machine.
//
// The validator decides whether a task may move to a requested status by
// checking its BlockedBy predecessors one hop deep. The controller applies
// permitted transitions through the task store and hands the resulting
// status-change event to the broadcast dispatcher. Denials are values, never
// errors; only infrastructure faults propagate as errors.
package workflow
