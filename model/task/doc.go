// Package task defines the persisted lifecycle records of the orchestration
// layer: tasks, approval tickets and append-only audit events, together with
// their state machines.
package task
