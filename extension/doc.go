// Package extension provides the run-time agent registry: a concurrent-safe
// catalogue of agent definitions and their action handlers, validated for
// completeness at registration time and used for dispatch by the
// orchestration workflow.
package extension
