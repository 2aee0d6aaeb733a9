// Package agent holds the declarative side of the agent catalogue: the
// Definition/Action metadata served to clients and consulted by the
// orchestration workflow for risk classification.
package agent
