// Package gateway exposes the orchestration API over HTTP: agent discovery,
// action execution, task and approval browsing, approval decisions, health
// and metrics. It translates orchestrator sentinels and result statuses into
// HTTP status codes and otherwise stays a thin layer.
package gateway
