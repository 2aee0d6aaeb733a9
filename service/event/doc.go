// Package event provides fire-and-forget emission of orchestration lifecycle
// events to an external sink. Failures here never block orchestration; the
// default sink persists events as audit records.
package event
