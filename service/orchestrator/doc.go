// Package orchestrator implements the control flow that ties the agent
// registry, task store and event publisher together: plan (create the task
// capturing the exact request payload), verify (gate high-risk actions
// behind an approval ticket) and act (dispatch the handler and finalize the
// task). It also resumes gated tasks when approval decisions arrive,
// replaying the originally captured input.
package orchestrator
