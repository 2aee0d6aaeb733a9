// Package warden provides an agent-action orchestration layer with
// human-in-the-loop approval.
//
// The engine keeps a registry of pluggable agents exposing risk-classified
// actions and comes with service layers such as:
//
//   - orchestrator – plan/verify/act workflow and decision resumption
//   - store        – task, approval-ticket and audit persistence
//   - event        – best-effort lifecycle event publishing
//   - gateway      – HTTP surface over the engine
//
// Warden is designed to be embedded in host applications. End-users
// typically interact with the engine via the high-level Service façade
// exposed by the root package:
//
//	srv, _ := warden.New()
//	result, _ := srv.Execute(ctx, &orchestrator.ExecuteRequest{
//		AgentID:  "cicd",
//		ActionID: "list-pipelines",
//		Context:  &orchestrator.Context{TenantID: "acme"},
//	})
//
// For more details see the README and individual sub-packages.
package warden
