package warden

import (
	"github.com/viant/x"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/viant/warden/extension"
	"github.com/viant/warden/service/event"
	"github.com/viant/warden/service/orchestrator"
	"github.com/viant/warden/service/store"
	"github.com/viant/warden/tracing"
)

// Option customises the service.
type Option func(s *Service)

// WithStore sets the task/approval store.
func WithStore(service store.Service) Option {
	return func(s *Service) { s.storeService = service }
}

// WithEventService sets the lifecycle event service.
func WithEventService(service *event.Service) Option {
	return func(s *Service) { s.eventService = service }
}

// WithAgents registers additional agents at construction time.
func WithAgents(agents ...extension.Agent) Option {
	return func(s *Service) {
		s.extensionAgents = append(s.extensionAgents, agents...)
	}
}

// WithoutBuiltinAgents skips registration of the bundled agents; the caller
// supplies the full catalogue.
func WithoutBuiltinAgents() Option {
	return func(s *Service) { s.builtinAgents = false }
}

// WithoutAuditTrail disables the audit sink draining lifecycle events into
// the store.
func WithoutAuditTrail() Option {
	return func(s *Service) { s.auditTrail = false }
}

// WithExtensionTypes seeds the shared type registry.
func WithExtensionTypes(types ...*x.Type) Option {
	return func(s *Service) { s.extensionTypes = types }
}

// WithProxyAgentsURL loads config-driven proxy agents from the supplied URL.
func WithProxyAgentsURL(URL string) Option {
	return func(s *Service) { s.proxyAgentsURL = URL }
}

// WithOrchestratorOptions passes options through to the workflow service.
func WithOrchestratorOptions(options ...orchestrator.Option) Option {
	return func(s *Service) {
		s.orchestratorOptions = append(s.orchestratorOptions, options...)
	}
}

// WithTracing configures OpenTelemetry tracing for the service. If outputFile is empty the
// stdout exporter is used; otherwise traces are written to the supplied file path. The function is
// safe to call multiple times; the first successful initialisation wins.
func WithTracing(serviceName, serviceVersion, outputFile string) Option {
	return func(s *Service) {
		_ = tracing.Init(serviceName, serviceVersion, outputFile)
	}
}

// WithTracingExporter configures OpenTelemetry tracing using a custom SpanExporter. This enables
// integrations with exporters other than the built-in stdout exporter, for example OTLP, Jaeger or
// Zipkin. The function is safe to call multiple times; the first successful initialisation wins.
func WithTracingExporter(serviceName, serviceVersion string, exporter sdktrace.SpanExporter) Option {
	return func(s *Service) {
		_ = tracing.InitWithExporter(serviceName, serviceVersion, exporter)
	}
}
