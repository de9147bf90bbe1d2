package tracer

// Config controls the OpenTelemetry tracer setup.
type Config struct {
	// ServiceName appears as service.name on every exported span.
	ServiceName string `json:"service_name" yaml:"service_name" envconfig:"TRACER_SERVICE_NAME"`

	// AppEnv tags spans with the deployment environment (e.g. "staging").
	AppEnv string `json:"app_env" yaml:"app_env" envconfig:"TRACER_APP_ENV"`

	// EnableExport turns on the OTLP HTTP exporter. The collector endpoint
	// comes from the standard OTEL_EXPORTER_OTLP_* environment variables.
	// When false, spans are created but never leave the process.
	EnableExport bool `json:"enable_export" yaml:"enable_export" envconfig:"TRACER_ENABLE_EXPORT"`
}

// DefaultConfig returns a local-only tracer configuration.
func DefaultConfig() Config {
	return Config{
		ServiceName:  "vdbfuzz",
		AppEnv:       "development",
		EnableExport: false,
	}
}
