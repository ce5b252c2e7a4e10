package pubsub

import "github.com/nfrund/relay/internal/config"

// TracingConfigFromProvider builds the tracing configuration from application config.
func TracingConfigFromProvider(cfg config.Provider) TracingConfig {
	tc := DefaultTracingConfig()
	tc.Enabled = cfg.GetTracingEnabled()

	if name := cfg.GetTracingServiceName(); name != "" {
		tc.ServiceName = name
	}
	if url := cfg.GetTracingZipkinURL(); url != "" {
		tc.ZipkinURL = url
	}

	return tc
}
