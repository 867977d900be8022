package telemetry

// OrderServiceConfig is the telemetry configuration for the order service
var OrderServiceConfig = Config{
	ServiceName:    "order-service",
	ServiceVersion: "1.0.0",
}

// ForService returns a copy of c reporting as serviceName. An empty
// otlpEndpoint keeps metrics on the Prometheus registry only.
func (c Config) ForService(serviceName, otlpEndpoint string) Config {
	if serviceName != "" {
		c.ServiceName = serviceName
	}
	c.OTLPEndpoint = otlpEndpoint
	return c
}
