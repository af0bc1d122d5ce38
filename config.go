package gorawrbooks

import "github.com/Keksclan/goRawrBooks/internal/core"

// Middleware priority levels. Lower values execute first (outermost).
const (
	orderRecovery      = 100
	orderRequestID     = 150
	orderOpenTelemetry = 200
	orderAccessLog     = 250
	orderRateLimit     = 300
	orderCustom        = 1000
)

// config holds the internal configuration assembled via functional options.
type config struct {
	middlewares core.MiddlewareBuilder
}
