package handler

import (
	"pairrelay/internal/app/pairing"
	"pairrelay/internal/configs"
	"pairrelay/internal/pkg/limiter"
)

// AppDeps bundles what the HTTP layer needs.
type AppDeps struct {
	Pairing *pairing.Router
	Config  *configs.AppConfig

	// ConnectLimiter throttles WebSocket upgrades per client IP.
	ConnectLimiter *limiter.IPRateLimiter

	// APILimiter throttles the plain HTTP endpoints under /api per client IP.
	APILimiter *limiter.IPRateLimiter
}
