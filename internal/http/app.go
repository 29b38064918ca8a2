// Package http provides HTTP server infrastructure including module registration.
package http

import (
	"context"

	"estate_crm_backend/platform/config"
	"estate_crm_backend/platform/logger"
	"estate_crm_backend/platform/metrics"
)

// RouterConfig is the config surface needed by the HTTP router.
type RouterConfig interface {
	config.HTTPConfig
	config.UploadConfig
}

// HealthChecker exposes minimal functionality for readiness checks.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// App holds the fully initialized application dependencies.
// This is populated by main.go (the composition root) and passed to the router.
type App struct {
	// Config holds the router configuration.
	Config RouterConfig
	// Logger is the structured logger.
	Logger *logger.Logger
	// Health is used for readiness/health checks (database ping).
	Health HealthChecker
	// Metrics serves /metrics and records request counters. May be nil.
	Metrics *metrics.Metrics
	// Modules contains all HTTP-facing domain modules.
	Modules []Module
}
