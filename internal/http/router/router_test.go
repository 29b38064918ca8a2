package router

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	apphttp "estate_crm_backend/internal/http"
	"estate_crm_backend/platform/logger"
	"estate_crm_backend/platform/metrics"

	"github.com/gin-gonic/gin"
)

type testConfig struct {
	rps float64
}

func (c testConfig) GetHTTPAddr() string                { return ":0" }
func (c testConfig) GetCORSAllowAll() bool              { return true }
func (c testConfig) GetCORSOrigins() []string           { return nil }
func (c testConfig) GetCORSAllowCreds() bool            { return false }
func (c testConfig) GetRateLimitRPS() float64           { return c.rps }
func (c testConfig) GetRateLimitBurst() int             { return 1 }
func (c testConfig) GetUploadMaxFileSize() int64        { return 1024 }
func (c testConfig) GetUploadEnforceContentTypes() bool { return true }

type fakeHealth struct{ err error }

func (f fakeHealth) Ping(context.Context) error { return f.err }

type pingModule struct{}

func (pingModule) Name() string { return "ping" }

func (pingModule) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.Mount("/ping", func(rg *gin.RouterGroup) {
		rg.GET("", func(c *gin.Context) { c.String(http.StatusOK, "pong") })
	})
}

func newEngine(health apphttp.HealthChecker, rps float64) *gin.Engine {
	gin.SetMode(gin.TestMode)
	return New(&apphttp.App{
		Config:  testConfig{rps: rps},
		Logger:  logger.Discard(),
		Health:  health,
		Metrics: metrics.New("test"),
		Modules: []apphttp.Module{pingModule{}},
	})
}

func get(engine *gin.Engine, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestModulesMountUnderBothPrefixes(t *testing.T) {
	engine := newEngine(fakeHealth{}, 0)

	for _, path := range []string{"/api/ping", "/api/v1/ping"} {
		if w := get(engine, path); w.Code != http.StatusOK || w.Body.String() != "pong" {
			t.Fatalf("%s: unexpected response %d %q", path, w.Code, w.Body.String())
		}
	}
	if w := get(engine, "/api/nope"); w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown route, got %d", w.Code)
	}
}

func TestHealthReflectsStore(t *testing.T) {
	if w := get(newEngine(fakeHealth{}, 0), "/api/health"); w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if w := get(newEngine(fakeHealth{err: errors.New("down")}, 0), "/api/health"); w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", w.Code)
	}
}

func TestMetricsEndpointAndRequestID(t *testing.T) {
	engine := newEngine(fakeHealth{}, 0)
	w := get(engine, "/api/ping")
	if w.Header().Get("X-Request-ID") == "" {
		t.Fatal("expected request id header")
	}

	w = get(engine, "/metrics")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "test_http_requests_total") {
		t.Fatalf("expected request counter in exposition, got %d", w.Code)
	}
}

func TestRateLimiterApplies(t *testing.T) {
	engine := newEngine(fakeHealth{}, 0.001)

	if w := get(engine, "/api/ping"); w.Code != http.StatusOK {
		t.Fatalf("expected first request through, got %d", w.Code)
	}
	if w := get(engine, "/api/ping"); w.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", w.Code)
	}
}
