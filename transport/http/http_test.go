package http_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"facilitydesk/config"
	"facilitydesk/infras/otel/mocks"
	"facilitydesk/shared/constant"
	transportHTTP "facilitydesk/transport/http"
	"facilitydesk/transport/http/middleware"
	"facilitydesk/transport/http/router"

	"github.com/stretchr/testify/assert"
)

func newServer(cfg *config.Config) *transportHTTP.HTTP {
	ot := mocks.NewOtel()

	return transportHTTP.New(cfg, router.New(router.DomainHandlers{}), middleware.NewAppMiddleware(ot, cfg, nil), ot)
}

func TestHealth(t *testing.T) {
	server := newServer(&config.Config{})

	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, transportHTTP.ServerStateReady, server.State())
	assert.NotEmpty(t, rec.Header().Get(constant.RequestHeaderRequestID))
}

func TestCORS(t *testing.T) {
	cfg := &config.Config{}
	cfg.App.CORS.Enable = true
	cfg.App.CORS.AllowedOrigins = []string{"https://desk.example.com"}
	cfg.App.CORS.AllowedMethods = []string{http.MethodGet, http.MethodPatch}

	server := newServer(cfg)

	req := httptest.NewRequest(http.MethodOptions, "/v1/facilities/1", nil)
	req.Header.Set("Origin", "https://desk.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPatch)

	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, req)

	assert.Equal(t, "https://desk.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestUnknownRoute(t *testing.T) {
	server := newServer(&config.Config{})

	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v2/facilities", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
