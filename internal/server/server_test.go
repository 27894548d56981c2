package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/isaac-anthony/mano/internal/logger"
	"github.com/isaac-anthony/mano/internal/models"
	"github.com/isaac-anthony/mano/internal/services/menu"
	"github.com/isaac-anthony/mano/internal/services/order"
	"github.com/isaac-anthony/mano/internal/services/webhook"
)

type fakeHealth struct{ fault bool }

func (f *fakeHealth) AuthFault() bool { return f.fault }

type noItems struct{}

func (noItems) Items(ctx context.Context) ([]models.CatalogItem, error) { return nil, nil }

type noPlacer struct{}

func (noPlacer) PlaceOrder(ctx context.Context, req *models.PlaceOrderRequest, call order.CallInfo) order.Outcome {
	return order.Outcome{Response: models.AgentResponse{SpokenMessage: "ok", Success: true}}
}

func testRouter(health HealthSource, maxBody int64) *gin.Engine {
	gin.SetMode(gin.TestMode)
	log := logger.Nop()
	return NewRouter(Handlers{
		Webhook: webhook.NewHandler(noPlacer{}, "", time.Second, log),
		Menu:    menu.NewHandler(noItems{}, time.Second, log),
		Order:   order.NewHandler(nil, nil, "LOC", time.Second, log),
		Health:  health,
	}, maxBody, log)
}

func TestHealth(t *testing.T) {
	health := &fakeHealth{}
	r := testRouter(health, 0)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)

	health.fault = true
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestRoutes(t *testing.T) {
	r := testRouter(&fakeHealth{}, 0)

	for _, path := range []string{"/vapi-webhook", "/webhook"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, path, strings.NewReader(`{"message": {"type": "end-of-call-report"}}`)))
		assert.Equal(t, http.StatusOK, w.Code, path)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/menu", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())
}

func TestBodyLimit(t *testing.T) {
	r := testRouter(&fakeHealth{}, 16)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/vapi-webhook", strings.NewReader(`{"message": {"type": "end-of-call-report"}}`)))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"success":false`, "oversized bodies are treated as malformed")
}
