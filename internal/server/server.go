// Package server wires the HTTP surface onto a gin engine.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/isaac-anthony/mano/internal/config"
	"github.com/isaac-anthony/mano/internal/logger"
	"github.com/isaac-anthony/mano/internal/services/menu"
	"github.com/isaac-anthony/mano/internal/services/order"
	"github.com/isaac-anthony/mano/internal/services/webhook"
)

// HealthSource reports process-level faults.
type HealthSource interface {
	AuthFault() bool
}

// Handlers are the route handlers the router mounts.
type Handlers struct {
	Webhook *webhook.Handler
	Menu    *menu.Handler
	Order   *order.Handler
	Health  HealthSource
}

// NewRouter sets up the HTTP routes
func NewRouter(h Handlers, maxBodyBytes int64, log *logger.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), withLogging(log), limitBody(maxBodyBytes))

	r.POST("/vapi-webhook", h.Webhook.Handle)
	r.POST("/webhook", h.Webhook.Handle)
	r.GET("/menu", h.Menu.Menu)
	r.GET("/menu/full", h.Menu.FullMenu)
	r.POST("/order", h.Order.CreateOrder)
	r.GET("/orders/recent", h.Order.RecentOrders)
	r.GET("/health", healthCheck(h.Health))
	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": log.Service()})
	})

	return r
}

// healthCheck handles GET /health requests
func healthCheck(src HealthSource) gin.HandlerFunc {
	return func(c *gin.Context) {
		response := gin.H{
			"status":    "ok",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		}
		if src != nil && src.AuthFault() {
			response["status"] = "unhealthy"
			response["reason"] = "commerce backend credential rejected"
			c.JSON(http.StatusServiceUnavailable, response)
			return
		}
		c.JSON(http.StatusOK, response)
	}
}

// withLogging adds request logging middleware
func withLogging(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		requestID := logger.GenerateRequestID()
		c.Set(logger.RequestIDKey, requestID)

		log.Debug("request_started",
			fmt.Sprintf("%s %s", c.Request.Method, c.Request.URL.Path),
			requestID,
			map[string]interface{}{
				"method":      c.Request.Method,
				"path":        c.Request.URL.Path,
				"remote_addr": c.ClientIP(),
				"user_agent":  c.Request.UserAgent(),
			})

		c.Next()

		status := c.Writer.Status()
		log.Debug("request_completed",
			fmt.Sprintf("%s %s - %d", c.Request.Method, c.Request.URL.Path, status),
			requestID,
			map[string]interface{}{
				"method":      c.Request.Method,
				"path":        c.Request.URL.Path,
				"status_code": status,
				"duration_ms": time.Since(start).Milliseconds(),
			})
	}
}

func limitBody(n int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if n > 0 && c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, n)
		}
		c.Next()
	}
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func Run(ctx context.Context, cfg *config.Config, handler http.Handler, log *logger.Logger) error {
	requestID := logger.GenerateRequestID()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("service_started", fmt.Sprintf("HTTP server started on port %d", cfg.Server.Port), requestID, map[string]interface{}{
			"port": cfg.Server.Port,
		})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	log.Info("graceful_shutdown", "Shutting down HTTP server", requestID, nil)
	return srv.Shutdown(shutdownCtx)
}
