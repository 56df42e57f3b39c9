// Command llmguard-server is the demo HTTP embedder grounded on the
// teacher's cmd/server/main.go: same Gin setup, middleware stack, and
// graceful-shutdown signal handling, wired to a *llmguard.Guard instead of
// the teacher's LLM-calling pipeline. It stands in for the host
// application's own request handler that spec.md places out of scope — the
// core library underneath performs no network I/O of its own.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"llmguard/internal/cache"
	"llmguard/internal/handler"
	"llmguard/internal/hostconfig"
	"llmguard/pkg/llmguard"
)

func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})
	log.SetLevel(logrus.InfoLevel)

	overlay, cfg, err := hostconfig.Load()
	if err != nil {
		log.WithError(err).Fatal("failed to load configuration")
	}

	var opts []llmguard.GuardOption
	opts = append(opts, llmguard.WithLogger(log))
	if cfg.Caching != nil && cfg.Caching.Enabled {
		c := cache.New(cache.WithMaxEntries(cfg.Caching.MaxCacheEntries))
		defer c.Close()
		opts = append(opts, llmguard.WithCache(c))
	}

	guard, err := llmguard.New(cfg, opts...)
	if err != nil {
		log.WithError(err).Fatal("failed to build guard")
	}

	h := handler.NewGuardHandler(guard, log)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(corsMiddleware())

	router.GET("/health", h.Health)
	router.GET("/metrics", h.PrometheusMetrics)

	v1 := router.Group("/v1")
	{
		v1.POST("/validate/input", h.ValidateInput)
		v1.POST("/validate/output", h.ValidateOutput)
		v1.POST("/validate/batch", h.ValidateBatch)
		v1.GET("/metrics", h.Metrics)
	}

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", overlay.Server.Port),
		Handler:      router,
		ReadTimeout:  overlay.Server.Timeout,
		WriteTimeout: overlay.Server.Timeout,
	}

	go func() {
		log.WithField("port", overlay.Server.Port).Info("starting llmguard server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.WithError(err).Error("server forced to shutdown")
	}

	log.Info("server stopped")
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
