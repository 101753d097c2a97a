package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/oggyb/muzz-match/internal/auth"
	"github.com/oggyb/muzz-match/internal/config"
)

const shutdownTimeout = 10 * time.Second

// NewRouter builds the gin engine: recovery, access log, CORS, an open
// /healthz and every registrar mounted behind authentication.
func NewRouter(log *slog.Logger, authn auth.Authenticator, registrars ...Registrar) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), AccessLog(log), cors.New(cors.Config{
		AllowOriginFunc:  func(string) bool { return true },
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/", auth.Required(authn))
	for _, reg := range registrars {
		reg.Register(api)
	}
	return r
}

// AccessLog logs one line per request through slog.
func AccessLog(log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		attrs := []any{
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"latency", time.Since(start),
		}
		if userID := auth.UserID(c); userID != "" {
			attrs = append(attrs, "user", userID)
		}
		if len(c.Errors) > 0 {
			log.Error("http request failed", append(attrs, "err", c.Errors.String())...)
			return
		}
		log.Info("http request", attrs...)
	}
}

// StartHTTPServer serves handler until ctx is cancelled, then shuts down gracefully.
func StartHTTPServer(ctx context.Context, cfg *config.Config, handler http.Handler) error {
	addr := fmt.Sprintf("%s:%s", cfg.HTTP.Host, cfg.HTTP.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server on %s: %w", addr, err)
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
