// Package server exposes the dashboard over HTTP: artifact health, dataset
// overview and exports, symptom search and predictions.
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

	"github.com/Prabal729/disease-2/internal/logging"
	"github.com/Prabal729/disease-2/internal/pipeline"
)

// Server serves the dashboard API for one pipeline.
type Server struct {
	p   *pipeline.Pipeline
	log *slog.Logger
}

// New creates a Server over p.
func New(p *pipeline.Pipeline) *Server {
	return &Server{p: p, log: logging.New("server")}
}

// Router builds the gin engine with every route registered.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(
		requestID(),
		accessLog(s.log),
		gin.Recovery(),
		limitBodySize(1<<20),
		cors.New(cors.Config{
			AllowOrigins:  []string{"*"},
			AllowMethods:  []string{"GET", "POST", "OPTIONS"},
			AllowHeaders:  []string{"Origin", "Content-Type", requestIDHeader},
			ExposeHeaders: []string{requestIDHeader, "Content-Disposition"},
			MaxAge:        12 * time.Hour,
		}),
	)

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/readyz", s.ready)

	api := r.Group("/api")
	api.GET("/overview", s.overview)
	api.GET("/features", s.features)
	api.POST("/predict", s.predict)
	api.GET("/predictions/recent", s.recent)
	api.POST("/reload", s.reload)

	api.GET("/dataset/sample", s.sample)
	api.GET("/analytics/labels", s.labels)
	api.GET("/analytics/symptoms", s.symptoms)

	export := api.Group("/export")
	export.GET("/summary.json", s.exportSummary)
	export.GET("/dataset.csv", s.exportDataset)
	export.GET("/info.json", s.exportInfo)
	export.GET("/statistics.csv", s.exportStatistics)
	return r
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server: graceful shutdown: %w", err)
	}
	return nil
}
