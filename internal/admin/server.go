// Package admin serves the brand dashboard API used to maintain the shared
// brand templates.
package admin

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"gitlab.com/yelinaung/sushi-bot/internal/catalog"
	"gitlab.com/yelinaung/sushi-bot/internal/logger"
)

const shutdownTimeout = 10 * time.Second

// Config configures the admin server.
type Config struct {
	Addr        string
	JWTSecret   string
	CORSOrigins []string
}

// Server is the admin HTTP API.
type Server struct {
	cfg     Config
	catalog *catalog.Service
	engine  *gin.Engine
}

// NewServer builds the router.
func NewServer(cfg Config, svc *catalog.Service) *Server {
	s := &Server{cfg: cfg, catalog: svc}

	engine := gin.New()
	engine.Use(gin.Recovery(), requestLogger())
	if len(cfg.CORSOrigins) > 0 {
		engine.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORSOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "DELETE"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}
	engine.MaxMultipartMemory = 8 << 20

	engine.GET("/health", s.health)

	api := engine.Group("/api", requireAdmin(cfg.JWTSecret))
	{
		api.GET("/brands", s.listBrands)
		api.POST("/brands", s.createBrand)
		api.PUT("/brands/order", s.reorderBrands)
		api.GET("/brands/:id", s.getBrand)
		api.PUT("/brands/:id", s.updateBrand)
		api.DELETE("/brands/:id", s.deleteBrand)
		api.POST("/brands/:id/logo", s.uploadLogo)
		api.GET("/brands/:id/price", s.previewPrice)
	}

	s.engine = engine
	return s
}

// Handler returns the traced HTTP handler.
func (s *Server) Handler() http.Handler {
	return otelhttp.NewHandler(s.engine, "admin",
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return r.Method + " " + r.URL.Path
		}))
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Log.Info().Str("addr", s.cfg.Addr).Msg("Admin API listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("admin server failed: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down admin server: %w", err)
	}
	return nil
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Log.Debug().
			Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Int("status", c.Writer.Status()).
			Dur("latency", time.Since(start)).
			Msg("Admin request")
	}
}
