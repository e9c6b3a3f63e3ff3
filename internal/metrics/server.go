package metrics

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const shutdownTimeout = 5 * time.Second

// Router exposes /health, /metrics and run progress.
func (c *Collector) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/health", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"status": "healthy", "service": "lifeevo"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})))
	r.GET("/progress", func(ctx *gin.Context) {
		all := c.AllProgress()
		sort.Slice(all, func(i, j int) bool { return all[i].RunID < all[j].RunID })
		ctx.JSON(http.StatusOK, all)
	})
	r.GET("/progress/:run_id", func(ctx *gin.Context) {
		p, ok := c.Progress(ctx.Param("run_id"))
		if !ok {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "unknown run"})
			return
		}
		ctx.JSON(http.StatusOK, p)
	})
	return r
}

// Serve runs the metrics HTTP server until ctx is done.
func (c *Collector) Serve(ctx context.Context, addr string, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	srv := &http.Server{Addr: addr, Handler: c.Router(), ReadHeaderTimeout: 5 * time.Second}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("metrics server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		logger.Info("metrics server stopped", "addr", addr)
		return nil
	}
}
