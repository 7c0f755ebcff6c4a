package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/npole/herodispatch/core/logger"
)

// promShutdownGrace bounds how long a draining scrape may hold up shutdown.
const promShutdownGrace = 5 * time.Second

// StartPromServer exposes Prometheus metrics on addr until ctx is canceled.
// It runs on its own ServeMux so scrapes never mix with the API handlers.
func StartPromServer(ctx context.Context, addr string, log logger.Logger) error {
	if log == nil {
		log = logger.Nop{}
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), promShutdownGrace)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Errorf("prometheus endpoint shutdown: %v", err)
		}
	}()
	log.Infof("prometheus metrics on %s", addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}
