package metrics

import (
	"context"
	"net/http"
	"net/http/pprof"

	"github.com/DMarby/instafilter/internal/cmd"
	"github.com/DMarby/instafilter/internal/handler"
	"github.com/DMarby/instafilter/internal/health"
	"github.com/DMarby/instafilter/internal/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/common/version"
)

func init() {
	prometheus.MustRegister(version.NewCollector("instafilter"))
}

// Router returns the routes for metrics, healthchecks and profiling
func Router(healthChecker *health.Checker) http.Handler {
	router := http.NewServeMux()
	router.Handle("/metrics", promhttp.Handler())
	router.Handle("/health", handler.Health(healthChecker))

	router.HandleFunc("/debug/pprof/", pprof.Index)
	router.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	router.HandleFunc("/debug/pprof/profile", pprof.Profile)
	router.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	router.HandleFunc("/debug/pprof/trace", pprof.Trace)

	return router
}

// Serve starts an http server for metrics and healthchecks, and blocks until ctx is cancelled
func Serve(ctx context.Context, log *logger.Logger, healthChecker *health.Checker, listenAddress string) {
	server := cmd.NewServer(log, listenAddress, Router(healthChecker))
	server.WriteTimeout = 0 // Profiles can take longer than the default timeout

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Infof("shutting down the metrics http server: %s", err)
		}
	}()

	log.Infof("metrics http server listening on %s", listenAddress)

	<-ctx.Done()

	if err := server.Close(); err != nil {
		log.Warnf("error shutting down metrics http server: %s", err)
	}
}
