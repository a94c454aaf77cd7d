package prometheus

import (
	"fmt"
	"net/http"
	"time"

	"github.com/merchkit/countdown/config"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const defaultPort = 9090

// NewServer builds the HTTP server that exposes /metrics for scraping. It
// runs beside the Fiber app on its own port so the scrape surface is never
// reachable from storefront traffic.
func NewServer(cfg config.PrometheusConfig) *http.Server {
	port := cfg.Port
	if port == 0 {
		port = defaultPort
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	return &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      10 * time.Second,
	}
}
