// Command mockserver serves deterministic Environment Agency fixture data on
// the station registry and readings paths, for local development.
//
// Usage:
//
//	go run ./cmd/mockserver -addr :8090
//	STATIONS_URL=http://localhost:8090/hydrology/id/stations \
//	READINGS_URL=http://localhost:8090/flood-monitoring/data/readings \
//	  go run ./cmd/rainfall -lat 52.45 -lon -2.15 -start 2024-01-01 -end 2024-01-02
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"

	"github.com/couchcryptid/rainfall-explorer/internal/mockea"
)

func main() {
	addr := flag.String("addr", ":8090", "listen address")
	scatter := flag.Int("scatter", 0, "serve N synthetic stations around the West Midlands instead of the default fixture")
	logLevel := flag.String("log-level", "info", "log level")
	flag.Parse()

	logger := sharedobs.NewLogger(*logLevel, "json")

	fixture := mockea.Default()
	if *scatter > 0 {
		fixture = mockea.Scatter(*scatter, 385000, 280000, "0.5")
	}

	srv := &http.Server{
		Addr:              *addr,
		Handler:           fixture.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("mock environment agency listening",
			"addr", *addr,
			"stations_path", mockea.StationsPath,
			"readings_path", mockea.ReadingsPath,
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("mock server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("mock server shutdown error", "error", err)
	}
}
