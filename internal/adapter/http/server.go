package http

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/couchcryptid/rainfall-explorer/internal/domain"
)

// QueryRunner executes one rainfall query.
type QueryRunner interface {
	Run(ctx context.Context, q domain.Query) (domain.Result, error)
}

// SessionRunner executes a query on behalf of a named client session,
// superseding that session's previous run.
type SessionRunner interface {
	Run(ctx context.Context, key string, q domain.Query) (domain.Result, error)
}

// Server exposes the rainfall query API alongside health, readiness, and
// metrics endpoints.
type Server struct {
	httpServer *http.Server
	runner     QueryRunner
	sessions   SessionRunner
	logger     *slog.Logger
}

// NewServer creates an HTTP server with /api/v1/rainfall, /healthz, /readyz,
// and /metrics routes.
func NewServer(addr string, runner QueryRunner, sessions SessionRunner, ready sharedobs.ReadinessChecker, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       10 * time.Second,
			WriteTimeout:      2 * time.Minute,
			IdleTimeout:       60 * time.Second,
		},
		runner:   runner,
		sessions: sessions,
		logger:   logger,
	}

	mux.HandleFunc("GET /api/v1/rainfall", s.handleRainfall)
	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(ready))
	mux.Handle("GET /metrics", promhttp.Handler())

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

type rainfallResponse struct {
	Outcome string `json:"outcome"`
	domain.Result
}

func (s *Server) handleRainfall(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()
	q, err := parseQuery(params)
	if err != nil {
		writeResult(w, domain.Result{Status: domain.StatusMessage(err)}, err)
		return
	}

	var result domain.Result
	if key := params.Get("session"); key != "" {
		result, err = s.sessions.Run(r.Context(), key, q)
	} else {
		result, err = s.runner.Run(r.Context(), q)
	}

	if r.Context().Err() != nil {
		s.logger.Debug("client went away before the query finished", "selection", q.Describe())
		return
	}
	writeResult(w, result, err)
}

func writeResult(w http.ResponseWriter, result domain.Result, err error) {
	outcome := domain.Outcome(err)
	if result.Table == nil {
		result.Table = []domain.TableRow{}
	}
	if result.Points == nil {
		result.Points = []domain.MapPoint{}
	}
	if result.FailedStations == nil {
		result.FailedStations = []string{}
	}
	sharedobs.WriteJSON(w, statusCode(outcome), rainfallResponse{Outcome: outcome, Result: result})
}

func statusCode(outcome string) int {
	switch outcome {
	case "ok", "no_stations", "no_readings":
		return http.StatusOK
	case "invalid":
		return http.StatusBadRequest
	case "conversion":
		return http.StatusUnprocessableEntity
	case "superseded":
		return http.StatusConflict
	case "cancelled":
		return http.StatusGatewayTimeout
	default:
		return http.StatusBadGateway
	}
}

func parseQuery(params url.Values) (domain.Query, error) {
	lat, err := parseFloat(params, "lat")
	if err != nil {
		return domain.Query{}, err
	}
	lon, err := parseFloat(params, "lon")
	if err != nil {
		return domain.Query{}, err
	}

	radius := domain.DefaultRadiusKm
	if v := params.Get("radius"); v != "" {
		radius, err = strconv.Atoi(v)
		if err != nil {
			return domain.Query{}, fmt.Errorf("%w: radius %q is not an integer", domain.ErrInvalidInput, v)
		}
	}

	start, err := parseDate(params, "start")
	if err != nil {
		return domain.Query{}, err
	}
	end, err := parseDate(params, "end")
	if err != nil {
		return domain.Query{}, err
	}

	return domain.Query{
		Latitude:  lat,
		Longitude: lon,
		RadiusKm:  radius,
		StartDate: start,
		EndDate:   end,
	}, nil
}

func parseFloat(params url.Values, key string) (float64, error) {
	v := params.Get(key)
	if v == "" {
		return 0, fmt.Errorf("%w: %s is required", domain.ErrInvalidInput, key)
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s %q is not a number", domain.ErrInvalidInput, key, v)
	}
	return f, nil
}

func parseDate(params url.Values, key string) (time.Time, error) {
	v := params.Get(key)
	if v == "" {
		return domain.Today(), nil
	}
	return domain.ParseDate(v)
}
