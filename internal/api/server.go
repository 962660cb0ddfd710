// Package api serves the latest snapshot over HTTP and websocket.
package api

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"Sentinels/internal/liquidation"
	"Sentinels/internal/model"
	"Sentinels/internal/recorder"
	"Sentinels/internal/scheduler"
)

// Backend is the read side of the refresh controller.
type Backend interface {
	Latest() *model.Snapshot
	State() scheduler.State
	Analyze(ctx context.Context) (*model.AnalysisResult, error)
	LatestAnalysis() *model.AnalysisResult
}

// Server represents the HTTP server.
type Server struct {
	router   *mux.Router
	server   *http.Server
	backend  Backend
	hub      *Hub
	gatherer prometheus.Gatherer
	digests  recorder.Recorder
}

// maxDigests caps the limit query of /api/digests.
const maxDigests = 100

// NewServer builds the router. hub and gatherer may be nil to disable /ws and /metrics.
func NewServer(addr string, backend Backend, hub *Hub, gatherer prometheus.Gatherer) *Server {
	s := &Server{
		router:   mux.NewRouter(),
		backend:  backend,
		hub:      hub,
		gatherer: gatherer,
	}
	s.setupRoutes()
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

func (s *Server) setupRoutes() {
	s.router.Use(s.requestIDMiddleware)
	s.router.Use(s.requestLoggingMiddleware)

	s.router.HandleFunc("/healthz", s.health).Methods(http.MethodGet)

	api := s.router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/snapshot", s.snapshot).Methods(http.MethodGet)
	api.HandleFunc("/assets/{symbol}", s.asset).Methods(http.MethodGet)
	api.HandleFunc("/liquidations", s.liquidations).Methods(http.MethodGet)
	api.HandleFunc("/opportunities", s.opportunities).Methods(http.MethodGet)
	api.HandleFunc("/signals/best", s.bestSignal).Methods(http.MethodGet)
	api.HandleFunc("/analysis", s.getAnalysis).Methods(http.MethodGet)
	api.HandleFunc("/analysis", s.runAnalysis).Methods(http.MethodPost)
	api.HandleFunc("/digests", s.recentDigests).Methods(http.MethodGet)

	if s.hub != nil {
		s.router.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
			s.hub.Serve(w, r, s.backend.Latest())
		}).Methods(http.MethodGet)
	}
	if s.gatherer != nil {
		s.router.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	}

	s.router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})
}

// WithDigests serves the sentiment digest log on /api/digests.
func (s *Server) WithDigests(rec recorder.Recorder) *Server {
	s.digests = rec
	return s
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler { return s.router }

// Start listens until Shutdown is called.
func (s *Server) Start() error {
	log.Info().Str("addr", s.server.Addr).Msg("http server listening")
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the server and disconnects websocket clients.
func (s *Server) Shutdown(ctx context.Context) error {
	log.Info().Msg("shutting down http server")
	if s.hub != nil {
		s.hub.Close()
	}
	return s.server.Shutdown(ctx)
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
		"state":  s.backend.State().String(),
	})
}

// latest writes 503 and returns nil before the first cycle.
func (s *Server) latest(w http.ResponseWriter) *model.Snapshot {
	snap := s.backend.Latest()
	if snap == nil {
		writeError(w, http.StatusServiceUnavailable, "no snapshot published yet")
	}
	return snap
}

func (s *Server) snapshot(w http.ResponseWriter, r *http.Request) {
	if snap := s.latest(w); snap != nil {
		writeJSON(w, http.StatusOK, snap)
	}
}

func (s *Server) asset(w http.ResponseWriter, r *http.Request) {
	snap := s.latest(w)
	if snap == nil {
		return
	}
	symbol := strings.ToUpper(mux.Vars(r)["symbol"])
	a := snap.Asset(symbol)
	if a == nil {
		writeError(w, http.StatusNotFound, "unknown symbol "+symbol)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

type liquidationsResponse struct {
	Filter  model.LiquidationFilter                     `json:"filter"`
	Buckets map[model.Timeframe]model.LiquidationBucket `json:"buckets"`
	Display map[model.Timeframe]float64                 `json:"display"`
}

func (s *Server) liquidations(w http.ResponseWriter, r *http.Request) {
	filter, ok := model.ParseLiquidationFilter(strings.ToUpper(r.URL.Query().Get("filter")))
	if !ok {
		writeError(w, http.StatusBadRequest, "filter must be ALL, LONG or SHORT")
		return
	}
	snap := s.latest(w)
	if snap == nil {
		return
	}
	writeJSON(w, http.StatusOK, liquidationsResponse{
		Filter:  filter,
		Buckets: snap.Liquidations,
		Display: liquidation.Buckets(snap.Liquidations).DisplayAll(filter),
	})
}

func (s *Server) opportunities(w http.ResponseWriter, r *http.Request) {
	if snap := s.latest(w); snap != nil {
		writeJSON(w, http.StatusOK, snap.Opportunities)
	}
}

func (s *Server) bestSignal(w http.ResponseWriter, r *http.Request) {
	snap := s.latest(w)
	if snap == nil {
		return
	}
	if snap.BestSignal == nil {
		writeError(w, http.StatusNotFound, "no best signal")
		return
	}
	writeJSON(w, http.StatusOK, snap.BestSignal)
}

func (s *Server) getAnalysis(w http.ResponseWriter, r *http.Request) {
	res := s.backend.LatestAnalysis()
	if res == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) runAnalysis(w http.ResponseWriter, r *http.Request) {
	res, err := s.backend.Analyze(r.Context())
	switch {
	case errors.Is(err, scheduler.ErrNoSnapshot):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	case errors.Is(err, scheduler.ErrAnalysisBusy):
		writeError(w, http.StatusConflict, err.Error())
	case err != nil:
		writeError(w, http.StatusInternalServerError, err.Error())
	default:
		writeJSON(w, http.StatusOK, res)
	}
}

func (s *Server) recentDigests(w http.ResponseWriter, r *http.Request) {
	if s.digests == nil {
		writeError(w, http.StatusServiceUnavailable, "digest log disabled")
		return
	}
	limit := 10
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, maxDigests)
	}
	digests, err := s.digests.Recent(r.Context(), limit)
	if err != nil {
		log.Error().Err(err).Msg("read digests")
		writeError(w, http.StatusInternalServerError, "read digests failed")
		return
	}
	if digests == nil {
		digests = []recorder.Digest{}
	}
	writeJSON(w, http.StatusOK, digests)
}

// writeJSON encodes before writing the status so an unencodable value becomes a 500.
func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Msg("encode response")
		data = []byte(`{"error":"response encoding failed"}`)
		status = http.StatusInternalServerError
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(append(data, '\n'))
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

type ctxKey struct{}

// RequestID returns the id assigned by the request-id middleware.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}

func (s *Server) requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := uuid.New().String()[:8]
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, id)))
	})
}

func (s *Server) requestLoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapper := &responseWrapper{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(wrapper, r)
		log.Debug().
			Str("request_id", RequestID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", wrapper.statusCode).
			Dur("took", time.Since(start)).
			Msg("request")
	})
}

type responseWrapper struct {
	http.ResponseWriter
	statusCode int
}

func (w *responseWrapper) WriteHeader(code int) {
	w.statusCode = code
	w.ResponseWriter.WriteHeader(code)
}

// Hijack lets the websocket upgrader take over the connection.
func (w *responseWrapper) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response does not support hijacking")
	}
	return h.Hijack()
}

func (w *responseWrapper) Unwrap() http.ResponseWriter { return w.ResponseWriter }
