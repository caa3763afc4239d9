// Package server exposes the engine over HTTP: Prometheus metrics, a health
// check, views of the cooldown ledger and the signal journal, and closing an
// open bias.
package server

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gorilla/mux"
	"github.com/rxtech-lab/argo-signal/internal/cooldown"
	"github.com/rxtech-lab/argo-signal/internal/history"
	"github.com/rxtech-lab/argo-signal/internal/logger"
	"github.com/rxtech-lab/argo-signal/internal/metrics"
	"github.com/rxtech-lab/argo-signal/internal/types"
	"github.com/rxtech-lab/argo-signal/internal/version"
	"github.com/rxtech-lab/argo-signal/pkg/errors"
	"go.uber.org/zap"
)

const defaultRecentLimit = 50

// Server serves the HTTP endpoints.
type Server struct {
	metrics *metrics.Recorder
	ledger  cooldown.Ledger
	journal history.Journal
	stream  *Hub
	log     *logger.Logger
	router  *mux.Router

	httpServer *http.Server
	listener   net.Listener
}

// Option configures a Server.
type Option func(*Server)

// WithStream serves the hub on /signals/stream.
func WithStream(hub *Hub) Option {
	return func(s *Server) {
		s.stream = hub
	}
}

// New builds the router. Ledger and journal may be nil, which disables their routes.
func New(recorder *metrics.Recorder, ledger cooldown.Ledger, journal history.Journal, log *logger.Logger, opts ...Option) *Server {
	if log == nil {
		log = logger.NewNopLogger()
	}

	s := &Server{
		metrics: recorder,
		ledger:  ledger,
		journal: journal,
		log:     log.Named("http"),
		router:  mux.NewRouter(),
	}

	for _, opt := range opts {
		opt(s)
	}

	s.router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)

	if recorder != nil {
		s.router.Handle("/metrics", recorder.Handler()).Methods(http.MethodGet)
	}

	if ledger != nil {
		s.router.HandleFunc("/cooldown", s.handleCooldown).Methods(http.MethodGet)
		s.router.HandleFunc("/cooldown/{symbol}", s.handleCooldown).Methods(http.MethodGet)
	}

	if s.stream != nil {
		s.router.Handle("/signals/stream", s.stream).Methods(http.MethodGet)
	}

	if journal != nil {
		s.router.HandleFunc("/signals/{symbol}", s.handleSignals).Methods(http.MethodGet)
		s.router.HandleFunc("/signals/{symbol}/bias/{interval}", s.handleCloseBias).Methods(http.MethodDelete)
	}

	return s
}

// Handler returns the router.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start listens on address and serves in the background.
func (s *Server) Start(address string) error {
	if address == "" {
		address = ":0"
	}

	listener, err := net.Listen("tcp", address)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeInvalidConfiguration, err, "failed to listen on %s", address)
	}

	s.listener = listener
	s.httpServer = &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := s.httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
			s.log.Error("HTTP server stopped", zap.Error(err))
		}
	}()

	s.log.Info("HTTP server listening", zap.String("address", listener.Addr().String()))

	return nil
}

// Address returns the bound address, or "" before Start.
func (s *Server) Address() string {
	if s.listener == nil {
		return ""
	}

	return s.listener.Addr().String()
}

// Shutdown disconnects stream subscribers and stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.stream != nil {
		s.stream.Close()
	}

	if s.httpServer == nil {
		return nil
	}

	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": version.GetVersion(),
	})
}

func (s *Server) handleCooldown(w http.ResponseWriter, r *http.Request) {
	symbol := strings.ToUpper(mux.Vars(r)["symbol"])

	entries, err := s.ledger.Entries(r.Context(), symbol)
	if err != nil {
		s.log.Error("Failed to read cooldown entries", zap.String("symbol", symbol), zap.Error(err))
		s.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to read cooldown ledger"})

		return
	}

	s.writeJSON(w, http.StatusOK, cooldown.Export(entries))
}

func (s *Server) handleSignals(w http.ResponseWriter, r *http.Request) {
	symbol := strings.ToUpper(mux.Vars(r)["symbol"])

	limit := defaultRecentLimit

	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "limit must be a positive integer"})

			return
		}

		limit = n
	}

	entries, err := s.journal.Recent(r.Context(), symbol, limit)
	if err != nil {
		s.log.Error("Failed to read signal journal", zap.String("symbol", symbol), zap.Error(err))
		s.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to read signal journal"})

		return
	}

	if entries == nil {
		entries = []history.Entry{}
	}

	s.writeJSON(w, http.StatusOK, entries)
}

func (s *Server) handleCloseBias(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	symbol := strings.ToUpper(vars["symbol"])

	interval, err := types.ParseInterval(vars["interval"])
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})

		return
	}

	at := time.Now().UTC()

	if err := s.journal.CloseBias(r.Context(), symbol, interval, at); err != nil {
		s.log.Error("Failed to close bias", zap.String("symbol", symbol), zap.String("interval", interval.String()), zap.Error(err))
		s.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to close bias"})

		return
	}

	s.log.Info("Bias closed", zap.String("symbol", symbol), zap.String("interval", interval.String()))

	s.writeJSON(w, http.StatusOK, map[string]string{
		"symbol":    symbol,
		"interval":  interval.String(),
		"closed_at": at.Format(time.RFC3339),
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body any) {
	data, err := sonic.Marshal(body)
	if err != nil {
		s.log.Error("Failed to encode response", zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)

		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if _, err := w.Write(data); err != nil {
		s.log.Debug("Failed to write response", zap.Error(err))
	}
}
