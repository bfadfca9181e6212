package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/NYTimes/gziphandler"
	"github.com/levenlabs/go-lflag"
	"github.com/raterudder/essent/pkg/essent"
	"github.com/raterudder/essent/pkg/log"
	"github.com/raterudder/essent/pkg/types"
)

// Meter is the part of *essent.Client the server needs.
type Meter interface {
	Login(ctx context.Context) error
	EANs(ctx context.Context) ([]string, error)
	ReadMeter(ctx context.Context, ean string, opts essent.ReadingOptions) (types.MeterInfo, error)
}

// Server exposes an Essent account's metering points and readings as JSON.
type Server struct {
	// mu serializes access to meter which holds a single session
	mu    sync.Mutex
	meter Meter

	listenAddr string
	httpServer *http.Server
}

// Configured initializes the Server with the meter it serves.
// It uses lflag to register command-line flags for configuration.
func Configured(m Meter) *Server {
	srv := &Server{
		meter: m,
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	listenAddr := lflag.String("http-listen", ":"+port, "HTTP server listen address")

	lflag.Do(func() {
		srv.listenAddr = *listenAddr
	})

	return srv
}

func (s *Server) setupHandler() http.Handler {
	apiMux := http.NewServeMux()
	apiMux.HandleFunc("GET /api/eans", s.handleEANs)
	apiMux.HandleFunc("GET /api/readings", s.handleReadings)

	mux := http.NewServeMux()
	mux.Handle("/api/", apiMux)
	mux.HandleFunc("/healthz", s.handleHealthz)
	return gziphandler.GzipHandler(s.securityHeadersMiddleware(mux))
}

// Run logs in, starts the HTTP server and blocks until the context is
// canceled or an error occurs.
func (s *Server) Run(ctx context.Context) error {
	s.mu.Lock()
	err := s.meter.Login(ctx)
	s.mu.Unlock()
	if err != nil {
		return fmt.Errorf("essent login failed: %w", err)
	}

	s.httpServer = &http.Server{
		Addr:         s.listenAddr,
		Handler:      s.setupHandler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 2 * time.Minute,
		IdleTimeout:  15 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		defer close(errChan)
		log.Ctx(ctx).InfoContext(ctx, "starting server", slog.String("addr", s.listenAddr))
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Ctx(ctx).InfoContext(ctx, "shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown failed: %w", err)
		}
		return nil
	case err := <-errChan:
		return fmt.Errorf("server error: %w", err)
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		panic(http.ErrAbortHandler)
	}
}

func writeJSONError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(struct {
		Error string `json:"error"`
	}{Error: msg}); err != nil {
		slog.Warn("failed to write error response", slog.Any("error", err))
		panic(http.ErrAbortHandler)
	}
}

// withSession calls fn while holding the session lock. If Essent rejected the
// session, it logs in again and calls fn one more time.
func (s *Server) withSession(ctx context.Context, fn func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := fn()
	if !sessionExpired(err) {
		return err
	}
	log.Ctx(ctx).InfoContext(ctx, "essent session rejected, logging in again", slog.Any("error", err))
	if lerr := s.meter.Login(ctx); lerr != nil {
		return fmt.Errorf("essent login failed: %w", lerr)
	}
	return fn()
}

func sessionExpired(err error) bool {
	return essent.IsStatus(err, http.StatusUnauthorized) || essent.IsStatus(err, http.StatusForbidden)
}

// upstreamStatus maps an essent error onto the status returned to callers.
func upstreamStatus(err error) int {
	if sessionExpired(err) {
		return http.StatusServiceUnavailable
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return http.StatusGatewayTimeout
	}
	return http.StatusBadGateway
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("ok")); err != nil {
		panic(http.ErrAbortHandler)
	}
}
