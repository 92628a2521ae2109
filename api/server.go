package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/lightlink-network/ll-bridge-validator/controller"
	"github.com/lightlink-network/ll-bridge-validator/database/models"
	"github.com/lightlink-network/ll-bridge-validator/metrics"
)

// Controller is the operator view of the event controller.
type Controller interface {
	Stats() controller.Stats
	Pause(ctx context.Context) error
	Resume(ctx context.Context) error
	Stop(ctx context.Context) error
}

type DispatchStore interface {
	GetDispatches(ctx context.Context, filter models.Filter, page int64, pageSize int64) (*models.PaginatedResult, error)
}

// API server
type Server struct {
	r          chi.Router
	log        *slog.Logger
	controller Controller
	dispatches DispatchStore
	ledger     Ledger
	metrics    *metrics.Metrics
	opts       ServerOpts
}

type ServerOpts struct {
	Logger     *slog.Logger
	Port       string
	Controller Controller
	Dispatches DispatchStore // optional
	Ledger     Ledger        // optional, enables /v1/ledger
	Metrics    *metrics.Metrics
}

// Create API server
func NewServer(opts ServerOpts) (*Server, error) {
	if opts.Controller == nil {
		return nil, errors.New("api server needs a controller")
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	s := &Server{
		log:        opts.Logger.With("component", "api"),
		controller: opts.Controller,
		dispatches: opts.Dispatches,
		ledger:     opts.Ledger,
		metrics:    opts.Metrics,
		opts:       opts,
	}
	s.routes()

	return s, nil
}

// Start serves HTTP until ctx is done, then shuts the listener down.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:              ":" + s.opts.Port,
		Handler:           s.r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		s.log.Info("📡 Server Started. API Server is now listening on http://localhost:" + s.opts.Port)
		errChan <- srv.ListenAndServe()
	}()

	select {
	case err := <-errChan:
		return fmt.Errorf("api server error: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down api server: %w", err)
	}
	s.log.Info("api server stopped")

	return nil
}

// Turns server into http server
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.r.ServeHTTP(w, r)
}

// Returns JSON response to the API user. HTTP status code
// and data must be provided
func JSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.WriteHeader(statusCode)
	err := json.NewEncoder(w).Encode(data)
	if err != nil {
		fmt.Fprintf(w, "%s", err.Error())
	}
}

// Returns an error to the API user
func ERROR(w http.ResponseWriter, statusCode int, err error) {
	w.WriteHeader(statusCode)
	err = json.NewEncoder(w).Encode(map[string]interface{}{"error": err.Error()})
	if err != nil {
		fmt.Fprintf(w, "%s", err.Error())
	}
}
