package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/yurifrl/vizbuck/pkg/importer"
	"github.com/yurifrl/vizbuck/pkg/parser"
	"github.com/yurifrl/vizbuck/pkg/telemetry"
)

const maxUploadBytes = 20 << 20

// Server handles the import review API and the dashboard.
type Server struct {
	logger   *log.Logger
	importer *importer.Importer
	metrics  *telemetry.Metrics
	sessions sync.Map // id -> *entry
}

// entry serializes edits to one session; snapshots themselves are immutable.
type entry struct {
	mu sync.Mutex
	s  importer.Session
}

func New(logger *log.Logger, im *importer.Importer, metrics *telemetry.Metrics) *Server {
	return &Server{
		logger:   logger,
		importer: im,
		metrics:  metrics,
	}
}

// Handler returns the router with every route mounted.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.withLogging)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if s.metrics != nil {
		r.Handle("/metrics", s.metrics.Handler())
	}

	r.Route("/api", func(r chi.Router) {
		r.Post("/imports", s.handleCreateImport)
		r.Route("/imports/{id}", func(r chi.Router) {
			r.Get("/", s.handleGetImport)
			r.Get("/transactions", s.handleListTransactions)
			r.Post("/transactions", s.handleAddTransaction)
			r.Patch("/transactions/{tempId}", s.handleUpdateTransaction)
			r.Delete("/transactions/{tempId}", s.handleDeleteTransaction)
			r.Post("/bulk-edit", s.handleBulkEdit)
			r.Patch("/opening-balance", s.handleOpeningBalance)
			r.Put("/overrides/{monthKey}", s.handleSetOverride)
			r.Delete("/overrides/{monthKey}", s.handleClearOverride)
			r.Post("/commit", s.handleCommit)
			r.Get("/csv", s.handleCSV)
		})

		r.Get("/dashboard", s.handleDashboard)
		r.Get("/years", s.handleYears)

		r.Get("/ynab/budgets", s.handleBudgets)
		r.Get("/ynab/budgets/{budgetId}/accounts", s.handleBudgetAccounts)
	})
	return r
}

// Start serves until ctx is cancelled, then drains in-flight requests.
func (s *Server) Start(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("starting server", "addr", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}
	return nil
}

// --- session helpers ---

func (s *Server) put(sess importer.Session) {
	s.sessions.Store(sess.ID, &entry{s: sess})
}

func (s *Server) lookup(id string) (*entry, bool) {
	v, ok := s.sessions.Load(id)
	if !ok {
		return nil, false
	}
	return v.(*entry), true
}

// update runs fn against the current snapshot of a session and swaps in the
// result when fn succeeds.
func (s *Server) update(w http.ResponseWriter, r *http.Request, fn func(importer.Session) (importer.Session, error)) {
	e, ok := s.lookup(chi.URLParam(r, "id"))
	if !ok {
		s.respondError(w, r, http.StatusNotFound, "import session not found", nil)
		return
	}

	e.mu.Lock()
	next, err := fn(e.s)
	if err == nil {
		e.s = next
	}
	e.mu.Unlock()

	if err != nil {
		s.respondError(w, r, errStatus(err), err.Error(), err)
		return
	}
	s.writeJSON(w, http.StatusOK, next)
}

func errStatus(err error) int {
	switch {
	case errors.Is(err, parser.ErrEmptySheet),
		errors.Is(err, parser.ErrNoHeader),
		errors.Is(err, parser.ErrNoTransactions):
		return http.StatusUnprocessableEntity
	case errors.Is(err, importer.ErrUnknownTransaction):
		return http.StatusNotFound
	case errors.Is(err, importer.ErrInvalidTransition):
		return http.StatusConflict
	case errors.Is(err, importer.ErrInvalidEdit),
		errors.Is(err, importer.ErrNoTarget),
		errors.Is(err, importer.ErrMissingAssetName),
		errors.Is(err, importer.ErrUnknownAsset),
		errors.Is(err, importer.ErrEmptyImport):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// --- helpers ---

// writeJSON encodes v as JSON with the given status and writes headers.
func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("failed to write json response", "err", err)
	}
}

func (s *Server) decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		s.respondError(w, r, http.StatusBadRequest, "invalid request body", err)
		return false
	}
	return true
}

// respondError logs the error and returns a minimal JSON error body.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, status int, message string, err error) {
	if err != nil {
		s.logger.Warn("request error", "status", status, "msg", message, "err", err, "method", r.Method, "path", r.URL.Path)
	} else {
		s.logger.Warn("request error", "status", status, "msg", message, "method", r.Method, "path", r.URL.Path)
	}
	s.writeJSON(w, status, map[string]string{
		"status": "error",
		"error":  message,
	})
}

func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}
