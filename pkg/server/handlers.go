package server

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/yurifrl/vizbuck/pkg/csv"
	"github.com/yurifrl/vizbuck/pkg/importer"
	"github.com/yurifrl/vizbuck/pkg/models"
	"github.com/yurifrl/vizbuck/pkg/rollup"
	"github.com/yurifrl/vizbuck/pkg/ynab"
)

func (s *Server) handleCreateImport(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	file, header, err := r.FormFile("statement")
	if err != nil {
		s.respondError(w, r, http.StatusBadRequest, "statement file required", err)
		return
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		s.respondError(w, r, http.StatusBadRequest, "failed to read file", err)
		return
	}

	var method models.PaymentMethod
	if raw := r.FormValue("payment_method"); raw != "" {
		m, ok := models.ParsePaymentMethod(raw)
		if !ok {
			s.respondError(w, r, http.StatusBadRequest, fmt.Sprintf("unknown payment method %q", raw), nil)
			return
		}
		method = m
	}

	sess, err := importer.NewSession().Begin(header.Filename, method)
	if err != nil {
		s.respondError(w, r, http.StatusInternalServerError, err.Error(), err)
		return
	}
	s.put(sess)

	sess = s.importer.Analyze(r.Context(), sess, data)
	if sess.State == importer.Error {
		s.sessions.Delete(sess.ID)
		s.respondError(w, r, http.StatusUnprocessableEntity, sess.Err, nil)
		return
	}
	s.put(sess)
	s.writeJSON(w, http.StatusCreated, sess)
}

func (s *Server) handleGetImport(w http.ResponseWriter, r *http.Request) {
	e, ok := s.lookup(chi.URLParam(r, "id"))
	if !ok {
		s.respondError(w, r, http.StatusNotFound, "import session not found", nil)
		return
	}
	e.mu.Lock()
	sess := e.s
	e.mu.Unlock()
	s.writeJSON(w, http.StatusOK, sess)
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	e, ok := s.lookup(chi.URLParam(r, "id"))
	if !ok {
		s.respondError(w, r, http.StatusNotFound, "import session not found", nil)
		return
	}
	q := r.URL.Query()
	e.mu.Lock()
	list := e.s.List(importer.Query{
		Search: q.Get("q"),
		Type:   q.Get("type"),
		SortBy: q.Get("sort"),
		Order:  q.Get("order"),
	})
	e.mu.Unlock()
	s.writeJSON(w, http.StatusOK, map[string]any{
		"count":        len(list),
		"transactions": list,
	})
}

func (s *Server) handleAddTransaction(w http.ResponseWriter, r *http.Request) {
	var p importer.Patch
	if !s.decodeJSON(w, r, &p) {
		return
	}
	s.update(w, r, func(sess importer.Session) (importer.Session, error) {
		next, _, err := sess.AddTransaction(p, s.importer.Now())
		return next, err
	})
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	var p importer.Patch
	if !s.decodeJSON(w, r, &p) {
		return
	}
	tempID := chi.URLParam(r, "tempId")
	s.update(w, r, func(sess importer.Session) (importer.Session, error) {
		return sess.UpdateTransaction(tempID, p)
	})
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	tempID := chi.URLParam(r, "tempId")
	s.update(w, r, func(sess importer.Session) (importer.Session, error) {
		return sess.DeleteTransaction(tempID)
	})
}

type bulkEditRequest struct {
	IDs   []string       `json:"ids"`
	Patch importer.Patch `json:"patch"`
}

func (s *Server) handleBulkEdit(w http.ResponseWriter, r *http.Request) {
	var req bulkEditRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	s.update(w, r, func(sess importer.Session) (importer.Session, error) {
		return sess.BulkUpdate(req.IDs, req.Patch)
	})
}

type amountRequest struct {
	Amount *float64 `json:"amount"`
}

func (s *Server) decodeAmount(w http.ResponseWriter, r *http.Request) (float64, bool) {
	var req amountRequest
	if !s.decodeJSON(w, r, &req) {
		return 0, false
	}
	if req.Amount == nil {
		s.respondError(w, r, http.StatusBadRequest, "amount required", nil)
		return 0, false
	}
	return *req.Amount, true
}

func (s *Server) handleOpeningBalance(w http.ResponseWriter, r *http.Request) {
	v, ok := s.decodeAmount(w, r)
	if !ok {
		return
	}
	s.update(w, r, func(sess importer.Session) (importer.Session, error) {
		return sess.SetOpeningBalance(v)
	})
}

func (s *Server) handleSetOverride(w http.ResponseWriter, r *http.Request) {
	v, ok := s.decodeAmount(w, r)
	if !ok {
		return
	}
	key := chi.URLParam(r, "monthKey")
	s.update(w, r, func(sess importer.Session) (importer.Session, error) {
		return sess.SetOverride(key, v)
	})
}

func (s *Server) handleClearOverride(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "monthKey")
	s.update(w, r, func(sess importer.Session) (importer.Session, error) {
		return sess.ClearOverride(key)
	})
}

func (s *Server) handleCommit(w http.ResponseWriter, r *http.Request) {
	var t importer.Target
	if !s.decodeJSON(w, r, &t) {
		return
	}
	if t.AssetID == "new" || (t.AssetID == "" && t.NewAssetName != "") {
		t.AssetID = ""
		t.New = true
	}
	s.update(w, r, func(sess importer.Session) (importer.Session, error) {
		return s.importer.Commit(r.Context(), sess, t)
	})
}

func (s *Server) handleCSV(w http.ResponseWriter, r *http.Request) {
	e, ok := s.lookup(chi.URLParam(r, "id"))
	if !ok {
		s.respondError(w, r, http.StatusNotFound, "import session not found", nil)
		return
	}
	e.mu.Lock()
	sess := e.s
	e.mu.Unlock()

	data, err := csv.Create(sess.Transactions, csv.Review, nil)
	if err != nil {
		s.respondError(w, r, http.StatusInternalServerError, "failed to build csv", err)
		return
	}
	filename := strings.TrimSuffix(sess.Filename, filepath.Ext(sess.Filename)) + "-review.csv"
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	if _, err := w.Write(data); err != nil {
		s.logger.Warn("failed to write csv response", "err", err)
	}
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	now := s.importer.Now()
	year, month := now.Year(), now.Month()

	if raw := r.URL.Query().Get("year"); raw != "" {
		y, err := strconv.Atoi(raw)
		if err != nil {
			s.respondError(w, r, http.StatusBadRequest, "invalid year", err)
			return
		}
		year = y
	}
	if raw := r.URL.Query().Get("month"); raw != "" {
		m, err := rollup.ParseMonth(raw)
		if err != nil {
			s.respondError(w, r, http.StatusBadRequest, "invalid month", err)
			return
		}
		month = m
	}

	ledger, err := s.importer.Store().Load(r.Context())
	if err != nil {
		s.respondError(w, r, http.StatusInternalServerError, "failed to load ledger", err)
		return
	}
	s.writeJSON(w, http.StatusOK, rollup.Dashboard(year, month, ledger.Assets, ledger.Transactions))
}

func (s *Server) handleYears(w http.ResponseWriter, r *http.Request) {
	ledger, err := s.importer.Store().Load(r.Context())
	if err != nil {
		s.respondError(w, r, http.StatusInternalServerError, "failed to load ledger", err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"years": rollup.Years(ledger.Transactions, s.importer.Now())})
}

// --- YNAB lookups used to pick a sync target ---

func (s *Server) handleBudgets(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		s.respondError(w, r, http.StatusBadRequest, "token required", nil)
		return
	}

	budgets, err := ynab.New(token).Budget().GetBudgets()
	if err != nil {
		s.respondError(w, r, http.StatusBadGateway, "failed to fetch budgets", err)
		return
	}
	s.logger.Info("budgets response", "budgets_count", len(budgets))
	s.writeJSON(w, http.StatusOK, map[string]any{
		"status":  "success",
		"budgets": budgets,
	})
}

func (s *Server) handleBudgetAccounts(w http.ResponseWriter, r *http.Request) {
	budgetID := chi.URLParam(r, "budgetId")
	token := r.URL.Query().Get("token")
	if token == "" {
		s.respondError(w, r, http.StatusBadRequest, "token required", nil)
		return
	}

	snapshot, err := ynab.New(token).Account().GetAccounts(budgetID, nil)
	if err != nil {
		s.respondError(w, r, http.StatusBadGateway, "failed to fetch accounts", err)
		return
	}
	if snapshot == nil {
		s.respondError(w, r, http.StatusBadGateway, "failed to fetch accounts", errors.New("empty response"))
		return
	}
	s.logger.Info("accounts response", "budget_id", budgetID, "accounts_count", len(snapshot.Accounts))
	s.writeJSON(w, http.StatusOK, map[string]any{
		"status":   "success",
		"accounts": snapshot.Accounts,
	})
}
