package server

import (
	"encoding/json"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/tmakino/ledgerlens/internal/finance"
	"github.com/tmakino/ledgerlens/internal/models"
	"github.com/tmakino/ledgerlens/internal/router"
)

const maxUploadBytes = 64 << 20

// handleUploadDocument accepts a multipart upload under field "file", stores
// it, and loads it into the session.
func (s *Server) handleUploadDocument(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "file field is required")
		return
	}
	defer file.Close()

	if err := os.MkdirAll(s.uploadDir, 0755); err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	name := filepath.Base(header.Filename)
	path := filepath.Join(s.uploadDir, name)
	dst, err := os.Create(path)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if _, err := io.Copy(dst, file); err != nil {
		dst.Close()
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	dst.Close()

	s.logger.Debug("upload request", zap.String("name", name))
	if err := s.session.LoadFile(r.Context(), path); err != nil {
		s.logger.Error("document load failed", zap.Error(err))
		s.respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	s.respondJSON(w, http.StatusCreated, s.session.Status())
}

type askRequest struct {
	Question string `json:"question"`
}

type askResponse struct {
	Answer  string `json:"answer"`
	UsedLLM bool   `json:"used_llm"`
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	var req askRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Question == "" {
		s.respondError(w, http.StatusBadRequest, "question is required")
		return
	}
	s.logger.Debug("ask request", zap.String("question", req.Question))

	answer, usedLLM, err := s.session.Ask(r.Context(), req.Question)
	if err != nil {
		s.logger.Error("ask failed", zap.Error(err))
		s.respondError(w, http.StatusConflict, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, askResponse{Answer: answer, UsedLLM: usedLLM})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	turns := s.session.History()
	if turns == nil {
		turns = []models.ChatTurn{}
	}
	s.respondJSON(w, http.StatusOK, map[string]any{"history": turns})
}

type financeResponse struct {
	Table   tableInfo       `json:"table"`
	Totals  finance.Totals  `json:"totals"`
	Summary finance.Summary `json:"summary"`
}

type tableInfo struct {
	DatetimeColumn string `json:"datetime_column"`
	AmountColumn   string `json:"amount_column"`
	CategoryColumn string `json:"category_column,omitempty"`
	Rows           int    `json:"rows"`
}

func (s *Server) handleFinance(w http.ResponseWriter, r *http.Request) {
	tbl := s.session.Table()
	if tbl == nil {
		s.respondError(w, http.StatusNotFound, "no transaction table detected in the loaded document")
		return
	}
	s.respondJSON(w, http.StatusOK, financeResponse{
		Table: tableInfo{
			DatetimeColumn: tbl.DatetimeColumn,
			AmountColumn:   tbl.AmountColumn,
			CategoryColumn: tbl.CategoryColumn,
			Rows:           len(tbl.Rows),
		},
		Totals:  tbl.ComputeTotals(),
		Summary: tbl.ComputeSummary(),
	})
}

func (s *Server) handleFinanceAggregate(w http.ResponseWriter, r *http.Request) {
	tbl := s.session.Table()
	if tbl == nil {
		s.respondError(w, http.StatusNotFound, "no transaction table detected in the loaded document")
		return
	}
	freq := finance.Frequency(r.URL.Query().Get("freq"))
	if freq == "" {
		freq = finance.FreqDay
	}
	buckets, err := tbl.Aggregate(freq)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if buckets == nil {
		buckets = []finance.TimeBucket{}
	}
	s.respondJSON(w, http.StatusOK, map[string]any{"freq": freq, "buckets": buckets})
}

type financeQueryRequest struct {
	Query string `json:"query"`
}

type chartPayload struct {
	Kind    models.ChartKind         `json:"kind"`
	Title   string                   `json:"title"`
	Slices  []finance.BreakdownSlice `json:"slices,omitempty"`
	Buckets []finance.TimeBucket     `json:"buckets,omitempty"`
	Note    string                   `json:"note,omitempty"`
}

type financeQueryResponse struct {
	Intent      models.Intent   `json:"intent"`
	Summary     finance.Summary `json:"summary"`
	Chart       *chartPayload   `json:"chart,omitempty"`
	TopIncome   []finance.Row   `json:"top_income,omitempty"`
	TopExpenses []finance.Row   `json:"top_expenses,omitempty"`
}

// handleFinanceQuery interprets a free-text finance request and returns the
// matching chart data alongside the summary.
func (s *Server) handleFinanceQuery(w http.ResponseWriter, r *http.Request) {
	tbl := s.session.Table()
	if tbl == nil {
		s.respondError(w, http.StatusNotFound, "no transaction table detected in the loaded document")
		return
	}
	var req financeQueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Query == "" {
		s.respondError(w, http.StatusBadRequest, "query is required")
		return
	}

	intent := router.ParseFinanceRequest(req.Query)
	s.logger.Debug("finance query",
		zap.String("query", req.Query),
		zap.String("chart", string(intent.Chart)),
		zap.String("group", string(intent.Group)))

	resp := financeQueryResponse{
		Intent:  intent,
		Summary: tbl.ComputeSummary(),
	}
	if router.WantsTopTransactions(req.Query) {
		resp.TopIncome, resp.TopExpenses = tbl.TopTransactions(10)
	}
	resp.Chart = buildChart(tbl, intent)
	s.respondJSON(w, http.StatusOK, resp)
}

func buildChart(tbl *finance.Table, intent models.Intent) *chartPayload {
	switch intent.Chart {
	case models.ChartBar:
		if intent.Group == models.GroupCategory {
			if tbl.CategoryColumn == "" {
				return &chartPayload{Kind: models.ChartBar, Note: "no category column detected to build a category bar chart"}
			}
			slices, title := tbl.CategoryBreakdown(0)
			return &chartPayload{Kind: models.ChartBar, Title: title, Slices: slices}
		}
		return timeChart(tbl, models.ChartBar, intent.Group)
	case models.ChartPie:
		slices, title := tbl.PieBreakdown(0)
		return &chartPayload{Kind: models.ChartPie, Title: title, Slices: slices}
	case models.ChartLine:
		return timeChart(tbl, models.ChartLine, intent.Group)
	default:
		return nil
	}
}

func timeChart(tbl *finance.Table, kind models.ChartKind, group models.GroupKind) *chartPayload {
	freq := finance.FrequencyForGroup(group)
	buckets, err := tbl.Aggregate(freq)
	if err != nil {
		return &chartPayload{Kind: kind, Note: err.Error()}
	}
	return &chartPayload{
		Kind:    kind,
		Title:   "Total amount (" + string(freq) + ")",
		Buckets: buckets,
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	resp := map[string]any{"session": s.session.Status()}
	if s.storage != nil {
		if count, err := s.storage.CountDocuments(r.Context()); err == nil {
			resp["documents"] = count
		}
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
