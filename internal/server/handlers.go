package server

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Veraticus/loanbot/internal/analytics"
	"github.com/Veraticus/loanbot/internal/chat"
	"github.com/Veraticus/loanbot/internal/common"
	"github.com/Veraticus/loanbot/internal/model"
	"github.com/Veraticus/loanbot/internal/redact"
	"github.com/Veraticus/loanbot/internal/service"
)

const defaultHistoryDays = 7

var errStatsDisabled = errors.New("statistics storage is not configured")

type sessionResponse struct {
	StartedAt time.Time `json:"started_at"`
	SessionID string    `json:"session_id"`
	Greeting  string    `json:"greeting"`
}

type sessionStateResponse struct {
	Record     model.FinancialRecord `json:"record"`
	Evaluation model.Decision        `json:"evaluation"`
	Metrics    model.MetricsSnapshot `json:"metrics"`
	StartedAt  time.Time             `json:"started_at"`
	SessionID  string                `json:"session_id"`
	Missing    []model.Field         `json:"missing_fields"`
}

type messageRequest struct {
	Message string `json:"message"`
}

type messageResponse struct {
	Decision  *model.Decision `json:"decision,omitempty"`
	SessionID string          `json:"session_id"`
	Reply     string          `json:"reply"`
	Entities  []string        `json:"entities"`
	PII       []string        `json:"pii_detected"`
	Turn      int             `json:"turn"`
	Degraded  bool            `json:"degraded"`
}

type redactRequest struct {
	Text string `json:"text"`
}

type redactResponse struct {
	Masked   string          `json:"masked"`
	Metadata redact.Metadata `json:"metadata"`
}

// evaluateRequest carries a record supplied outside of a conversation.
// Enumerations are accepted in any case and with spaces or hyphens.
type evaluateRequest struct {
	GrossMonthlyIncome *float64 `json:"gross_monthly_income"`
	TotalMonthlyDebt   *float64 `json:"total_monthly_debt"`
	LoanAmount         *float64 `json:"loan_amount"`
	EmploymentStatus   string   `json:"employment_status"`
	CreditScoreRange   string   `json:"credit_score_range"`
}

func (req evaluateRequest) record() (model.FinancialRecord, error) {
	rec := model.FinancialRecord{
		GrossMonthlyIncome: req.GrossMonthlyIncome,
		TotalMonthlyDebt:   req.TotalMonthlyDebt,
		LoanAmount:         req.LoanAmount,
	}
	for name, v := range map[string]*float64{
		"gross_monthly_income": req.GrossMonthlyIncome,
		"total_monthly_debt":   req.TotalMonthlyDebt,
		"loan_amount":          req.LoanAmount,
	} {
		if v != nil && *v < 0 {
			return rec, fmt.Errorf("%w: %s must not be negative", errBadRequest, name)
		}
	}
	if strings.TrimSpace(req.EmploymentStatus) != "" {
		status, err := model.ParseEmploymentStatus(req.EmploymentStatus)
		if err != nil {
			return rec, errors.Join(errBadRequest, err)
		}
		rec.EmploymentStatus = &status
	}
	if strings.TrimSpace(req.CreditScoreRange) != "" {
		credit, err := model.ParseCreditScoreRange(req.CreditScoreRange)
		if err != nil {
			return rec, errors.Join(errBadRequest, err)
		}
		rec.CreditScoreRange = &credit
	}
	return rec, nil
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"sessions": s.sessions.Len(),
	})
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	c, err := s.bot.Start(r.Context())
	if err != nil {
		s.logger.Error("Failed to start conversation", "error", err)
		writeError(w, err)
		return
	}
	s.sessions.Add(c)
	writeJSON(w, http.StatusCreated, sessionResponse{
		SessionID: c.ID(),
		Greeting:  c.Greeting(),
		StartedAt: c.StartedAt(),
	})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	c, err := s.sessions.Get(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	record := c.Record()
	writeJSON(w, http.StatusOK, sessionStateResponse{
		SessionID:  c.ID(),
		StartedAt:  c.StartedAt(),
		Record:     record,
		Missing:    record.Missing(),
		Evaluation: c.Evaluate(),
		Metrics:    c.Snapshot(),
	})
}

func (s *Server) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	c, err := s.sessions.Get(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}

	req, err := decodeJSON[messageRequest](w, r)
	if err != nil {
		writeError(w, err)
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		writeError(w, fmt.Errorf("%w: message is required", errBadRequest))
		return
	}

	reply, err := c.Send(r.Context(), req.Message)
	if err != nil {
		writeError(w, err)
		return
	}

	entities := reply.Labels
	if entities == nil {
		entities = []string{}
	}
	writeJSON(w, http.StatusOK, messageResponse{
		SessionID: c.ID(),
		Reply:     reply.Text,
		Turn:      reply.Turn,
		Entities:  entities,
		PII:       reply.Redacted.CategoryNames(),
		Degraded:  reply.Degraded,
		Decision:  reply.Decision,
	})
}

func (s *Server) handleResetSession(w http.ResponseWriter, r *http.Request) {
	c, err := s.sessions.Reset(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if !errors.Is(err, common.ErrNotFound) && !errors.Is(err, chat.ErrClosed) {
			err = common.NewUserError("could not start a new conversation", err)
		}
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{
		SessionID: c.ID(),
		Greeting:  c.Greeting(),
		StartedAt: c.StartedAt(),
	})
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.sessions.Remove(chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRedact(w http.ResponseWriter, r *http.Request) {
	req, err := decodeJSON[redactRequest](w, r)
	if err != nil {
		writeError(w, err)
		return
	}
	masked, meta := redact.Mask(req.Text)
	if meta.Categories == nil {
		meta.Categories = []redact.Category{}
	}
	writeJSON(w, http.StatusOK, redactResponse{Masked: masked, Metadata: meta})
}

func (s *Server) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	req, err := decodeJSON[evaluateRequest](w, r)
	if err != nil {
		writeError(w, err)
		return
	}
	rec, err := req.record()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.bot.Engine().Evaluate(rec))
}

func (s *Server) handleDailyStats(w http.ResponseWriter, r *http.Request) {
	if s.stats == nil {
		writeError(w, errStatsDisabled)
		return
	}

	day := s.now()
	if raw := r.URL.Query().Get("date"); raw != "" {
		parsed, err := time.Parse(time.DateOnly, raw)
		if err != nil {
			writeError(w, fmt.Errorf("%w: date must be YYYY-MM-DD", errBadRequest))
			return
		}
		day = parsed
	}

	stats, err := s.stats.DailyStatistics(r.Context(), day)
	if err != nil {
		s.logger.Error("Failed to compute daily statistics", "date", day.Format(time.DateOnly), "error", err)
		writeError(w, common.NewUserError("could not compute daily statistics", err))
		return
	}

	if r.URL.Query().Get("format") == "text" {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(analytics.Report(*stats)))
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.stats == nil {
		writeError(w, errStatsDisabled)
		return
	}

	days := defaultHistoryDays
	if raw := r.URL.Query().Get("days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, fmt.Errorf("%w: days must be a positive integer", errBadRequest))
			return
		}
		days = n
	}

	history, err := s.stats.HistoricalStats(r.Context(), days)
	if err != nil {
		s.logger.Error("Failed to load statistics history", "days", days, "error", err)
		writeError(w, common.NewUserError("could not load statistics history", err))
		return
	}
	if history == nil {
		history = []service.DailyStats{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"days": days, "stats": history})
}
