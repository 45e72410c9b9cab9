package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rewired-gh/auctionledger/internal/ledger"
	"github.com/rewired-gh/auctionledger/internal/logger"
	"github.com/rewired-gh/auctionledger/internal/metrics"
	"github.com/rewired-gh/auctionledger/internal/models"
	"github.com/rewired-gh/auctionledger/internal/reconcile"
	"github.com/rewired-gh/auctionledger/internal/sheets"
)

type handler struct {
	reports Reports
	ledger  *ledger.Ledger
}

// settlementView adds ledger progress to a settlement.
type settlementView struct {
	models.Settlement
	Totals    settlementTotals    `json:"totals"`
	Fulfilled map[string][]string `json:"fulfilled"`
}

type settlementTotals struct {
	PayIn           int64 `json:"pay_in"`
	PayOut          int64 `json:"pay_out"`
	RemainingPayIn  int64 `json:"remaining_pay_in"`
	RemainingPayOut int64 `json:"remaining_pay_out"`
}

type toggleRequest struct {
	WindowID      string `json:"window_id" binding:"required"`
	Direction     string `json:"direction" binding:"required"`
	ParticipantID string `json:"participant_id" binding:"required"`
}

// parseWindow reads ?date=YYYY-MM-DD or ?from=..&to=.. from the query.
// The second return value is false when neither form is present.
func parseWindow(c *gin.Context) (models.Window, bool, error) {
	if d := c.Query("date"); d != "" {
		day, err := time.Parse(models.DateLayout, d)
		if err != nil {
			return models.Window{}, true, models.ErrInvalidWindow
		}
		return models.SingleDay(day), true, nil
	}

	from, to := c.Query("from"), c.Query("to")
	if from == "" && to == "" {
		return models.Window{}, false, nil
	}
	f, errFrom := time.Parse(models.DateLayout, from)
	t, errTo := time.Parse(models.DateLayout, to)
	if errFrom != nil || errTo != nil {
		return models.Window{}, true, models.ErrInvalidWindow
	}
	w, err := models.DateRange(f, t)
	return w, true, err
}

// requireWindow is parseWindow for endpoints that cannot run without a window.
func requireWindow(c *gin.Context) (models.Window, bool) {
	w, present, err := parseWindow(c)
	if err != nil {
		respondError(c, http.StatusBadRequest, "ERR_INVALID_WINDOW", err.Error())
		return models.Window{}, false
	}
	if !present {
		respondError(c, http.StatusBadRequest, "ERR_INVALID_WINDOW", "date or from/to is required")
		return models.Window{}, false
	}
	return w, true
}

func respondReportError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, sheets.ErrSourceUnavailable):
		logger.Warn("Snapshot unavailable: %v", err)
		respondError(c, http.StatusBadGateway, "ERR_SOURCE_UNAVAILABLE", "transaction source is unavailable")
	case errors.Is(err, reconcile.ErrUnknownParticipant):
		respondError(c, http.StatusNotFound, "ERR_UNKNOWN_PARTICIPANT", err.Error())
	default:
		logger.Error("Report failed: %v", err)
		respondError(c, http.StatusInternalServerError, "ERR_INTERNAL", "could not compute report")
	}
}

// GET /health
func (h *handler) health(c *gin.Context) {
	lastLoad, lastErr := h.reports.LastLoad()
	body := gin.H{"status": "ok", "session": h.ledger.Session()}
	if !lastLoad.IsZero() {
		body["last_load"] = lastLoad
	}
	if lastErr != nil {
		body["status"] = "degraded"
		body["last_error"] = lastErr.Error()
	}
	c.JSON(http.StatusOK, body)
}

// GET /api/dates
func (h *handler) dates(c *gin.Context) {
	dates, err := h.reports.Dates(c.Request.Context())
	if err != nil {
		respondReportError(c, err)
		return
	}
	out := make([]string, len(dates))
	for i, d := range dates {
		out[i] = d.Format(models.DateLayout)
	}
	respondSuccess(c, http.StatusOK, out)
}

// GET /api/settlements?date=2024-05-01&sort=amount
func (h *handler) settlement(c *gin.Context) {
	w, ok := requireWindow(c)
	if !ok {
		return
	}
	result, err := h.reports.Settle(c.Request.Context(), w, c.Query("sort") == "amount")
	if err != nil {
		respondReportError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, h.view(result))
}

func (h *handler) view(s models.Settlement) settlementView {
	return settlementView{
		Settlement: s,
		Totals: settlementTotals{
			PayIn:           s.TotalPayIn(),
			PayOut:          s.TotalPayOut(),
			RemainingPayIn:  h.ledger.Remaining(s.Window.ID, models.DirectionCollect, s.PayIn),
			RemainingPayOut: h.ledger.Remaining(s.Window.ID, models.DirectionPayout, s.PayOut),
		},
		Fulfilled: map[string][]string{
			string(models.DirectionCollect): h.ledger.Fulfilled(s.Window.ID, models.DirectionCollect),
			string(models.DirectionPayout):  h.ledger.Fulfilled(s.Window.ID, models.DirectionPayout),
		},
	}
}

// GET /api/participants?date=2024-05-01
func (h *handler) participants(c *gin.Context) {
	w, ok := requireWindow(c)
	if !ok {
		return
	}
	ids, err := h.reports.Participants(c.Request.Context(), w)
	if err != nil {
		respondReportError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, ids)
}

// GET /api/statements/:participant?date=2024-05-01
func (h *handler) statement(c *gin.Context) {
	w, ok := requireWindow(c)
	if !ok {
		return
	}
	st, err := h.reports.Statement(c.Request.Context(), w, c.Param("participant"))
	if err != nil {
		respondReportError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, st)
}

// GET /api/hours?date=2024-05-01, or all history without a window
func (h *handler) hours(c *gin.Context) {
	w, present, err := parseWindow(c)
	if err != nil {
		respondError(c, http.StatusBadRequest, "ERR_INVALID_WINDOW", err.Error())
		return
	}
	var wp *models.Window
	if present {
		wp = &w
	}
	report, err := h.reports.Hours(c.Request.Context(), wp)
	if err != nil {
		respondReportError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, report)
}

// GET /api/vip
func (h *handler) vip(c *gin.Context) {
	standings, err := h.reports.VIP(c.Request.Context())
	if err != nil {
		respondReportError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, standings)
}

// POST /api/ledger/toggle
func (h *handler) toggle(c *gin.Context) {
	var req toggleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "ERR_INVALID_BODY", err.Error())
		return
	}
	dir, err := models.ParseDirection(req.Direction)
	if err != nil {
		respondError(c, http.StatusBadRequest, "ERR_INVALID_DIRECTION", err.Error())
		return
	}
	key := models.FulfillmentKey{WindowID: req.WindowID, Direction: dir, ParticipantID: req.ParticipantID}

	fulfilled, err := h.ledger.Toggle(key)
	if err != nil {
		if errors.Is(err, models.ErrInvalidKey) {
			respondError(c, http.StatusBadRequest, "ERR_INVALID_KEY", err.Error())
			return
		}
		logger.Error("Ledger toggle failed: %v", err)
		respondError(c, http.StatusInternalServerError, "ERR_INTERNAL", "could not record toggle")
		return
	}

	state := "unfulfilled"
	if fulfilled {
		state = "fulfilled"
	}
	metrics.LedgerToggles.WithLabelValues(string(dir), state).Inc()
	respondSuccess(c, http.StatusOK, gin.H{
		"window_id":      key.WindowID,
		"direction":      key.Direction,
		"participant_id": key.ParticipantID,
		"fulfilled":      fulfilled,
	})
}

// GET /api/ledger/remaining?date=2024-05-01
func (h *handler) remaining(c *gin.Context) {
	w, ok := requireWindow(c)
	if !ok {
		return
	}
	result, err := h.reports.Settle(c.Request.Context(), w, false)
	if err != nil {
		respondReportError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, h.view(result).Totals)
}

// DELETE /api/ledger/windows/:window
func (h *handler) resetWindow(c *gin.Context) {
	windowID := c.Param("window")
	if err := h.ledger.ResetWindow(windowID); err != nil {
		logger.Error("Ledger reset failed: %v", err)
		respondError(c, http.StatusInternalServerError, "ERR_INTERNAL", "could not reset window")
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"window_id": windowID})
}
