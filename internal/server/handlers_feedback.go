package server

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/bobmcallan/sift/internal/models"
)

// handleFeedbackRecord handles POST /api/feedback with a closed-trade
// outcome in the body.
func (s *Server) handleFeedbackRecord(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var outcome models.TradeOutcome
	if !DecodeJSON(w, r, &outcome) {
		return
	}

	// Tolerate lowercase mode/signal from API callers.
	if mode, ok := parseScanMode(string(outcome.Mode)); ok {
		outcome.Mode = mode
	}
	outcome.Signal = strings.ToUpper(strings.TrimSpace(outcome.Signal))

	if err := s.app.FeedbackService.Record(r.Context(), &outcome); err != nil {
		WriteError(w, http.StatusBadRequest, fmt.Sprintf("Invalid outcome: %v", err))
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"recorded": true,
		"id":       outcome.ID,
		"pnl_pct":  outcome.PnLPercent,
		"win":      outcome.Win,
	})
}

// handleFeedbackDigest handles GET /api/feedback/digest?mode=
func (s *Server) handleFeedbackDigest(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	mode, ok := parseScanMode(r.URL.Query().Get("mode"))
	if !ok {
		WriteError(w, http.StatusBadRequest, "mode must be 'intraday' or 'multiday'")
		return
	}

	digest, err := s.app.FeedbackService.Digest(r.Context(), mode)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, fmt.Sprintf("Error building digest: %v", err))
		return
	}

	WriteJSON(w, http.StatusOK, map[string]string{
		"mode":   string(mode),
		"digest": digest,
	})
}

// handleFeedbackStats handles GET /api/feedback/stats?mode=
func (s *Server) handleFeedbackStats(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	mode, ok := parseScanMode(r.URL.Query().Get("mode"))
	if !ok {
		WriteError(w, http.StatusBadRequest, "mode must be 'intraday' or 'multiday'")
		return
	}

	stats, err := s.app.FeedbackService.Stats(r.Context(), mode)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, fmt.Sprintf("Error aggregating stats: %v", err))
		return
	}

	WriteJSON(w, http.StatusOK, stats)
}
