package server

import (
	"fmt"
	"net/http"

	"github.com/bobmcallan/sift/internal/models"
)

// handleAnalyze handles GET /api/analyze/{ticker}?mode=intraday|multiday.
// Mode defaults to multiday when absent.
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	ticker := PathParam(r, "/api/analyze/", "")
	if ticker == "" {
		WriteError(w, http.StatusBadRequest, "ticker is required in path")
		return
	}

	mode := models.ScanModeMultiday
	if raw := r.URL.Query().Get("mode"); raw != "" {
		m, ok := parseScanMode(raw)
		if !ok {
			WriteError(w, http.StatusBadRequest, "mode must be 'intraday' or 'multiday'")
			return
		}
		mode = m
	}

	analysis, err := s.app.ScannerService.AnalyzeTicker(r.Context(), ticker, mode)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, fmt.Sprintf("Analysis failed: %v", err))
		return
	}

	WriteJSON(w, http.StatusOK, analysis)
}
