package server

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/bobmcallan/sift/internal/models"
)

// parseScanMode maps a request-supplied mode string to a ScanMode.
func parseScanMode(raw string) (models.ScanMode, bool) {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "INTRADAY":
		return models.ScanModeIntraday, true
	case "MULTIDAY", "MULTI-DAY":
		return models.ScanModeMultiday, true
	default:
		return "", false
	}
}

// handleIdeas handles GET /api/ideas. With ?refresh=true a best-effort
// refresh runs first, still subject to the staleness policy.
func (s *Server) handleIdeas(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	refresh := r.URL.Query().Get("refresh") == "true"

	resp, err := s.app.ScannerService.GetIdeas(r.Context(), refresh)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, fmt.Sprintf("Error fetching ideas: %v", err))
		return
	}

	WriteJSON(w, http.StatusOK, resp)
}

// handleScanRefresh handles POST /api/scan/refresh. force rebuilds the
// day's list from scratch, bypassing all staleness gating.
func (s *Server) handleScanRefresh(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var req struct {
		Mode  string `json:"mode"`
		Force bool   `json:"force"`
	}
	if !DecodeJSON(w, r, &req) {
		return
	}

	mode, ok := parseScanMode(req.Mode)
	if !ok {
		WriteError(w, http.StatusBadRequest, "mode must be 'intraday' or 'multiday'")
		return
	}

	result, err := s.app.ScannerService.Refresh(r.Context(), mode, req.Force)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, fmt.Sprintf("Scan refresh failed: %v", err))
		return
	}

	WriteJSON(w, http.StatusOK, result)
}
