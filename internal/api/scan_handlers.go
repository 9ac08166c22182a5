package api

import (
	"net/http"

	"github.com/ederson/cardforge/internal/drafting"
	"github.com/ederson/cardforge/internal/errors"
	"github.com/ederson/cardforge/internal/logger"
	"github.com/ederson/cardforge/internal/services"
)

func (s *Server) handleStartScan(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())

	deckID, err := idParam(r, "id")
	if err != nil {
		handleError(w, r, err)
		return
	}

	var body struct {
		SourceID        string   `json:"sourceId"`
		StartPage       int      `json:"startPage"`
		IncludeNextPage bool     `json:"includeNextPage"`
		Mode            string   `json:"mode"`
		SessionTags     []string `json:"sessionTags"`
	}
	if err := decodeJSON(r, &body); err != nil {
		handleError(w, r, err)
		return
	}

	mode := drafting.Mode(body.Mode)
	switch mode {
	case "", drafting.ModeExtract, drafting.ModeGenerate:
	default:
		handleError(w, r, errors.NewValidationError("mode", "must be extract or generate"))
		return
	}

	state, err := s.ScanService.StartScan(r.Context(), services.StartScanRequest{
		DeckID:          deckID,
		SourceID:        body.SourceID,
		StartPage:       body.StartPage,
		IncludeNextPage: body.IncludeNextPage,
		Mode:            mode,
		SessionTags:     body.SessionTags,
	})
	if err != nil {
		handleError(w, r, err)
		return
	}

	log.Info("scan started: deck=%d source=%s", deckID, body.SourceID)
	respondJSON(w, r, http.StatusAccepted, state)
}

func (s *Server) scanTarget(r *http.Request) (int64, string, error) {
	deckID, err := idParam(r, "id")
	if err != nil {
		return 0, "", err
	}
	sourceID := r.URL.Query().Get("source_id")
	if sourceID == "" {
		return 0, "", errors.NewValidationError("source_id", "query parameter required")
	}
	return deckID, sourceID, nil
}

func (s *Server) handlePauseScan(w http.ResponseWriter, r *http.Request) {
	deckID, sourceID, err := s.scanTarget(r)
	if err != nil {
		handleError(w, r, err)
		return
	}

	state, err := s.ScanService.PauseScan(r.Context(), deckID, sourceID)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, state)
}

func (s *Server) handleResumeScan(w http.ResponseWriter, r *http.Request) {
	deckID, sourceID, err := s.scanTarget(r)
	if err != nil {
		handleError(w, r, err)
		return
	}

	state, err := s.ScanService.ResumeScan(r.Context(), deckID, sourceID)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, state)
}

func (s *Server) handleStopScan(w http.ResponseWriter, r *http.Request) {
	deckID, sourceID, err := s.scanTarget(r)
	if err != nil {
		handleError(w, r, err)
		return
	}

	state, err := s.ScanService.StopScan(r.Context(), deckID, sourceID)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, state)
}

func (s *Server) handleResetScan(w http.ResponseWriter, r *http.Request) {
	deckID, sourceID, err := s.scanTarget(r)
	if err != nil {
		handleError(w, r, err)
		return
	}

	if err := s.ScanService.ResetScan(r.Context(), deckID, sourceID); err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusNoContent, nil)
}

func (s *Server) handleScanStatus(w http.ResponseWriter, r *http.Request) {
	deckID, sourceID, err := s.scanTarget(r)
	if err != nil {
		handleError(w, r, err)
		return
	}

	state, err := s.ScanService.ScanStatus(r.Context(), deckID, sourceID)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, state)
}

func (s *Server) handleScanReport(w http.ResponseWriter, r *http.Request) {
	deckID, sourceID, err := s.scanTarget(r)
	if err != nil {
		handleError(w, r, err)
		return
	}

	report, err := s.ScanService.ScanReport(r.Context(), deckID, sourceID)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, report)
}
