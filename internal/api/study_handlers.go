package api

import (
	"net/http"

	"github.com/ederson/cardforge/internal/errors"
	"github.com/ederson/cardforge/internal/logger"
)

func (s *Server) handleStudyStats(w http.ResponseWriter, r *http.Request) {
	profile := profileFromContext(r.Context())
	if profile == nil {
		handleError(w, r, errors.NewBadRequestError("select a profile first"))
		return
	}

	deckID, err := idParam(r, "id")
	if err != nil {
		handleError(w, r, err)
		return
	}

	stat, err := s.StudyService.DeckStats(r.Context(), profile.ID, deckID)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, stat)
}

func (s *Server) handleStudyBatch(w http.ResponseWriter, r *http.Request) {
	profile := profileFromContext(r.Context())
	if profile == nil {
		handleError(w, r, errors.NewBadRequestError("select a profile first"))
		return
	}

	deckID, err := idParam(r, "id")
	if err != nil {
		handleError(w, r, err)
		return
	}
	page := queryInt(r, "page", 0)

	batch, err := s.StudyService.NextBatch(r.Context(), profile.ID, deckID, page)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, map[string]any{
		"cards": batch,
		"page":  page,
	})
}

func (s *Server) handleReviewCard(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())

	profile := profileFromContext(r.Context())
	if profile == nil {
		handleError(w, r, errors.NewBadRequestError("select a profile first"))
		return
	}

	cardID, err := idParam(r, "id")
	if err != nil {
		handleError(w, r, err)
		return
	}

	var body struct {
		Quality int `json:"quality"`
	}
	if err := decodeJSON(r, &body); err != nil {
		handleError(w, r, err)
		return
	}

	progress, err := s.StudyService.ReviewCard(r.Context(), profile.ID, cardID, body.Quality)
	if err != nil {
		handleError(w, r, err)
		return
	}

	log.Info("card %d reviewed with quality %d", cardID, body.Quality)
	respondJSON(w, r, http.StatusOK, progress)
}

func (s *Server) handleSuspendCard(w http.ResponseWriter, r *http.Request) {
	profile := profileFromContext(r.Context())
	if profile == nil {
		handleError(w, r, errors.NewBadRequestError("select a profile first"))
		return
	}

	cardID, err := idParam(r, "id")
	if err != nil {
		handleError(w, r, err)
		return
	}

	var body struct {
		Suspended bool `json:"suspended"`
	}
	if err := decodeJSON(r, &body); err != nil {
		handleError(w, r, err)
		return
	}

	if err := s.StudyService.SuspendCard(r.Context(), profile.ID, cardID, body.Suspended); err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusNoContent, nil)
}
