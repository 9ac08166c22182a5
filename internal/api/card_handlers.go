package api

import (
	"net/http"
	"strings"

	"github.com/ederson/cardforge/internal/errors"
	"github.com/ederson/cardforge/internal/logger"
	"github.com/ederson/cardforge/internal/models"
)

func (s *Server) handleListCards(w http.ResponseWriter, r *http.Request) {
	deckID, err := idParam(r, "id")
	if err != nil {
		handleError(w, r, err)
		return
	}

	q := r.URL.Query()
	filter := models.CardFilter{
		DeckID:   deckID,
		Tag:      q.Get("tag"),
		SourceID: q.Get("source_id"),
		Search:   q.Get("search"),
		Limit:    queryInt(r, "limit", 50),
		Offset:   queryInt(r, "offset", 0),
		OrderBy:  q.Get("order_by"),
		OrderDir: strings.ToUpper(q.Get("order_dir")),
	}

	cards, total, err := s.CardService.ListCards(r.Context(), filter)
	if err != nil {
		handleError(w, r, err)
		return
	}

	respondJSON(w, r, http.StatusOK, map[string]any{
		"cards": cards,
		"total": total,
	})
}

type createCardsRequest struct {
	DeckID int64              `json:"deck_id"`
	Cards  []models.CardDraft `json:"cards"`
}

// handleCreateCards batch-creates cards in the deck named by the URL. A body
// deck id, when present, must match the URL deck; a mismatch is rejected
// rather than silently writing into the body's deck.
func (s *Server) handleCreateCards(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())

	deckID, err := idParam(r, "id")
	if err != nil {
		handleError(w, r, err)
		return
	}

	var body createCardsRequest
	if err := decodeJSON(r, &body); err != nil {
		handleError(w, r, err)
		return
	}
	if body.DeckID != 0 && body.DeckID != deckID {
		handleError(w, r, errors.NewValidationError("deck_id", "does not match the deck in the URL"))
		return
	}
	if len(body.Cards) == 0 {
		handleError(w, r, errors.NewValidationError("cards", "cannot be empty"))
		return
	}

	created, err := s.CardService.CreateFromDrafts(r.Context(), deckID, "", 0, body.Cards)
	if err != nil {
		handleError(w, r, err)
		return
	}

	log.Info("created %d cards in deck %d", created, deckID)
	respondJSON(w, r, http.StatusCreated, map[string]any{"created": created})
}

func (s *Server) handleGetCard(w http.ResponseWriter, r *http.Request) {
	cardID, err := idParam(r, "id")
	if err != nil {
		handleError(w, r, err)
		return
	}

	card, err := s.CardService.GetCard(r.Context(), cardID)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, card)
}

type createCardRequest struct {
	DeckID int64  `json:"deck_id"`
	Front  string `json:"front"`
	Back   string `json:"back"`
	Tags   string `json:"tags"`
}

func (s *Server) handleCreateCard(w http.ResponseWriter, r *http.Request) {
	var body createCardRequest
	if err := decodeJSON(r, &body); err != nil {
		handleError(w, r, err)
		return
	}

	card, err := s.CardService.CreateCard(r.Context(), models.Card{
		DeckID: body.DeckID,
		Front:  body.Front,
		Back:   body.Back,
		Tags:   body.Tags,
	})
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusCreated, card)
}
