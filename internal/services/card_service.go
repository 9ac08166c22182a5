package services

import (
	"context"
	"strings"

	"github.com/ederson/cardforge/internal/errors"
	"github.com/ederson/cardforge/internal/logger"
	"github.com/ederson/cardforge/internal/models"
	"github.com/ederson/cardforge/internal/repository"
)

// CardService handles card CRUD and batch creation from drafts
type CardService interface {
	GetCard(ctx context.Context, id int64) (*models.Card, error)
	ListCards(ctx context.Context, filter models.CardFilter) ([]models.Card, int, error)
	CreateCard(ctx context.Context, card models.Card) (*models.Card, error)
	CreateFromDrafts(ctx context.Context, deckID int64, sourceID string, sourcePage int, drafts []models.CardDraft) (int, error)
}

type cardService struct {
	cardRepo repository.CardRepository
	deckRepo repository.DeckRepository
}

// NewCardService creates a new CardService
func NewCardService(cardRepo repository.CardRepository, deckRepo repository.DeckRepository) CardService {
	return &cardService{cardRepo: cardRepo, deckRepo: deckRepo}
}

func (s *cardService) GetCard(ctx context.Context, id int64) (*models.Card, error) {
	card, err := s.cardRepo.Get(ctx, id)
	if err != nil {
		return nil, errors.NewInternalError(err)
	}
	if card == nil {
		return nil, errors.NewNotFoundError("card", id)
	}
	return card, nil
}

func (s *cardService) ListCards(ctx context.Context, filter models.CardFilter) ([]models.Card, int, error) {
	log := logger.FromContext(ctx)

	cards, err := s.cardRepo.List(ctx, filter)
	if err != nil {
		log.Error("failed to list cards: %v", err)
		return nil, 0, errors.NewInternalError(err)
	}
	total, err := s.cardRepo.Count(ctx, filter)
	if err != nil {
		log.Error("failed to count cards: %v", err)
		return nil, 0, errors.NewInternalError(err)
	}
	return cards, total, nil
}

func (s *cardService) CreateCard(ctx context.Context, card models.Card) (*models.Card, error) {
	log := logger.FromContext(ctx)

	if strings.TrimSpace(card.Front) == "" {
		return nil, errors.NewValidationError("front", "cannot be empty")
	}
	if strings.TrimSpace(card.Back) == "" {
		return nil, errors.NewValidationError("back", "cannot be empty")
	}

	deck, err := s.deckRepo.Get(ctx, card.DeckID)
	if err != nil {
		return nil, errors.NewInternalError(err)
	}
	if deck == nil {
		return nil, errors.NewNotFoundError("deck", card.DeckID)
	}

	id, err := s.cardRepo.Insert(ctx, card)
	if err != nil {
		log.Error("failed to insert card: %v", err)
		return nil, errors.NewInternalError(err)
	}
	card.ID = id
	return &card, nil
}

// CreateFromDrafts persists one batch of drafted cards into the given deck.
// Every created card carries the deck it was scanned for, regardless of what
// the drafter produced. Blank drafts are dropped rather than rejected, so a
// partially useful draft batch still yields cards.
func (s *cardService) CreateFromDrafts(ctx context.Context, deckID int64, sourceID string, sourcePage int, drafts []models.CardDraft) (int, error) {
	log := logger.FromContext(ctx)
	log.Debug("creating cards from %d drafts: deck_id=%d, source_id=%s, page=%d", len(drafts), deckID, sourceID, sourcePage)

	deck, err := s.deckRepo.Get(ctx, deckID)
	if err != nil {
		return 0, errors.NewInternalError(err)
	}
	if deck == nil {
		return 0, errors.NewNotFoundError("deck", deckID)
	}

	cards := make([]models.Card, 0, len(drafts))
	for _, d := range drafts {
		front := strings.TrimSpace(d.Front)
		back := strings.TrimSpace(d.Back)
		if front == "" || back == "" {
			log.Warn("dropping blank draft: source_id=%s, page=%d", sourceID, sourcePage)
			continue
		}
		cards = append(cards, models.Card{
			DeckID:     deckID,
			Front:      front,
			Back:       back,
			Tags:       strings.Join(d.Tags, ","),
			SourceID:   sourceID,
			SourcePage: sourcePage,
		})
	}
	if len(cards) == 0 {
		return 0, nil
	}

	ids, err := s.cardRepo.InsertBatch(ctx, cards)
	if err != nil {
		log.Error("failed to insert drafted cards: %v", err)
		return 0, errors.NewInternalError(err)
	}

	log.Info("created %d cards in deck %d from page %d of %s", len(ids), deckID, sourcePage, sourceID)
	return len(ids), nil
}
