package services

import (
	"context"
	"strings"

	"github.com/ederson/cardforge/internal/errors"
	"github.com/ederson/cardforge/internal/logger"
	"github.com/ederson/cardforge/internal/models"
	"github.com/ederson/cardforge/internal/repository"
)

// DeckService handles deck-related business logic
type DeckService interface {
	ListDecks(ctx context.Context, profileID int64) ([]models.Deck, error)
	GetDeck(ctx context.Context, id int64) (*models.Deck, error)
	CreateDeck(ctx context.Context, deck models.Deck) (*models.Deck, error)
	DeleteDeck(ctx context.Context, id int64) error
}

type deckService struct {
	deckRepo repository.DeckRepository
}

// NewDeckService creates a new DeckService
func NewDeckService(deckRepo repository.DeckRepository) DeckService {
	return &deckService{deckRepo: deckRepo}
}

func (s *deckService) ListDecks(ctx context.Context, profileID int64) ([]models.Deck, error) {
	decks, err := s.deckRepo.List(ctx, profileID)
	if err != nil {
		return nil, errors.NewInternalError(err)
	}
	return decks, nil
}

func (s *deckService) GetDeck(ctx context.Context, id int64) (*models.Deck, error) {
	deck, err := s.deckRepo.Get(ctx, id)
	if err != nil {
		return nil, errors.NewInternalError(err)
	}
	if deck == nil {
		return nil, errors.NewNotFoundError("deck", id)
	}
	return deck, nil
}

func (s *deckService) CreateDeck(ctx context.Context, deck models.Deck) (*models.Deck, error) {
	log := logger.FromContext(ctx)

	if strings.TrimSpace(deck.Name) == "" {
		return nil, errors.NewValidationError("name", "cannot be empty")
	}

	id, err := s.deckRepo.Insert(ctx, deck)
	if err != nil {
		log.Error("failed to insert deck: %v", err)
		return nil, errors.NewInternalError(err)
	}
	deck.ID = id
	log.Info("created deck %d (%s)", id, deck.Name)
	return &deck, nil
}

func (s *deckService) DeleteDeck(ctx context.Context, id int64) error {
	log := logger.FromContext(ctx)
	log.Debug("deleting deck: id=%d", id)

	if err := s.deckRepo.Delete(ctx, id); err != nil {
		log.Error("failed to delete deck: %v", err)
		return errors.NewInternalError(err)
	}
	return nil
}
