package services

import (
	"context"
	"time"

	"github.com/ederson/cardforge/internal/errors"
	"github.com/ederson/cardforge/internal/logger"
	"github.com/ederson/cardforge/internal/models"
	"github.com/ederson/cardforge/internal/repository"
	"github.com/ederson/cardforge/internal/srs"
)

// StudyService handles spaced-repetition study business logic
type StudyService interface {
	DeckStats(ctx context.Context, profileID, deckID int64) (*models.DeckStudyStat, error)
	NextBatch(ctx context.Context, profileID, deckID int64, page int) ([]models.Card, error)
	ReviewCard(ctx context.Context, profileID, cardID int64, quality int) (*models.CardProgress, error)
	SuspendCard(ctx context.Context, profileID, cardID int64, suspended bool) error
}

type studyService struct {
	cardRepo     repository.CardRepository
	progressRepo repository.ProgressRepository
	deckRepo     repository.DeckRepository
	batchOpts    srs.BatchOptions
}

// NewStudyService creates a new StudyService
func NewStudyService(cardRepo repository.CardRepository, progressRepo repository.ProgressRepository, deckRepo repository.DeckRepository, batchOpts srs.BatchOptions) StudyService {
	if batchOpts.PageSize <= 0 {
		batchOpts = srs.DefaultBatchOptions()
	}
	return &studyService{
		cardRepo:     cardRepo,
		progressRepo: progressRepo,
		deckRepo:     deckRepo,
		batchOpts:    batchOpts,
	}
}

func (s *studyService) DeckStats(ctx context.Context, profileID, deckID int64) (*models.DeckStudyStat, error) {
	log := logger.FromContext(ctx)
	log.Debug("loading deck stats: profile_id=%d, deck_id=%d", profileID, deckID)

	deck, err := s.deckRepo.Get(ctx, deckID)
	if err != nil {
		return nil, errors.NewInternalError(err)
	}
	if deck == nil {
		return nil, errors.NewNotFoundError("deck", deckID)
	}

	now := time.Now().UTC()
	stat, err := s.progressRepo.DeckStats(ctx, profileID, deckID, now)
	if err != nil {
		log.Error("failed to load deck stats: %v", err)
		return nil, errors.NewInternalError(err)
	}

	// The scheduler owns the definition of "due"; recompute its count from the
	// progress records rather than trusting the aggregate query.
	records, err := s.progressRepo.ForDeck(ctx, profileID, deckID)
	if err != nil {
		log.Error("failed to load progress records: %v", err)
		return nil, errors.NewInternalError(err)
	}
	stat.DueCards = srs.CountDue(records, deckID, now)
	return stat, nil
}

// NextBatch assembles one page of the study queue: due cards in ascending
// next-review order, with new cards woven into the first page.
func (s *studyService) NextBatch(ctx context.Context, profileID, deckID int64, page int) ([]models.Card, error) {
	log := logger.FromContext(ctx)
	log.Debug("assembling study batch: profile_id=%d, deck_id=%d, page=%d", profileID, deckID, page)

	if page < 0 {
		page = 0
	}

	deck, err := s.deckRepo.Get(ctx, deckID)
	if err != nil {
		return nil, errors.NewInternalError(err)
	}
	if deck == nil {
		return nil, errors.NewNotFoundError("deck", deckID)
	}

	candidates, err := s.cardRepo.IDsForDeck(ctx, deckID)
	if err != nil {
		log.Error("failed to load deck card ids: %v", err)
		return nil, errors.NewInternalError(err)
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	records, err := s.progressRepo.ForDeck(ctx, profileID, deckID)
	if err != nil {
		log.Error("failed to load progress records: %v", err)
		return nil, errors.NewInternalError(err)
	}
	progress := make(map[int64]models.CardProgress, len(records))
	for _, r := range records {
		progress[r.CardID] = r
	}

	opts := s.batchOpts
	opts.Offset = page * opts.PageSize

	ids := srs.SelectDueBatch(candidates, progress, time.Now().UTC(), opts)
	if len(ids) == 0 {
		log.Debug("no cards due for review")
		return nil, nil
	}

	// Load the selected cards and restore the batch order.
	byID := make(map[int64]models.Card, len(ids))
	cards, err := s.cardRepo.List(ctx, models.CardFilter{DeckID: deckID, Limit: len(candidates)})
	if err != nil {
		log.Error("failed to load cards: %v", err)
		return nil, errors.NewInternalError(err)
	}
	for _, c := range cards {
		byID[c.ID] = c
	}

	batch := make([]models.Card, 0, len(ids))
	for _, id := range ids {
		if c, ok := byID[id]; ok {
			batch = append(batch, c)
		}
	}
	log.Info("assembled study batch of %d cards for deck %d", len(batch), deckID)
	return batch, nil
}

// ReviewCard grades one answer, applies the scheduling algorithm, and
// persists the merged progress record.
func (s *studyService) ReviewCard(ctx context.Context, profileID, cardID int64, quality int) (*models.CardProgress, error) {
	log := logger.FromContext(ctx)
	log.Debug("reviewing card: profile_id=%d, card_id=%d, quality=%d", profileID, cardID, quality)

	if quality < srs.QualityAgain || quality > srs.QualityEasy {
		return nil, errors.NewValidationError("quality", "must be between 0 and 3")
	}

	card, err := s.cardRepo.Get(ctx, cardID)
	if err != nil {
		return nil, errors.NewInternalError(err)
	}
	if card == nil {
		return nil, errors.NewNotFoundError("card", cardID)
	}

	existing, err := s.progressRepo.Get(ctx, profileID, cardID)
	if err != nil {
		log.Error("failed to load progress: %v", err)
		return nil, errors.NewInternalError(err)
	}

	now := time.Now().UTC()
	var base models.CardProgress
	if existing != nil {
		base = *existing
	}

	outcome := srs.Review(base, quality, now)
	updated := srs.MergeOutcome(existing, outcome, now)
	updated.ProfileID = profileID
	updated.CardID = cardID
	updated.DeckID = card.DeckID

	log.Debug("applied review, new interval=%d days, ease_factor=%.2f", updated.IntervalDays, updated.EaseFactor)

	if _, err := s.progressRepo.Upsert(ctx, updated); err != nil {
		log.Error("failed to persist progress: %v", err)
		return nil, errors.NewInternalError(err)
	}
	return &updated, nil
}

func (s *studyService) SuspendCard(ctx context.Context, profileID, cardID int64, suspended bool) error {
	log := logger.FromContext(ctx)
	log.Debug("suspending card: profile_id=%d, card_id=%d, suspended=%v", profileID, cardID, suspended)

	existing, err := s.progressRepo.Get(ctx, profileID, cardID)
	if err != nil {
		return errors.NewInternalError(err)
	}
	if existing == nil {
		return errors.NewNotFoundError("card progress", cardID)
	}

	if err := s.progressRepo.SetSuspended(ctx, profileID, cardID, suspended); err != nil {
		log.Error("failed to set suspended: %v", err)
		return errors.NewInternalError(err)
	}
	return nil
}
