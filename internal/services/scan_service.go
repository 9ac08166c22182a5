package services

import (
	"context"
	"sync"

	"github.com/ederson/cardforge/internal/autoscan"
	"github.com/ederson/cardforge/internal/checkpoint"
	"github.com/ederson/cardforge/internal/drafting"
	"github.com/ederson/cardforge/internal/errors"
	"github.com/ederson/cardforge/internal/jobs"
	"github.com/ederson/cardforge/internal/logger"
	"github.com/ederson/cardforge/internal/models"
	"github.com/ederson/cardforge/internal/repository"
)

// SourceReader extends page extraction with document metadata.
type SourceReader interface {
	autoscan.Extractor
	TotalPages(ctx context.Context, sourceID string) (int, error)
}

// Drafter turns raw text into card candidates.
type Drafter interface {
	Draft(ctx context.Context, text string, mode drafting.Mode, defaultTags []string) ([]models.CardDraft, error)
}

// StartScanRequest carries the parameters of a new scan. SessionTags are
// applied to every card the scan creates, on top of the drafter's own tags.
type StartScanRequest struct {
	DeckID          int64
	SourceID        string
	StartPage       int
	IncludeNextPage bool
	Mode            drafting.Mode
	SessionTags     []string
}

// ScanService manages the lifecycle of auto-scans: one scanner per
// deck+source pair, running on the worker pool, checkpointed so a scan
// survives restarts.
type ScanService interface {
	StartScan(ctx context.Context, req StartScanRequest) (models.AutoScanState, error)
	PauseScan(ctx context.Context, deckID int64, sourceID string) (models.AutoScanState, error)
	ResumeScan(ctx context.Context, deckID int64, sourceID string) (models.AutoScanState, error)
	StopScan(ctx context.Context, deckID int64, sourceID string) (models.AutoScanState, error)
	ResetScan(ctx context.Context, deckID int64, sourceID string) error
	ScanStatus(ctx context.Context, deckID int64, sourceID string) (models.AutoScanState, error)
	ScanReport(ctx context.Context, deckID int64, sourceID string) (models.ScanReport, error)
}

type scanService struct {
	deckRepo repository.DeckRepository
	cards    CardService
	reader   SourceReader
	drafter  Drafter
	store    checkpoint.Store
	queue    jobs.JobQueue
	opts     autoscan.Options

	mu       sync.Mutex
	scanners map[string]*autoscan.Scanner
}

// NewScanService creates a new ScanService
func NewScanService(deckRepo repository.DeckRepository, cards CardService, reader SourceReader, drafter Drafter, store checkpoint.Store, queue jobs.JobQueue, opts autoscan.Options) ScanService {
	return &scanService{
		deckRepo: deckRepo,
		cards:    cards,
		reader:   reader,
		drafter:  drafter,
		store:    store,
		queue:    queue,
		opts:     opts,
		scanners: make(map[string]*autoscan.Scanner),
	}
}

// draftingCreator adapts the drafter plus the card service into the creator
// the scan loop drives. Zero drafts with a nil error propagate as a zero
// count, which the loop records as a processed page.
type draftingCreator struct {
	cards       CardService
	drafter     Drafter
	mode        drafting.Mode
	sessionTags []string
}

func (c *draftingCreator) CreateFromText(ctx context.Context, deckID int64, sourceID string, pageNumber int, text string) (int, error) {
	drafts, err := c.drafter.Draft(ctx, text, c.mode, c.sessionTags)
	if err != nil {
		return 0, err
	}
	// Session tags land on every card even when the drafter ignored the hint.
	for i := range drafts {
		drafts[i].Tags = mergeTags(drafts[i].Tags, c.sessionTags)
	}
	return c.cards.CreateFromDrafts(ctx, deckID, sourceID, pageNumber, drafts)
}

// mergeTags appends the session tags to a draft's own, keeping the draft's
// order first and dropping duplicates and blanks.
func mergeTags(draftTags, sessionTags []string) []string {
	if len(sessionTags) == 0 {
		return draftTags
	}
	seen := make(map[string]bool, len(draftTags)+len(sessionTags))
	merged := make([]string, 0, len(draftTags)+len(sessionTags))
	for _, tags := range [][]string{draftTags, sessionTags} {
		for _, t := range tags {
			if t != "" && !seen[t] {
				seen[t] = true
				merged = append(merged, t)
			}
		}
	}
	return merged
}

func (s *scanService) StartScan(ctx context.Context, req StartScanRequest) (models.AutoScanState, error) {
	log := logger.FromContext(ctx)
	log.Debug("starting scan: deck_id=%d, source_id=%s, page=%d", req.DeckID, req.SourceID, req.StartPage)

	deck, err := s.deckRepo.Get(ctx, req.DeckID)
	if err != nil {
		return models.AutoScanState{}, errors.NewInternalError(err)
	}
	if deck == nil {
		return models.AutoScanState{}, errors.NewNotFoundError("deck", req.DeckID)
	}
	if req.SourceID == "" {
		return models.AutoScanState{}, errors.NewValidationError("source_id", "cannot be empty")
	}

	key := checkpoint.Key(req.DeckID, req.SourceID)

	s.mu.Lock()
	if existing, ok := s.scanners[key]; ok && existing.State().IsScanning {
		s.mu.Unlock()
		return models.AutoScanState{}, errors.NewConflictError("a scan is already running for this deck and source")
	}
	s.mu.Unlock()

	totalPages, err := s.reader.TotalPages(ctx, req.SourceID)
	if err != nil {
		log.Error("failed to read document info: %v", err)
		return models.AutoScanState{}, errors.NewInternalError(err)
	}
	if totalPages < 1 {
		return models.AutoScanState{}, errors.NewValidationError("source_id", "document has no pages")
	}

	mode := req.Mode
	if mode == "" {
		mode = drafting.ModeGenerate
	}

	opts := s.opts
	opts.IncludeNextPage = req.IncludeNextPage
	opts.Mode = string(mode)
	opts.SessionTags = req.SessionTags
	creator := &draftingCreator{cards: s.cards, drafter: s.drafter, mode: mode, sessionTags: req.SessionTags}

	scanner := autoscan.New(req.DeckID, req.SourceID, totalPages, s.reader, creator, s.store, opts)
	if err := scanner.Start(ctx, req.StartPage); err != nil {
		return models.AutoScanState{}, errors.NewInternalError(err)
	}

	s.mu.Lock()
	s.scanners[key] = scanner
	s.mu.Unlock()

	if err := s.queue.EnqueueScan(scanner); err != nil {
		_ = scanner.Pause(ctx)
		log.Error("failed to enqueue scan: %v", err)
		return models.AutoScanState{}, errors.NewConflictError("scan queue is full, try again later")
	}

	log.Info("scan enqueued: deck_id=%d, source_id=%s, pages=%d", req.DeckID, req.SourceID, totalPages)
	return scanner.State(), nil
}

func (s *scanService) PauseScan(ctx context.Context, deckID int64, sourceID string) (models.AutoScanState, error) {
	scanner, err := s.lookup(ctx, deckID, sourceID)
	if err != nil {
		return models.AutoScanState{}, err
	}
	if err := scanner.Pause(ctx); err != nil {
		return models.AutoScanState{}, errors.NewInternalError(err)
	}
	return scanner.State(), nil
}

// ResumeScan re-enters a paused scan at its checkpointed page, recreating
// the scanner from the checkpoint when the process restarted in between.
func (s *scanService) ResumeScan(ctx context.Context, deckID int64, sourceID string) (models.AutoScanState, error) {
	log := logger.FromContext(ctx)

	scanner, err := s.lookup(ctx, deckID, sourceID)
	if err != nil {
		return models.AutoScanState{}, err
	}
	if scanner.State().IsScanning {
		return models.AutoScanState{}, errors.NewConflictError("scan is already running")
	}

	if err := scanner.Resume(ctx); err != nil {
		return models.AutoScanState{}, errors.NewInternalError(err)
	}
	if err := s.queue.EnqueueScan(scanner); err != nil {
		_ = scanner.Pause(ctx)
		log.Error("failed to enqueue scan: %v", err)
		return models.AutoScanState{}, errors.NewConflictError("scan queue is full, try again later")
	}
	return scanner.State(), nil
}

func (s *scanService) StopScan(ctx context.Context, deckID int64, sourceID string) (models.AutoScanState, error) {
	scanner, err := s.lookup(ctx, deckID, sourceID)
	if err != nil {
		return models.AutoScanState{}, err
	}
	if err := scanner.Stop(ctx); err != nil {
		return models.AutoScanState{}, errors.NewInternalError(err)
	}
	return scanner.State(), nil
}

func (s *scanService) ResetScan(ctx context.Context, deckID int64, sourceID string) error {
	scanner, err := s.lookup(ctx, deckID, sourceID)
	if err != nil {
		return err
	}
	if scanner.State().IsScanning {
		return errors.NewConflictError("pause the scan before resetting it")
	}
	if err := scanner.Reset(ctx); err != nil {
		return errors.NewInternalError(err)
	}
	return nil
}

func (s *scanService) ScanStatus(ctx context.Context, deckID int64, sourceID string) (models.AutoScanState, error) {
	scanner, err := s.lookup(ctx, deckID, sourceID)
	if err != nil {
		return models.AutoScanState{}, err
	}
	return scanner.State(), nil
}

func (s *scanService) ScanReport(ctx context.Context, deckID int64, sourceID string) (models.ScanReport, error) {
	scanner, err := s.lookup(ctx, deckID, sourceID)
	if err != nil {
		return models.ScanReport{}, err
	}
	return scanner.Report(), nil
}

// lookup finds the live scanner for a deck+source pair, rebuilding it from
// the durable checkpoint when none is in memory. The checkpoint carries the
// drafting mode and session tags, so a rebuilt scanner keeps the settings
// the scan was started with.
func (s *scanService) lookup(ctx context.Context, deckID int64, sourceID string) (*autoscan.Scanner, error) {
	key := checkpoint.Key(deckID, sourceID)

	s.mu.Lock()
	scanner, ok := s.scanners[key]
	s.mu.Unlock()
	if ok {
		return scanner, nil
	}

	saved, err := s.store.Load(ctx, key)
	if err != nil {
		return nil, errors.NewInternalError(err)
	}
	if saved == nil {
		return nil, errors.NewNotFoundError("scan", sourceID)
	}

	mode := drafting.Mode(saved.Mode)
	if mode == "" {
		mode = drafting.ModeGenerate
	}

	opts := s.opts
	opts.IncludeNextPage = saved.IncludeNextPage
	opts.Mode = string(mode)
	opts.SessionTags = saved.SessionTags
	creator := &draftingCreator{cards: s.cards, drafter: s.drafter, mode: mode, sessionTags: saved.SessionTags}
	scanner = autoscan.New(deckID, sourceID, saved.TotalPages, s.reader, creator, s.store, opts)

	restored, err := scanner.Restore(ctx)
	if err != nil {
		return nil, errors.NewInternalError(err)
	}
	if !restored {
		return nil, errors.NewNotFoundError("scan", sourceID)
	}

	s.mu.Lock()
	// Another request may have rebuilt it concurrently; keep the first.
	if existing, ok := s.scanners[key]; ok {
		scanner = existing
	} else {
		s.scanners[key] = scanner
	}
	s.mu.Unlock()
	return scanner, nil
}
