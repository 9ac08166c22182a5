// Package autoscan walks a paginated source document page by page, drafting
// and creating cards from each page's text. Progress is checkpointed after
// every step so a scan can pause, survive a restart, and resume where it
// left off.
package autoscan

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ederson/cardforge/internal/checkpoint"
	"github.com/ederson/cardforge/internal/logger"
	"github.com/ederson/cardforge/internal/models"
)

// Extractor fetches the text content of one source page.
type Extractor interface {
	ExtractPageText(ctx context.Context, sourceID string, pageNumber int) (string, error)
}

// Creator turns page text into persisted cards and reports how many were
// created. Zero created with a nil error is a legitimate outcome: an index
// or blank page yields nothing and is still a success, not an error.
type Creator interface {
	CreateFromText(ctx context.Context, deckID int64, sourceID string, pageNumber int, text string) (int, error)
}

// RetryPolicy bounds how many times one page is attempted before it is
// skipped.
type RetryPolicy struct {
	MaxAttempts int
}

// Options configure a scan. Mode and SessionTags belong to the drafting
// collaborator but ride along in the checkpoint so a resume after a restart
// keeps the scan's original settings.
type Options struct {
	Retry                RetryPolicy
	MaxConsecutiveErrors int      // safety stop threshold
	IncludeNextPage      bool     // combine page N with N+1 before drafting
	PageDelimiter        string   // separator used in combination mode
	Mode                 string   // drafting mode for this scan
	SessionTags          []string // default tags for every card the scan creates
}

// DefaultOptions: one retry per page, safety stop after three back-to-back
// failed pages.
func DefaultOptions() Options {
	return Options{
		Retry:                RetryPolicy{MaxAttempts: 2},
		MaxConsecutiveErrors: 3,
		PageDelimiter:        "\n\n--- PAGE BREAK ---\n\n",
	}
}

// Scanner drives one deck+source scan. All state transitions happen under
// the mutex and are persisted before the lock is released; pause and stop
// take effect between steps, never mid-page.
type Scanner struct {
	deckID   int64
	sourceID string

	mu        sync.Mutex
	state     models.AutoScanState
	extractor Extractor
	creator   Creator
	store     checkpoint.Store
	opts      Options
	key       string
	log       *logger.Logger
}

func New(deckID int64, sourceID string, totalPages int, extractor Extractor, creator Creator, store checkpoint.Store, opts Options) *Scanner {
	if opts.Retry.MaxAttempts < 1 {
		opts.Retry.MaxAttempts = 1
	}
	if opts.MaxConsecutiveErrors < 1 {
		opts.MaxConsecutiveErrors = 3
	}
	return &Scanner{
		deckID:   deckID,
		sourceID: sourceID,
		state: models.AutoScanState{
			DeckID:          deckID,
			SourceID:        sourceID,
			TotalPages:      totalPages,
			CurrentPage:     1,
			IncludeNextPage: opts.IncludeNextPage,
			Mode:            opts.Mode,
			SessionTags:     opts.SessionTags,
		},
		extractor: extractor,
		creator:   creator,
		store:     store,
		opts:      opts,
		key:       checkpoint.Key(deckID, sourceID),
		log:       logger.Default().WithPrefix("autoscan"),
	}
}

// Restore loads the persisted checkpoint for this scanner's deck+source
// pair. Returns false when no usable checkpoint exists, leaving the fresh
// state in place. The loaded state always comes back non-scanning; Resume
// re-enters the loop.
func (s *Scanner) Restore(ctx context.Context) (bool, error) {
	saved, err := s.store.Load(ctx, s.key)
	if err != nil {
		return false, err
	}
	if saved == nil {
		return false, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = *saved
	s.state.IsScanning = false
	return true, nil
}

// Start begins (or restarts) scanning at the requested page. A start page
// past the end of the document clamps back to page 1.
func (s *Scanner) Start(ctx context.Context, startPage int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if startPage < 1 || startPage > s.state.TotalPages {
		startPage = 1
	}
	s.state.CurrentPage = startPage
	s.state.IsScanning = true
	s.state.ConsecutiveErrors = 0
	s.log.Info("scan started: deck=%d source=%s page=%d/%d", s.state.DeckID, s.state.SourceID, startPage, s.state.TotalPages)
	return s.persistLocked(ctx)
}

// Resume re-enters the loop at the persisted current page. It never rewinds
// to page 1; that is what Start is for.
func (s *Scanner) Resume(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state.IsScanning = true
	s.log.Info("scan resumed: deck=%d source=%s page=%d/%d", s.state.DeckID, s.state.SourceID, s.state.CurrentPage, s.state.TotalPages)
	return s.persistLocked(ctx)
}

// Pause halts the loop between steps, preserving every counter and the
// skip log so Resume picks up at the same page.
func (s *Scanner) Pause(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state.IsScanning = false
	s.log.Info("scan paused: deck=%d source=%s page=%d", s.state.DeckID, s.state.SourceID, s.state.CurrentPage)
	return s.persistLocked(ctx)
}

// Stop halts the loop like Pause does. Presented to callers as terminal,
// but statistics and the skip log stay intact either way.
func (s *Scanner) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state.IsScanning = false
	s.log.Info("scan stopped: deck=%d source=%s page=%d", s.state.DeckID, s.state.SourceID, s.state.CurrentPage)
	return s.persistLocked(ctx)
}

// Reset clears the checkpoint and zeroes all progress.
func (s *Scanner) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state = models.AutoScanState{
		DeckID:          s.state.DeckID,
		SourceID:        s.state.SourceID,
		TotalPages:      s.state.TotalPages,
		CurrentPage:     1,
		IncludeNextPage: s.state.IncludeNextPage,
		Mode:            s.state.Mode,
		SessionTags:     s.state.SessionTags,
	}
	return s.store.Clear(ctx, s.key)
}

// State returns a copy of the current scan state.
func (s *Scanner) State() models.AutoScanState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Report exports the skip log and counters for operator review.
func (s *Scanner) Report() models.ScanReport {
	s.mu.Lock()
	defer s.mu.Unlock()
	return models.ScanReport{
		DeckID:       s.state.DeckID,
		SourceID:     s.state.SourceID,
		Stats:        s.state.Stats,
		SkippedPages: append([]models.SkippedPage(nil), s.state.SkippedPages...),
		Timestamp:    time.Now().UTC(),
	}
}

// Run executes the step loop until the document ends, the safety stop
// trips, the scan is paused or stopped, or the context is cancelled. Page
// failures never surface as errors; they land in the skip log. The state
// after Run tells the three endings apart: document end (currentPage past
// totalPages), safety stop (consecutiveErrors at the threshold) and user
// pause.
func (s *Scanner) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			_ = s.Pause(context.WithoutCancel(ctx))
			return err
		}

		s.mu.Lock()
		if !s.state.IsScanning {
			s.mu.Unlock()
			return nil
		}
		if s.state.CurrentPage > s.state.TotalPages {
			s.state.IsScanning = false
			_ = s.persistLocked(ctx)
			s.log.Info("scan finished: deck=%d source=%s pages=%d created=%d skipped=%d",
				s.state.DeckID, s.state.SourceID, s.state.Stats.PagesProcessed, s.state.Stats.CardsCreated, len(s.state.SkippedPages))
			s.mu.Unlock()
			return nil
		}
		page := s.state.CurrentPage
		combine := s.state.IncludeNextPage && page < s.state.TotalPages
		s.mu.Unlock()

		created, err := s.processPage(ctx, page, combine)

		s.mu.Lock()
		if err != nil {
			s.state.SkippedPages = append(s.state.SkippedPages, models.SkippedPage{
				PageNumber: page,
				Reason:     err.Error(),
			})
			s.state.Stats.ErrorsCount++
			s.state.ConsecutiveErrors++
			s.log.Warn("page %d skipped after %d attempts: %v", page, s.opts.Retry.MaxAttempts, err)
		} else {
			s.state.Stats.PagesProcessed++
			s.state.Stats.CardsCreated += created
			// Zero yield is still a success: reset unconditionally.
			s.state.ConsecutiveErrors = 0
		}
		s.state.CurrentPage++

		tripped := s.state.ConsecutiveErrors >= s.opts.MaxConsecutiveErrors
		if tripped {
			s.state.IsScanning = false
			s.log.Error("safety stop: %d consecutive page failures, halting scan of deck=%d source=%s",
				s.state.ConsecutiveErrors, s.state.DeckID, s.state.SourceID)
		}
		_ = s.persistLocked(ctx)
		s.mu.Unlock()

		if tripped {
			return nil
		}
	}
}

// processPage attempts extraction and creation for one page, retrying per
// the policy. The returned error is the last attempt's.
func (s *Scanner) processPage(ctx context.Context, page int, combine bool) (int, error) {
	var lastErr error
	for attempt := 1; attempt <= s.opts.Retry.MaxAttempts; attempt++ {
		created, err := s.attemptPage(ctx, page, combine)
		if err == nil {
			return created, nil
		}
		lastErr = err
		if attempt < s.opts.Retry.MaxAttempts {
			s.log.Debug("page %d attempt %d failed, retrying: %v", page, attempt, err)
		}
	}
	return 0, lastErr
}

func (s *Scanner) attemptPage(ctx context.Context, page int, combine bool) (int, error) {
	text, err := s.extractor.ExtractPageText(ctx, s.sourceID, page)
	if err != nil {
		return 0, fmt.Errorf("extract page %d: %w", page, err)
	}
	if combine {
		next, err := s.extractor.ExtractPageText(ctx, s.sourceID, page+1)
		if err != nil {
			return 0, fmt.Errorf("extract page %d: %w", page+1, err)
		}
		text = text + s.opts.PageDelimiter + next
	}

	created, err := s.creator.CreateFromText(ctx, s.deckID, s.sourceID, page, text)
	if err != nil {
		return 0, fmt.Errorf("create cards from page %d: %w", page, err)
	}
	return created, nil
}

func (s *Scanner) snapshotLocked() models.AutoScanState {
	snap := s.state
	snap.SkippedPages = append([]models.SkippedPage(nil), s.state.SkippedPages...)
	return snap
}

func (s *Scanner) persistLocked(ctx context.Context) error {
	s.state.LastUpdated = time.Now().UTC()
	if err := s.store.Save(ctx, s.key, s.snapshotLocked()); err != nil {
		s.log.Warn("failed to persist checkpoint %s: %v", s.key, err)
		return err
	}
	return nil
}
