package autoscan_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ederson/cardforge/internal/autoscan"
	"github.com/ederson/cardforge/internal/checkpoint"
	"github.com/ederson/cardforge/internal/models"
)

// fakeExtractor serves canned text per page and can be scripted to fail a
// page a fixed number of times before succeeding.
type fakeExtractor struct {
	failuresLeft map[int]int
	calls        []int
}

func (f *fakeExtractor) ExtractPageText(ctx context.Context, sourceID string, page int) (string, error) {
	f.calls = append(f.calls, page)
	if f.failuresLeft[page] > 0 {
		f.failuresLeft[page]--
		return "", fmt.Errorf("ocr backend unavailable for page %d", page)
	}
	return fmt.Sprintf("text of page %d", page), nil
}

// fakeCreator yields a fixed count per page and can be scripted to fail.
type fakeCreator struct {
	yield        map[int]int // default 1 when absent
	failuresLeft map[int]int
	pages        []int
	texts        []string
	deckIDs      []int64
}

func (f *fakeCreator) CreateFromText(ctx context.Context, deckID int64, sourceID string, page int, text string) (int, error) {
	f.pages = append(f.pages, page)
	f.texts = append(f.texts, text)
	f.deckIDs = append(f.deckIDs, deckID)
	if f.failuresLeft[page] > 0 {
		f.failuresLeft[page]--
		return 0, errors.New("card creation rejected")
	}
	if n, ok := f.yield[page]; ok {
		return n, nil
	}
	return 1, nil
}

func newScanner(t *testing.T, totalPages int, ex *fakeExtractor, cr *fakeCreator, opts autoscan.Options) (*autoscan.Scanner, *checkpoint.MemoryStore) {
	t.Helper()
	if ex.failuresLeft == nil {
		ex.failuresLeft = map[int]int{}
	}
	if cr.failuresLeft == nil {
		cr.failuresLeft = map[int]int{}
	}
	store := checkpoint.NewMemoryStore()
	return autoscan.New(7, "doc-1", totalPages, ex, cr, store, opts), store
}

func TestRun_FullDocument(t *testing.T) {
	ctx := context.Background()
	ex := &fakeExtractor{}
	cr := &fakeCreator{yield: map[int]int{2: 3}}
	s, _ := newScanner(t, 4, ex, cr, autoscan.DefaultOptions())

	require.NoError(t, s.Start(ctx, 1))
	require.NoError(t, s.Run(ctx))

	state := s.State()
	assert.False(t, state.IsScanning)
	assert.Equal(t, 5, state.CurrentPage, "current page passes the end on normal completion")
	assert.Equal(t, 4, state.Stats.PagesProcessed)
	assert.Equal(t, 6, state.Stats.CardsCreated, "1+3+1+1")
	assert.Equal(t, 0, state.Stats.ErrorsCount)
	assert.Empty(t, state.SkippedPages)
}

func TestRun_ZeroYieldIsSuccess(t *testing.T) {
	ctx := context.Background()
	ex := &fakeExtractor{failuresLeft: map[int]int{1: 2, 2: 2}}
	cr := &fakeCreator{yield: map[int]int{3: 0}}
	s, _ := newScanner(t, 3, ex, cr, autoscan.DefaultOptions())

	require.NoError(t, s.Start(ctx, 1))
	require.NoError(t, s.Run(ctx))

	state := s.State()
	// Pages 1 and 2 exhaust their retries and are skipped; page 3 succeeds
	// with zero cards, which still resets the consecutive error counter.
	assert.Equal(t, 0, state.ConsecutiveErrors, "zero-yield success resets the counter")
	assert.Equal(t, 2, state.Stats.ErrorsCount)
	assert.Equal(t, 1, state.Stats.PagesProcessed)
	assert.Equal(t, 0, state.Stats.CardsCreated)
	assert.Len(t, state.SkippedPages, 2)
}

func TestRun_RetrySucceedsOnSecondAttempt(t *testing.T) {
	ctx := context.Background()
	ex := &fakeExtractor{failuresLeft: map[int]int{2: 1}}
	cr := &fakeCreator{}
	s, _ := newScanner(t, 3, ex, cr, autoscan.DefaultOptions())

	require.NoError(t, s.Start(ctx, 1))
	require.NoError(t, s.Run(ctx))

	state := s.State()
	assert.Equal(t, 3, state.Stats.PagesProcessed)
	assert.Equal(t, 0, state.Stats.ErrorsCount)
	assert.Empty(t, state.SkippedPages)
	assert.Equal(t, []int{1, 2, 2, 3}, ex.calls, "page 2 took exactly one retry")
}

func TestRun_SkipAfterExhaustedRetries(t *testing.T) {
	ctx := context.Background()
	ex := &fakeExtractor{failuresLeft: map[int]int{2: 2}}
	cr := &fakeCreator{}
	s, _ := newScanner(t, 3, ex, cr, autoscan.DefaultOptions())

	require.NoError(t, s.Start(ctx, 1))
	require.NoError(t, s.Run(ctx))

	state := s.State()
	assert.Equal(t, 2, state.Stats.PagesProcessed)
	assert.Equal(t, 1, state.Stats.ErrorsCount)
	require.Len(t, state.SkippedPages, 1)
	assert.Equal(t, 2, state.SkippedPages[0].PageNumber)
	assert.Contains(t, state.SkippedPages[0].Reason, "extract page 2")
	assert.Equal(t, []int{1, 2, 2, 3}, ex.calls, "total attempts per page is bounded at two")
}

func TestRun_SafetyStopAfterThreeConsecutiveFailures(t *testing.T) {
	ctx := context.Background()
	ex := &fakeExtractor{failuresLeft: map[int]int{2: 2, 3: 2, 4: 2}}
	cr := &fakeCreator{}
	s, _ := newScanner(t, 10, ex, cr, autoscan.DefaultOptions())

	require.NoError(t, s.Start(ctx, 1))
	require.NoError(t, s.Run(ctx))

	state := s.State()
	assert.False(t, state.IsScanning)
	assert.Equal(t, 3, state.ConsecutiveErrors)
	assert.Equal(t, 5, state.CurrentPage, "halted after advancing past the third failed page")
	assert.NotContains(t, ex.calls, 5, "no page is attempted after the safety stop trips")
	assert.Len(t, state.SkippedPages, 3)
	assert.Less(t, state.CurrentPage, state.TotalPages+1, "halt is distinguishable from document end")
}

func TestRun_SuccessBreaksErrorStreak(t *testing.T) {
	ctx := context.Background()
	// Pages 1 and 2 fail outright, page 3 succeeds, pages 4 and 5 fail.
	// The streak never reaches three, so the scan runs to the end.
	ex := &fakeExtractor{failuresLeft: map[int]int{1: 2, 2: 2, 4: 2, 5: 2}}
	cr := &fakeCreator{}
	s, _ := newScanner(t, 5, ex, cr, autoscan.DefaultOptions())

	require.NoError(t, s.Start(ctx, 1))
	require.NoError(t, s.Run(ctx))

	state := s.State()
	assert.Equal(t, 6, state.CurrentPage, "reached document end")
	assert.Equal(t, 4, state.Stats.ErrorsCount)
	assert.Equal(t, 2, state.ConsecutiveErrors, "trailing streak from pages 4 and 5")
	assert.Len(t, state.SkippedPages, 4)
}

func TestStart_ClampsPastEndToPageOne(t *testing.T) {
	ctx := context.Background()
	ex := &fakeExtractor{}
	cr := &fakeCreator{}
	s, _ := newScanner(t, 5, ex, cr, autoscan.DefaultOptions())

	require.NoError(t, s.Start(ctx, 12))

	assert.Equal(t, 1, s.State().CurrentPage)
	assert.True(t, s.State().IsScanning)
}

func TestStart_MidDocument(t *testing.T) {
	ctx := context.Background()
	ex := &fakeExtractor{}
	cr := &fakeCreator{}
	s, _ := newScanner(t, 5, ex, cr, autoscan.DefaultOptions())

	require.NoError(t, s.Start(ctx, 3))
	require.NoError(t, s.Run(ctx))

	assert.Equal(t, []int{3, 4, 5}, ex.calls)
}

func TestPause_PreservesStateAndResumeContinues(t *testing.T) {
	ctx := context.Background()
	ex := &fakeExtractor{}
	cr := &fakeCreator{}
	s, store := newScanner(t, 8, ex, cr, autoscan.DefaultOptions())

	require.NoError(t, s.Start(ctx, 1))
	// Cancelled context pauses the loop before the first step.
	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	require.Error(t, s.Run(cancelled))

	paused := s.State()
	assert.False(t, paused.IsScanning)
	assert.Equal(t, 1, paused.CurrentPage)

	// A fresh scanner restores from the checkpoint and resumes at the
	// saved page, never at page 1.
	saved, err := store.Load(ctx, checkpoint.Key(7, "doc-1"))
	require.NoError(t, err)
	require.NotNil(t, saved)

	ex2 := &fakeExtractor{failuresLeft: map[int]int{}}
	cr2 := &fakeCreator{failuresLeft: map[int]int{}}
	s2 := autoscan.New(7, "doc-1", 8, ex2, cr2, store, autoscan.DefaultOptions())
	found, err := s2.Restore(ctx)
	require.NoError(t, err)
	require.True(t, found)
	require.NoError(t, s2.Resume(ctx))
	require.NoError(t, s2.Run(ctx))

	assert.Equal(t, []int{1, 2, 3, 4, 5, 6, 7, 8}, ex2.calls)
}

func TestResume_UsesSavedPageNotPageOne(t *testing.T) {
	ctx := context.Background()
	store := checkpoint.NewMemoryStore()
	key := checkpoint.Key(7, "doc-1")
	require.NoError(t, store.Save(ctx, key, models.AutoScanState{
		DeckID:      7,
		SourceID:    "doc-1",
		IsScanning:  true,
		CurrentPage: 5,
		TotalPages:  6,
		Stats:       models.ScanStats{PagesProcessed: 4, CardsCreated: 9},
	}))

	ex := &fakeExtractor{}
	cr := &fakeCreator{}
	s := autoscan.New(7, "doc-1", 6, ex, cr, store, autoscan.DefaultOptions())

	found, err := s.Restore(ctx)
	require.NoError(t, err)
	require.True(t, found)
	require.NoError(t, s.Resume(ctx))
	require.NoError(t, s.Run(ctx))

	assert.Equal(t, []int{5, 6}, ex.calls)
	state := s.State()
	assert.Equal(t, 6, state.Stats.PagesProcessed, "restored counters carry forward")
	assert.Equal(t, 11, state.Stats.CardsCreated)
}

func TestRestore_CorruptCheckpointStartsFresh(t *testing.T) {
	ctx := context.Background()
	store := checkpoint.NewMemoryStore()
	store.Put(checkpoint.Key(7, "doc-1"), []byte("%%%"))

	s := autoscan.New(7, "doc-1", 6, &fakeExtractor{failuresLeft: map[int]int{}}, &fakeCreator{failuresLeft: map[int]int{}}, store, autoscan.DefaultOptions())

	found, err := s.Restore(ctx)
	require.NoError(t, err)
	assert.False(t, found)
	assert.Equal(t, 1, s.State().CurrentPage)
}

func TestReset_ClearsCheckpoint(t *testing.T) {
	ctx := context.Background()
	ex := &fakeExtractor{}
	cr := &fakeCreator{}
	s, store := newScanner(t, 3, ex, cr, autoscan.DefaultOptions())

	require.NoError(t, s.Start(ctx, 1))
	require.NoError(t, s.Run(ctx))
	require.NoError(t, s.Reset(ctx))

	saved, err := store.Load(ctx, checkpoint.Key(7, "doc-1"))
	require.NoError(t, err)
	assert.Nil(t, saved)
	assert.Equal(t, models.ScanStats{}, s.State().Stats)
}

func TestRun_IncludeNextPageCombinesText(t *testing.T) {
	ctx := context.Background()
	ex := &fakeExtractor{}
	cr := &fakeCreator{}
	opts := autoscan.DefaultOptions()
	opts.IncludeNextPage = true
	s, _ := newScanner(t, 3, ex, cr, opts)

	require.NoError(t, s.Start(ctx, 1))
	require.NoError(t, s.Run(ctx))

	require.Equal(t, []int{1, 2, 3}, cr.pages, "combination mode still advances one page at a time")
	assert.True(t, strings.Contains(cr.texts[0], "text of page 1") && strings.Contains(cr.texts[0], "text of page 2"))
	assert.Contains(t, cr.texts[0], opts.PageDelimiter)
	assert.Equal(t, "text of page 3", cr.texts[2], "the last page is never combined")
	assert.Equal(t, 3, s.State().Stats.PagesProcessed)
}

func TestRun_CreatorReceivesOwningDeck(t *testing.T) {
	ctx := context.Background()
	ex := &fakeExtractor{}
	cr := &fakeCreator{}
	s, _ := newScanner(t, 2, ex, cr, autoscan.DefaultOptions())

	require.NoError(t, s.Start(ctx, 1))
	require.NoError(t, s.Run(ctx))

	for _, id := range cr.deckIDs {
		assert.Equal(t, int64(7), id, "every creation call targets the deck the scan was started for")
	}
}

func TestRun_CheckpointAfterEveryStep(t *testing.T) {
	ctx := context.Background()
	ex := &fakeExtractor{}
	cr := &fakeCreator{}
	s, store := newScanner(t, 3, ex, cr, autoscan.DefaultOptions())

	require.NoError(t, s.Start(ctx, 1))
	require.NoError(t, s.Run(ctx))

	saved, err := store.Load(ctx, checkpoint.Key(7, "doc-1"))
	require.NoError(t, err)
	require.NotNil(t, saved)
	assert.Equal(t, s.State(), *saved, "the stored checkpoint matches the final state")
	assert.False(t, saved.LastUpdated.IsZero())
}

func TestReport_RoundTripsThroughJSON(t *testing.T) {
	ctx := context.Background()
	ex := &fakeExtractor{failuresLeft: map[int]int{2: 2}}
	cr := &fakeCreator{}
	s, _ := newScanner(t, 3, ex, cr, autoscan.DefaultOptions())

	require.NoError(t, s.Start(ctx, 1))
	require.NoError(t, s.Run(ctx))

	report := s.Report()
	raw, err := json.Marshal(report)
	require.NoError(t, err)

	var decoded models.ScanReport
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, report.DeckID, decoded.DeckID)
	assert.Equal(t, report.SourceID, decoded.SourceID)
	assert.Equal(t, report.Stats, decoded.Stats)
	assert.Equal(t, report.SkippedPages, decoded.SkippedPages)
	assert.True(t, report.Timestamp.Equal(decoded.Timestamp))
}
