package srs

import (
	"sort"
	"time"

	"github.com/ederson/cardforge/internal/models"
)

// BatchOptions controls how a study batch is assembled.
type BatchOptions struct {
	PageSize        int // cap on the due portion per page
	Offset          int // offset into the due portion; >0 means a later page
	NewCardCap      int // most new cards injected into the batch
	InterleaveRatio int // one new card after every InterleaveRatio due cards
}

// DefaultBatchOptions mirror a deck page of twenty with up to ten new cards
// woven in one-per-three.
func DefaultBatchOptions() BatchOptions {
	return BatchOptions{PageSize: 20, Offset: 0, NewCardCap: 10, InterleaveRatio: 3}
}

// CountDue returns how many progress records in the deck are due at the
// given time. Suspended cards never count. The result only grows as now
// advances.
func CountDue(records []models.CardProgress, deckID int64, now time.Time) int {
	n := 0
	for _, r := range records {
		if r.DeckID != deckID || r.Suspended {
			continue
		}
		if !r.NextReview.After(now) {
			n++
		}
	}
	return n
}

// SelectDueBatch assembles an ordered study batch from the candidate cards.
// Candidates with a progress record are "due" when their next review is at
// or before now and they are not suspended; candidates without a record are
// "new". Due cards come back in ascending next-review order, paginated by
// Offset/PageSize; new cards are capped at NewCardCap and woven into the
// first page only, one after every InterleaveRatio due cards, leftovers
// appended at the tail.
func SelectDueBatch(candidates []int64, progress map[int64]models.CardProgress, now time.Time, opts BatchOptions) []int64 {
	var due, fresh []int64
	for _, id := range candidates {
		p, ok := progress[id]
		if !ok {
			fresh = append(fresh, id)
			continue
		}
		if p.Suspended {
			continue
		}
		if !p.NextReview.After(now) {
			due = append(due, id)
		}
	}

	sort.SliceStable(due, func(i, j int) bool {
		return progress[due[i]].NextReview.Before(progress[due[j]].NextReview)
	})

	// Pagination applies to the due portion only.
	if opts.Offset > 0 {
		if opts.Offset >= len(due) {
			due = nil
		} else {
			due = due[opts.Offset:]
		}
	}
	if opts.PageSize > 0 && len(due) > opts.PageSize {
		due = due[:opts.PageSize]
	}

	// New cards only join the first page.
	if opts.Offset > 0 {
		return due
	}
	if opts.NewCardCap >= 0 && len(fresh) > opts.NewCardCap {
		fresh = fresh[:opts.NewCardCap]
	}
	return interleave(due, fresh, opts.InterleaveRatio)
}

func interleave(due, fresh []int64, ratio int) []int64 {
	if len(due) == 0 {
		return fresh
	}
	if len(fresh) == 0 {
		return due
	}
	if ratio <= 0 {
		ratio = 3
	}

	out := make([]int64, 0, len(due)+len(fresh))
	next := 0
	for i, id := range due {
		out = append(out, id)
		if (i+1)%ratio == 0 && next < len(fresh) {
			out = append(out, fresh[next])
			next++
		}
	}
	return append(out, fresh[next:]...)
}
