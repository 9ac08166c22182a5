package models

import "time"

// Auto-scan JSON uses camelCase keys: the checkpoint payload and the skip
// report are consumed by the web client and exported for operator review,
// and that contract predates this server.

type ScanStats struct {
	CardsCreated   int `json:"cardsCreated"`
	PagesProcessed int `json:"pagesProcessed"`
	ErrorsCount    int `json:"errorsCount"`
}

type SkippedPage struct {
	PageNumber int    `json:"pageNumber"`
	Reason     string `json:"reason"`
}

// AutoScanState is the durable checkpoint for one deck+source scan.
// ConsecutiveErrors and SkippedPages move independently: a page can be
// skipped by the operator's settings without counting as an error.
type AutoScanState struct {
	DeckID            int64         `json:"deckId"`
	SourceID          string        `json:"sourceId"`
	IsScanning        bool          `json:"isScanning"`
	CurrentPage       int           `json:"currentPage"` // 1-based
	TotalPages        int           `json:"totalPages"`
	IncludeNextPage   bool          `json:"includeNextPage"`
	Mode              string        `json:"mode,omitempty"`
	SessionTags       []string      `json:"sessionTags,omitempty"`
	Stats             ScanStats     `json:"stats"`
	SkippedPages      []SkippedPage `json:"skippedPages"`
	ConsecutiveErrors int           `json:"consecutiveErrors"`
	LastUpdated       time.Time     `json:"lastUpdated"`
}

// ScanReport is the exported skip report for operator review.
type ScanReport struct {
	DeckID       int64         `json:"deckId"`
	SourceID     string        `json:"sourceId"`
	Stats        ScanStats     `json:"stats"`
	SkippedPages []SkippedPage `json:"skippedPages"`
	Timestamp    time.Time     `json:"timestamp"`
}
