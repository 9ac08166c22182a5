package models

import "time"

type Deck struct {
	ID          int64     `json:"id"`
	ProfileID   int64     `json:"profile_id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

type Card struct {
	ID         int64     `json:"id"`
	DeckID     int64     `json:"deck_id"`
	Front      string    `json:"front"`
	Back       string    `json:"back"`
	Tags       string    `json:"tags"` // comma-separated
	SourceID   string    `json:"source_id"`
	SourcePage int       `json:"source_page"`
	CreatedAt  time.Time `json:"created_at"`
}

type CardFilter struct {
	DeckID   int64
	Tag      string
	SourceID string
	Search   string
	Limit    int
	Offset   int
	OrderBy  string
	OrderDir string
}

// CardDraft is a card candidate produced by the drafting collaborator,
// not yet persisted.
type CardDraft struct {
	Front string   `json:"front"`
	Back  string   `json:"back"`
	Tags  []string `json:"tags"`
}
