package sqlite_test

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/ederson/cardforge/internal/models"
	"github.com/ederson/cardforge/internal/repository"
	"github.com/ederson/cardforge/internal/repository/sqlite"
	"github.com/ederson/cardforge/internal/testutil"
)

type CardRepositorySuite struct {
	suite.Suite
	db   *sql.DB
	repo repository.CardRepository
}

func (s *CardRepositorySuite) SetupTest() {
	s.db = testutil.NewTestDB(s.T())
	s.repo = sqlite.NewCardRepository(s.db)
}

func (s *CardRepositorySuite) TearDownTest() {
	testutil.MustClose(s.T(), s.db)
}

func (s *CardRepositorySuite) setupDeck() int64 {
	ctx := context.Background()

	_, err := s.db.ExecContext(ctx, `INSERT INTO profiles (username) VALUES (?)`, "testuser")
	s.Require().NoError(err)

	var profileID int64
	err = s.db.QueryRowContext(ctx, `SELECT id FROM profiles WHERE username = ?`, "testuser").Scan(&profileID)
	s.Require().NoError(err)

	_, err = s.db.ExecContext(ctx, `INSERT INTO decks (profile_id, name, description) VALUES (?, ?, ?)`,
		profileID, "Biology", "cell structure")
	s.Require().NoError(err)

	var deckID int64
	err = s.db.QueryRowContext(ctx, `SELECT id FROM decks WHERE name = ?`, "Biology").Scan(&deckID)
	s.Require().NoError(err)

	return deckID
}

func (s *CardRepositorySuite) TestInsertAndGet() {
	ctx := context.Background()
	deckID := s.setupDeck()

	id, err := s.repo.Insert(ctx, models.Card{
		DeckID:     deckID,
		Front:      "What is a mitochondrion?",
		Back:       "The organelle that produces ATP.",
		Tags:       "biology,organelles",
		SourceID:   "bio-101.pdf",
		SourcePage: 12,
	})
	s.Require().NoError(err)
	s.Assert().Greater(id, int64(0))

	card, err := s.repo.Get(ctx, id)
	s.Require().NoError(err)
	s.Require().NotNil(card)
	s.Assert().Equal(deckID, card.DeckID)
	s.Assert().Equal("What is a mitochondrion?", card.Front)
	s.Assert().Equal(12, card.SourcePage)
}

func (s *CardRepositorySuite) TestGetNotFound() {
	card, err := s.repo.Get(context.Background(), 99999)
	s.Require().NoError(err)
	s.Assert().Nil(card)
}

func (s *CardRepositorySuite) TestInsertBatch() {
	ctx := context.Background()
	deckID := s.setupDeck()

	ids, err := s.repo.InsertBatch(ctx, []models.Card{
		{DeckID: deckID, Front: "f1", Back: "b1", SourceID: "doc", SourcePage: 1},
		{DeckID: deckID, Front: "f2", Back: "b2", SourceID: "doc", SourcePage: 1},
		{DeckID: deckID, Front: "f3", Back: "b3", SourceID: "doc", SourcePage: 2},
	})
	s.Require().NoError(err)
	s.Require().Len(ids, 3)

	count, err := s.repo.Count(ctx, models.CardFilter{DeckID: deckID})
	s.Require().NoError(err)
	s.Assert().Equal(3, count)

	deckIDs, err := s.repo.IDsForDeck(ctx, deckID)
	s.Require().NoError(err)
	s.Assert().Equal(ids, deckIDs)
}

func (s *CardRepositorySuite) TestListFilters() {
	ctx := context.Background()
	deckID := s.setupDeck()

	_, err := s.repo.InsertBatch(ctx, []models.Card{
		{DeckID: deckID, Front: "Krebs cycle steps", Back: "eight", Tags: "biology,metabolism", SourceID: "bio-101.pdf", SourcePage: 3},
		{DeckID: deckID, Front: "Cell wall material", Back: "cellulose", Tags: "biology", SourceID: "bio-101.pdf", SourcePage: 4},
		{DeckID: deckID, Front: "Capital of France", Back: "Paris", Tags: "geography", SourceID: "geo.pdf", SourcePage: 1},
	})
	s.Require().NoError(err)

	byTag, err := s.repo.List(ctx, models.CardFilter{DeckID: deckID, Tag: "metabolism"})
	s.Require().NoError(err)
	s.Require().Len(byTag, 1)
	s.Assert().Equal("Krebs cycle steps", byTag[0].Front)

	bySource, err := s.repo.List(ctx, models.CardFilter{DeckID: deckID, SourceID: "bio-101.pdf"})
	s.Require().NoError(err)
	s.Assert().Len(bySource, 2)

	bySearch, err := s.repo.List(ctx, models.CardFilter{DeckID: deckID, Search: "paris"})
	s.Require().NoError(err)
	s.Require().Len(bySearch, 1)
	s.Assert().Equal("Capital of France", bySearch[0].Front)

	// Tag filter must not match substrings of other tags
	none, err := s.repo.List(ctx, models.CardFilter{DeckID: deckID, Tag: "bio"})
	s.Require().NoError(err)
	s.Assert().Empty(none)
}

func (s *CardRepositorySuite) TestListPagination() {
	ctx := context.Background()
	deckID := s.setupDeck()

	var cards []models.Card
	for i := 1; i <= 5; i++ {
		cards = append(cards, models.Card{DeckID: deckID, Front: "front", Back: "back", SourceID: "doc", SourcePage: i})
	}
	_, err := s.repo.InsertBatch(ctx, cards)
	s.Require().NoError(err)

	page, err := s.repo.List(ctx, models.CardFilter{
		DeckID: deckID, Limit: 2, Offset: 2, OrderBy: "source_page", OrderDir: "ASC",
	})
	s.Require().NoError(err)
	s.Require().Len(page, 2)
	s.Assert().Equal(3, page[0].SourcePage)
	s.Assert().Equal(4, page[1].SourcePage)
}

func TestCardRepositorySuite(t *testing.T) {
	suite.Run(t, new(CardRepositorySuite))
}
