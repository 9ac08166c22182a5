package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Masterminds/squirrel"

	"github.com/ederson/cardforge/internal/logger"
	"github.com/ederson/cardforge/internal/models"
	"github.com/ederson/cardforge/internal/repository"
)

var sqlBuilder = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question)

type cardRepository struct {
	db *sql.DB
}

// NewCardRepository creates a new CardRepository implementation
func NewCardRepository(db *sql.DB) repository.CardRepository {
	return &cardRepository{db: db}
}

func (r *cardRepository) Get(ctx context.Context, id int64) (*models.Card, error) {
	log := logger.FromContext(ctx).WithPrefix("card_repo")

	var c models.Card
	err := r.db.QueryRowContext(ctx, `
SELECT id, deck_id, front, back, tags, source_id, source_page, created_at
FROM cards
WHERE id = ?
`, id).Scan(&c.ID, &c.DeckID, &c.Front, &c.Back, &c.Tags, &c.SourceID, &c.SourcePage, &c.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		log.Debug("card not found: id=%d", id)
		return nil, nil
	}
	if err != nil {
		log.Error("failed to get card: %v", err)
		return nil, err
	}
	return &c, nil
}

func (r *cardRepository) filtered(base squirrel.SelectBuilder, filter models.CardFilter) squirrel.SelectBuilder {
	query := base
	if filter.DeckID > 0 {
		query = query.Where(squirrel.Eq{"deck_id": filter.DeckID})
	}
	if filter.SourceID != "" {
		query = query.Where(squirrel.Eq{"source_id": filter.SourceID})
	}
	if filter.Tag != "" {
		query = query.Where("',' || tags || ',' LIKE ?", "%,"+filter.Tag+",%")
	}
	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		query = query.Where(squirrel.Or{
			squirrel.Like{"front": like},
			squirrel.Like{"back": like},
		})
	}
	return query
}

func (r *cardRepository) List(ctx context.Context, filter models.CardFilter) ([]models.Card, error) {
	log := logger.FromContext(ctx).WithPrefix("card_repo")
	log.Debug("listing cards: deck_id=%d, tag=%s, search=%s", filter.DeckID, filter.Tag, filter.Search)

	// Safe ORDER BY with validation
	orderBy := "created_at"
	if filter.OrderBy == "source_page" || filter.OrderBy == "front" {
		orderBy = filter.OrderBy
	}
	orderDir := "DESC"
	if filter.OrderDir == "ASC" {
		orderDir = "ASC"
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 200
	}

	query := r.filtered(sqlBuilder.
		Select("id", "deck_id", "front", "back", "tags", "source_id", "source_page", "created_at").
		From("cards"), filter).
		OrderBy(orderBy + " " + orderDir).
		Limit(uint64(limit)).
		Offset(uint64(filter.Offset))

	sqlStr, args, err := query.ToSql()
	if err != nil {
		log.Error("failed to build card query: %v", err)
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		log.Error("failed to query cards: %v", err)
		return nil, err
	}
	defer rows.Close()

	var cards []models.Card
	for rows.Next() {
		var c models.Card
		if err := rows.Scan(&c.ID, &c.DeckID, &c.Front, &c.Back, &c.Tags, &c.SourceID, &c.SourcePage, &c.CreatedAt); err != nil {
			log.Error("failed to scan card row: %v", err)
			return nil, err
		}
		cards = append(cards, c)
	}
	return cards, rows.Err()
}

func (r *cardRepository) Count(ctx context.Context, filter models.CardFilter) (int, error) {
	log := logger.FromContext(ctx).WithPrefix("card_repo")

	sqlStr, args, err := r.filtered(sqlBuilder.Select("COUNT(*)").From("cards"), filter).ToSql()
	if err != nil {
		log.Error("failed to build card count query: %v", err)
		return 0, err
	}

	var count int
	if err := r.db.QueryRowContext(ctx, sqlStr, args...).Scan(&count); err != nil {
		log.Error("failed to count cards: %v", err)
		return 0, err
	}
	return count, nil
}

func (r *cardRepository) Insert(ctx context.Context, c models.Card) (int64, error) {
	log := logger.FromContext(ctx).WithPrefix("card_repo")
	log.Debug("inserting card: deck_id=%d", c.DeckID)

	res, err := r.db.ExecContext(ctx, `
INSERT INTO cards (deck_id, front, back, tags, source_id, source_page)
VALUES (?, ?, ?, ?, ?, ?)
`, c.DeckID, c.Front, c.Back, c.Tags, c.SourceID, c.SourcePage)
	if err != nil {
		log.Error("failed to insert card: %v", err)
		return 0, err
	}
	return res.LastInsertId()
}

func (r *cardRepository) InsertBatch(ctx context.Context, cards []models.Card) ([]int64, error) {
	log := logger.FromContext(ctx).WithPrefix("card_repo")
	log.Debug("inserting %d cards", len(cards))

	ids := make([]int64, 0, len(cards))
	err := tx(ctx, r.db, func(t *sql.Tx) error {
		stmt, err := t.PrepareContext(ctx, `
INSERT INTO cards (deck_id, front, back, tags, source_id, source_page)
VALUES (?, ?, ?, ?, ?, ?)
`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, c := range cards {
			res, err := stmt.ExecContext(ctx, c.DeckID, c.Front, c.Back, c.Tags, c.SourceID, c.SourcePage)
			if err != nil {
				return err
			}
			id, err := res.LastInsertId()
			if err != nil {
				return err
			}
			ids = append(ids, id)
		}
		return nil
	})
	if err != nil {
		log.Error("failed to insert card batch: %v", err)
		return nil, err
	}
	return ids, nil
}

func (r *cardRepository) IDsForDeck(ctx context.Context, deckID int64) ([]int64, error) {
	log := logger.FromContext(ctx).WithPrefix("card_repo")

	rows, err := r.db.QueryContext(ctx, `
SELECT id FROM cards WHERE deck_id = ? ORDER BY id
`, deckID)
	if err != nil {
		log.Error("failed to query card ids: %v", err)
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
