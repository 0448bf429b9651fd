package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/vytor/studyflash/internal/logger"
	"github.com/vytor/studyflash/internal/models"
	"github.com/vytor/studyflash/internal/repository"
)

var deckColumns = []string{"id", "user_id", "name", "description", "created_at", "updated_at"}

type deckRepository struct {
	db *sql.DB
}

// NewDeckRepository creates a new DeckRepository implementation
func NewDeckRepository(db *sql.DB) repository.DeckRepository {
	return &deckRepository{db: db}
}

func (r *deckRepository) List(ctx context.Context, userID int64) ([]models.Deck, error) {
	log := logger.FromContext(ctx).WithPrefix("deck_repo")
	log.Debug("listing decks: user_id=%d", userID)

	query, args, err := sqlBuilder.Select(deckColumns...).
		From("decks").
		Where(squirrel.Eq{"user_id": userID}).
		OrderBy("id").
		ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to query decks: %v", err)
		return nil, err
	}
	defer rows.Close()

	var decks []models.Deck
	for rows.Next() {
		var d models.Deck
		if err := rows.Scan(&d.ID, &d.UserID, &d.Name, &d.Description, &d.CreatedAt, &d.UpdatedAt); err != nil {
			log.Error("failed to scan deck row: %v", err)
			return nil, err
		}
		decks = append(decks, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := r.attachCards(ctx, decks); err != nil {
		return nil, err
	}
	log.Debug("found %d decks", len(decks))
	return decks, nil
}

func (r *deckRepository) Get(ctx context.Context, id, userID int64) (*models.Deck, error) {
	log := logger.FromContext(ctx).WithPrefix("deck_repo")

	query, args, err := sqlBuilder.Select(deckColumns...).
		From("decks").
		Where(squirrel.Eq{"id": id, "user_id": userID}).
		ToSql()
	if err != nil {
		return nil, err
	}

	var d models.Deck
	err = r.db.QueryRowContext(ctx, query, args...).
		Scan(&d.ID, &d.UserID, &d.Name, &d.Description, &d.CreatedAt, &d.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		log.Debug("deck not found: id=%d", id)
		return nil, nil
	}
	if err != nil {
		log.Error("failed to get deck: %v", err)
		return nil, err
	}

	decks := []models.Deck{d}
	if err := r.attachCards(ctx, decks); err != nil {
		return nil, err
	}
	return &decks[0], nil
}

// attachCards loads the cards of all decks with one query.
func (r *deckRepository) attachCards(ctx context.Context, decks []models.Deck) error {
	if len(decks) == 0 {
		return nil
	}
	ids := make([]int64, len(decks))
	index := make(map[int64]int, len(decks))
	for i, d := range decks {
		ids[i] = d.ID
		index[d.ID] = i
		decks[i].Cards = []models.Card{}
	}

	query, args, err := sqlBuilder.Select("id", "deck_id", "question", "answer").
		From("cards").
		Where(squirrel.Eq{"deck_id": ids}).
		OrderBy("deck_id", "position", "id").
		ToSql()
	if err != nil {
		return err
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		logger.FromContext(ctx).WithPrefix("deck_repo").Error("failed to query cards: %v", err)
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var c models.Card
		if err := rows.Scan(&c.ID, &c.DeckID, &c.Question, &c.Answer); err != nil {
			return err
		}
		i := index[c.DeckID]
		decks[i].Cards = append(decks[i].Cards, c)
	}
	return rows.Err()
}

func (r *deckRepository) Create(ctx context.Context, deck *models.Deck) error {
	log := logger.FromContext(ctx).WithPrefix("deck_repo")
	log.Debug("creating deck: user_id=%d, cards=%d", deck.UserID, len(deck.Cards))

	now := time.Now().UTC()
	err := tx(ctx, r.db, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
INSERT INTO decks (user_id, name, description, created_at, updated_at)
VALUES (?, ?, ?, ?, ?)
`, deck.UserID, deck.Name, deck.Description, now, now)
		if err != nil {
			return err
		}
		if deck.ID, err = res.LastInsertId(); err != nil {
			return err
		}
		return insertCards(ctx, tx, deck.ID, deck.Cards)
	})
	if err != nil {
		log.Error("failed to create deck: %v", err)
		return err
	}
	deck.CreatedAt, deck.UpdatedAt = now, now
	log.Info("deck created: id=%d, cards=%d", deck.ID, len(deck.Cards))
	return nil
}

func (r *deckRepository) Update(ctx context.Context, deck *models.Deck, replaceCards bool) error {
	log := logger.FromContext(ctx).WithPrefix("deck_repo")
	log.Debug("updating deck: id=%d, replace_cards=%v", deck.ID, replaceCards)

	now := time.Now().UTC()
	err := tx(ctx, r.db, func(tx *sql.Tx) error {
		query, args, err := sqlBuilder.Update("decks").
			Set("name", deck.Name).
			Set("description", deck.Description).
			Set("updated_at", now).
			Where(squirrel.Eq{"id": deck.ID, "user_id": deck.UserID}).
			ToSql()
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return err
		}
		if !replaceCards {
			return nil
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM cards WHERE deck_id = ?`, deck.ID); err != nil {
			return err
		}
		return insertCards(ctx, tx, deck.ID, deck.Cards)
	})
	if err != nil {
		log.Error("failed to update deck: %v", err)
		return err
	}
	deck.UpdatedAt = now
	return nil
}

func insertCards(ctx context.Context, tx *sql.Tx, deckID int64, cards []models.Card) error {
	for i := range cards {
		query, args, err := sqlBuilder.Insert("cards").
			Columns("deck_id", "question", "answer", "position").
			Values(deckID, cards[i].Question, cards[i].Answer, i).
			ToSql()
		if err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return err
		}
		if cards[i].ID, err = res.LastInsertId(); err != nil {
			return err
		}
		cards[i].DeckID = deckID
	}
	return nil
}

func (r *deckRepository) Delete(ctx context.Context, id, userID int64) (bool, error) {
	log := logger.FromContext(ctx).WithPrefix("deck_repo")

	res, err := r.db.ExecContext(ctx, `DELETE FROM decks WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		log.Error("failed to delete deck: %v", err)
		return false, err
	}
	deleted, err := affected(res)
	if deleted {
		log.Info("deck deleted: id=%d", id)
	}
	return deleted, err
}

func (r *deckRepository) GetCard(ctx context.Context, cardID, userID int64) (*models.Card, error) {
	var c models.Card
	err := r.db.QueryRowContext(ctx, `
SELECT c.id, c.deck_id, c.question, c.answer
FROM cards c
JOIN decks d ON d.id = c.deck_id
WHERE c.id = ? AND d.user_id = ?
`, cardID, userID).Scan(&c.ID, &c.DeckID, &c.Question, &c.Answer)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		logger.FromContext(ctx).WithPrefix("deck_repo").Error("failed to get card: %v", err)
		return nil, err
	}
	return &c, nil
}
