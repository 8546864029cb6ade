package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/overboard-game/server/internal/domain"
)

type gameRepo struct{}

// NewGameRepository returns a pgx-backed GameRepository.
func NewGameRepository() GameRepository {
	return &gameRepo{}
}

func (r *gameRepo) Load(ctx context.Context, db DBTX, id int64) (*domain.Game, error) {
	var doc []byte
	err := db.QueryRow(ctx, `SELECT doc FROM games WHERE id = $1`, id).Scan(&doc)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("load game: %w", err)
	}

	var game domain.Game
	if err := json.Unmarshal(doc, &game); err != nil {
		return nil, fmt.Errorf("decode game document: %w", err)
	}
	return &game, nil
}

func (r *gameRepo) Save(ctx context.Context, db DBTX, game *domain.Game) error {
	doc, err := json.Marshal(game)
	if err != nil {
		return fmt.Errorf("encode game document: %w", err)
	}
	_, err = db.Exec(ctx, `
		INSERT INTO games (id, doc) VALUES ($1, $2)
		ON CONFLICT (id) DO UPDATE SET doc = EXCLUDED.doc, updated_at = now()`,
		game.ID, doc)
	if err != nil {
		return fmt.Errorf("save game: %w", err)
	}
	return nil
}

func (r *gameRepo) Create(ctx context.Context, db DBTX, game *domain.Game) error {
	doc, err := json.Marshal(game)
	if err != nil {
		return fmt.Errorf("encode game document: %w", err)
	}
	_, err = db.Exec(ctx, `INSERT INTO games (id, doc) VALUES ($1, $2)`, game.ID, doc)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return domain.ErrConflict(fmt.Sprintf("game with id %d already exists", game.ID))
		}
		return fmt.Errorf("insert game: %w", err)
	}
	return nil
}

func (r *gameRepo) Exists(ctx context.Context, db DBTX, id int64) (bool, error) {
	var exists bool
	err := db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM games WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check game exists: %w", err)
	}
	return exists, nil
}
