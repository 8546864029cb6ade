package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/overboard-game/server/internal/domain"
)

// DBTX abstracts pgx.Tx and pgxpool.Pool so repositories work with both.
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

// GameRepository provides whole-document access to the games table. The
// sync core always loads and saves the entire aggregate; there is no
// field-level diffing.
type GameRepository interface {
	// Load returns the game snapshot, or nil when no game has this id.
	Load(ctx context.Context, db DBTX, id int64) (*domain.Game, error)

	// Save overwrites the full game document.
	Save(ctx context.Context, db DBTX, game *domain.Game) error

	// Create inserts an empty game document. Duplicate ids conflict.
	Create(ctx context.Context, db DBTX, game *domain.Game) error

	// Exists reports whether a game with this id exists.
	Exists(ctx context.Context, db DBTX, id int64) (bool, error)
}
