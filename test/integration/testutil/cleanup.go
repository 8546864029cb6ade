//go:build integration

package testutil

import (
	"context"
	"time"
)

// CleanAll truncates the games table so every test starts from an empty store.
func (env *TestEnv) CleanAll() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, _ = env.Pool.Exec(ctx, "TRUNCATE TABLE games")
}
