package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// Migrate applies idempotent schema statements in a single transaction.
func Migrate(ctx context.Context, db Beginner, statements ...string) error {
	return WithTx(ctx, db, func(tx pgx.Tx) error {
		for i, stmt := range statements {
			if _, err := tx.Exec(ctx, stmt); err != nil {
				return fmt.Errorf("audit db: migrate statement %d: %w", i+1, err)
			}
		}
		return nil
	})
}
