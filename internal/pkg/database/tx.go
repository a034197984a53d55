package database

import (
	"context"

	"github.com/jackc/pgx/v5"
)

// TxManager runs fn as one unit of work. Repositories invoked with the
// context handed to fn participate in the same transaction; if fn returns an
// error every write made through that context is rolled back.
type TxManager interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type txKey struct{}

// WithTx stores tx in ctx so repositories pick it up through TxFromContext.
func WithTx(ctx context.Context, tx pgx.Tx) context.Context {
	return context.WithValue(ctx, txKey{}, tx)
}

func TxFromContext(ctx context.Context) (pgx.Tx, bool) {
	tx, ok := ctx.Value(txKey{}).(pgx.Tx)
	return tx, ok
}
