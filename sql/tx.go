package sql

import (
	"context"
	"database/sql/driver"
)

// Compile-time interface check.
var _ driver.Tx = (*commentTx)(nil)

// commentTx traces the end of a transaction. COMMIT and ROLLBACK carry no
// statement text, so nothing is annotated.
type commentTx struct {
	tx  driver.Tx
	cfg *config
}

func newCommentTx(tx driver.Tx, cfg *config) *commentTx {
	return &commentTx{
		tx:  tx,
		cfg: cfg,
	}
}

// Commit implements driver.Tx.
func (t *commentTx) Commit() error {
	return t.cfg.observe(context.Background(), "COMMIT", func(context.Context) error {
		return t.tx.Commit()
	})
}

// Rollback implements driver.Tx.
func (t *commentTx) Rollback() error {
	return t.cfg.observe(context.Background(), "ROLLBACK", func(context.Context) error {
		return t.tx.Rollback()
	})
}
