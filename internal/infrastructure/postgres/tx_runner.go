package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jhoicas/Facturacion-api/internal/application/facturacion"
	"github.com/jhoicas/Facturacion-api/internal/domain/repository"
)

var _ facturacion.AnulacionTxRunner = (*TxRunner)(nil)

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL.
type TxRunner struct {
	pool *pgxpool.Pool
}

// NewTxRunner construye el runner con el pool.
func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

// RunAnulacion inicia una transacción con los repos del cierre de anulación
// atados a la tx y hace Commit o Rollback. El cierre (DTE padre a ANULADO,
// reversión de la venta, evento a PROCESADO) cae completo o no cae.
func (r *TxRunner) RunAnulacion(ctx context.Context, fn func(
	dteRepo repository.DTERepository,
	invRepo repository.InvalidacionRepository,
	ventaRepo repository.VentaRepository,
) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	dteRepo := NewDTERepository(tx)
	invRepo := NewInvalidacionRepository(tx)
	ventaRepo := NewVentaRepository(tx)

	if err := fn(dteRepo, invRepo, ventaRepo); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
