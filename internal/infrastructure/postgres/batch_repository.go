package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jhoicas/pos-core/internal/domain/entity"
	"github.com/jhoicas/pos-core/internal/domain/repository"
)

var _ repository.BatchRepository = (*BatchRepo)(nil)

// BatchRepo implementación de BatchRepository sobre PostgreSQL (usable con pool o tx).
type BatchRepo struct {
	q Querier
}

// NewBatchRepository construye el adaptador de lotes. Pasar pool o tx (Querier).
func NewBatchRepository(q Querier) *BatchRepo {
	return &BatchRepo{q: q}
}

// ListByStockArea devuelve los lotes del registro de área, bloqueados para
// update: el Ledger los consume dentro de la misma tx. El orden FIFO/FEFO lo
// decide el Ledger en memoria, acá solo un orden estable de lectura.
func (r *BatchRepo) ListByStockArea(ctx context.Context, productID, areaID string) ([]*entity.BatchRecord, error) {
	query := `
		SELECT id, product_id, area_id, code, quantity, entry_at, expiration_at
		FROM stock_batches
		WHERE product_id = $1 AND area_id = $2
		ORDER BY entry_at, code
		FOR UPDATE`
	rows, err := r.q.Query(ctx, query, productID, areaID)
	if err != nil {
		return nil, fmt.Errorf("list stock batches: %w", mapLockError(err))
	}
	defer rows.Close()
	var list []*entity.BatchRecord
	for rows.Next() {
		var b entity.BatchRecord
		if err := rows.Scan(&b.ID, &b.ProductID, &b.AreaID, &b.Code, &b.Quantity, &b.EntryAt, &b.ExpirationAt); err != nil {
			return nil, fmt.Errorf("scan stock batch: %w", err)
		}
		list = append(list, &b)
	}
	return list, rows.Err()
}

// Upsert inserta o actualiza el lote.
func (r *BatchRepo) Upsert(ctx context.Context, batch *entity.BatchRecord) error {
	if batch.ID == "" {
		batch.ID = uuid.New().String()
	}
	query := `
		INSERT INTO stock_batches (id, product_id, area_id, code, quantity, entry_at, expiration_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id)
		DO UPDATE SET quantity = EXCLUDED.quantity`
	_, err := r.q.Exec(ctx, query,
		batch.ID, batch.ProductID, batch.AreaID, batch.Code, batch.Quantity, batch.EntryAt, batch.ExpirationAt)
	if err != nil {
		return fmt.Errorf("upsert stock batch: %w", err)
	}
	return nil
}

// Delete elimina un lote totalmente consumido.
func (r *BatchRepo) Delete(ctx context.Context, id string) error {
	if _, err := r.q.Exec(ctx, `DELETE FROM stock_batches WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete stock batch: %w", err)
	}
	return nil
}
