package repository

import (
	"context"

	"github.com/jhoicas/pos-core/internal/domain/entity"
)

// BatchRepository lotes de un registro de stock por área. Capa opcional de
// mayor grano consumida bajo FIFO/FEFO; el orden lo decide el Ledger.
type BatchRepository interface {
	ListByStockArea(ctx context.Context, productID, areaID string) ([]*entity.BatchRecord, error)
	Upsert(ctx context.Context, batch *entity.BatchRecord) error
	Delete(ctx context.Context, id string) error
}
