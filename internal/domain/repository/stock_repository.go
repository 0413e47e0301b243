package repository

import (
	"context"

	"github.com/jhoicas/pos-core/internal/domain/entity"
)

// StockAreaRepository registros de stock por (producto, área) y sus
// sub-registros por variación. Solo el Ledger los muta, dentro de una tx.
type StockAreaRepository interface {
	// Get devuelve el registro o uno en cero si no existe (no es error).
	Get(ctx context.Context, productID, areaID string) (*entity.StockAreaRecord, error)
	// GetForUpdate igual que Get pero bloqueando la fila (SELECT FOR UPDATE).
	GetForUpdate(ctx context.Context, productID, areaID string) (*entity.StockAreaRecord, error)
	// Upsert inserta o actualiza la cantidad del registro.
	Upsert(ctx context.Context, record *entity.StockAreaRecord) error
	// Delete elimina el registro (cantidad llegó a cero exacto).
	Delete(ctx context.Context, productID, areaID string) error

	GetVariation(ctx context.Context, productID, areaID, variationID string) (*entity.StockAreaVariationRecord, error)
	UpsertVariation(ctx context.Context, record *entity.StockAreaVariationRecord) error
	DeleteVariation(ctx context.Context, productID, areaID, variationID string) error
}
