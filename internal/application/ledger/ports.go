package ledger

import (
	"context"

	"github.com/jhoicas/pos-core/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción de BD, pasando
// repositorios atados a esa tx. Garantiza atomicidad para el motor de stock:
// cualquier error dentro de fn revierte todo el batch (cero escrituras
// parciales).
type TxRunner interface {
	Run(ctx context.Context, fn func(
		stockRepo repository.StockAreaRepository,
		batchRepo repository.BatchRepository,
		productRepo repository.ProductRepository,
	) error) error
}
