package repository

import (
	"context"

	"github.com/jhoicas/pos-core/internal/domain/entity"
)

// StockMovementRepository colaborador de auditoría. Los movimientos se emiten
// después del commit y fire-and-forget: un fallo aquí no revierte stock.
type StockMovementRepository interface {
	Create(ctx context.Context, movement *entity.StockMovement) error
}
