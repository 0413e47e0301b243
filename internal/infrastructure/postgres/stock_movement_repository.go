package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jhoicas/pos-core/internal/domain/entity"
	"github.com/jhoicas/pos-core/internal/domain/repository"
)

var _ repository.StockMovementRepository = (*StockMovementRepo)(nil)

// StockMovementRepo implementación del colaborador de auditoría sobre
// PostgreSQL. El Ledger lo invoca después del commit con su propio contexto:
// un fallo acá se loguea y no toca el stock.
type StockMovementRepo struct {
	q Querier
}

// NewStockMovementRepository construye el adaptador. Pasar pool o tx (Querier).
func NewStockMovementRepository(q Querier) *StockMovementRepo {
	return &StockMovementRepo{q: q}
}

// Create persiste un movimiento de stock.
func (r *StockMovementRepo) Create(ctx context.Context, movement *entity.StockMovement) error {
	if movement.ID == "" {
		movement.ID = uuid.New().String()
	}
	query := `
		INSERT INTO stock_movements
			(id, business_id, product_id, area_id, variation_id, operation, quantity, cost_at_time, reference, created_at, created_by)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6, $7, $8, $9, $10, $11)`
	_, err := r.q.Exec(ctx, query,
		movement.ID, movement.BusinessID, movement.ProductID, movement.AreaID, movement.VariationID,
		movement.Operation, movement.Quantity, movement.CostAtTime, movement.Reference,
		movement.CreatedAt, movement.CreatedBy,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("movimiento duplicado %s: %w", movement.ID, err)
		}
		return fmt.Errorf("create stock movement: %w", err)
	}
	return nil
}
