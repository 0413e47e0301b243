package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/jhoicas/pos-core/internal/domain/entity"
	"github.com/jhoicas/pos-core/internal/domain/repository"
)

var _ repository.StockAreaRepository = (*StockAreaRepo)(nil)

// StockAreaRepo implementación de StockAreaRepository sobre PostgreSQL (usable con pool o tx).
type StockAreaRepo struct {
	q Querier
}

// NewStockAreaRepository construye el adaptador de stock por área. Pasar pool o tx (Querier).
func NewStockAreaRepository(q Querier) *StockAreaRepo {
	return &StockAreaRepo{q: q}
}

// Get obtiene el registro de (producto, área). Si no existe devuelve uno en
// cero: el invariante de borrado en cero hace que ausencia y cero sean lo mismo.
func (r *StockAreaRepo) Get(ctx context.Context, productID, areaID string) (*entity.StockAreaRecord, error) {
	query := `
		SELECT product_id, area_id, quantity, updated_at
		FROM stock_area_products WHERE product_id = $1 AND area_id = $2`
	var s entity.StockAreaRecord
	err := r.q.QueryRow(ctx, query, productID, areaID).Scan(
		&s.ProductID, &s.AreaID, &s.Quantity, &s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &entity.StockAreaRecord{ProductID: productID, AreaID: areaID, Quantity: decimal.Zero}, nil
		}
		return nil, fmt.Errorf("get stock area record: %w", err)
	}
	return &s, nil
}

// GetForUpdate obtiene el registro y bloquea la fila (SELECT FOR UPDATE).
func (r *StockAreaRepo) GetForUpdate(ctx context.Context, productID, areaID string) (*entity.StockAreaRecord, error) {
	query := `
		SELECT product_id, area_id, quantity, updated_at
		FROM stock_area_products WHERE product_id = $1 AND area_id = $2
		FOR UPDATE`
	var s entity.StockAreaRecord
	err := r.q.QueryRow(ctx, query, productID, areaID).Scan(
		&s.ProductID, &s.AreaID, &s.Quantity, &s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &entity.StockAreaRecord{ProductID: productID, AreaID: areaID, Quantity: decimal.Zero}, nil
		}
		return nil, fmt.Errorf("get stock area record for update: %w", mapLockError(err))
	}
	return &s, nil
}

// Upsert inserta o actualiza la cantidad del registro (por producto y área).
func (r *StockAreaRepo) Upsert(ctx context.Context, record *entity.StockAreaRecord) error {
	query := `
		INSERT INTO stock_area_products (product_id, area_id, quantity, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (product_id, area_id)
		DO UPDATE SET quantity = EXCLUDED.quantity, updated_at = now()`
	_, err := r.q.Exec(ctx, query, record.ProductID, record.AreaID, record.Quantity)
	if err != nil {
		return fmt.Errorf("upsert stock area record: %w", err)
	}
	return nil
}

// Delete elimina el registro que llegó a cero exacto.
func (r *StockAreaRepo) Delete(ctx context.Context, productID, areaID string) error {
	query := `DELETE FROM stock_area_products WHERE product_id = $1 AND area_id = $2`
	if _, err := r.q.Exec(ctx, query, productID, areaID); err != nil {
		return fmt.Errorf("delete stock area record: %w", err)
	}
	return nil
}

// GetVariation obtiene el sub-registro de la variación o nil si no existe.
// A diferencia de Get, acá ausencia importa: en modo estricto un sub-registro
// faltante aborta la operación.
func (r *StockAreaRepo) GetVariation(ctx context.Context, productID, areaID, variationID string) (*entity.StockAreaVariationRecord, error) {
	query := `
		SELECT product_id, area_id, variation_id, quantity, updated_at
		FROM stock_area_variations
		WHERE product_id = $1 AND area_id = $2 AND variation_id = $3
		FOR UPDATE`
	var v entity.StockAreaVariationRecord
	err := r.q.QueryRow(ctx, query, productID, areaID, variationID).Scan(
		&v.ProductID, &v.AreaID, &v.VariationID, &v.Quantity, &v.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get stock area variation record: %w", mapLockError(err))
	}
	return &v, nil
}

// UpsertVariation inserta o actualiza el sub-registro de la variación.
func (r *StockAreaRepo) UpsertVariation(ctx context.Context, record *entity.StockAreaVariationRecord) error {
	query := `
		INSERT INTO stock_area_variations (product_id, area_id, variation_id, quantity, updated_at)
		VALUES ($1, $2, $3, $4, now())
		ON CONFLICT (product_id, area_id, variation_id)
		DO UPDATE SET quantity = EXCLUDED.quantity, updated_at = now()`
	_, err := r.q.Exec(ctx, query, record.ProductID, record.AreaID, record.VariationID, record.Quantity)
	if err != nil {
		return fmt.Errorf("upsert stock area variation record: %w", err)
	}
	return nil
}

// DeleteVariation elimina el sub-registro que llegó a cero exacto.
func (r *StockAreaRepo) DeleteVariation(ctx context.Context, productID, areaID, variationID string) error {
	query := `DELETE FROM stock_area_variations WHERE product_id = $1 AND area_id = $2 AND variation_id = $3`
	if _, err := r.q.Exec(ctx, query, productID, areaID, variationID); err != nil {
		return fmt.Errorf("delete stock area variation record: %w", err)
	}
	return nil
}
