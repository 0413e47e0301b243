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

var _ repository.AreaRepository = (*AreaRepo)(nil)

// AreaRepo colaborador de áreas sobre PostgreSQL (usable con pool o tx).
// Los modificadores de tarifa viven en JSONB, ya que solo este núcleo los
// lee y el orden de aplicación se decide en memoria.
type AreaRepo struct {
	q Querier
}

// NewAreaRepository construye el adaptador de áreas. Pasar pool o tx (Querier).
func NewAreaRepository(q Querier) *AreaRepo {
	return &AreaRepo{q: q}
}

type modifierRow struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Index        int             `json:"index"`
	Type         string          `json:"type"`
	FixedPrice   *priceRow       `json:"fixedPrice,omitempty"`
	Percent      decimal.Decimal `json:"percent"`
	ApplyToGross bool            `json:"applyToGross"`
	Active       bool            `json:"active"`
}

// GetByID devuelve el área o nil si no existe.
func (r *AreaRepo) GetByID(ctx context.Context, id string) (*entity.Area, error) {
	query := `
		SELECT id, business_id, name, type, default_payment_currency, enforce_currency, modifiers
		FROM areas WHERE id = $1`
	var (
		a         entity.Area
		modifiers []byte
	)
	err := r.q.QueryRow(ctx, query, id).Scan(
		&a.ID, &a.BusinessID, &a.Name, &a.Type, &a.DefaultPaymentCurrency, &a.EnforceCurrency, &modifiers,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get area: %w", err)
	}
	var mrows []modifierRow
	if err := unmarshalJSONB(modifiers, &mrows); err != nil {
		return nil, fmt.Errorf("decode area %s modifiers: %w", a.ID, err)
	}
	for _, m := range mrows {
		mod := entity.FeeModifier{
			ID: m.ID, Name: m.Name, Index: m.Index, Type: m.Type,
			Percent: m.Percent, ApplyToGross: m.ApplyToGross, Active: m.Active,
		}
		if m.FixedPrice != nil {
			mod.FixedPrice = &entity.Price{Amount: m.FixedPrice.Amount, Currency: m.FixedPrice.Currency}
		}
		a.Modifiers = append(a.Modifiers, mod)
	}
	return &a, nil
}
