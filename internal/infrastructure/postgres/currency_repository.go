package postgres

import (
	"context"
	"fmt"

	"github.com/jhoicas/pos-core/internal/domain/entity"
	"github.com/jhoicas/pos-core/internal/domain/repository"
)

var _ repository.CurrencyRepository = (*CurrencyRepo)(nil)

// CurrencyRepo colaborador de monedas sobre PostgreSQL (usable con pool o tx).
type CurrencyRepo struct {
	q Querier
}

// NewCurrencyRepository construye el adaptador de monedas. Pasar pool o tx (Querier).
func NewCurrencyRepository(q Querier) *CurrencyRepo {
	return &CurrencyRepo{q: q}
}

// ListByBusiness devuelve las monedas configuradas del negocio con sus tasas
// y la bandera de moneda principal.
func (r *CurrencyRepo) ListByBusiness(ctx context.Context, businessID string) ([]*entity.Currency, error) {
	query := `
		SELECT code, exchange_rate, is_main
		FROM business_currencies
		WHERE business_id = $1
		ORDER BY code`
	rows, err := r.q.Query(ctx, query, businessID)
	if err != nil {
		return nil, fmt.Errorf("list business currencies: %w", err)
	}
	defer rows.Close()
	var list []*entity.Currency
	for rows.Next() {
		var c entity.Currency
		if err := rows.Scan(&c.Code, &c.ExchangeRate, &c.IsMain); err != nil {
			return nil, fmt.Errorf("scan business currency: %w", err)
		}
		list = append(list, &c)
	}
	return list, rows.Err()
}
