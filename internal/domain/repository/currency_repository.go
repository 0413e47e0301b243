package repository

import (
	"context"

	"github.com/jhoicas/pos-core/internal/domain/entity"
)

// CurrencyRepository colaborador de monedas: lista de monedas configuradas
// del negocio con tasas de cambio y la bandera de moneda principal.
type CurrencyRepository interface {
	ListByBusiness(ctx context.Context, businessID string) ([]*entity.Currency, error)
}
