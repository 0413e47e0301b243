package money

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Rate moneda configurada: tasa relativa a la principal (unidades de esta
// moneda por 1 unidad de la principal) y bandera de moneda principal.
type Rate struct {
	Code   string
	Rate   decimal.Decimal
	IsMain bool
}

// RateTable tabla de cambio del negocio con una moneda principal designada.
type RateTable struct {
	rates map[string]decimal.Decimal
	main  string
}

// NewRateTable construye la tabla. Falla con ErrNoMainCurrency si ninguna
// moneda viene marcada como principal.
func NewRateTable(rates []Rate) (*RateTable, error) {
	t := &RateTable{rates: make(map[string]decimal.Decimal, len(rates))}
	for _, r := range rates {
		t.rates[r.Code] = r.Rate
		if r.IsMain {
			t.main = r.Code
		}
	}
	if t.main == "" {
		return nil, ErrNoMainCurrency
	}
	return t, nil
}

// Main devuelve el código de la moneda principal.
func (t *RateTable) Main() string { return t.main }

// Has indica si la moneda está configurada.
func (t *RateTable) Has(code string) bool {
	_, ok := t.rates[code]
	return ok
}

// Exchange convierte un monto a la moneda destino pasando por la principal,
// redondeando a places decimales. Falla con ErrCurrencyNotConfigured si la
// moneda origen o destino no está en la tabla.
func (t *RateTable) Exchange(a Amount, target string, places int32) (Amount, error) {
	if a.Currency == target {
		return Amount{Value: a.Value.Round(places), Currency: target}, nil
	}
	from, ok := t.rates[a.Currency]
	if !ok {
		return Amount{}, fmt.Errorf("moneda origen %s: %w", a.Currency, ErrCurrencyNotConfigured)
	}
	to, ok := t.rates[target]
	if !ok {
		return Amount{}, fmt.Errorf("moneda destino %s: %w", target, ErrCurrencyNotConfigured)
	}
	if from.IsZero() {
		return Amount{}, fmt.Errorf("tasa en cero para %s: %w", a.Currency, ErrCurrencyNotConfigured)
	}
	value := a.Value.Mul(to).Div(from).Round(places)
	return Amount{Value: value, Currency: target}, nil
}
