package money

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Errores del paquete.
var (
	ErrCurrencyMismatch      = errors.New("las monedas no coinciden")
	ErrCurrencyNotConfigured = errors.New("moneda ausente de la tabla de cambio")
	ErrNoMainCurrency        = errors.New("la tabla de cambio no tiene moneda principal")
	ErrDivisionByZero        = errors.New("división por cero")
)

// Amount monto monetario: cantidad decimal más código de moneda.
// La aritmética entre dos Amount exige la misma moneda; combinar monedas
// distintas requiere un paso explícito de cambio vía RateTable.
//
// Política de precisión: cada acumulación se redondea a la precisión indicada
// en cada paso (no solo al final). Es una decisión deliberada para reproducir
// al centavo los totales del sistema de caja que redondea las sumas
// intermedias una a una.
type Amount struct {
	Value    decimal.Decimal
	Currency string
}

// New construye un monto.
func New(value decimal.Decimal, currency string) Amount {
	return Amount{Value: value, Currency: currency}
}

// Zero monto cero en la moneda indicada.
func Zero(currency string) Amount {
	return Amount{Value: decimal.Zero, Currency: currency}
}

// Add suma b redondeando el resultado a places decimales.
func (a Amount) Add(b Amount, places int32) (Amount, error) {
	if a.Currency != b.Currency {
		return Amount{}, fmt.Errorf("sumar %s con %s: %w", a.Currency, b.Currency, ErrCurrencyMismatch)
	}
	return Amount{Value: a.Value.Add(b.Value).Round(places), Currency: a.Currency}, nil
}

// Sub resta b redondeando el resultado a places decimales.
func (a Amount) Sub(b Amount, places int32) (Amount, error) {
	if a.Currency != b.Currency {
		return Amount{}, fmt.Errorf("restar %s con %s: %w", a.Currency, b.Currency, ErrCurrencyMismatch)
	}
	return Amount{Value: a.Value.Sub(b.Value).Round(places), Currency: a.Currency}, nil
}

// Mul multiplica por un factor escalar redondeando a places decimales.
func (a Amount) Mul(factor decimal.Decimal, places int32) Amount {
	return Amount{Value: a.Value.Mul(factor).Round(places), Currency: a.Currency}
}

// Div divide por un divisor escalar redondeando a places decimales.
func (a Amount) Div(divisor decimal.Decimal, places int32) (Amount, error) {
	if divisor.IsZero() {
		return Amount{}, ErrDivisionByZero
	}
	return Amount{Value: a.Value.Div(divisor).Round(places), Currency: a.Currency}, nil
}

// Truncate corta a places decimales sin redondear.
func (a Amount) Truncate(places int32) Amount {
	return Amount{Value: a.Value.Truncate(places), Currency: a.Currency}
}

// Neg invierte el signo.
func (a Amount) Neg() Amount {
	return Amount{Value: a.Value.Neg(), Currency: a.Currency}
}

// IsZero indica cantidad cero.
func (a Amount) IsZero() bool { return a.Value.IsZero() }

func (a Amount) String() string {
	return a.Value.String() + " " + a.Currency
}
