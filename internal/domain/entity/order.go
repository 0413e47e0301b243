package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados de una línea vendida.
const (
	SoldLineStatusReceived  = "RECEIVED"
	SoldLineStatusCancelled = "CANCELLED"
)

// SoldAddon agrego de una línea vendida, con precio propio.
type SoldAddon struct {
	ProductID string
	Name      string
	Quantity  decimal.Decimal
	UnitPrice Price
}

// SoldLine línea de productos vendidos en una orden en curso.
type SoldLine struct {
	ProductID        string
	VariationID      string
	Name             string
	Quantity         decimal.Decimal
	UnitPrice        Price
	Addons           []SoldAddon
	ProductionAreaID string
	Status           string
}

// AppliedModifier modificador de tarifa ya aplicado a la orden, con el monto
// firmado resultante, para mostrarlo como línea del recibo.
type AppliedModifier struct {
	ModifierID string
	Name       string
	Amount     decimal.Decimal // negativo para descuentos
	Currency   string
}

// OrderSession orden en curso que arma una transacción: se crea vacía al
// abrir la orden, se muta solo agregando productos (nunca quitando uno a uno,
// los totales se recomputan completos) y se finaliza al cobrar. Vive en el
// Order Session Cache con TTL; la persistencia durable ocurre recién al pago.
type OrderSession struct {
	ID                string
	BusinessID        string
	Lines             []SoldLine
	DiscountPercent   decimal.Decimal
	CommissionPercent decimal.Decimal
	ShippingPrice     *Price
	TipPrice          *Price
	CouponDiscount    *Price
	HouseCosted       bool
	Subtotals         []Price
	TotalsToPay       []Price
	Modifiers         []AppliedModifier
	CreatedAt         time.Time
	FinalizedAt       *time.Time
}

// ActiveLines devuelve las líneas que cuentan para stock y precio
// (excluye las canceladas).
func (s *OrderSession) ActiveLines() []SoldLine {
	out := make([]SoldLine, 0, len(s.Lines))
	for _, l := range s.Lines {
		if l.Status != SoldLineStatusCancelled {
			out = append(out, l)
		}
	}
	return out
}
