package entity

import "github.com/shopspring/decimal"

// Currency moneda configurada en el negocio con su tasa de cambio relativa a
// la moneda principal. Exactamente una debe tener IsMain en true.
type Currency struct {
	Code         string
	ExchangeRate decimal.Decimal // unidades de esta moneda por 1 de la principal
	IsMain       bool
}
