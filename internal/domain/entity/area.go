package entity

import "github.com/shopspring/decimal"

// Tipos de área.
const (
	AreaTypeStock        = "STOCK"        // almacén: única válida para operaciones del Ledger
	AreaTypeSale         = "SALE"         // punto de venta
	AreaTypeManufacturer = "MANUFACTURER" // área de producción
)

// Tipos de modificador de tarifa de un área de venta.
const (
	ModifierTypeFee      = "FEE"
	ModifierTypeDiscount = "DISCOUNT"
)

// FeeModifier cargo o descuento configurado en un área de venta, aplicado por
// el pipeline de precios. FixedPrice y Percent son excluyentes: si FixedPrice
// es nil se aplica Percent sobre cada bucket de moneda.
type FeeModifier struct {
	ID           string
	Name         string
	Index        int // orden de aplicación de los acumulativos, ascendente
	Type         string
	FixedPrice   *Price
	Percent      decimal.Decimal
	ApplyToGross bool // se evalúa contra el subtotal bruto, antes de otros modificadores
	Active       bool
}

// Area ubicación física o lógica con su propia cantidad de cada producto.
type Area struct {
	ID                     string
	BusinessID             string
	Name                   string
	Type                   string
	DefaultPaymentCurrency string
	EnforceCurrency        bool
	Modifiers              []FeeModifier
}
