package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Tipos de producto del catálogo.
const (
	ProductTypeStock        = "STOCK"        // almacenable: se vende/consume directo del área
	ProductTypeVariation    = "VARIATION"    // almacenable por variaciones (sub-SKU)
	ProductTypeRaw          = "RAW"          // materia prima
	ProductTypeManufactured = "MANUFACTURED" // elaborado que vuelve a almacén
	ProductTypeMenu         = "MENU"         // elaborado en área de producción al vender
	ProductTypeService      = "SERVICE"      // servicio (sin stock por área)
	ProductTypeAddon        = "ADDON"        // agrego de un elaborado
	ProductTypeCombo        = "COMBO"        // compuesto: se expande en sus composiciones
	ProductTypeAsset        = "ASSET"        // activo fijo, no se consume al vender
)

// Supply relación de consumo declarada: producir 1 unidad del padre consume
// Quantity unidades del producto referenciado.
type Supply struct {
	ProductID string
	Quantity  decimal.Decimal
}

// RecipeItem consumo directo de materia prima por índice (alternativa a la
// lista de insumos; no se divide por performance).
type RecipeItem struct {
	ProductID        string
	ConsumptionIndex decimal.Decimal // unidades consumidas por unidad vendida
}

// Composition hijo de un COMBO: producto, cantidad por combo y variación opcional.
type Composition struct {
	ProductID   string
	Quantity    decimal.Decimal
	VariationID string
}

// Variation sub-SKU de un producto VARIATION, con precio propio.
type Variation struct {
	ID        string
	ProductID string
	Name      string
	Price     *Price // override; nil usa el precio del padre
}

// Price par cantidad/moneda.
type Price struct {
	Amount   decimal.Decimal
	Currency string
}

// Product vista de solo lectura de la ficha del catálogo (snapshot por transacción).
// TotalQuantity es el agregado central entre todas las áreas y solo tiene sentido
// cuando StockLimit es true; el Ledger es el único que lo muta.
type Product struct {
	ID              string
	BusinessID      string
	Name            string
	Type            string
	StockLimit      bool
	TotalQuantity   decimal.Decimal
	Performance     decimal.Decimal // rendimiento: unidades obtenidas por tanda de insumos
	AverageCost     decimal.Decimal
	Price           Price
	Supplies        []Supply
	Recipe          []RecipeItem
	Compositions    []Composition
	AvailableAddons []string
	ProductionAreas []string
	Variations      []Variation
	UpdatedAt       time.Time
}

// HoldsAreaStock indica si el producto mantiene cantidad por área de almacén.
// COMBO/MENU/SERVICE/ADDON nunca tienen stock por área: se resuelven a él.
func (p *Product) HoldsAreaStock() bool {
	switch p.Type {
	case ProductTypeStock, ProductTypeVariation, ProductTypeRaw, ProductTypeManufactured:
		return true
	}
	return false
}

// IsProduced indica si el producto se elabora en un área de producción al venderse.
func (p *Product) IsProduced() bool {
	switch p.Type {
	case ProductTypeMenu, ProductTypeAddon, ProductTypeService:
		return true
	}
	return false
}

// IsConsumable indica si puede aparecer como insumo o ítem de receta.
func (p *Product) IsConsumable() bool {
	switch p.Type {
	case ProductTypeStock, ProductTypeRaw, ProductTypeManufactured:
		return true
	}
	return false
}

// FindVariation busca una variación por id. Devuelve nil si no existe.
func (p *Product) FindVariation(variationID string) *Variation {
	for i := range p.Variations {
		if p.Variations[i].ID == variationID {
			return &p.Variations[i]
		}
	}
	return nil
}
