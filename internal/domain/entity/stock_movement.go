package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Operaciones de movimiento de stock (registro de auditoría).
const (
	MovementOperationEntry     = "ENTRY"     // entrada a almacén
	MovementOperationOut       = "OUT"       // salida por venta/consumo
	MovementOperationProcessed = "PROCESSED" // consumido en producción
	MovementOperationAdjust    = "ADJUST"    // ajuste manual
)

// StockMovement movimiento de auditoría emitido tras cada Apply exitoso del
// Ledger que representa una operación de negocio. Se envía fire-and-forget:
// un fallo al registrarlo no revierte la mutación de stock.
type StockMovement struct {
	ID          string
	BusinessID  string
	ProductID   string
	AreaID      string
	VariationID string
	Operation   string // ENTRY, OUT, PROCESSED, ADJUST
	Quantity    decimal.Decimal // positivo entrada, negativo salida
	CostAtTime  decimal.Decimal // costo promedio del producto al momento
	Reference   string          // orden, factura o nota que originó el movimiento
	CreatedAt   time.Time
	CreatedBy   string
}
