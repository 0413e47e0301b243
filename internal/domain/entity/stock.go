package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// StockAreaRecord cantidad de un producto en un área de almacén.
// Invariante: un registro en cero exacto se elimina (no se conserva) y se
// recrea con el próximo delta positivo. Solo el Ledger lo muta, dentro de una
// transacción con la fila bloqueada.
type StockAreaRecord struct {
	ProductID string
	AreaID    string
	Quantity  decimal.Decimal
	UpdatedAt time.Time
}

// StockAreaVariationRecord cantidad por variación dentro de un registro de
// área. Mismo invariante de borrado en cero que su padre.
type StockAreaVariationRecord struct {
	ProductID   string
	AreaID      string
	VariationID string
	Quantity    decimal.Decimal
	UpdatedAt   time.Time
}

// BatchRecord lote dentro de un registro de área, con fechas de entrada y
// vencimiento para consumo FIFO/FEFO. Es una capa opcional de mayor grano:
// la suma de lotes no tiene por qué igualar la cantidad del área.
type BatchRecord struct {
	ID           string
	ProductID    string
	AreaID       string
	Code         string // código de lote
	Quantity     decimal.Decimal
	EntryAt      time.Time
	ExpirationAt time.Time
}
