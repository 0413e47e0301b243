package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Errores de dominio (sin dependencias externas).
// Los casos que necesitan contexto adicional (producto, área, cantidades)
// tienen su propio tipo estructurado más abajo; todos envuelven un sentinel
// para poder usar errors.Is en los consumidores.
var (
	ErrNotFound               = errors.New("recurso no encontrado")
	ErrProductNotFound        = errors.New("producto no encontrado")
	ErrAreaNotFound           = errors.New("área no encontrada")
	ErrInvalidInput           = errors.New("entrada inválida")
	ErrInvalidState           = errors.New("estado inválido para la operación")
	ErrConflict               = errors.New("conflicto con el estado actual")
	ErrLockTimeout            = errors.New("timeout adquiriendo bloqueo de fila")
	ErrInsufficientStock      = errors.New("stock insuficiente")
	ErrVariationRequired      = errors.New("la operación requiere una variación")
	ErrVariationRecordMissing = errors.New("no existe registro de stock para la variación")
	ErrInvalidSupplyChain     = errors.New("cadena de insumos inválida")
	ErrCurrencyNotConfigured  = errors.New("moneda no configurada en el negocio")
	ErrNoMainCurrency         = errors.New("el negocio no tiene moneda principal configurada")
	ErrResolutionTruncated    = errors.New("expansión de productos truncada por límite interno")
)

// InsufficientStockError indica que una línea del batch dejaría la cantidad
// en negativo operando en modo estricto. Lleva el contexto necesario para
// armar un mensaje de cara al usuario.
type InsufficientStockError struct {
	ProductID string
	AreaID    string
	Available decimal.Decimal
	Requested decimal.Decimal
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("stock insuficiente para producto %s en área %s: disponible %s, solicitado %s",
		e.ProductID, e.AreaID, e.Available.String(), e.Requested.String())
}

func (e *InsufficientStockError) Unwrap() error { return ErrInsufficientStock }

// ProductNotFoundError indica que un producto referenciado no existe en el catálogo.
type ProductNotFoundError struct {
	ProductID string
}

func (e *ProductNotFoundError) Error() string {
	return fmt.Sprintf("producto %s no encontrado", e.ProductID)
}

func (e *ProductNotFoundError) Unwrap() error { return ErrProductNotFound }

// VariationRequiredError indica una operación sobre un producto por variaciones
// que no trae el identificador de la variación.
type VariationRequiredError struct {
	ProductID string
}

func (e *VariationRequiredError) Error() string {
	return fmt.Sprintf("el producto %s es por variaciones y la operación no indicó variación", e.ProductID)
}

func (e *VariationRequiredError) Unwrap() error { return ErrVariationRequired }

// InvalidSupplyChainError indica que un insumo o ítem de receta apunta a un
// producto que no puede consumirse como materia prima.
type InvalidSupplyChainError struct {
	ProductID string // producto cuya ficha de insumos/receta está mal definida
	SupplyID  string // insumo referenciado
	Type      string // tipo real del insumo
}

func (e *InvalidSupplyChainError) Error() string {
	return fmt.Sprintf("el producto %s referencia el insumo %s de tipo %s (no consumible)",
		e.ProductID, e.SupplyID, e.Type)
}

func (e *InvalidSupplyChainError) Unwrap() error { return ErrInvalidSupplyChain }

// CurrencyNotConfiguredError indica una moneda ausente de la tabla de cambio del negocio.
type CurrencyNotConfiguredError struct {
	Currency string
}

func (e *CurrencyNotConfiguredError) Error() string {
	return fmt.Sprintf("la moneda %s no está configurada en el negocio", e.Currency)
}

func (e *CurrencyNotConfiguredError) Unwrap() error { return ErrCurrencyNotConfigured }
