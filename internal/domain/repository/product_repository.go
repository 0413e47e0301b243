package repository

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/jhoicas/pos-core/internal/domain/entity"
)

// ProductRepository acceso de lectura al catálogo (colaborador externo) más
// la única escritura que este núcleo posee: el agregado central TotalQuantity.
type ProductRepository interface {
	// FindByIDs devuelve los snapshots de producto del negocio, con insumos,
	// receta, composiciones, agregos y áreas de producción cargados.
	FindByIDs(ctx context.Context, businessID string, ids []string) ([]*entity.Product, error)
	// GetForUpdate bloquea las filas de producto (SELECT FOR UPDATE) en el
	// orden en que vienen los ids; el caller debe pasarlos ordenados
	// ascendentemente para respetar el orden global de bloqueo.
	GetForUpdate(ctx context.Context, ids []string) ([]*entity.Product, error)
	// UpdateTotalQuantity fija el agregado central de un producto con stock limitado.
	UpdateTotalQuantity(ctx context.Context, productID string, quantity decimal.Decimal) error
}
