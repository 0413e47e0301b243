package repository

import (
	"context"

	"github.com/jhoicas/pos-core/internal/domain/entity"
)

// AreaRepository colaborador de áreas: definición, moneda por defecto y
// modificadores de tarifa ordenados. Solo lectura desde este núcleo.
type AreaRepository interface {
	// GetByID devuelve el área o nil si no existe.
	GetByID(ctx context.Context, id string) (*entity.Area, error)
}
