package postgres

import (
	"context"
	"fmt"

	"github.com/jhoicas/pos-core/internal/domain/repository"
)

var _ repository.SettingsRepository = (*SettingsRepo)(nil)

// SettingsRepo colaborador de configuración por negocio sobre PostgreSQL:
// tabla clave/valor opaca, el parseo vive en application/settings.
type SettingsRepo struct {
	q Querier
}

// NewSettingsRepository construye el adaptador de configuración. Pasar pool o tx (Querier).
func NewSettingsRepository(q Querier) *SettingsRepo {
	return &SettingsRepo{q: q}
}

// GetAll devuelve todas las claves de configuración del negocio.
func (r *SettingsRepo) GetAll(ctx context.Context, businessID string) (map[string]string, error) {
	query := `SELECT key, value FROM business_settings WHERE business_id = $1`
	rows, err := r.q.Query(ctx, query, businessID)
	if err != nil {
		return nil, fmt.Errorf("list business settings: %w", err)
	}
	defer rows.Close()
	values := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("scan business setting: %w", err)
		}
		values[key] = value
	}
	return values, rows.Err()
}
