package repository

import "context"

// SettingsRepository colaborador de configuración por negocio: mapa opaco
// clave→valor. El parseo de las claves que este núcleo entiende vive en
// application/settings.
type SettingsRepository interface {
	GetAll(ctx context.Context, businessID string) (map[string]string, error)
}
