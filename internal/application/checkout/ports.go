package checkout

import (
	"context"
	"time"
)

// Nombres lógicos de las entradas del Order Session Cache.
const (
	CacheNameSession = "session" // snapshot de la orden en curso
	CacheNameCatalog = "catalog" // vista de catálogo congelada para la transacción
)

// SessionCache puerto del cache transitorio por transacción, con clave
// (negocio, transacción, nombre lógico) y TTL como red de seguridad contra
// transacciones abandonadas. Es explícitamente un cache, no el sistema de
// registro: el commit final escribe a almacenamiento durable por otro camino.
type SessionCache interface {
	// Get deserializa la entrada en dst y reporta si la clave existía.
	Get(ctx context.Context, businessID, txID, name string, dst any) (bool, error)
	// Set serializa v y lo guarda con el TTL indicado.
	Set(ctx context.Context, businessID, txID, name string, v any, ttl time.Duration) error
	// Delete descarta las entradas de la transacción.
	Delete(ctx context.Context, businessID, txID string, names ...string) error
}
