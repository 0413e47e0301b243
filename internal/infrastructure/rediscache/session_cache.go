package rediscache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/jhoicas/pos-core/internal/application/checkout"
	"github.com/jhoicas/pos-core/pkg/config"
)

var _ checkout.SessionCache = (*SessionCache)(nil)

// SessionCache implementación del Order Session Cache sobre Redis: payloads
// JSON con clave (negocio, transacción, nombre lógico) y TTL. El TTL es el
// mecanismo de cancelación de transacciones abandonadas: no hay señal activa.
type SessionCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSessionCache construye el cache con su cliente Redis y el TTL por defecto.
func NewSessionCache(client *redis.Client, ttl time.Duration) *SessionCache {
	return &SessionCache{client: client, ttl: ttl}
}

// NewClient crea el cliente Redis desde la configuración de la app.
func NewClient(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
}

func key(businessID, txID, name string) string {
	return fmt.Sprintf("pos:%s:tx:%s:%s", businessID, txID, name)
}

// Get deserializa la entrada en dst. Reporta si la clave existía.
func (c *SessionCache) Get(ctx context.Context, businessID, txID, name string, dst any) (bool, error) {
	data, err := c.client.Get(ctx, key(businessID, txID, name)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("get session cache: %w", err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return false, fmt.Errorf("decode session cache: %w", err)
	}
	return true, nil
}

// Set serializa v como JSON y lo guarda con el TTL indicado (o el por defecto
// si ttl <= 0).
func (c *SessionCache) Set(ctx context.Context, businessID, txID, name string, v any, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = c.ttl
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode session cache: %w", err)
	}
	if err := c.client.Set(ctx, key(businessID, txID, name), data, ttl).Err(); err != nil {
		return fmt.Errorf("set session cache: %w", err)
	}
	return nil
}

// Delete descarta las entradas indicadas de la transacción.
func (c *SessionCache) Delete(ctx context.Context, businessID, txID string, names ...string) error {
	if len(names) == 0 {
		return nil
	}
	keys := make([]string, 0, len(names))
	for _, name := range names {
		keys = append(keys, key(businessID, txID, name))
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("delete session cache: %w", err)
	}
	return nil
}
