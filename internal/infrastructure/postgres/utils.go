package postgres

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jhoicas/pos-core/internal/domain"
)

// isUniqueViolation verifica si un error es una violación de constraint único (23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" // unique_violation
	}
	return strings.Contains(err.Error(), "23505")
}

// mapLockError traduce los fallos de adquisición de bloqueo del motor a los
// errores de dominio: 55P03 (lock_not_available, con NOWAIT) y el vencimiento
// del deadline de la transacción se reportan como LockTimeout para que el
// caller revierta completo.
func mapLockError(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "55P03": // lock_not_available
			return domain.ErrLockTimeout
		case "40P01": // deadlock_detected
			return domain.ErrConflict
		}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return domain.ErrLockTimeout
	}
	return err
}
