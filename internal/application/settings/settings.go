package settings

import (
	"context"
	"fmt"
	"strconv"

	"github.com/jhoicas/pos-core/internal/domain/repository"
)

// Claves del colaborador de configuración que este núcleo entiende.
// Los nombres (con sus faltas de ortografía) vienen del sistema legado y
// son parte del contrato: no se corrigen.
const (
	KeyPrecisionAfterComa       = "precission_after_coma"
	KeyBatchAlgorithm           = "algoritm_to_manage_batchs"
	KeyEnableNegativeSale       = "enable_to_sale_in_negative"
	KeyCashIncludesDeliveries   = "cash_operations_include_deliveries"
	KeyCashIncludesTips         = "cash_operations_include_tips"
)

// Políticas de consumo de lotes.
const (
	BatchPolicyFIFO = "FIFO" // primero en entrar, primero en salir (entryAt)
	BatchPolicyFEFO = "FEFO" // primero en vencer, primero en salir (expirationAt)
	BatchPolicyNone = "NONE" // sin orden: se consumen como vienen
)

// BusinessConfig configuración por negocio ya parseada.
type BusinessConfig struct {
	PrecisionAfterComa      int32  // decimales de cada acumulación monetaria (2 por defecto, 3 para precios por peso)
	BatchPolicy             string // FIFO, FEFO o NONE
	AllowNegativeSale       bool   // habilita modo permisivo en ventas
	CashIncludesDeliveries  bool
	CashIncludesTips        bool
}

// Defaults configuración por defecto cuando el negocio no definió las claves.
func Defaults() BusinessConfig {
	return BusinessConfig{
		PrecisionAfterComa: 2,
		BatchPolicy:        BatchPolicyNone,
	}
}

// Parse interpreta el mapa opaco clave→valor del colaborador de configuración.
// Claves ausentes o malformadas caen al valor por defecto.
func Parse(values map[string]string) BusinessConfig {
	cfg := Defaults()
	if raw, ok := values[KeyPrecisionAfterComa]; ok {
		if n, err := strconv.Atoi(raw); err == nil && n >= 0 && n <= 6 {
			cfg.PrecisionAfterComa = int32(n)
		}
	}
	if raw, ok := values[KeyBatchAlgorithm]; ok {
		switch raw {
		case BatchPolicyFIFO, BatchPolicyFEFO, BatchPolicyNone:
			cfg.BatchPolicy = raw
		}
	}
	cfg.AllowNegativeSale = parseBool(values[KeyEnableNegativeSale])
	cfg.CashIncludesDeliveries = parseBool(values[KeyCashIncludesDeliveries])
	cfg.CashIncludesTips = parseBool(values[KeyCashIncludesTips])
	return cfg
}

func parseBool(raw string) bool {
	b, err := strconv.ParseBool(raw)
	return err == nil && b
}

// Service carga y parsea la configuración de un negocio.
type Service struct {
	repo repository.SettingsRepository
}

// NewService construye el servicio de configuración.
func NewService(repo repository.SettingsRepository) *Service {
	return &Service{repo: repo}
}

// Load lee las claves del negocio y devuelve la configuración parseada.
func (s *Service) Load(ctx context.Context, businessID string) (BusinessConfig, error) {
	values, err := s.repo.GetAll(ctx, businessID)
	if err != nil {
		return BusinessConfig{}, fmt.Errorf("cargar configuración del negocio %s: %w", businessID, err)
	}
	return Parse(values), nil
}
