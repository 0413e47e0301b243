package checkout

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/pos-core/internal/application/ledger"
	"github.com/jhoicas/pos-core/internal/application/pricing"
	"github.com/jhoicas/pos-core/internal/application/resolver"
	"github.com/jhoicas/pos-core/internal/application/settings"
	"github.com/jhoicas/pos-core/internal/domain"
	"github.com/jhoicas/pos-core/internal/domain/entity"
	"github.com/jhoicas/pos-core/internal/domain/repository"
	"github.com/jhoicas/pos-core/pkg/logger"
	"github.com/jhoicas/pos-core/pkg/money"
)

// UseCase orquesta el circuito de una orden en curso: resolver los productos
// agregados a movimientos primitivos, aplicarlos al libro de stock, recomputar
// los totales completos y refrescar el snapshot en el Order Session Cache.
//
// La concurrencia entre transacciones la serializa el bloqueo de filas dentro
// del Ledger; este caso de uso no toma locks propios.
type UseCase struct {
	resolver   *resolver.Resolver
	ledger     *ledger.Ledger
	settings   *settings.Service
	currencies repository.CurrencyRepository
	areas      repository.AreaRepository
	cache      SessionCache
	sessionTTL time.Duration
	log        *logger.Logger
}

// NewUseCase construye el orquestador de checkout.
func NewUseCase(
	res *resolver.Resolver,
	led *ledger.Ledger,
	settingsSvc *settings.Service,
	currencies repository.CurrencyRepository,
	areas repository.AreaRepository,
	cache SessionCache,
	sessionTTL time.Duration,
	log *logger.Logger,
) *UseCase {
	return &UseCase{
		resolver:   res,
		ledger:     led,
		settings:   settingsSvc,
		currencies: currencies,
		areas:      areas,
		cache:      cache,
		sessionTTL: sessionTTL,
		log:        log,
	}
}

// AddProducts procesa productos recién agregados a la sesión: los resuelve a
// deltas primitivos, descuenta stock (estricto salvo que el negocio habilite
// venta en negativo), recomputa los totales de la orden completa y guarda el
// snapshot en cache. La sesión debe traer ya las líneas vendidas agregadas;
// items describe esos mismos productos para la resolución de stock.
func (uc *UseCase) AddProducts(
	ctx context.Context,
	txID string,
	session *entity.OrderSession,
	items []resolver.RequestedItem,
	stockAreaID string,
	salesAreaID string,
	actorID string,
) (*pricing.Totals, error) {
	if session.FinalizedAt != nil {
		return nil, fmt.Errorf("la orden ya fue finalizada: %w", domain.ErrInvalidState)
	}
	cfg, err := uc.settings.Load(ctx, session.BusinessID)
	if err != nil {
		return nil, err
	}

	res, err := uc.resolver.Resolve(ctx, session.BusinessID, items, stockAreaID)
	if err != nil {
		return nil, err
	}
	mode := ledger.ModeStrict
	if cfg.AllowNegativeSale {
		mode = ledger.ModePermissive
	}
	// en modo estricto una expansión incompleta no es aceptable: podría
	// descontar menos stock del que la venta implica
	if res.Truncated && mode == ledger.ModeStrict {
		return nil, domain.ErrResolutionTruncated
	}

	if len(res.Deltas) > 0 {
		deltas := make([]ledger.Delta, 0, len(res.Deltas))
		for _, d := range res.Deltas {
			deltas = append(deltas, ledger.Delta{
				ProductID:   d.ProductID,
				AreaID:      d.AreaID,
				VariationID: d.VariationID,
				Quantity:    d.Quantity,
				CentralOnly: d.CentralOnly,
			})
		}
		err = uc.ledger.Apply(ctx, ledger.ApplyInput{
			BusinessID:  session.BusinessID,
			Deltas:      deltas,
			Mode:        mode,
			BatchPolicy: cfg.BatchPolicy,
			Operation:   entity.MovementOperationOut,
			Reference:   session.ID,
			ActorID:     actorID,
		})
		if err != nil {
			return nil, err
		}
	}

	totals, err := uc.recompute(ctx, session, cfg, salesAreaID)
	if err != nil {
		return nil, err
	}
	if err := uc.cache.Set(ctx, session.BusinessID, txID, CacheNameSession, session, uc.sessionTTL); err != nil {
		// el cache es red de seguridad, no sistema de registro
		uc.log.Warn().Err(err).Str("tx_id", txID).Msg("no se pudo refrescar la sesión en cache")
	}
	return totals, nil
}

// RecomputeTotals recalcula los totales completos de la sesión sin tocar
// stock (las líneas no se quitan una a una: siempre se recomputa entero) y
// refresca el snapshot en cache.
func (uc *UseCase) RecomputeTotals(
	ctx context.Context,
	txID string,
	session *entity.OrderSession,
	salesAreaID string,
) (*pricing.Totals, error) {
	cfg, err := uc.settings.Load(ctx, session.BusinessID)
	if err != nil {
		return nil, err
	}
	totals, err := uc.recompute(ctx, session, cfg, salesAreaID)
	if err != nil {
		return nil, err
	}
	if err := uc.cache.Set(ctx, session.BusinessID, txID, CacheNameSession, session, uc.sessionTTL); err != nil {
		uc.log.Warn().Err(err).Str("tx_id", txID).Msg("no se pudo refrescar la sesión en cache")
	}
	return totals, nil
}

// Finalize recomputa y fija los totales al momento del pago y descarta las
// entradas de cache de la transacción. La escritura durable de la orden es
// responsabilidad del caller (colaborador de registros).
func (uc *UseCase) Finalize(
	ctx context.Context,
	txID string,
	session *entity.OrderSession,
	salesAreaID string,
) (*pricing.Totals, error) {
	if session.FinalizedAt != nil {
		return nil, fmt.Errorf("la orden ya fue finalizada: %w", domain.ErrInvalidState)
	}
	cfg, err := uc.settings.Load(ctx, session.BusinessID)
	if err != nil {
		return nil, err
	}
	totals, err := uc.recompute(ctx, session, cfg, salesAreaID)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	session.FinalizedAt = &now
	if err := uc.cache.Delete(ctx, session.BusinessID, txID, CacheNameSession, CacheNameCatalog); err != nil {
		uc.log.Warn().Err(err).Str("tx_id", txID).Msg("no se pudieron descartar las entradas de cache")
	}
	return totals, nil
}

// Cancel descarta la sesión en curso. El stock ya descontado lo repone el
// caller con un batch inverso; acá solo se limpia el cache (el TTL haría lo
// mismo eventualmente con transacciones abandonadas).
func (uc *UseCase) Cancel(ctx context.Context, businessID, txID string) error {
	return uc.cache.Delete(ctx, businessID, txID, CacheNameSession, CacheNameCatalog)
}

// recompute arma la tabla de cambio y el contexto de área y corre el pipeline
// de precios; deja los totales resultantes en la sesión.
func (uc *UseCase) recompute(
	ctx context.Context,
	session *entity.OrderSession,
	cfg settings.BusinessConfig,
	salesAreaID string,
) (*pricing.Totals, error) {
	currencies, err := uc.currencies.ListByBusiness(ctx, session.BusinessID)
	if err != nil {
		return nil, fmt.Errorf("listar monedas del negocio: %w", err)
	}
	rateList := make([]money.Rate, 0, len(currencies))
	for _, c := range currencies {
		rateList = append(rateList, money.Rate{Code: c.Code, Rate: c.ExchangeRate, IsMain: c.IsMain})
	}
	rates, err := money.NewRateTable(rateList)
	if err != nil {
		return nil, domain.ErrNoMainCurrency
	}

	var area *entity.Area
	if salesAreaID != "" {
		area, err = uc.areas.GetByID(ctx, salesAreaID)
		if err != nil {
			return nil, err
		}
		if area == nil {
			return nil, fmt.Errorf("área de venta %s: %w", salesAreaID, domain.ErrAreaNotFound)
		}
		if area.EnforceCurrency {
			for _, line := range session.ActiveLines() {
				if line.UnitPrice.Currency != area.DefaultPaymentCurrency {
					return nil, fmt.Errorf("el área %s exige cobrar en %s: %w",
						area.ID, area.DefaultPaymentCurrency, domain.ErrInvalidState)
				}
			}
		}
	}

	totals, err := pricing.ComputeTotals(session, cfg, rates, area)
	if err != nil {
		return nil, err
	}
	session.Subtotals = pricesFromAmounts(totals.Subtotals)
	session.TotalsToPay = pricesFromAmounts(totals.TotalsToPay)
	session.Modifiers = totals.Modifiers
	return totals, nil
}

func pricesFromAmounts(amounts []money.Amount) []entity.Price {
	out := make([]entity.Price, 0, len(amounts))
	for _, a := range amounts {
		out = append(out, entity.Price{Amount: a.Value, Currency: a.Currency})
	}
	return out
}
