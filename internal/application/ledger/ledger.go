package ledger

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/jhoicas/pos-core/internal/application/settings"
	"github.com/jhoicas/pos-core/internal/domain"
	"github.com/jhoicas/pos-core/internal/domain/entity"
	"github.com/jhoicas/pos-core/internal/domain/repository"
	"github.com/jhoicas/pos-core/pkg/logger"
)

// Modos de aplicación del batch.
const (
	// ModeStrict falla atómicamente si alguna línea dejaría cantidad negativa.
	ModeStrict = "STRICT"
	// ModePermissive permite resultados negativos (ajustes, correcciones,
	// negocio con venta en negativo habilitada).
	ModePermissive = "PERMISSIVE"
)

// BatchAllocation asignación explícita de lote para un delta: código del
// lote y cantidad a mover. En entradas crea el lote si no existe.
type BatchAllocation struct {
	Code         string
	Quantity     decimal.Decimal
	EntryAt      time.Time
	ExpirationAt time.Time
}

// Delta movimiento firmado contra (producto, área[, variación]).
// CentralOnly marca elaborados con stock limitado: solo mueven el agregado
// central, nunca un registro por área.
type Delta struct {
	ProductID        string
	AreaID           string
	VariationID      string
	Quantity         decimal.Decimal
	CentralOnly      bool
	BatchAllocations []BatchAllocation
}

// ApplyInput batch de deltas más el contexto de la operación de negocio.
type ApplyInput struct {
	BusinessID  string
	Deltas      []Delta
	Mode        string // ModeStrict o ModePermissive
	BatchPolicy string // settings.BatchPolicyFIFO/FEFO/None
	Operation   string // entity.MovementOperation* para el registro de auditoría
	Reference   string // orden/factura/nota que origina el movimiento
	ActorID     string
}

// Ledger aplica batches de deltas de stock dentro de una transacción con las
// filas bloqueadas, y emite los movimientos de auditoría tras el commit.
//
// Orden de bloqueo: los deltas se procesan ascendentes por (producto, área) y
// los productos se bloquean primero, ascendentes por id. Todo caller que tome
// estas filas debe usar el mismo orden para no interbloquearse.
type Ledger struct {
	tx        TxRunner
	movements repository.StockMovementRepository
	log       *logger.Logger
}

// NewLedger construye el libro de stock.
func NewLedger(tx TxRunner, movements repository.StockMovementRepository, log *logger.Logger) *Ledger {
	return &Ledger{tx: tx, movements: movements, log: log}
}

// Apply aplica el batch completo o nada. En modo estricto cualquier línea que
// dejaría cantidad negativa aborta con InsufficientStockError y revierte todo.
// Los registros que quedan en cero exacto se eliminan; el agregado central de
// cada producto con stock limitado se actualiza una sola vez con la suma de
// sus deltas del batch, para no perder actualizaciones dentro de la llamada.
func (l *Ledger) Apply(ctx context.Context, input ApplyInput) error {
	if len(input.Deltas) == 0 {
		return fmt.Errorf("batch vacío: %w", domain.ErrInvalidInput)
	}
	if input.Mode != ModeStrict && input.Mode != ModePermissive {
		return fmt.Errorf("modo %q: %w", input.Mode, domain.ErrInvalidInput)
	}

	deltas := make([]Delta, len(input.Deltas))
	copy(deltas, input.Deltas)
	sort.Slice(deltas, func(i, j int) bool {
		if deltas[i].ProductID != deltas[j].ProductID {
			return deltas[i].ProductID < deltas[j].ProductID
		}
		return deltas[i].AreaID < deltas[j].AreaID
	})

	// capturado dentro de la tx para emitir auditoría con el costo al momento
	productsAtApply := make(map[string]*entity.Product)

	err := l.tx.Run(ctx, func(
		stockRepo repository.StockAreaRepository,
		batchRepo repository.BatchRepository,
		productRepo repository.ProductRepository,
	) error {
		products, err := lockProducts(ctx, productRepo, deltas)
		if err != nil {
			return err
		}
		for id, p := range products {
			productsAtApply[id] = p
		}

		// suma por producto antes de escribir el agregado central
		centralSum := make(map[string]decimal.Decimal)

		for i := range deltas {
			d := &deltas[i]
			p := products[d.ProductID]

			if p.StockLimit {
				centralSum[p.ID] = centralSum[p.ID].Add(d.Quantity)
			}
			if d.CentralOnly {
				continue
			}
			if !p.HoldsAreaStock() {
				return fmt.Errorf("producto %s de tipo %s no admite stock por área: %w",
					p.ID, p.Type, domain.ErrInvalidState)
			}

			if err := l.applyAreaDelta(ctx, stockRepo, p, d, input.Mode); err != nil {
				return err
			}
			if err := l.applyBatchOverlay(ctx, batchRepo, d, input.BatchPolicy); err != nil {
				return err
			}
		}

		ids := make([]string, 0, len(centralSum))
		for id := range centralSum {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		for _, id := range ids {
			sum := centralSum[id]
			if sum.IsZero() {
				continue
			}
			newTotal := products[id].TotalQuantity.Add(sum)
			if err := productRepo.UpdateTotalQuantity(ctx, id, newTotal); err != nil {
				return fmt.Errorf("actualizar cantidad central de %s: %w", id, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	l.emitMovements(ctx, input, deltas, productsAtApply)
	return nil
}

// applyAreaDelta muta el registro de área y, si el producto es por
// variaciones, el sub-registro de la variación con el mismo delta.
func (l *Ledger) applyAreaDelta(
	ctx context.Context,
	stockRepo repository.StockAreaRepository,
	p *entity.Product,
	d *Delta,
	mode string,
) error {
	record, err := stockRepo.GetForUpdate(ctx, d.ProductID, d.AreaID)
	if err != nil {
		return err
	}
	newQty := record.Quantity.Add(d.Quantity)
	if mode == ModeStrict && newQty.IsNegative() {
		return &domain.InsufficientStockError{
			ProductID: d.ProductID,
			AreaID:    d.AreaID,
			Available: record.Quantity,
			Requested: d.Quantity.Neg(),
		}
	}

	if p.Type == entity.ProductTypeVariation {
		if d.VariationID == "" {
			return &domain.VariationRequiredError{ProductID: p.ID}
		}
		if err := l.applyVariationDelta(ctx, stockRepo, d, mode); err != nil {
			return err
		}
	}

	now := time.Now()
	if newQty.IsZero() {
		return stockRepo.Delete(ctx, d.ProductID, d.AreaID)
	}
	record.Quantity = newQty
	record.UpdatedAt = now
	return stockRepo.Upsert(ctx, record)
}

func (l *Ledger) applyVariationDelta(
	ctx context.Context,
	stockRepo repository.StockAreaRepository,
	d *Delta,
	mode string,
) error {
	vrec, err := stockRepo.GetVariation(ctx, d.ProductID, d.AreaID, d.VariationID)
	if err != nil {
		return err
	}
	if vrec == nil {
		if mode == ModeStrict && d.Quantity.IsNegative() {
			return fmt.Errorf("producto %s variación %s en área %s: %w",
				d.ProductID, d.VariationID, d.AreaID, domain.ErrVariationRecordMissing)
		}
		vrec = &entity.StockAreaVariationRecord{
			ProductID:   d.ProductID,
			AreaID:      d.AreaID,
			VariationID: d.VariationID,
		}
	}
	newQty := vrec.Quantity.Add(d.Quantity)
	if mode == ModeStrict && newQty.IsNegative() {
		return fmt.Errorf("producto %s variación %s en área %s sin cantidad suficiente: %w",
			d.ProductID, d.VariationID, d.AreaID, domain.ErrVariationRecordMissing)
	}
	if newQty.IsZero() {
		return stockRepo.DeleteVariation(ctx, d.ProductID, d.AreaID, d.VariationID)
	}
	vrec.Quantity = newQty
	vrec.UpdatedAt = time.Now()
	return stockRepo.UpsertVariation(ctx, vrec)
}

// applyBatchOverlay mantiene la capa de lotes. Es best-effort: si no hay
// lotes que alcancen, el resto se ignora sin error (la capa es opcional y su
// suma no tiene por qué igualar la cantidad del área).
func (l *Ledger) applyBatchOverlay(
	ctx context.Context,
	batchRepo repository.BatchRepository,
	d *Delta,
	policy string,
) error {
	switch {
	case d.Quantity.IsNegative():
		return l.consumeBatches(ctx, batchRepo, d, policy)
	case d.Quantity.IsPositive() && len(d.BatchAllocations) > 0:
		return l.enterBatches(ctx, batchRepo, d)
	}
	return nil
}

func (l *Ledger) consumeBatches(ctx context.Context, batchRepo repository.BatchRepository, d *Delta, policy string) error {
	lots, err := batchRepo.ListByStockArea(ctx, d.ProductID, d.AreaID)
	if err != nil {
		return err
	}
	if len(lots) == 0 {
		return nil
	}

	if len(d.BatchAllocations) > 0 {
		// asignación explícita: consumir los lotes indicados, en su orden
		byCode := make(map[string]*entity.BatchRecord, len(lots))
		for _, lot := range lots {
			byCode[lot.Code] = lot
		}
		for _, alloc := range d.BatchAllocations {
			lot, ok := byCode[alloc.Code]
			if !ok {
				continue
			}
			take := decimal.Min(alloc.Quantity, lot.Quantity)
			if err := l.drainLot(ctx, batchRepo, lot, take); err != nil {
				return err
			}
		}
		return nil
	}

	orderLots(lots, policy)
	remaining := d.Quantity.Neg()
	for _, lot := range lots {
		if !remaining.IsPositive() {
			break
		}
		take := decimal.Min(remaining, lot.Quantity)
		if !take.IsPositive() {
			continue
		}
		if err := l.drainLot(ctx, batchRepo, lot, take); err != nil {
			return err
		}
		remaining = remaining.Sub(take)
	}
	return nil
}

// drainLot descuenta take del lote; un lote totalmente consumido se elimina,
// uno parcial conserva su resto.
func (l *Ledger) drainLot(ctx context.Context, batchRepo repository.BatchRepository, lot *entity.BatchRecord, take decimal.Decimal) error {
	lot.Quantity = lot.Quantity.Sub(take)
	if lot.Quantity.IsZero() {
		return batchRepo.Delete(ctx, lot.ID)
	}
	return batchRepo.Upsert(ctx, lot)
}

func (l *Ledger) enterBatches(ctx context.Context, batchRepo repository.BatchRepository, d *Delta) error {
	lots, err := batchRepo.ListByStockArea(ctx, d.ProductID, d.AreaID)
	if err != nil {
		return err
	}
	byCode := make(map[string]*entity.BatchRecord, len(lots))
	for _, lot := range lots {
		byCode[lot.Code] = lot
	}
	for _, alloc := range d.BatchAllocations {
		if lot, ok := byCode[alloc.Code]; ok {
			lot.Quantity = lot.Quantity.Add(alloc.Quantity)
			if err := batchRepo.Upsert(ctx, lot); err != nil {
				return err
			}
			continue
		}
		entryAt := alloc.EntryAt
		if entryAt.IsZero() {
			entryAt = time.Now()
		}
		lot := &entity.BatchRecord{
			ID:           uuid.New().String(),
			ProductID:    d.ProductID,
			AreaID:       d.AreaID,
			Code:         alloc.Code,
			Quantity:     alloc.Quantity,
			EntryAt:      entryAt,
			ExpirationAt: alloc.ExpirationAt,
		}
		if err := batchRepo.Upsert(ctx, lot); err != nil {
			return err
		}
	}
	return nil
}

// orderLots ordena según la política configurada. Desempate por código de
// lote para que el consumo sea determinista.
func orderLots(lots []*entity.BatchRecord, policy string) {
	switch policy {
	case settings.BatchPolicyFIFO:
		sort.SliceStable(lots, func(i, j int) bool {
			if !lots[i].EntryAt.Equal(lots[j].EntryAt) {
				return lots[i].EntryAt.Before(lots[j].EntryAt)
			}
			return lots[i].Code < lots[j].Code
		})
	case settings.BatchPolicyFEFO:
		sort.SliceStable(lots, func(i, j int) bool {
			if !lots[i].ExpirationAt.Equal(lots[j].ExpirationAt) {
				return lots[i].ExpirationAt.Before(lots[j].ExpirationAt)
			}
			return lots[i].Code < lots[j].Code
		})
	}
	// NONE: se consumen como vienen
}

// emitMovements registra la auditoría del batch tras el commit,
// fire-and-forget: un fallo acá no revierte el stock ya mutado.
func (l *Ledger) emitMovements(ctx context.Context, input ApplyInput, deltas []Delta, products map[string]*entity.Product) {
	if input.Operation == "" {
		// recomputo puro de cache, no un movimiento de negocio
		return
	}
	now := time.Now()
	for _, d := range deltas {
		cost := decimal.Zero
		if p, ok := products[d.ProductID]; ok {
			cost = p.AverageCost
		}
		mov := &entity.StockMovement{
			ID:          uuid.New().String(),
			BusinessID:  input.BusinessID,
			ProductID:   d.ProductID,
			AreaID:      d.AreaID,
			VariationID: d.VariationID,
			Operation:   input.Operation,
			Quantity:    d.Quantity,
			CostAtTime:  cost,
			Reference:   input.Reference,
			CreatedAt:   now,
			CreatedBy:   input.ActorID,
		}
		if err := l.movements.Create(ctx, mov); err != nil {
			l.log.Warn().Err(err).
				Str("product_id", d.ProductID).
				Str("area_id", d.AreaID).
				Msg("no se pudo registrar el movimiento de auditoría")
		}
	}
}

// lockProducts bloquea las filas de producto del batch en orden ascendente de
// id y devuelve los snapshots bloqueados.
func lockProducts(ctx context.Context, productRepo repository.ProductRepository, deltas []Delta) (map[string]*entity.Product, error) {
	seen := make(map[string]bool)
	var ids []string
	for _, d := range deltas {
		if !seen[d.ProductID] {
			seen[d.ProductID] = true
			ids = append(ids, d.ProductID)
		}
	}
	sort.Strings(ids)

	products, err := productRepo.GetForUpdate(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("bloquear productos del batch: %w", err)
	}
	byID := make(map[string]*entity.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}
	for _, id := range ids {
		if _, ok := byID[id]; !ok {
			return nil, &domain.ProductNotFoundError{ProductID: id}
		}
	}
	return byID, nil
}
