package resolver

import (
	"context"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
	"github.com/jhoicas/pos-core/internal/domain"
	"github.com/jhoicas/pos-core/internal/domain/entity"
	"github.com/jhoicas/pos-core/pkg/logger"
)

// maxExpansionRounds tope de rondas de expansión de combos. Es una válvula de
// seguridad contra grafos de composición profundos o cíclicos, no una garantía
// de correctitud: al alcanzarlo el resultado sale con Truncated=true y los
// combos sin expandir se descartan.
const maxExpansionRounds = 1000

// Catalog puerto de lectura del colaborador de catálogo.
type Catalog interface {
	FindByIDs(ctx context.Context, businessID string, ids []string) ([]*entity.Product, error)
}

// RequestedAddon agrego solicitado junto a un elaborado, en unidades totales.
type RequestedAddon struct {
	ProductID string
	Quantity  decimal.Decimal
}

// RequestedItem producto solicitado para venta/producción.
type RequestedItem struct {
	ProductID        string
	Quantity         decimal.Decimal
	VariationID      string
	ProductionAreaID string
	Addons           []RequestedAddon
}

// StockDelta movimiento primitivo de stock resultante de la resolución.
// Quantity es firmada: negativa para consumo. CentralOnly marca los elaborados
// con stock limitado, que solo descuentan el agregado central (nunca tienen
// registro por área).
type StockDelta struct {
	ProductID   string
	AreaID      string
	VariationID string
	Quantity    decimal.Decimal
	CentralOnly bool
}

// Result resolución completa. Truncated avisa que se alcanzó el tope de
// rondas y la expansión quedó incompleta; el caller decide si la rechaza.
type Result struct {
	Deltas    []StockDelta
	Truncated bool
}

// Resolver expande productos (posiblemente compuestos) en la lista plana de
// movimientos primitivos de stock que implican: combos en sus composiciones,
// elaborados en el consumo de su receta o lista de insumos.
type Resolver struct {
	catalog Catalog
	log     *logger.Logger
}

// NewResolver construye el resolver.
func NewResolver(catalog Catalog, log *logger.Logger) *Resolver {
	return &Resolver{catalog: catalog, log: log}
}

// deltaKey clave del acumulador: los deltas de la misma (producto, área,
// variación) se suman en vez de aplicarse por separado, para evitar conflictos
// de escritura duplicada aguas abajo.
type deltaKey struct {
	productID   string
	areaID      string
	variationID string
	centralOnly bool
}

// accumulator acumulador explícito de la pasada de resolución (merge O(1) por
// clave en vez de escaneo lineal).
type accumulator map[deltaKey]decimal.Decimal

func (acc accumulator) add(key deltaKey, qty decimal.Decimal) {
	acc[key] = acc[key].Add(qty)
}

// workItem elemento de la frontera de expansión.
type workItem struct {
	productID        string
	quantity         decimal.Decimal
	variationID      string
	productionAreaID string
	addons           []RequestedAddon
}

// Resolve produce los deltas primitivos de consumo para una venta/producción
// contra el área de almacén stockAreaID. Algoritmo:
//  1. expansión de combos hasta punto fijo (soporta combo de combo), acotada;
//  2. clasificación en elaborados (MENU/ADDON/SERVICE) vs almacenables;
//  3. expansión de receta o insumos de cada elaborado, con rendimiento;
//  4. resolución del área de producción;
//  5. merge de cantidades por (producto, área, variación).
func (r *Resolver) Resolve(ctx context.Context, businessID string, items []RequestedItem, stockAreaID string) (*Result, error) {
	products := make(map[string]*entity.Product)

	frontier := make([]workItem, 0, len(items))
	for _, it := range items {
		if it.Quantity.IsZero() {
			continue
		}
		frontier = append(frontier, workItem{
			productID:        it.ProductID,
			quantity:         it.Quantity,
			variationID:      it.VariationID,
			productionAreaID: it.ProductionAreaID,
			addons:           it.Addons,
		})
	}

	// Expansión de combos por rondas: cada ronda reemplaza los COMBO de la
	// frontera por sus composiciones hasta que no quede ninguno.
	truncated := false
	var resolved []workItem
	for round := 0; len(frontier) > 0; round++ {
		if round >= maxExpansionRounds {
			truncated = true
			r.log.Warn().
				Str("business_id", businessID).
				Int("pending", len(frontier)).
				Msg("expansión de combos truncada por tope de rondas")
			break
		}
		if err := r.fetchMissing(ctx, businessID, products, frontierIDs(frontier)); err != nil {
			return nil, err
		}
		var next []workItem
		for _, it := range frontier {
			p := products[it.productID]
			if p.Type != entity.ProductTypeCombo {
				resolved = append(resolved, it)
				continue
			}
			for _, comp := range p.Compositions {
				next = append(next, workItem{
					productID:   comp.ProductID,
					quantity:    comp.Quantity.Mul(it.quantity),
					variationID: comp.VariationID,
					// los hijos heredan el área de producción pedida para el combo
					productionAreaID: it.productionAreaID,
				})
			}
		}
		frontier = next
	}

	acc := make(accumulator)
	for _, it := range resolved {
		p := products[it.productID]
		switch {
		case p.IsProduced():
			if err := r.expandProduced(ctx, businessID, products, acc, p, it, stockAreaID); err != nil {
				return nil, err
			}
		case p.Type == entity.ProductTypeVariation:
			if it.variationID == "" {
				return nil, &domain.VariationRequiredError{ProductID: p.ID}
			}
			acc.add(deltaKey{productID: p.ID, areaID: stockAreaID, variationID: it.variationID}, it.quantity.Neg())
		case p.HoldsAreaStock():
			acc.add(deltaKey{productID: p.ID, areaID: stockAreaID}, it.quantity.Neg())
		case p.Type == entity.ProductTypeAsset:
			// los activos fijos no se consumen al vender
		default:
			return nil, fmt.Errorf("producto %s de tipo %s no vendible: %w", p.ID, p.Type, domain.ErrInvalidState)
		}
	}

	return &Result{Deltas: flatten(acc), Truncated: truncated}, nil
}

// expandProduced genera los deltas de un elaborado: decremento central si
// tiene stock limitado, más el consumo de su receta o insumos en el área de
// producción resuelta. Los agregos consumen sus propios insumos igual,
// escalados por su cantidad.
func (r *Resolver) expandProduced(
	ctx context.Context,
	businessID string,
	products map[string]*entity.Product,
	acc accumulator,
	p *entity.Product,
	it workItem,
	stockAreaID string,
) error {
	areaID := resolveProductionArea(p, it.productionAreaID, stockAreaID)

	if p.StockLimit {
		acc.add(deltaKey{productID: p.ID, areaID: areaID, centralOnly: true}, it.quantity.Neg())
	}
	if err := r.expandConsumption(ctx, businessID, products, acc, p, it.quantity, areaID); err != nil {
		return err
	}

	for _, ad := range it.addons {
		if ad.Quantity.IsZero() {
			continue
		}
		if err := r.fetchMissing(ctx, businessID, products, []string{ad.ProductID}); err != nil {
			return err
		}
		ap := products[ad.ProductID]
		if ap.StockLimit {
			acc.add(deltaKey{productID: ap.ID, areaID: areaID, centralOnly: true}, ad.Quantity.Neg())
		}
		if err := r.expandConsumption(ctx, businessID, products, acc, ap, ad.Quantity, areaID); err != nil {
			return err
		}
	}
	return nil
}

// expandConsumption consume la receta del producto si la tiene; si no, cada
// insumo a razón de (cantidad del insumo / rendimiento) por unidad producida.
func (r *Resolver) expandConsumption(
	ctx context.Context,
	businessID string,
	products map[string]*entity.Product,
	acc accumulator,
	p *entity.Product,
	quantity decimal.Decimal,
	areaID string,
) error {
	if len(p.Recipe) > 0 {
		ids := make([]string, 0, len(p.Recipe))
		for _, item := range p.Recipe {
			ids = append(ids, item.ProductID)
		}
		if err := r.fetchMissing(ctx, businessID, products, ids); err != nil {
			return err
		}
		for _, item := range p.Recipe {
			target := products[item.ProductID]
			if !target.IsConsumable() {
				return &domain.InvalidSupplyChainError{ProductID: p.ID, SupplyID: target.ID, Type: target.Type}
			}
			acc.add(deltaKey{productID: target.ID, areaID: areaID}, item.ConsumptionIndex.Mul(quantity).Neg())
		}
		return nil
	}

	if len(p.Supplies) == 0 {
		return nil
	}
	ids := make([]string, 0, len(p.Supplies))
	for _, s := range p.Supplies {
		ids = append(ids, s.ProductID)
	}
	if err := r.fetchMissing(ctx, businessID, products, ids); err != nil {
		return err
	}
	performance := p.Performance
	if !performance.IsPositive() {
		performance = decimal.NewFromInt(1)
	}
	for _, s := range p.Supplies {
		target := products[s.ProductID]
		if !target.IsConsumable() {
			return &domain.InvalidSupplyChainError{ProductID: p.ID, SupplyID: target.ID, Type: target.Type}
		}
		consumed := s.Quantity.Div(performance).Mul(quantity)
		acc.add(deltaKey{productID: target.ID, areaID: areaID}, consumed.Neg())
	}
	return nil
}

// resolveProductionArea: con una sola área declarada se usa esa; con varias,
// la indicada por el caller si coincide con alguna; si no, el almacén pedido.
func resolveProductionArea(p *entity.Product, requestedAreaID, stockAreaID string) string {
	switch len(p.ProductionAreas) {
	case 0:
		return stockAreaID
	case 1:
		return p.ProductionAreas[0]
	default:
		for _, id := range p.ProductionAreas {
			if id == requestedAreaID {
				return id
			}
		}
		return stockAreaID
	}
}

// fetchMissing carga al cache los productos aún no vistos. Falla con
// ProductNotFoundError si algún id no existe en el catálogo del negocio.
func (r *Resolver) fetchMissing(ctx context.Context, businessID string, products map[string]*entity.Product, ids []string) error {
	var missing []string
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if _, ok := products[id]; !ok && !seen[id] {
			missing = append(missing, id)
			seen[id] = true
		}
	}
	if len(missing) == 0 {
		return nil
	}
	found, err := r.catalog.FindByIDs(ctx, businessID, missing)
	if err != nil {
		return fmt.Errorf("buscar productos en catálogo: %w", err)
	}
	for _, p := range found {
		products[p.ID] = p
	}
	for _, id := range missing {
		if _, ok := products[id]; !ok {
			return &domain.ProductNotFoundError{ProductID: id}
		}
	}
	return nil
}

func frontierIDs(frontier []workItem) []string {
	ids := make([]string, 0, len(frontier))
	for _, it := range frontier {
		ids = append(ids, it.productID)
	}
	return ids
}

// flatten vuelca el acumulador a una lista ordenada ascendente por
// (producto, área, variación): orden determinista y compatible con el orden
// global de adquisición de bloqueos.
func flatten(acc accumulator) []StockDelta {
	deltas := make([]StockDelta, 0, len(acc))
	for key, qty := range acc {
		if qty.IsZero() {
			continue
		}
		deltas = append(deltas, StockDelta{
			ProductID:   key.productID,
			AreaID:      key.areaID,
			VariationID: key.variationID,
			Quantity:    qty,
			CentralOnly: key.centralOnly,
		})
	}
	sort.Slice(deltas, func(i, j int) bool {
		if deltas[i].ProductID != deltas[j].ProductID {
			return deltas[i].ProductID < deltas[j].ProductID
		}
		if deltas[i].AreaID != deltas[j].AreaID {
			return deltas[i].AreaID < deltas[j].AreaID
		}
		return deltas[i].VariationID < deltas[j].VariationID
	})
	return deltas
}
