package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/jhoicas/pos-core/internal/domain/entity"
	"github.com/jhoicas/pos-core/internal/domain/repository"
)

var _ repository.ProductRepository = (*ProductRepo)(nil)

// ProductRepo vista de catálogo sobre PostgreSQL (usable con pool o tx).
// La ficha de composición (insumos, receta, composiciones, agregos, áreas de
// producción, variaciones) vive en columnas JSONB: el catálogo la escribe, este
// núcleo solo la lee. La única columna que este repo escribe es total_quantity.
type ProductRepo struct {
	q Querier
}

// NewProductRepository construye el adaptador de catálogo. Pasar pool o tx (Querier).
func NewProductRepository(q Querier) *ProductRepo {
	return &ProductRepo{q: q}
}

// filas JSONB de la ficha de composición
type supplyRow struct {
	ProductID string          `json:"productId"`
	Quantity  decimal.Decimal `json:"quantity"`
}

type recipeRow struct {
	ProductID        string          `json:"productId"`
	ConsumptionIndex decimal.Decimal `json:"consumptionIndex"`
}

type compositionRow struct {
	ProductID   string          `json:"productId"`
	Quantity    decimal.Decimal `json:"quantity"`
	VariationID string          `json:"variationId,omitempty"`
}

type variationRow struct {
	ID    string          `json:"id"`
	Name  string          `json:"name"`
	Price *priceRow       `json:"price,omitempty"`
}

type priceRow struct {
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
}

const productColumns = `
	id, business_id, name, type, stock_limit, total_quantity, performance,
	average_cost, price_amount, price_currency,
	supplies, recipe, compositions, available_addons, production_areas, variations,
	updated_at`

// FindByIDs devuelve los snapshots de producto del negocio. Ids inexistentes
// simplemente no aparecen en el resultado (el caller decide si eso es error).
func (r *ProductRepo) FindByIDs(ctx context.Context, businessID string, ids []string) ([]*entity.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query := `SELECT ` + productColumns + `
		FROM products
		WHERE business_id = $1 AND id = ANY($2)`
	rows, err := r.q.Query(ctx, query, businessID, ids)
	if err != nil {
		return nil, fmt.Errorf("find products: %w", err)
	}
	defer rows.Close()
	return scanProducts(rows)
}

// GetForUpdate bloquea las filas de producto (SELECT FOR UPDATE) en el orden
// recibido; el caller pasa los ids ascendentes para respetar el orden global
// de bloqueo y evitar interbloqueos entre transacciones.
func (r *ProductRepo) GetForUpdate(ctx context.Context, ids []string) ([]*entity.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	// unnest WITH ORDINALITY preserva el orden de ids en la adquisición de locks
	query := `SELECT ` + productColumns + `
		FROM products
		JOIN unnest($1::text[]) WITH ORDINALITY AS req(id, ord) USING (id)
		ORDER BY req.ord
		FOR UPDATE OF products`
	rows, err := r.q.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("lock products: %w", mapLockError(err))
	}
	defer rows.Close()
	return scanProducts(rows)
}

// UpdateTotalQuantity fija el agregado central del producto.
func (r *ProductRepo) UpdateTotalQuantity(ctx context.Context, productID string, quantity decimal.Decimal) error {
	query := `UPDATE products SET total_quantity = $2, updated_at = now() WHERE id = $1`
	if _, err := r.q.Exec(ctx, query, productID, quantity); err != nil {
		return fmt.Errorf("update total quantity: %w", err)
	}
	return nil
}

type productRows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func scanProducts(rows productRows) ([]*entity.Product, error) {
	var list []*entity.Product
	for rows.Next() {
		var (
			p                                                     entity.Product
			supplies, recipe, compositions, addons, areas, variations []byte
		)
		if err := rows.Scan(
			&p.ID, &p.BusinessID, &p.Name, &p.Type, &p.StockLimit, &p.TotalQuantity, &p.Performance,
			&p.AverageCost, &p.Price.Amount, &p.Price.Currency,
			&supplies, &recipe, &compositions, &addons, &areas, &variations,
			&p.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		if err := decodeComposition(&p, supplies, recipe, compositions, addons, areas, variations); err != nil {
			return nil, fmt.Errorf("decode product %s: %w", p.ID, err)
		}
		list = append(list, &p)
	}
	return list, rows.Err()
}

func decodeComposition(p *entity.Product, supplies, recipe, compositions, addons, areas, variations []byte) error {
	var srows []supplyRow
	if err := unmarshalJSONB(supplies, &srows); err != nil {
		return err
	}
	for _, s := range srows {
		p.Supplies = append(p.Supplies, entity.Supply{ProductID: s.ProductID, Quantity: s.Quantity})
	}

	var rrows []recipeRow
	if err := unmarshalJSONB(recipe, &rrows); err != nil {
		return err
	}
	for _, it := range rrows {
		p.Recipe = append(p.Recipe, entity.RecipeItem{ProductID: it.ProductID, ConsumptionIndex: it.ConsumptionIndex})
	}

	var crows []compositionRow
	if err := unmarshalJSONB(compositions, &crows); err != nil {
		return err
	}
	for _, c := range crows {
		p.Compositions = append(p.Compositions, entity.Composition{
			ProductID: c.ProductID, Quantity: c.Quantity, VariationID: c.VariationID,
		})
	}

	if err := unmarshalJSONB(addons, &p.AvailableAddons); err != nil {
		return err
	}
	if err := unmarshalJSONB(areas, &p.ProductionAreas); err != nil {
		return err
	}

	var vrows []variationRow
	if err := unmarshalJSONB(variations, &vrows); err != nil {
		return err
	}
	for _, v := range vrows {
		variation := entity.Variation{ID: v.ID, ProductID: p.ID, Name: v.Name}
		if v.Price != nil {
			variation.Price = &entity.Price{Amount: v.Price.Amount, Currency: v.Price.Currency}
		}
		p.Variations = append(p.Variations, variation)
	}
	return nil
}

func unmarshalJSONB(raw []byte, dst any) error {
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, dst)
}
