package resolver_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/pos-core/internal/application/resolver"
	"github.com/jhoicas/pos-core/internal/domain"
	"github.com/jhoicas/pos-core/internal/domain/entity"
	"github.com/jhoicas/pos-core/pkg/logger"
)

const (
	testBusiness  = "biz-1"
	testStockArea = "almacen-central"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

// fakeCatalog catálogo en memoria para los tests del resolver.
type fakeCatalog struct {
	products map[string]*entity.Product
}

func (c *fakeCatalog) FindByIDs(_ context.Context, _ string, ids []string) ([]*entity.Product, error) {
	var out []*entity.Product
	for _, id := range ids {
		if p, ok := c.products[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func newCatalog(products ...*entity.Product) *fakeCatalog {
	c := &fakeCatalog{products: make(map[string]*entity.Product)}
	for _, p := range products {
		c.products[p.ID] = p
	}
	return c
}

func findDelta(t *testing.T, deltas []resolver.StockDelta, productID string) resolver.StockDelta {
	t.Helper()
	for _, d := range deltas {
		if d.ProductID == productID {
			return d
		}
	}
	t.Fatalf("no hay delta para el producto %s", productID)
	return resolver.StockDelta{}
}

// Escenario de referencia: COMBO "Lunch Set" ×2 compuesto de {Burger ×1,
// Fries ×1}; Burger (MENU) tiene insumo Bun ×1 con rendimiento 1. Debe salir
// Bun -2 y Fries -2, más el decremento central de Burger (stock limitado).
func TestResolver_ComboSeExpandeADeltasPrimitivos(t *testing.T) {
	catalog := newCatalog(
		&entity.Product{ID: "lunch-set", Type: entity.ProductTypeCombo, Compositions: []entity.Composition{
			{ProductID: "burger", Quantity: dec("1")},
			{ProductID: "fries", Quantity: dec("1")},
		}},
		&entity.Product{ID: "burger", Type: entity.ProductTypeMenu, StockLimit: true,
			Performance: dec("1"),
			Supplies:    []entity.Supply{{ProductID: "bun", Quantity: dec("1")}},
		},
		&entity.Product{ID: "fries", Type: entity.ProductTypeStock},
		&entity.Product{ID: "bun", Type: entity.ProductTypeRaw},
	)
	r := resolver.NewResolver(catalog, logger.Nop())

	res, err := r.Resolve(context.Background(), testBusiness,
		[]resolver.RequestedItem{{ProductID: "lunch-set", Quantity: dec("2")}}, testStockArea)
	require.NoError(t, err)
	assert.False(t, res.Truncated)

	bun := findDelta(t, res.Deltas, "bun")
	assert.Equal(t, "-2", bun.Quantity.String())
	assert.False(t, bun.CentralOnly)

	fries := findDelta(t, res.Deltas, "fries")
	assert.Equal(t, "-2", fries.Quantity.String())
	assert.Equal(t, testStockArea, fries.AreaID)

	burger := findDelta(t, res.Deltas, "burger")
	assert.Equal(t, "-2", burger.Quantity.String())
	assert.True(t, burger.CentralOnly, "el elaborado con stock limitado solo descuenta el agregado central")
}

// Combo de combo: la expansión debe seguir hasta que no quede ningún COMBO.
func TestResolver_ComboDeComboSeExpande(t *testing.T) {
	catalog := newCatalog(
		&entity.Product{ID: "mega", Type: entity.ProductTypeCombo, Compositions: []entity.Composition{
			{ProductID: "lunch-set", Quantity: dec("2")},
		}},
		&entity.Product{ID: "lunch-set", Type: entity.ProductTypeCombo, Compositions: []entity.Composition{
			{ProductID: "fries", Quantity: dec("3")},
		}},
		&entity.Product{ID: "fries", Type: entity.ProductTypeStock},
	)
	r := resolver.NewResolver(catalog, logger.Nop())

	res, err := r.Resolve(context.Background(), testBusiness,
		[]resolver.RequestedItem{{ProductID: "mega", Quantity: dec("2")}}, testStockArea)
	require.NoError(t, err)

	fries := findDelta(t, res.Deltas, "fries")
	assert.Equal(t, "-12", fries.Quantity.String(), "2 mega × 2 set × 3 fries")
}

// Aditividad: resolver cantidad N debe equivaler a resolver dos mitades y
// sumar los resultados.
func TestResolver_AditividadSobreCantidad(t *testing.T) {
	catalog := newCatalog(
		&entity.Product{ID: "lunch-set", Type: entity.ProductTypeCombo, Compositions: []entity.Composition{
			{ProductID: "fries", Quantity: dec("1")},
		}},
		&entity.Product{ID: "fries", Type: entity.ProductTypeStock},
	)
	r := resolver.NewResolver(catalog, logger.Nop())
	ctx := context.Background()

	whole, err := r.Resolve(ctx, testBusiness,
		[]resolver.RequestedItem{{ProductID: "lunch-set", Quantity: dec("4")}}, testStockArea)
	require.NoError(t, err)

	halves, err := r.Resolve(ctx, testBusiness, []resolver.RequestedItem{
		{ProductID: "lunch-set", Quantity: dec("2")},
		{ProductID: "lunch-set", Quantity: dec("2")},
	}, testStockArea)
	require.NoError(t, err)

	require.Len(t, halves.Deltas, 1, "cantidades de la misma clave se suman, no se duplican")
	assert.True(t, whole.Deltas[0].Quantity.Equal(halves.Deltas[0].Quantity))
}

// La receta manda sobre la lista de insumos y no se divide por rendimiento.
func TestResolver_RecetaConsumePorIndice(t *testing.T) {
	catalog := newCatalog(
		&entity.Product{ID: "pizza", Type: entity.ProductTypeMenu,
			Performance: dec("4"), // debe ignorarse al haber receta
			Supplies:    []entity.Supply{{ProductID: "harina", Quantity: dec("99")}},
			Recipe:      []entity.RecipeItem{{ProductID: "harina", ConsumptionIndex: dec("0.25")}},
		},
		&entity.Product{ID: "harina", Type: entity.ProductTypeRaw},
	)
	r := resolver.NewResolver(catalog, logger.Nop())

	res, err := r.Resolve(context.Background(), testBusiness,
		[]resolver.RequestedItem{{ProductID: "pizza", Quantity: dec("8")}}, testStockArea)
	require.NoError(t, err)

	harina := findDelta(t, res.Deltas, "harina")
	assert.Equal(t, "-2", harina.Quantity.String(), "0.25 × 8")
}

// Insumos sin receta: consumo = (cantidad del insumo / rendimiento) × vendido.
func TestResolver_InsumosDivididosPorRendimiento(t *testing.T) {
	catalog := newCatalog(
		&entity.Product{ID: "jugo", Type: entity.ProductTypeMenu,
			Performance: dec("10"), // una tanda de insumos rinde 10 jugos
			Supplies:    []entity.Supply{{ProductID: "naranja", Quantity: dec("5")}},
		},
		&entity.Product{ID: "naranja", Type: entity.ProductTypeRaw},
	)
	r := resolver.NewResolver(catalog, logger.Nop())

	res, err := r.Resolve(context.Background(), testBusiness,
		[]resolver.RequestedItem{{ProductID: "jugo", Quantity: dec("4")}}, testStockArea)
	require.NoError(t, err)

	naranja := findDelta(t, res.Deltas, "naranja")
	assert.Equal(t, "-2", naranja.Quantity.String(), "(5/10) × 4")
}

// Los agregos consumen sus propios insumos, escalados por su cantidad.
func TestResolver_AgregosConsumenSusInsumos(t *testing.T) {
	catalog := newCatalog(
		&entity.Product{ID: "burger", Type: entity.ProductTypeMenu, Performance: dec("1"),
			Supplies: []entity.Supply{{ProductID: "bun", Quantity: dec("1")}}},
		&entity.Product{ID: "extra-queso", Type: entity.ProductTypeAddon, Performance: dec("1"),
			Supplies: []entity.Supply{{ProductID: "queso", Quantity: dec("0.1")}}},
		&entity.Product{ID: "bun", Type: entity.ProductTypeRaw},
		&entity.Product{ID: "queso", Type: entity.ProductTypeRaw},
	)
	r := resolver.NewResolver(catalog, logger.Nop())

	res, err := r.Resolve(context.Background(), testBusiness, []resolver.RequestedItem{{
		ProductID: "burger",
		Quantity:  dec("1"),
		Addons:    []resolver.RequestedAddon{{ProductID: "extra-queso", Quantity: dec("2")}},
	}}, testStockArea)
	require.NoError(t, err)

	queso := findDelta(t, res.Deltas, "queso")
	assert.Equal(t, "-0.2", queso.Quantity.String())
}

// Un producto por variaciones pedido sin variación debe fallar.
func TestResolver_VariacionSinIdFalla(t *testing.T) {
	catalog := newCatalog(
		&entity.Product{ID: "camisa", Type: entity.ProductTypeVariation},
	)
	r := resolver.NewResolver(catalog, logger.Nop())

	_, err := r.Resolve(context.Background(), testBusiness,
		[]resolver.RequestedItem{{ProductID: "camisa", Quantity: dec("1")}}, testStockArea)
	assert.ErrorIs(t, err, domain.ErrVariationRequired)

	var varErr *domain.VariationRequiredError
	require.ErrorAs(t, err, &varErr)
	assert.Equal(t, "camisa", varErr.ProductID)
}

func TestResolver_ProductoInexistenteFalla(t *testing.T) {
	r := resolver.NewResolver(newCatalog(), logger.Nop())

	_, err := r.Resolve(context.Background(), testBusiness,
		[]resolver.RequestedItem{{ProductID: "fantasma", Quantity: dec("1")}}, testStockArea)
	assert.ErrorIs(t, err, domain.ErrProductNotFound)
}

// Insumo que apunta a un producto no consumible (ej. un MENU) debe fallar.
func TestResolver_InsumoNoConsumibleFalla(t *testing.T) {
	catalog := newCatalog(
		&entity.Product{ID: "plato", Type: entity.ProductTypeMenu, Performance: dec("1"),
			Supplies: []entity.Supply{{ProductID: "otro-plato", Quantity: dec("1")}}},
		&entity.Product{ID: "otro-plato", Type: entity.ProductTypeMenu},
	)
	r := resolver.NewResolver(catalog, logger.Nop())

	_, err := r.Resolve(context.Background(), testBusiness,
		[]resolver.RequestedItem{{ProductID: "plato", Quantity: dec("1")}}, testStockArea)
	assert.ErrorIs(t, err, domain.ErrInvalidSupplyChain)
}

// Un combo que se contiene a sí mismo no debe colgar: el tope de rondas corta
// y el resultado sale marcado como truncado.
func TestResolver_ComboCiclicoTruncaSinColgarse(t *testing.T) {
	catalog := newCatalog(
		&entity.Product{ID: "ouroboros", Type: entity.ProductTypeCombo, Compositions: []entity.Composition{
			{ProductID: "ouroboros", Quantity: dec("1")},
		}},
	)
	r := resolver.NewResolver(catalog, logger.Nop())

	res, err := r.Resolve(context.Background(), testBusiness,
		[]resolver.RequestedItem{{ProductID: "ouroboros", Quantity: dec("1")}}, testStockArea)
	require.NoError(t, err)
	assert.True(t, res.Truncated, "la expansión debe reportarse truncada")
	assert.Empty(t, res.Deltas)
}

// Resolución del área de producción: una sola declarada gana; varias exigen
// que la pedida coincida; sin coincidencia cae al almacén pedido.
func TestResolver_ResolucionDeAreaDeProduccion(t *testing.T) {
	catalog := newCatalog(
		&entity.Product{ID: "plato-unico", Type: entity.ProductTypeMenu, Performance: dec("1"),
			ProductionAreas: []string{"cocina"},
			Supplies:        []entity.Supply{{ProductID: "arroz", Quantity: dec("1")}}},
		&entity.Product{ID: "plato-multi", Type: entity.ProductTypeMenu, Performance: dec("1"),
			ProductionAreas: []string{"cocina", "parrilla"},
			Supplies:        []entity.Supply{{ProductID: "arroz", Quantity: dec("1")}}},
		&entity.Product{ID: "arroz", Type: entity.ProductTypeRaw},
	)
	r := resolver.NewResolver(catalog, logger.Nop())
	ctx := context.Background()

	res, err := r.Resolve(ctx, testBusiness,
		[]resolver.RequestedItem{{ProductID: "plato-unico", Quantity: dec("1")}}, testStockArea)
	require.NoError(t, err)
	assert.Equal(t, "cocina", findDelta(t, res.Deltas, "arroz").AreaID)

	res, err = r.Resolve(ctx, testBusiness,
		[]resolver.RequestedItem{{ProductID: "plato-multi", Quantity: dec("1"), ProductionAreaID: "parrilla"}}, testStockArea)
	require.NoError(t, err)
	assert.Equal(t, "parrilla", findDelta(t, res.Deltas, "arroz").AreaID)

	res, err = r.Resolve(ctx, testBusiness,
		[]resolver.RequestedItem{{ProductID: "plato-multi", Quantity: dec("1"), ProductionAreaID: "azotea"}}, testStockArea)
	require.NoError(t, err)
	assert.Equal(t, testStockArea, findDelta(t, res.Deltas, "arroz").AreaID,
		"área pedida que no coincide cae al almacén por defecto")
}
