package pricing_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/pos-core/internal/application/pricing"
	"github.com/jhoicas/pos-core/internal/application/settings"
	"github.com/jhoicas/pos-core/internal/domain"
	"github.com/jhoicas/pos-core/internal/domain/entity"
	"github.com/jhoicas/pos-core/pkg/money"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func usdTable(t *testing.T) *money.RateTable {
	t.Helper()
	table, err := money.NewRateTable([]money.Rate{
		{Code: "USD", Rate: dec("1"), IsMain: true},
		{Code: "CUP", Rate: dec("120")},
	})
	require.NoError(t, err)
	return table
}

func defaultConfig() settings.BusinessConfig {
	return settings.Defaults()
}

func usdLine(price, qty string) entity.SoldLine {
	return entity.SoldLine{
		ProductID: "p",
		Quantity:  dec(qty),
		UnitPrice: entity.Price{Amount: dec(price), Currency: "USD"},
		Status:    entity.SoldLineStatusReceived,
	}
}

func amountFor(t *testing.T, amounts []money.Amount, currency string) money.Amount {
	t.Helper()
	for _, a := range amounts {
		if a.Currency == currency {
			return a
		}
	}
	t.Fatalf("no hay bucket para la moneda %s", currency)
	return money.Amount{}
}

// Escenario de referencia: 100 USD con 10% de descuento y 5% de comisión.
// 100 → 90 → 94.50, y la sombra en moneda principal coincide.
func TestComputeTotals_DescuentoYComision(t *testing.T) {
	session := &entity.OrderSession{
		Lines:             []entity.SoldLine{usdLine("50", "2")},
		DiscountPercent:   dec("10"),
		CommissionPercent: dec("5"),
	}

	totals, err := pricing.ComputeTotals(session, defaultConfig(), usdTable(t), nil)
	require.NoError(t, err)

	require.Len(t, totals.TotalsToPay, 1)
	assert.Equal(t, "94.5", totals.TotalsToPay[0].Value.String())
	assert.Equal(t, "USD", totals.TotalsToPay[0].Currency)
	assert.Equal(t, "94.5", totals.MainTotal.Value.String())
	assert.Equal(t, "100", totals.Subtotals[0].Value.String(),
		"el subtotal queda antes de descuento y comisión")
}

// El pipeline es una función pura: dos corridas sobre la misma sesión
// producen exactamente los mismos totales.
func TestComputeTotals_Determinista(t *testing.T) {
	session := &entity.OrderSession{
		Lines: []entity.SoldLine{
			usdLine("19.99", "3"),
			{ProductID: "q", Quantity: dec("1"),
				UnitPrice: entity.Price{Amount: dec("250"), Currency: "CUP"},
				Status:    entity.SoldLineStatusReceived},
		},
		DiscountPercent: dec("7"),
	}

	first, err := pricing.ComputeTotals(session, defaultConfig(), usdTable(t), nil)
	require.NoError(t, err)
	second, err := pricing.ComputeTotals(session, defaultConfig(), usdTable(t), nil)
	require.NoError(t, err)

	require.Equal(t, len(first.TotalsToPay), len(second.TotalsToPay))
	for i := range first.TotalsToPay {
		assert.True(t, first.TotalsToPay[i].Value.Equal(second.TotalsToPay[i].Value))
		assert.Equal(t, first.TotalsToPay[i].Currency, second.TotalsToPay[i].Currency)
	}
	assert.True(t, first.MainTotal.Value.Equal(second.MainTotal.Value))
}

// Cada moneda lleva su propio bucket; la sombra principal los consolida vía
// tasa de cambio.
func TestComputeTotals_BucketsPorMoneda(t *testing.T) {
	session := &entity.OrderSession{
		Lines: []entity.SoldLine{
			usdLine("10", "1"),
			{ProductID: "q", Quantity: dec("1"),
				UnitPrice: entity.Price{Amount: dec("240"), Currency: "CUP"},
				Status:    entity.SoldLineStatusReceived},
		},
	}

	totals, err := pricing.ComputeTotals(session, defaultConfig(), usdTable(t), nil)
	require.NoError(t, err)

	require.Len(t, totals.TotalsToPay, 2)
	assert.Equal(t, "10", amountFor(t, totals.TotalsToPay, "USD").Value.String())
	assert.Equal(t, "240", amountFor(t, totals.TotalsToPay, "CUP").Value.String())
	// 10 + 240/120 = 12 en moneda principal
	assert.Equal(t, "12", totals.MainTotal.Value.String())
}

// Las líneas canceladas y los agregos cuentan como corresponde.
func TestComputeTotals_LineasCanceladasNoSuman(t *testing.T) {
	cancelled := usdLine("999", "1")
	cancelled.Status = entity.SoldLineStatusCancelled
	withAddon := usdLine("10", "1")
	withAddon.Addons = []entity.SoldAddon{{
		ProductID: "extra", Quantity: dec("2"),
		UnitPrice: entity.Price{Amount: dec("1.50"), Currency: "USD"},
	}}
	session := &entity.OrderSession{Lines: []entity.SoldLine{cancelled, withAddon}}

	totals, err := pricing.ComputeTotals(session, defaultConfig(), usdTable(t), nil)
	require.NoError(t, err)

	require.Len(t, totals.TotalsToPay, 1)
	assert.Equal(t, "13", totals.TotalsToPay[0].Value.String(), "10 + 2×1.50, sin la cancelada")
}

// Subtotal de línea: producto a 3 decimales intermedios truncado a 2 (con la
// precisión por defecto), no redondeado.
func TestComputeTotals_SubtotalDeLineaTrunca(t *testing.T) {
	// 3.333 × 3 = 9.999 → 9.999 intermedio → trunca a 9.99
	session := &entity.OrderSession{Lines: []entity.SoldLine{usdLine("3.333", "3")}}

	totals, err := pricing.ComputeTotals(session, defaultConfig(), usdTable(t), nil)
	require.NoError(t, err)
	assert.Equal(t, "9.99", totals.TotalsToPay[0].Value.String())
}

// Orden por la casa: totales a pagar vacíos sin importar las líneas.
func TestComputeTotals_OrdenPorLaCasa(t *testing.T) {
	session := &entity.OrderSession{
		Lines:       []entity.SoldLine{usdLine("100", "1")},
		HouseCosted: true,
	}

	totals, err := pricing.ComputeTotals(session, defaultConfig(), usdTable(t), nil)
	require.NoError(t, err)
	assert.Empty(t, totals.TotalsToPay)
	assert.True(t, totals.MainTotal.Value.IsZero())
}

// Cupón: se resta solo si existe el bucket de su moneda; si no, es no-op.
func TestComputeTotals_Cupon(t *testing.T) {
	session := &entity.OrderSession{
		Lines:          []entity.SoldLine{usdLine("50", "1")},
		CouponDiscount: &entity.Price{Amount: dec("5"), Currency: "USD"},
	}
	totals, err := pricing.ComputeTotals(session, defaultConfig(), usdTable(t), nil)
	require.NoError(t, err)
	assert.Equal(t, "45", totals.TotalsToPay[0].Value.String())
	assert.Equal(t, "45", totals.MainTotal.Value.String())

	session.CouponDiscount = &entity.Price{Amount: dec("100"), Currency: "CUP"}
	totals, err = pricing.ComputeTotals(session, defaultConfig(), usdTable(t), nil)
	require.NoError(t, err)
	assert.Equal(t, "50", totals.TotalsToPay[0].Value.String(),
		"cupón en moneda sin bucket no aplica")
}

// El envío entra al final en su propio bucket, después de porcentajes y
// modificadores, y crea el bucket si la moneda no estaba.
func TestComputeTotals_EnvioAlFinal(t *testing.T) {
	session := &entity.OrderSession{
		Lines:           []entity.SoldLine{usdLine("100", "1")},
		DiscountPercent: dec("10"),
		ShippingPrice:   &entity.Price{Amount: dec("120"), Currency: "CUP"},
	}

	totals, err := pricing.ComputeTotals(session, defaultConfig(), usdTable(t), nil)
	require.NoError(t, err)

	assert.Equal(t, "90", amountFor(t, totals.TotalsToPay, "USD").Value.String(),
		"el descuento no toca el envío")
	assert.Equal(t, "120", amountFor(t, totals.TotalsToPay, "CUP").Value.String())
	// 90 + 120/120 = 91
	assert.Equal(t, "91", totals.MainTotal.Value.String())
}

// Modificadores del área: el grupo bruto se evalúa contra el subtotal previo
// a todo modificador; los acumulativos en orden ascendente de índice, cada
// uno viendo el efecto de los anteriores.
func TestComputeTotals_ModificadoresBrutoYAcumulativos(t *testing.T) {
	area := &entity.Area{
		ID: "salon",
		Modifiers: []entity.FeeModifier{
			// declarados fuera de orden a propósito
			{ID: "m2", Name: "servicio", Index: 2, Type: entity.ModifierTypeFee,
				Percent: dec("10"), Active: true},
			{ID: "m1", Name: "impuesto", Index: 1, Type: entity.ModifierTypeFee,
				Percent: dec("10"), Active: true},
			{ID: "g1", Name: "promo bruta", Index: 9, Type: entity.ModifierTypeDiscount,
				Percent: dec("5"), ApplyToGross: true, Active: true},
			{ID: "off", Name: "apagado", Index: 0, Type: entity.ModifierTypeFee,
				Percent: dec("99"), Active: false},
		},
	}
	session := &entity.OrderSession{Lines: []entity.SoldLine{usdLine("100", "1")}}

	totals, err := pricing.ComputeTotals(session, defaultConfig(), usdTable(t), area)
	require.NoError(t, err)

	// bruto: -5% de 100 = -5 → 95
	// acumulativos por índice: +10% de 95 = 9.5 → 104.5; +10% de 104.5 = 10.45 → 114.95
	assert.Equal(t, "114.95", totals.TotalsToPay[0].Value.String())
	assert.Equal(t, "114.95", totals.MainTotal.Value.String())

	require.Len(t, totals.Modifiers, 3, "el inactivo no se registra")
	assert.Equal(t, "g1", totals.Modifiers[0].ModifierID)
	assert.Equal(t, "-5", totals.Modifiers[0].Amount.String())
	assert.Equal(t, "m1", totals.Modifiers[1].ModifierID)
	assert.Equal(t, "9.5", totals.Modifiers[1].Amount.String())
	assert.Equal(t, "m2", totals.Modifiers[2].ModifierID)
	assert.Equal(t, "10.45", totals.Modifiers[2].Amount.String())
}

// Modificador de monto fijo: va al bucket de su moneda con el signo según el
// tipo (negativo para descuento).
func TestComputeTotals_ModificadorDeMontoFijo(t *testing.T) {
	area := &entity.Area{
		ID: "delivery",
		Modifiers: []entity.FeeModifier{
			{ID: "f1", Name: "embalaje", Type: entity.ModifierTypeFee,
				FixedPrice: &entity.Price{Amount: dec("2.50"), Currency: "USD"}, Active: true},
			{ID: "d1", Name: "vale", Type: entity.ModifierTypeDiscount,
				FixedPrice: &entity.Price{Amount: dec("1"), Currency: "USD"}, Active: true},
		},
	}
	session := &entity.OrderSession{Lines: []entity.SoldLine{usdLine("10", "1")}}

	totals, err := pricing.ComputeTotals(session, defaultConfig(), usdTable(t), area)
	require.NoError(t, err)
	assert.Equal(t, "11.5", totals.TotalsToPay[0].Value.String(), "10 + 2.50 - 1")
}

func TestComputeTotals_MonedaNoConfiguradaFalla(t *testing.T) {
	session := &entity.OrderSession{Lines: []entity.SoldLine{{
		ProductID: "p", Quantity: dec("1"),
		UnitPrice: entity.Price{Amount: dec("10"), Currency: "EUR"},
		Status:    entity.SoldLineStatusReceived,
	}}}

	_, err := pricing.ComputeTotals(session, defaultConfig(), usdTable(t), nil)
	require.Error(t, err)

	var curErr *domain.CurrencyNotConfiguredError
	require.ErrorAs(t, err, &curErr)
	assert.Equal(t, "EUR", curErr.Currency)
}

func TestComputeTotals_SinTablaDeTasasFalla(t *testing.T) {
	session := &entity.OrderSession{Lines: []entity.SoldLine{usdLine("10", "1")}}
	_, err := pricing.ComputeTotals(session, defaultConfig(), nil, nil)
	assert.ErrorIs(t, err, domain.ErrNoMainCurrency)
}

// Los buckets que quedan en cero exacto no aparecen en los totales a pagar.
func TestComputeTotals_BucketEnCeroSeDescarta(t *testing.T) {
	session := &entity.OrderSession{
		Lines:          []entity.SoldLine{usdLine("5", "1")},
		CouponDiscount: &entity.Price{Amount: dec("5"), Currency: "USD"},
	}

	totals, err := pricing.ComputeTotals(session, defaultConfig(), usdTable(t), nil)
	require.NoError(t, err)
	assert.Empty(t, totals.TotalsToPay)
}
