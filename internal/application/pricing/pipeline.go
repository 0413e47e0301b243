package pricing

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
	"github.com/jhoicas/pos-core/internal/application/settings"
	"github.com/jhoicas/pos-core/internal/domain"
	"github.com/jhoicas/pos-core/internal/domain/entity"
	"github.com/jhoicas/pos-core/pkg/money"
)

var hundred = decimal.NewFromInt(100)

// Totals resultado del pipeline: subtotales y totales a pagar por moneda,
// el total sombra en moneda principal y los modificadores aplicados para el
// recibo.
type Totals struct {
	Subtotals   []money.Amount
	TotalsToPay []money.Amount
	MainTotal   money.Amount
	Modifiers   []entity.AppliedModifier
}

// ComputeTotals calcula los totales de la orden. Es una función pura de
// (sesión, configuración, tasas, área): llamada dos veces sobre las mismas
// entradas produce exactamente lo mismo, porque el checkout la recomputa
// varias veces.
//
// Orden fijo de evaluación: subtotal por línea → descuento porcentual →
// comisión porcentual → cupón → modificadores del área de venta (primero los
// de subtotal bruto, después los acumulativos en orden ascendente de índice)
// → envío. El total en moneda principal se lleva en paralelo, re-derivado de
// forma independiente en cada paso porcentual para conservar la paridad de
// redondeo con el sistema de caja (las dos pistas NO se derivan una de otra).
//
// Semántica del descuento: se computa el valor post-descuento a la precisión
// de trabajo y de ahí se deriva el delta (la variante V2 del sistema legado).
func ComputeTotals(
	session *entity.OrderSession,
	cfg settings.BusinessConfig,
	rates *money.RateTable,
	area *entity.Area,
) (*Totals, error) {
	if rates == nil {
		return nil, domain.ErrNoMainCurrency
	}
	// orden por la casa: la casa absorbe el costo, nada que pagar
	if session.HouseCosted {
		return &Totals{TotalsToPay: []money.Amount{}, MainTotal: money.Zero(rates.Main())}, nil
	}

	places := cfg.PrecisionAfterComa
	mainTotal := money.Zero(rates.Main())
	var subtotals bucketList

	// 1. subtotal por línea: precio unitario × cantidad a un decimal más de
	// precisión intermedia, truncado a la precisión de trabajo.
	for _, line := range session.ActiveLines() {
		lineTotal, err := lineAmount(line.UnitPrice, line.Quantity, places)
		if err != nil {
			return nil, err
		}
		if !rates.Has(lineTotal.Currency) {
			return nil, &domain.CurrencyNotConfiguredError{Currency: lineTotal.Currency}
		}
		subtotals = subtotals.add(lineTotal, places)
		converted, err := rates.Exchange(lineTotal, rates.Main(), places)
		if err != nil {
			return nil, err
		}
		mainTotal, _ = mainTotal.Add(converted, places)

		for _, ad := range line.Addons {
			addonTotal, err := lineAmount(ad.UnitPrice, ad.Quantity, places)
			if err != nil {
				return nil, err
			}
			if !rates.Has(addonTotal.Currency) {
				return nil, &domain.CurrencyNotConfiguredError{Currency: addonTotal.Currency}
			}
			subtotals = subtotals.add(addonTotal, places)
			converted, err := rates.Exchange(addonTotal, rates.Main(), places)
			if err != nil {
				return nil, err
			}
			mainTotal, _ = mainTotal.Add(converted, places)
		}
	}

	totals := &Totals{Subtotals: subtotals.clone()}
	running := subtotals.clone()

	// 2. descuento porcentual y luego comisión, por bucket de moneda; la
	// sombra en moneda principal se recalcula con el mismo porcentaje sobre
	// su propio valor corriente.
	if session.DiscountPercent.IsPositive() {
		factor := hundred.Sub(session.DiscountPercent).Div(hundred)
		running = running.scale(factor, places)
		mainTotal = mainTotal.Mul(factor, places)
	}
	if session.CommissionPercent.IsPositive() {
		factor := hundred.Add(session.CommissionPercent).Div(hundred)
		running = running.scale(factor, places)
		mainTotal = mainTotal.Mul(factor, places)
	}

	// 3. cupón: monto fijo restado del bucket de su misma moneda (no-op si
	// no existe el bucket) y de la sombra principal vía cambio.
	if session.CouponDiscount != nil && session.CouponDiscount.Amount.IsPositive() {
		coupon := money.New(session.CouponDiscount.Amount, session.CouponDiscount.Currency)
		if i := running.index(coupon.Currency); i >= 0 {
			running[i], _ = running[i].Sub(coupon, places)
			converted, err := rates.Exchange(coupon, rates.Main(), places)
			if err != nil {
				return nil, err
			}
			mainTotal, _ = mainTotal.Sub(converted, places)
		}
	}

	// 4. modificadores del área de venta (solo con contexto de área)
	if area != nil {
		var err error
		running, mainTotal, err = applyAreaModifiers(totals, running, mainTotal, area, rates, places)
		if err != nil {
			return nil, err
		}
	}

	// 5. envío al final, en su propio bucket (se crea si no existe)
	if session.ShippingPrice != nil && session.ShippingPrice.Amount.IsPositive() {
		shipping := money.New(session.ShippingPrice.Amount, session.ShippingPrice.Currency)
		if !rates.Has(shipping.Currency) {
			return nil, &domain.CurrencyNotConfiguredError{Currency: shipping.Currency}
		}
		running = running.add(shipping, places)
		converted, err := rates.Exchange(shipping, rates.Main(), places)
		if err != nil {
			return nil, err
		}
		mainTotal, _ = mainTotal.Add(converted, places)
	}

	totals.TotalsToPay = running.compact()
	totals.MainTotal = mainTotal
	return totals, nil
}

// applyAreaModifiers aplica los dos grupos ordenados: primero los marcados
// "sobre subtotal bruto" evaluados contra el total previo a todo modificador,
// después los acumulativos en orden ascendente de índice, evaluados contra el
// total corriente (cada uno ve el efecto de los anteriores). Cada modificador
// aplicado queda registrado con nombre, monto firmado, moneda e id.
func applyAreaModifiers(
	totals *Totals,
	running bucketList,
	mainTotal money.Amount,
	area *entity.Area,
	rates *money.RateTable,
	places int32,
) (bucketList, money.Amount, error) {
	var gross, cumulative []entity.FeeModifier
	for _, m := range area.Modifiers {
		if !m.Active {
			continue
		}
		if m.ApplyToGross {
			gross = append(gross, m)
		} else {
			cumulative = append(cumulative, m)
		}
	}
	sort.SliceStable(cumulative, func(i, j int) bool {
		return cumulative[i].Index < cumulative[j].Index
	})

	// snapshot previo a modificadores: base de evaluación del grupo bruto
	grossBase := running.clone()
	grossMain := mainTotal

	var err error
	for _, m := range gross {
		running, mainTotal, err = applyModifier(totals, running, mainTotal, grossBase, grossMain, m, rates, places)
		if err != nil {
			return nil, money.Amount{}, err
		}
	}
	for _, m := range cumulative {
		running, mainTotal, err = applyModifier(totals, running, mainTotal, running, mainTotal, m, rates, places)
		if err != nil {
			return nil, money.Amount{}, err
		}
	}
	return running, mainTotal, nil
}

// applyModifier evalúa un modificador contra base y lo suma a running. Un
// monto fijo va al bucket de su moneda con el signo invertido si el
// modificador es de tipo descuento; un porcentaje se aplica a cada bucket.
func applyModifier(
	totals *Totals,
	running bucketList,
	mainTotal money.Amount,
	base bucketList,
	baseMain money.Amount,
	m entity.FeeModifier,
	rates *money.RateTable,
	places int32,
) (bucketList, money.Amount, error) {
	sign := decimal.NewFromInt(1)
	if m.Type == entity.ModifierTypeDiscount {
		sign = decimal.NewFromInt(-1)
	}

	if m.FixedPrice != nil {
		amount := money.New(m.FixedPrice.Amount.Mul(sign), m.FixedPrice.Currency)
		if !rates.Has(amount.Currency) {
			return nil, money.Amount{}, &domain.CurrencyNotConfiguredError{Currency: amount.Currency}
		}
		running = running.add(amount, places)
		converted, err := rates.Exchange(amount, rates.Main(), places)
		if err != nil {
			return nil, money.Amount{}, err
		}
		mainTotal, _ = mainTotal.Add(converted, places)
		totals.Modifiers = append(totals.Modifiers, entity.AppliedModifier{
			ModifierID: m.ID,
			Name:       m.Name,
			Amount:     amount.Value,
			Currency:   amount.Currency,
		})
		return running, mainTotal, nil
	}

	ratio := m.Percent.Div(hundred).Mul(sign)
	for _, b := range base {
		amount := b.Mul(ratio, places)
		if amount.IsZero() {
			continue
		}
		running = running.add(amount, places)
		totals.Modifiers = append(totals.Modifiers, entity.AppliedModifier{
			ModifierID: m.ID,
			Name:       m.Name,
			Amount:     amount.Value,
			Currency:   amount.Currency,
		})
	}
	mainTotal, _ = mainTotal.Add(baseMain.Mul(ratio, places), places)
	return running, mainTotal, nil
}

// lineAmount precio unitario × cantidad con un decimal extra de precisión
// intermedia y truncado a la precisión de trabajo. Reproduce el cálculo del
// sistema de caja (3 decimales intermedios truncados a 2 con la precisión
// por defecto).
func lineAmount(price entity.Price, qty decimal.Decimal, places int32) (money.Amount, error) {
	if price.Currency == "" {
		return money.Amount{}, fmt.Errorf("línea sin moneda: %w", domain.ErrInvalidInput)
	}
	raw := price.Amount.Mul(qty).Round(places + 1)
	return money.New(raw, price.Currency).Truncate(places), nil
}
