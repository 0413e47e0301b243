package pricing

import (
	"github.com/shopspring/decimal"
	"github.com/jhoicas/pos-core/pkg/money"
)

// bucketList totales por moneda en orden de aparición. Lista corta (dos o
// tres monedas por negocio), así que la búsqueda lineal alcanza.
type bucketList []money.Amount

// index posición del bucket de la moneda, -1 si no existe.
func (b bucketList) index(currency string) int {
	for i := range b {
		if b[i].Currency == currency {
			return i
		}
	}
	return -1
}

// add suma el monto al bucket de su moneda, creándolo si no existe.
// Redondea la acumulación a places en cada paso.
func (b bucketList) add(amount money.Amount, places int32) bucketList {
	if i := b.index(amount.Currency); i >= 0 {
		b[i], _ = b[i].Add(amount, places)
		return b
	}
	return append(b, amount)
}

// scale multiplica cada bucket por el factor, redondeando a places.
func (b bucketList) scale(factor decimal.Decimal, places int32) bucketList {
	for i := range b {
		b[i] = b[i].Mul(factor, places)
	}
	return b
}

func (b bucketList) clone() bucketList {
	out := make(bucketList, len(b))
	copy(out, b)
	return out
}

// compact descarta los buckets que quedaron en cero exacto.
func (b bucketList) compact() bucketList {
	out := make(bucketList, 0, len(b))
	for _, a := range b {
		if !a.IsZero() {
			out = append(out, a)
		}
	}
	return out
}
