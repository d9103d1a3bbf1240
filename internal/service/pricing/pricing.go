// Package pricing is the single source of truth for cart and order totals.
// The same formula prices the cart page and the order snapshot; callers feed
// it frozen line data, it never reaches for the catalog or the clock.
package pricing

// All amounts are int64 paise.
const (
	// DefaultGSTRate applies when a product snapshot carries no rate.
	DefaultGSTRate = 18

	// FreeShippingPaise is the subtotal above which shipping is free.
	// Strictly above: a subtotal of exactly ₹499 still pays the fee.
	FreeShippingPaise = 49900

	// FlatShippingPaise is the flat fee below the threshold.
	FlatShippingPaise = 4900
)

// Line is the slice of a cart or order line the calculator needs.
type Line struct {
	UnitPaise int64
	Quantity  int
	GSTRate   int
}

type Totals struct {
	ItemsPaise    int64 `json:"itemsPaise"`
	TaxPaise      int64 `json:"taxPaise"`
	ShippingPaise int64 `json:"shippingPaise"`
	TotalPaise    int64 `json:"totalPaise"`
}

// Compute prices a set of lines. Tax is computed per line from the line's
// snapshotted GST rate with half-up rounding, then summed. An empty input
// yields all-zero totals, shipping included.
func Compute(lines []Line) Totals {
	var t Totals
	if len(lines) == 0 {
		return t
	}
	for _, l := range lines {
		linePaise := l.UnitPaise * int64(l.Quantity)
		t.ItemsPaise += linePaise
		t.TaxPaise += lineTax(linePaise, l.GSTRate)
	}
	if t.ItemsPaise <= FreeShippingPaise {
		t.ShippingPaise = FlatShippingPaise
	}
	t.TotalPaise = t.ItemsPaise + t.TaxPaise + t.ShippingPaise
	return t
}

func lineTax(linePaise int64, rate int) int64 {
	if rate <= 0 {
		rate = DefaultGSTRate
	}
	return (linePaise*int64(rate) + 50) / 100
}
