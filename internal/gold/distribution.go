package gold

import (
	"math"

	"github.com/DataDog/sketches-go/ddsketch"
	"github.com/shopspring/decimal"
)

// Distribution maintains running statistics of order values with optional
// percentiles from a DDSketch.
type Distribution struct {
	count int64
	sum   decimal.Decimal
	min   float64
	max   float64

	// nil if the sketch could not be created
	sketch *ddsketch.DDSketch
}

// NewDistribution creates a Distribution with the given relative accuracy
// for percentiles, e.g. 0.01 for 1%.
func NewDistribution(accuracy float64) *Distribution {
	d := &Distribution{
		min: math.MaxFloat64,
		max: -math.MaxFloat64,
	}

	sketch, err := ddsketch.NewDefaultDDSketch(accuracy)
	if err == nil {
		d.sketch = sketch
	}

	return d
}

// Add adds one order value.
func (d *Distribution) Add(value decimal.Decimal) {
	d.count++
	d.sum = d.sum.Add(value)

	f := value.InexactFloat64()
	if f < d.min {
		d.min = f
	}
	if f > d.max {
		d.max = f
	}

	if d.sketch != nil {
		d.sketch.Add(f)
	}
}

// Summary is a snapshot of a Distribution. Percentiles are approximate
// within the sketch accuracy; Sum is exact.
type Summary struct {
	Count int64
	Sum   decimal.Decimal
	Min   float64
	Max   float64
	Avg   float64
	P50   float64
	P90   float64
	P99   float64
}

// Summary returns the current statistics. An empty distribution yields zeros.
func (d *Distribution) Summary() Summary {
	s := Summary{Count: d.count, Sum: d.sum}
	if d.count == 0 {
		return s
	}

	s.Min = d.min
	s.Max = d.max
	s.Avg = d.sum.InexactFloat64() / float64(d.count)

	if d.sketch != nil {
		s.P50, _ = d.sketch.GetValueAtQuantile(0.50)
		s.P90, _ = d.sketch.GetValueAtQuantile(0.90)
		s.P99, _ = d.sketch.GetValueAtQuantile(0.99)
	}

	return s
}

// OrderValues summarizes the revenue of every order in ds.
func OrderValues(ds *Datasets) Summary {
	d := NewDistribution(0.01)
	for _, o := range ds.PerOrder {
		d.Add(o.Revenue)
	}
	return d.Summary()
}
