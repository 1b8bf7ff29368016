// Package simulate generates reproducible random order sets for demos and
// load tests.
package simulate

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/shopspring/decimal"

	"github.com/uhyunpark/kwhmatch/pkg/app/core"
)

const (
	tenants = 4

	// quantities and prices are drawn as integer ten-thousandths
	minKwhUnits   = 1
	maxKwhUnits   = 1_000_000 // 100.0000 kWh
	minPriceUnits = 500       // 0.0500
	maxPriceUnits = 5000      // 0.5000
)

// RunID is the run id attached to trades of a simulated scenario.
func RunID(name string, seed int64) string {
	return fmt.Sprintf("sim-%s-%d", name, seed)
}

// GenerateScenario returns n orders drawn from a generator seeded with seed.
// Order i is stamped now+i microseconds, so time priority follows generation
// order and the output is identical for identical arguments.
func GenerateScenario(name string, seed int64, n int, now time.Time) []core.Order {
	rng := rand.New(rand.NewSource(seed))
	now = now.UTC()

	out := make([]core.Order, 0, max(n, 0))
	for i := 0; i < n; i++ {
		side := core.Buy
		if rng.Intn(2) == 1 {
			side = core.Sell
		}
		kwh := decimal.New(int64(minKwhUnits+rng.Intn(maxKwhUnits-minKwhUnits+1)), -core.KwhPrecision)
		price := decimal.New(int64(minPriceUnits+rng.Intn(maxPriceUnits-minPriceUnits+1)), -4)
		tenant := fmt.Sprintf("t%d", rng.Intn(tenants)+1)

		out = append(out, core.Order{
			ID:           fmt.Sprintf("%s-%d-%d", name, seed, i),
			TenantID:     tenant,
			Side:         side,
			Kwh:          kwh,
			Price:        price,
			Timestamp:    now.Add(time.Duration(i) * time.Microsecond),
			RemainingKwh: kwh,
		})
	}
	return out
}
