package simulate

import (
	"strconv"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uhyunpark/kwhmatch/pkg/app/core"
)

var epoch = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

func TestGenerateScenarioDeterministic(t *testing.T) {
	a := GenerateScenario("demo", 42, 50, epoch)
	b := GenerateScenario("demo", 42, 50, epoch)
	require.Len(t, a, 50)
	assert.Equal(t, a, b)

	c := GenerateScenario("demo", 43, 50, epoch)
	assert.NotEqual(t, a, c)
}

func TestGenerateScenarioShape(t *testing.T) {
	orders := GenerateScenario("demo", 7, 200, epoch)

	minPrice := decimal.RequireFromString("0.05")
	maxPrice := decimal.RequireFromString("0.5")
	maxKwh := decimal.NewFromInt(100)
	tenants := map[string]bool{"t1": true, "t2": true, "t3": true, "t4": true}

	var buys, sells int
	for i, o := range orders {
		require.NoError(t, o.Validate(), "order %d", i)
		assert.Equal(t, "demo-7-"+strconv.Itoa(i), o.ID)
		assert.True(t, tenants[o.TenantID], o.TenantID)
		assert.True(t, o.Kwh.IsPositive() && o.Kwh.LessThanOrEqual(maxKwh))
		assert.True(t, o.Price.GreaterThanOrEqual(minPrice) && o.Price.LessThanOrEqual(maxPrice))
		assert.True(t, o.RemainingKwh.Equal(o.Kwh))
		assert.Equal(t, epoch.Add(time.Duration(i)*time.Microsecond), o.Timestamp)

		switch o.Side {
		case core.Buy:
			buys++
		case core.Sell:
			sells++
		}
	}
	assert.Greater(t, buys, 0)
	assert.Greater(t, sells, 0)
}

func TestGenerateScenarioEmpty(t *testing.T) {
	assert.Empty(t, GenerateScenario("x", 1, 0, epoch))
	assert.Empty(t, GenerateScenario("x", 1, -3, epoch))
}

func TestRunID(t *testing.T) {
	assert.Equal(t, "sim-demo-42", RunID("demo", 42))
}
