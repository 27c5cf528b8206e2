package rendering

import (
	"strings"
	"testing"

	"github.com/buynest/backend/internal/domain/analysis"
	"github.com/buynest/backend/internal/infrastructure/currency"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBuilder() *ChartBuilder {
	return NewChartBuilder(currency.NewFormatter("Rs"))
}

func TestKPIRegion(t *testing.T) {
	b := newTestBuilder()

	region, err := b.KPIRegion(analysis.Totals{
		Revenue: decimal.NewFromFloat(1234.5),
		Profit:  decimal.NewFromFloat(678.9),
	}, 42)
	require.NoError(t, err)

	assert.Equal(t, "kpi", region.Name)
	assert.Contains(t, region.HTML, `id="region"`)
	assert.Contains(t, region.HTML, "Rs 1,234.50")
	assert.Contains(t, region.HTML, "Rs 678.90")
	assert.Contains(t, region.HTML, ">42<")
	assert.Contains(t, region.HTML, "Total Revenue")
	assert.Contains(t, region.HTML, "Total Profit")
}

func TestBarCharts(t *testing.T) {
	b := newTestBuilder()
	rows := []analysis.DailyRow{
		{Day: "2026-08-01", Revenue: decimal.NewFromInt(100), Profit: decimal.NewFromInt(40)},
		{Day: "2026-08-02", Revenue: decimal.NewFromInt(50), Profit: decimal.NewFromInt(20)},
	}

	t.Run("revenue chart scales bars to the maximum", func(t *testing.T) {
		region, err := b.RevenueChart(rows)
		require.NoError(t, err)

		assert.Equal(t, "revenue-chart", region.Name)
		assert.Contains(t, region.HTML, RevenueChartTitle)
		assert.Contains(t, region.HTML, "height:100%")
		assert.Contains(t, region.HTML, "height:50%")
		assert.Contains(t, region.HTML, "2026-08-01")
		assert.Contains(t, region.HTML, "Rs 100.00")
	})

	t.Run("profit chart uses profit values", func(t *testing.T) {
		region, err := b.ProfitChart(rows)
		require.NoError(t, err)

		assert.Contains(t, region.HTML, ProfitChartTitle)
		assert.Contains(t, region.HTML, "Rs 40.00")
		assert.NotContains(t, region.HTML, "Rs 100.00")
	})

	t.Run("empty rows produce placeholder", func(t *testing.T) {
		region, err := b.RevenueChart(nil)
		require.NoError(t, err)
		assert.Contains(t, region.HTML, "No data in the selected range")
	})

	t.Run("escapes markup in day labels", func(t *testing.T) {
		region, err := b.RevenueChart([]analysis.DailyRow{
			{Day: "<script>", Revenue: decimal.NewFromInt(1)},
		})
		require.NoError(t, err)
		assert.NotContains(t, region.HTML, "<script>")
		assert.Contains(t, region.HTML, "&lt;script&gt;")
	})
}

func TestTopProductsRegion(t *testing.T) {
	b := newTestBuilder()

	t.Run("ranks in given order", func(t *testing.T) {
		region, err := b.TopProducts([]analysis.ProductRank{
			{DisplayName: "Widget", Quantity: decimal.NewFromInt(10)},
			{DisplayName: "Gadget", Quantity: decimal.NewFromInt(4)},
		})
		require.NoError(t, err)

		assert.Equal(t, "top-products", region.Name)
		assert.Contains(t, region.HTML, TopProductsTitle)
		widgetIdx := strings.Index(region.HTML, "Widget")
		gadgetIdx := strings.Index(region.HTML, "Gadget")
		require.Positive(t, widgetIdx)
		require.Positive(t, gadgetIdx)
		assert.Less(t, widgetIdx, gadgetIdx)
		assert.Contains(t, region.HTML, "width:100%")
		assert.Contains(t, region.HTML, "width:40%")
	})

	t.Run("empty ranking produces placeholder", func(t *testing.T) {
		region, err := b.TopProducts(nil)
		require.NoError(t, err)
		assert.Contains(t, region.HTML, "No products sold in the selected range")
	})
}
