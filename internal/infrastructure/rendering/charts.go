package rendering

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/buynest/backend/internal/domain/analysis"
	"github.com/buynest/backend/internal/infrastructure/currency"
	"github.com/shopspring/decimal"
)

// Region titles used across the generated report.
const (
	RevenueChartTitle = "Revenue by Day"
	ProfitChartTitle  = "Profit by Day"
	TopProductsTitle  = "Top-Selling Products (Quantity)"
)

// ChartBuilder produces self-contained HTML documents for report
// regions. All styling is inlined so the renderer never fetches
// external assets.
type ChartBuilder struct {
	formatter   *currency.Formatter
	width       int64
	chartHeight int64
	kpiTpl      *template.Template
	barTpl      *template.Template
	topTpl      *template.Template
}

// ChartOption adjusts builder defaults.
type ChartOption func(*ChartBuilder)

// WithDimensions overrides the region width and bar-chart height, in
// pixels. Zero values keep the defaults.
func WithDimensions(width, height int) ChartOption {
	return func(b *ChartBuilder) {
		if width > 0 {
			b.width = int64(width)
		}
		if height > 0 {
			b.chartHeight = int64(height)
		}
	}
}

// NewChartBuilder creates a builder that formats amounts with the
// given currency formatter.
func NewChartBuilder(formatter *currency.Formatter, opts ...ChartOption) *ChartBuilder {
	b := &ChartBuilder{
		formatter:   formatter,
		width:       1200,
		chartHeight: 500,
		kpiTpl:      template.Must(template.New("kpi").Parse(kpiTemplate)),
		barTpl:      template.Must(template.New("bar").Parse(barChartTemplate)),
		topTpl:      template.Must(template.New("top").Parse(topProductsTemplate)),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

type kpiCard struct {
	Label string
	Value string
}

type kpiData struct {
	Cards []kpiCard
}

type barPoint struct {
	Label   string
	Value   string
	Percent float64
}

type barData struct {
	Title  string
	Points []barPoint
	Empty  bool
}

type topRow struct {
	Rank     int
	Name     string
	Quantity string
	Percent  float64
}

type topData struct {
	Title string
	Rows  []topRow
	Empty bool
}

// KPIRegion builds the summary card strip with total revenue, total
// profit and order count.
func (b *ChartBuilder) KPIRegion(totals analysis.Totals, orderCount int) (Region, error) {
	data := kpiData{
		Cards: []kpiCard{
			{Label: "Total Revenue", Value: b.formatter.Format(totals.Revenue)},
			{Label: "Total Profit", Value: b.formatter.Format(totals.Profit)},
			{Label: "Orders", Value: fmt.Sprintf("%d", orderCount)},
		},
	}
	html, err := b.execute(b.kpiTpl, data)
	if err != nil {
		return Region{}, err
	}
	return Region{Name: "kpi", HTML: html, Width: b.width, Height: 180}, nil
}

// RevenueChart builds the daily revenue bar chart region.
func (b *ChartBuilder) RevenueChart(rows []analysis.DailyRow) (Region, error) {
	return b.barChart("revenue-chart", RevenueChartTitle, rows, func(r analysis.DailyRow) decimal.Decimal {
		return r.Revenue
	})
}

// ProfitChart builds the daily profit bar chart region.
func (b *ChartBuilder) ProfitChart(rows []analysis.DailyRow) (Region, error) {
	return b.barChart("profit-chart", ProfitChartTitle, rows, func(r analysis.DailyRow) decimal.Decimal {
		return r.Profit
	})
}

func (b *ChartBuilder) barChart(name, title string, rows []analysis.DailyRow, value func(analysis.DailyRow) decimal.Decimal) (Region, error) {
	data := barData{Title: title, Empty: len(rows) == 0}

	max := decimal.Zero
	for _, r := range rows {
		if v := value(r); v.GreaterThan(max) {
			max = v
		}
	}

	for _, r := range rows {
		v := value(r)
		pct := 0.0
		if max.IsPositive() {
			pct, _ = v.Div(max).Mul(decimal.NewFromInt(100)).Float64()
			if pct < 0 {
				pct = 0
			}
		}
		data.Points = append(data.Points, barPoint{
			Label:   r.Day,
			Value:   b.formatter.Format(v),
			Percent: pct,
		})
	}

	html, err := b.execute(b.barTpl, data)
	if err != nil {
		return Region{}, err
	}
	return Region{Name: name, HTML: html, Width: b.width, Height: b.chartHeight}, nil
}

// TopProducts builds the top-selling products region as a horizontal
// bar list ordered by quantity.
func (b *ChartBuilder) TopProducts(ranks []analysis.ProductRank) (Region, error) {
	data := topData{Title: TopProductsTitle, Empty: len(ranks) == 0}

	max := decimal.Zero
	for _, r := range ranks {
		if r.Quantity.GreaterThan(max) {
			max = r.Quantity
		}
	}

	for i, r := range ranks {
		pct := 0.0
		if max.IsPositive() {
			pct, _ = r.Quantity.Div(max).Mul(decimal.NewFromInt(100)).Float64()
		}
		data.Rows = append(data.Rows, topRow{
			Rank:     i + 1,
			Name:     r.DisplayName,
			Quantity: r.Quantity.String(),
			Percent:  pct,
		})
	}

	html, err := b.execute(b.topTpl, data)
	if err != nil {
		return Region{}, err
	}
	return Region{Name: "top-products", HTML: html, Width: b.width, Height: 420}, nil
}

func (b *ChartBuilder) execute(tpl *template.Template, data interface{}) (string, error) {
	var buf bytes.Buffer
	if err := tpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("execute region template: %w", err)
	}
	return buf.String(), nil
}

const kpiTemplate = `<!DOCTYPE html><html><head><meta charset="UTF-8"><style>
body{margin:0;font-family:Helvetica,Arial,sans-serif;background:#fff}
#region{display:flex;gap:16px;padding:16px;width:1168px;box-sizing:border-box}
.card{flex:1;border:1px solid #e5e7eb;border-radius:8px;padding:20px;background:#f9fafb}
.label{font-size:13px;color:#6b7280;margin-bottom:8px}
.value{font-size:26px;font-weight:700;color:#111827}
</style></head><body><div id="region">
{{range .Cards}}<div class="card"><div class="label">{{.Label}}</div><div class="value">{{.Value}}</div></div>
{{end}}</div></body></html>`

const barChartTemplate = `<!DOCTYPE html><html><head><meta charset="UTF-8"><style>
body{margin:0;font-family:Helvetica,Arial,sans-serif;background:#fff}
#region{width:1168px;padding:16px;box-sizing:border-box}
h2{font-size:16px;color:#111827;margin:0 0 12px 0}
.chart{display:flex;align-items:flex-end;gap:6px;height:320px;border-bottom:1px solid #d1d5db;padding-bottom:2px}
.col{flex:1;display:flex;flex-direction:column;justify-content:flex-end;align-items:center;height:100%}
.bar{width:70%;background:#3b82f6;border-radius:3px 3px 0 0;min-height:1px}
.amount{font-size:10px;color:#374151;margin-bottom:4px;white-space:nowrap}
.day{font-size:10px;color:#6b7280;margin-top:6px;transform:rotate(-45deg);transform-origin:top left;white-space:nowrap}
.labels{display:flex;gap:6px;height:60px;margin-top:2px}
.labels div{flex:1;text-align:center}
.empty{color:#9ca3af;font-size:14px;padding:40px;text-align:center}
</style></head><body><div id="region"><h2>{{.Title}}</h2>
{{if .Empty}}<div class="empty">No data in the selected range</div>{{else}}
<div class="chart">{{range .Points}}<div class="col"><div class="amount">{{.Value}}</div><div class="bar" style="height:{{.Percent}}%"></div></div>{{end}}</div>
<div class="labels">{{range .Points}}<div><span class="day">{{.Label}}</span></div>{{end}}</div>
{{end}}</div></body></html>`

const topProductsTemplate = `<!DOCTYPE html><html><head><meta charset="UTF-8"><style>
body{margin:0;font-family:Helvetica,Arial,sans-serif;background:#fff}
#region{width:1168px;padding:16px;box-sizing:border-box}
h2{font-size:16px;color:#111827;margin:0 0 12px 0}
.row{display:flex;align-items:center;gap:10px;margin-bottom:8px}
.rank{width:24px;font-size:12px;color:#6b7280;text-align:right}
.name{width:280px;font-size:13px;color:#111827;overflow:hidden;text-overflow:ellipsis;white-space:nowrap}
.track{flex:1;background:#f3f4f6;border-radius:3px;height:18px}
.fill{background:#3b82f6;height:18px;border-radius:3px;min-width:2px}
.qty{width:70px;font-size:12px;color:#374151;text-align:right}
.empty{color:#9ca3af;font-size:14px;padding:40px;text-align:center}
</style></head><body><div id="region"><h2>{{.Title}}</h2>
{{if .Empty}}<div class="empty">No products sold in the selected range</div>{{else}}
{{range .Rows}}<div class="row"><div class="rank">{{.Rank}}</div><div class="name">{{.Name}}</div><div class="track"><div class="fill" style="width:{{.Percent}}%"></div></div><div class="qty">{{.Quantity}}</div></div>
{{end}}{{end}}</div></body></html>`
