package analysis

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	domain "github.com/buynest/backend/internal/domain/analysis"
	"github.com/buynest/backend/internal/infrastructure/currency"
	"github.com/buynest/backend/internal/infrastructure/document"
	"github.com/buynest/backend/internal/infrastructure/metrics"
	"github.com/buynest/backend/internal/infrastructure/rendering"
)

const (
	// blockGap is the vertical spacing between report blocks in mm.
	blockGap = 6.0
	// headerHeight reserves room for the title lines on the first page.
	headerHeight = 24.0
)

// ExportOptions tunes the PDF export.
type ExportOptions struct {
	// Title is printed at the top of the report.
	Title string
	// Clock overrides time.Now, used in tests.
	Clock func() time.Time
}

// ExportService assembles the financial summary PDF from rendered
// regions and tabular data.
type ExportService struct {
	analysis    *Service
	renderer    rendering.RegionRenderer
	charts      *rendering.ChartBuilder
	formatter   *currency.Formatter
	newDocument func() document.Document
	logger      *zap.Logger
	metrics     *metrics.Metrics
	opts        ExportOptions
}

// NewExportService creates the export pipeline. newDocument may be nil
// to use the default A4 PDF surface.
func NewExportService(
	analysisSvc *Service,
	renderer rendering.RegionRenderer,
	charts *rendering.ChartBuilder,
	formatter *currency.Formatter,
	newDocument func() document.Document,
	logger *zap.Logger,
	m *metrics.Metrics,
	opts ExportOptions,
) *ExportService {
	if newDocument == nil {
		newDocument = document.NewPDF
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Title == "" {
		opts.Title = "BuyNest Financial Summary"
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	return &ExportService{
		analysis:    analysisSvc,
		renderer:    renderer,
		charts:      charts,
		formatter:   formatter,
		newDocument: newDocument,
		logger:      logger,
		metrics:     m,
		opts:        opts,
	}
}

// ExportResult carries the finished PDF and assembly diagnostics.
type ExportResult struct {
	PDF            []byte
	Filename       string
	Pages          int
	SkippedRegions []string
}

// Export computes the summary over the request's raw streams and
// assembles the PDF.
func (s *ExportService) Export(ctx context.Context, req ComputeRequest) (*ExportResult, error) {
	snap, err := s.analysis.Analyze(ctx, req)
	if err != nil {
		s.countExport("error")
		return nil, err
	}
	return s.assemble(ctx, snap)
}

// ExportFromStorefront fetches data from the configured source and
// assembles the PDF.
func (s *ExportService) ExportFromStorefront(ctx context.Context, from, to string) (*ExportResult, error) {
	snap, err := s.analysis.AnalyzeFromStorefront(ctx, from, to)
	if err != nil {
		s.countExport("error")
		return nil, err
	}
	return s.assemble(ctx, snap)
}

// assemble draws the report blocks in their fixed order, rendering
// image regions one at a time and skipping any that fail.
func (s *ExportService) assemble(ctx context.Context, snap *Snapshot) (*ExportResult, error) {
	start := time.Now()

	doc := s.newDocument()
	pageW, pageH := doc.PageSize()
	margin := doc.Margin()
	bottom := pageH - margin

	result := &ExportResult{
		Filename: reportFilename(snap.Range),
	}

	y := s.drawHeader(doc, snap)

	agg := snap.Aggregation

	// Image blocks, rasterized sequentially in report order.
	for _, block := range s.imageBlocks(snap) {
		if block.skip {
			continue
		}
		region, err := block.build()
		if err != nil {
			y = s.skipRegion(result, block.name, y, err)
			continue
		}
		rendered, err := s.renderer.RenderRegion(ctx, region)
		if err != nil {
			y = s.skipRegion(result, block.name, y, err)
			continue
		}

		h, err := doc.ImageHeight(rendered.PNG, pageW)
		if err != nil {
			y = s.skipRegion(result, block.name, y, err)
			continue
		}
		if y+h > bottom && y > margin {
			doc.AddPage()
			y = margin
		}
		// A block taller than a full page is squeezed into the space left.
		if y+h > bottom {
			h = bottom - y
		}
		drawn, err := doc.Image(rendered.PNG, margin, y, pageW, h)
		if err != nil {
			y = s.skipRegion(result, block.name, y, err)
			continue
		}
		y += drawn + blockGap
	}

	// Summary table.
	y = s.ensureRoom(doc, y, bottom, margin, 30)
	doc.Text(margin, y, 12, true, "Summary")
	y += 4
	y = doc.Table(
		[]string{"Metric", "Value"},
		[]float64{pageW / 2, pageW / 2},
		[][]string{
			{"Total Revenue", s.formatter.Format(agg.Totals.Revenue)},
			{"Total Profit", s.formatter.Format(agg.Totals.Profit)},
			{"Orders", fmt.Sprintf("%d", agg.OrderCount)},
		},
		y, document.DefaultTableStyle())
	y += blockGap

	// Daily breakdown table.
	if len(agg.DailyRows) > 0 {
		y = s.ensureRoom(doc, y, bottom, margin, 30)
		doc.Text(margin, y, 12, true, "Daily Breakdown")
		y += 4
		rows := make([][]string, 0, len(agg.DailyRows))
		for _, row := range agg.DailyRows {
			rows = append(rows, []string{
				row.Day,
				s.formatter.Format(row.Revenue),
				s.formatter.Format(row.Profit),
			})
		}
		doc.Table(
			[]string{"Day", "Revenue", "Profit"},
			[]float64{pageW / 3, pageW / 3, pageW / 3},
			rows, y, document.DefaultTableStyle())
	}

	pdf, err := doc.Bytes()
	if err != nil {
		s.countExport("error")
		return nil, err
	}

	result.PDF = pdf
	result.Pages = doc.CurrentPage()

	s.logger.Info("report assembled",
		zap.String("range", snap.Range.Label()),
		zap.Int("pages", result.Pages),
		zap.Int("bytes", len(pdf)),
		zap.Strings("skippedRegions", result.SkippedRegions),
		zap.Duration("duration", time.Since(start)))

	if s.metrics != nil {
		s.metrics.BuildDuration.Observe(time.Since(start).Seconds())
	}
	s.countExport("ok")
	return result, nil
}

type imageBlock struct {
	name  string
	skip  bool
	build func() (rendering.Region, error)
}

func (s *ExportService) imageBlocks(snap *Snapshot) []imageBlock {
	agg := snap.Aggregation
	noDays := len(agg.DailyRows) == 0
	return []imageBlock{
		{
			name: "kpi",
			build: func() (rendering.Region, error) {
				return s.charts.KPIRegion(agg.Totals, agg.OrderCount)
			},
		},
		{
			name: "revenue-chart",
			skip: noDays,
			build: func() (rendering.Region, error) {
				return s.charts.RevenueChart(agg.DailyRows)
			},
		},
		{
			name: "profit-chart",
			skip: noDays,
			build: func() (rendering.Region, error) {
				return s.charts.ProfitChart(agg.DailyRows)
			},
		},
		{
			name: "top-products",
			skip: len(snap.TopProducts) == 0,
			build: func() (rendering.Region, error) {
				return s.charts.TopProducts(snap.TopProducts)
			},
		},
	}
}

// drawHeader prints the title block and returns the cursor below it.
func (s *ExportService) drawHeader(doc document.Document, snap *Snapshot) float64 {
	margin := doc.Margin()
	y := margin + 5

	doc.Text(margin, y, 16, true, s.opts.Title)
	y += 7
	doc.Text(margin, y, 10, false,
		fmt.Sprintf("Range: %s to %s", orDash(snap.Range.FromKey()), orDash(snap.Range.ToKey())))
	y += 5
	doc.Text(margin, y, 9, false,
		"Generated "+snap.GeneratedAt.Format("2006-01-02 15:04:05"))
	y += blockGap

	return margin + headerHeight
}

// skipRegion records a failed region and leaves the cursor unchanged.
func (s *ExportService) skipRegion(result *ExportResult, name string, y float64, err error) float64 {
	s.logger.Warn("report region skipped",
		zap.String("region", name),
		zap.Error(err))
	if s.metrics != nil {
		s.metrics.RegionFailures.WithLabelValues(name).Inc()
	}
	result.SkippedRegions = append(result.SkippedRegions, name)
	return y
}

// ensureRoom breaks the page when fewer than need millimeters remain.
func (s *ExportService) ensureRoom(doc document.Document, y, bottom, margin, need float64) float64 {
	if y+need > bottom {
		doc.AddPage()
		return margin
	}
	return y
}

func (s *ExportService) countExport(outcome string) {
	if s.metrics != nil {
		s.metrics.ReportExports.WithLabelValues(outcome).Inc()
	}
}

func reportFilename(rng domain.DateRange) string {
	from := rng.FromKey()
	if from == "" {
		from = "all"
	}
	to := rng.ToKey()
	if to == "" {
		to = "all"
	}
	return fmt.Sprintf("financial-summary_%s_to_%s.pdf", from, to)
}

func orDash(key string) string {
	if key == "" {
		return "-"
	}
	return key
}
