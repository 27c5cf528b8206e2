// Package analysis wires the financial analysis pipeline: raw order
// and supplier records in, aggregated summaries and rankings out.
package analysis

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	domain "github.com/buynest/backend/internal/domain/analysis"
	"github.com/buynest/backend/internal/domain/shared"
	"github.com/buynest/backend/internal/infrastructure/metrics"
)

// RecordSource supplies the raw storefront data streams.
type RecordSource interface {
	FetchOrders(ctx context.Context) ([]domain.RawRecord, error)
	FetchSuppliers(ctx context.Context) ([]domain.RawRecord, error)
}

// Options tunes the analysis service.
type Options struct {
	// TopProducts caps the ranking length.
	TopProducts int
	// DefaultDays is the window length used when no range is given.
	DefaultDays int
	// Location resolves day boundaries.
	Location *time.Location
	// Clock overrides time.Now, used in tests.
	Clock func() time.Time
}

// Service computes financial summaries over order and supplier data.
type Service struct {
	source  RecordSource
	logger  *zap.Logger
	metrics *metrics.Metrics
	opts    Options
}

// NewService creates an analysis service. source may be nil when only
// the raw-stream entry point is used.
func NewService(source RecordSource, logger *zap.Logger, m *metrics.Metrics, opts Options) *Service {
	if opts.TopProducts <= 0 {
		opts.TopProducts = domain.DefaultTopProducts
	}
	if opts.DefaultDays <= 0 {
		opts.DefaultDays = 14
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{source: source, logger: logger, metrics: m, opts: opts}
}

// ComputeRequest carries raw record streams and an optional day range.
// From and To are inclusive day strings in "2006-01-02" form; when
// both are empty the service falls back to the default trailing window.
type ComputeRequest struct {
	Orders    []domain.RawRecord
	Suppliers []domain.RawRecord
	From      string
	To        string
}

// Snapshot is the domain-typed outcome of one analysis run. The export
// pipeline consumes it directly; HTTP responses go through Result.
type Snapshot struct {
	Aggregation domain.Aggregation
	TopProducts []domain.ProductRank
	Range       domain.DateRange
	GeneratedAt time.Time
}

// ChartPoint is one day on a chart.
type ChartPoint struct {
	Day   string  `json:"day"`
	Value float64 `json:"value"`
}

// DailyRow is one day's revenue and profit.
type DailyRow struct {
	Day     string  `json:"day"`
	Revenue float64 `json:"revenue"`
	Profit  float64 `json:"profit"`
}

// ProductRank is one entry of the top-products ranking.
type ProductRank struct {
	Name     string  `json:"name"`
	Quantity float64 `json:"quantity"`
}

// Result is the JSON-facing summary of an analysis run.
type Result struct {
	FromStr          string        `json:"fromStr"`
	ToStr            string        `json:"toStr"`
	OrderCount       int           `json:"orderCount"`
	TotalRevenue     float64       `json:"totalRevenue"`
	TotalProfit      float64       `json:"totalProfit"`
	DailyRows        []DailyRow    `json:"dailyRows"`
	RevenueChartData []ChartPoint  `json:"revenueChartData"`
	ProfitChartData  []ChartPoint  `json:"profitChartData"`
	TopProducts      []ProductRank `json:"topProducts"`
}

// Analyze runs the full pipeline over the request's raw streams and
// returns the domain-typed snapshot.
func (s *Service) Analyze(_ context.Context, req ComputeRequest) (*Snapshot, error) {
	rng, err := s.resolveRange(req.From, req.To)
	if err != nil {
		s.countAnalysis("error")
		return nil, err
	}

	costs := domain.ResolveCosts(req.Suppliers, domain.Clock(s.opts.Clock))
	agg := domain.Aggregate(req.Orders, costs, rng)
	ranks := domain.RankTopProducts(agg, s.opts.TopProducts)

	s.logger.Debug("analysis computed",
		zap.String("range", rng.Label()),
		zap.Int("orders", agg.OrderCount),
		zap.Int("days", len(agg.DailyRows)),
		zap.Int("rankedProducts", len(ranks)))

	s.countAnalysis("ok")
	return &Snapshot{
		Aggregation: agg,
		TopProducts: ranks,
		Range:       rng,
		GeneratedAt: s.opts.Clock(),
	}, nil
}

// Compute runs Analyze and converts the snapshot to the JSON result.
func (s *Service) Compute(ctx context.Context, req ComputeRequest) (*Result, error) {
	snap, err := s.Analyze(ctx, req)
	if err != nil {
		return nil, err
	}
	return toResult(snap), nil
}

// ComputeFromStorefront fetches orders and suppliers from the
// configured record source and computes the summary.
func (s *Service) ComputeFromStorefront(ctx context.Context, from, to string) (*Result, error) {
	snap, err := s.AnalyzeFromStorefront(ctx, from, to)
	if err != nil {
		return nil, err
	}
	return toResult(snap), nil
}

// AnalyzeFromStorefront is the snapshot-returning variant used by the
// export pipeline.
func (s *Service) AnalyzeFromStorefront(ctx context.Context, from, to string) (*Snapshot, error) {
	if s.source == nil {
		return nil, shared.NewDomainError(shared.ErrUpstream.Code, "no storefront source configured")
	}

	orders, err := s.source.FetchOrders(ctx)
	if err != nil {
		s.countAnalysis("error")
		return nil, err
	}
	suppliers, err := s.source.FetchSuppliers(ctx)
	if err != nil {
		s.countAnalysis("error")
		return nil, err
	}

	return s.Analyze(ctx, ComputeRequest{
		Orders:    orders,
		Suppliers: suppliers,
		From:      from,
		To:        to,
	})
}

// resolveRange parses the day strings, applying the default trailing
// window when both bounds are absent.
func (s *Service) resolveRange(from, to string) (domain.DateRange, error) {
	loc := s.opts.Location

	if from == "" && to == "" {
		now := s.opts.Clock().In(loc)
		start := now.AddDate(0, 0, -(s.opts.DefaultDays - 1))
		return domain.NewDateRange(&start, &now, loc), nil
	}

	var fromT, toT *time.Time
	if from != "" {
		t, err := time.ParseInLocation("2006-01-02", from, loc)
		if err != nil {
			return domain.DateRange{}, shared.NewDomainError(shared.ErrInvalidRange.Code,
				fmt.Sprintf("invalid from date %q, expected YYYY-MM-DD", from))
		}
		fromT = &t
	}
	if to != "" {
		t, err := time.ParseInLocation("2006-01-02", to, loc)
		if err != nil {
			return domain.DateRange{}, shared.NewDomainError(shared.ErrInvalidRange.Code,
				fmt.Sprintf("invalid to date %q, expected YYYY-MM-DD", to))
		}
		toT = &t
	}
	if fromT != nil && toT != nil && fromT.After(*toT) {
		return domain.DateRange{}, shared.NewDomainError(shared.ErrInvalidRange.Code,
			"from date is after to date")
	}

	return domain.NewDateRange(fromT, toT, loc), nil
}

func (s *Service) countAnalysis(outcome string) {
	if s.metrics != nil {
		s.metrics.AnalysisRequests.WithLabelValues(outcome).Inc()
	}
}

func toResult(snap *Snapshot) *Result {
	agg := snap.Aggregation

	result := &Result{
		FromStr:          snap.Range.FromKey(),
		ToStr:            snap.Range.ToKey(),
		OrderCount:       agg.OrderCount,
		TotalRevenue:     toFloat64(agg.Totals.Revenue),
		TotalProfit:      toFloat64(agg.Totals.Profit),
		DailyRows:        make([]DailyRow, 0, len(agg.DailyRows)),
		RevenueChartData: make([]ChartPoint, 0, len(agg.DailyRows)),
		ProfitChartData:  make([]ChartPoint, 0, len(agg.DailyRows)),
		TopProducts:      make([]ProductRank, 0, len(snap.TopProducts)),
	}

	for _, row := range agg.DailyRows {
		revenue := toFloat64(row.Revenue)
		profit := toFloat64(row.Profit)
		result.DailyRows = append(result.DailyRows, DailyRow{Day: row.Day, Revenue: revenue, Profit: profit})
		result.RevenueChartData = append(result.RevenueChartData, ChartPoint{Day: row.Day, Value: revenue})
		result.ProfitChartData = append(result.ProfitChartData, ChartPoint{Day: row.Day, Value: profit})
	}

	for _, rank := range snap.TopProducts {
		result.TopProducts = append(result.TopProducts, ProductRank{
			Name:     rank.DisplayName,
			Quantity: toFloat64(rank.Quantity),
		})
	}

	return result
}

// toFloat64 converts a decimal to float64 for JSON output.
func toFloat64(d decimal.Decimal) float64 {
	f, _ := d.Float64()
	return f
}
