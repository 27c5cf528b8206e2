package analysis

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/buynest/backend/internal/domain/analysis"
	"github.com/buynest/backend/internal/domain/shared"
)

type stubSource struct {
	orders    []domain.RawRecord
	suppliers []domain.RawRecord
	err       error
}

func (s *stubSource) FetchOrders(context.Context) ([]domain.RawRecord, error) {
	return s.orders, s.err
}

func (s *stubSource) FetchSuppliers(context.Context) ([]domain.RawRecord, error) {
	return s.suppliers, s.err
}

func testClock() func() time.Time {
	fixed := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)
	return func() time.Time { return fixed }
}

func newTestService(source RecordSource) *Service {
	return NewService(source, nil, nil, Options{
		Location: time.UTC,
		Clock:    testClock(),
	})
}

func order(day string, qty, price float64, productID string) domain.RawRecord {
	return domain.RawRecord{
		"date": day,
		"products": []any{
			map[string]any{
				"productInfo": map[string]any{"productId": productID, "price": price, "name": productID},
				"quantity":    qty,
			},
		},
	}
}

func TestCompute(t *testing.T) {
	svc := newTestService(nil)

	t.Run("explicit range with revenue and profit", func(t *testing.T) {
		result, err := svc.Compute(context.Background(), ComputeRequest{
			Orders: []domain.RawRecord{order("2026-08-10", 2, 100, "P1")},
			Suppliers: []domain.RawRecord{
				{"productId": "P1", "unitCost": 40, "updatedAt": "2026-08-01T00:00:00Z"},
			},
			From: "2026-08-01",
			To:   "2026-08-15",
		})
		require.NoError(t, err)

		assert.Equal(t, "2026-08-01", result.FromStr)
		assert.Equal(t, "2026-08-15", result.ToStr)
		assert.Equal(t, 1, result.OrderCount)
		assert.Equal(t, 200.0, result.TotalRevenue)
		assert.Equal(t, 120.0, result.TotalProfit)
		require.Len(t, result.DailyRows, 1)
		assert.Equal(t, "2026-08-10", result.DailyRows[0].Day)

		require.Len(t, result.RevenueChartData, 1)
		assert.Equal(t, 200.0, result.RevenueChartData[0].Value)
		require.Len(t, result.ProfitChartData, 1)
		assert.Equal(t, 120.0, result.ProfitChartData[0].Value)

		require.Len(t, result.TopProducts, 1)
		assert.Equal(t, "P1", result.TopProducts[0].Name)
		assert.Equal(t, 2.0, result.TopProducts[0].Quantity)
	})

	t.Run("default trailing window spans 14 days ending today", func(t *testing.T) {
		result, err := svc.Compute(context.Background(), ComputeRequest{
			Orders: []domain.RawRecord{
				order("2026-08-20", 1, 10, "P1"), // today, in range
				order("2026-08-07", 1, 10, "P1"), // first day of window
				order("2026-08-06", 1, 10, "P1"), // one day before the window
			},
		})
		require.NoError(t, err)

		assert.Equal(t, "2026-08-07", result.FromStr)
		assert.Equal(t, "2026-08-20", result.ToStr)
		assert.Equal(t, 2, result.OrderCount)
	})

	t.Run("malformed from date rejected", func(t *testing.T) {
		_, err := svc.Compute(context.Background(), ComputeRequest{From: "08/01/2026"})
		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, shared.ErrInvalidRange.Code, domainErr.Code)
	})

	t.Run("inverted range rejected", func(t *testing.T) {
		_, err := svc.Compute(context.Background(), ComputeRequest{
			From: "2026-08-15",
			To:   "2026-08-01",
		})
		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, shared.ErrInvalidRange.Code, domainErr.Code)
	})

	t.Run("half-open range leaves other bound empty", func(t *testing.T) {
		result, err := svc.Compute(context.Background(), ComputeRequest{
			Orders: []domain.RawRecord{order("2026-08-10", 1, 10, "P1")},
			From:   "2026-08-01",
		})
		require.NoError(t, err)
		assert.Equal(t, "2026-08-01", result.FromStr)
		assert.Empty(t, result.ToStr)
		assert.Equal(t, 1, result.OrderCount)
	})

	t.Run("empty streams produce empty result", func(t *testing.T) {
		result, err := svc.Compute(context.Background(), ComputeRequest{
			From: "2026-08-01",
			To:   "2026-08-15",
		})
		require.NoError(t, err)
		assert.Zero(t, result.OrderCount)
		assert.Zero(t, result.TotalRevenue)
		assert.Empty(t, result.DailyRows)
		assert.Empty(t, result.TopProducts)
	})
}

func TestComputeFromStorefront(t *testing.T) {
	t.Run("fetches both streams", func(t *testing.T) {
		source := &stubSource{
			orders: []domain.RawRecord{order("2026-08-10", 3, 50, "P2")},
			suppliers: []domain.RawRecord{
				{"productId": "P2", "unitCost": 10, "updatedAt": "2026-08-01T00:00:00Z"},
			},
		}
		svc := newTestService(source)

		result, err := svc.ComputeFromStorefront(context.Background(), "2026-08-01", "2026-08-15")
		require.NoError(t, err)
		assert.Equal(t, 150.0, result.TotalRevenue)
		assert.Equal(t, 120.0, result.TotalProfit)
	})

	t.Run("source error propagates", func(t *testing.T) {
		svc := newTestService(&stubSource{err: shared.ErrUpstream})
		_, err := svc.ComputeFromStorefront(context.Background(), "", "")
		require.Error(t, err)
	})

	t.Run("nil source rejected", func(t *testing.T) {
		svc := newTestService(nil)
		_, err := svc.ComputeFromStorefront(context.Background(), "", "")
		require.Error(t, err)
	})
}

func TestAnalyzeSnapshot(t *testing.T) {
	svc := newTestService(nil)

	snap, err := svc.Analyze(context.Background(), ComputeRequest{
		Orders: []domain.RawRecord{order("2026-08-10", 2, 100, "P1")},
		From:   "2026-08-01",
		To:     "2026-08-15",
	})
	require.NoError(t, err)

	assert.Equal(t, "2026-08-01_to_2026-08-15", snap.Range.Label())
	assert.Equal(t, testClock()(), snap.GeneratedAt)
	assert.Equal(t, 1, snap.Aggregation.OrderCount)
	require.Len(t, snap.TopProducts, 1)
}
