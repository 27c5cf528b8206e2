package analysis

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock(t time.Time) Clock {
	return func() time.Time { return t }
}

func TestResolveCosts(t *testing.T) {
	clock := fixedClock(time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC))

	t.Run("latest batch wins regardless of input order", func(t *testing.T) {
		older := RawRecord{"productId": "P1", "unitCost": 30.0, "updatedAt": "2023-12-01T00:00:00Z"}
		newer := RawRecord{"productId": "P1", "unitCost": 40.0, "updatedAt": "2024-01-15T00:00:00Z"}

		forward := ResolveCosts([]RawRecord{older, newer}, clock)
		reversed := ResolveCosts([]RawRecord{newer, older}, clock)

		assert.True(t, forward.UnitCost("P1").Equal(decimal.NewFromInt(40)))
		assert.True(t, reversed.UnitCost("P1").Equal(decimal.NewFromInt(40)))
	})

	t.Run("equal timestamps keep the first encountered record", func(t *testing.T) {
		first := RawRecord{"productId": "P1", "unitCost": 10.0, "updatedAt": "2024-01-01T00:00:00Z"}
		second := RawRecord{"productId": "P1", "unitCost": 20.0, "updatedAt": "2024-01-01T00:00:00Z"}

		index := ResolveCosts([]RawRecord{first, second}, clock)
		assert.True(t, index.UnitCost("P1").Equal(decimal.NewFromInt(10)))
	})

	t.Run("unit cost derived from batch cost over stock", func(t *testing.T) {
		index := ResolveCosts([]RawRecord{
			{"productId": "P1", "cost": 100.0, "stock": 4.0, "updatedAt": "2024-01-01T00:00:00Z"},
		}, clock)
		assert.True(t, index.UnitCost("P1").Equal(decimal.NewFromInt(25)))
	})

	t.Run("zero stock yields zero unit cost", func(t *testing.T) {
		index := ResolveCosts([]RawRecord{
			{"productId": "P1", "cost": 100.0, "stock": 0.0, "updatedAt": "2024-01-01T00:00:00Z"},
		}, clock)
		assert.True(t, index.UnitCost("P1").IsZero())
	})

	t.Run("explicit unitCost beats derivation", func(t *testing.T) {
		index := ResolveCosts([]RawRecord{
			{"productId": "P1", "unitCost": 7.5, "cost": 100.0, "stock": 4.0, "updatedAt": "2024-01-01T00:00:00Z"},
		}, clock)
		assert.True(t, index.UnitCost("P1").Equal(decimal.NewFromFloat(7.5)))
	})

	t.Run("totalCost and quantity are accepted as alternate fields", func(t *testing.T) {
		index := ResolveCosts([]RawRecord{
			{"product_id": "P2", "totalCost": 90.0, "quantity": 3.0, "updatedAt": "2024-01-01T00:00:00Z"},
		}, clock)
		assert.True(t, index.UnitCost("P2").Equal(decimal.NewFromInt(30)))
	})

	t.Run("nested product reference resolves the key", func(t *testing.T) {
		index := ResolveCosts([]RawRecord{
			{"product": map[string]any{"id": "P3"}, "unitCost": 12.0, "updatedAt": "2024-01-01T00:00:00Z"},
		}, clock)
		assert.True(t, index.UnitCost("P3").Equal(decimal.NewFromInt(12)))
	})

	t.Run("records without a product key are dropped", func(t *testing.T) {
		index := ResolveCosts([]RawRecord{
			{"unitCost": 12.0, "updatedAt": "2024-01-01T00:00:00Z"},
			{"supplier": "acme"},
		}, clock)
		assert.Empty(t, index)
	})

	t.Run("missing timestamp defaults to the injected clock", func(t *testing.T) {
		// The undated batch reads as "now", which is later than the dated one.
		index := ResolveCosts([]RawRecord{
			{"productId": "P1", "unitCost": 40.0, "updatedAt": "2024-01-01T00:00:00Z"},
			{"productId": "P1", "unitCost": 55.0},
		}, clock)
		assert.True(t, index.UnitCost("P1").Equal(decimal.NewFromInt(55)))
	})

	t.Run("missing product reads as zero cost", func(t *testing.T) {
		index := ResolveCosts(nil, clock)
		assert.True(t, index.UnitCost("never-seen").IsZero())
	})

	t.Run("negative unit cost is clamped to zero", func(t *testing.T) {
		index := ResolveCosts([]RawRecord{
			{"productId": "P1", "unitCost": -5.0, "updatedAt": "2024-01-01T00:00:00Z"},
		}, clock)
		assert.True(t, index.UnitCost("P1").IsZero())
	})
}

func TestResolveCostsNilClock(t *testing.T) {
	// A nil clock must fall back to wall time rather than panic.
	require.NotPanics(t, func() {
		ResolveCosts([]RawRecord{{"productId": "P1", "unitCost": 1.0}}, nil)
	})
}
