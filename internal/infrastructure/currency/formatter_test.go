package currency

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestFormatter(t *testing.T) {
	f := NewFormatter("Rs")

	t.Run("groups thousands and fixes two decimals", func(t *testing.T) {
		assert.Equal(t, "Rs 1,234.56", f.Format(decimal.NewFromFloat(1234.56)))
		assert.Equal(t, "Rs 1,000,000.00", f.Format(decimal.NewFromInt(1000000)))
	})

	t.Run("pads short fractions", func(t *testing.T) {
		assert.Equal(t, "Rs 5.50", f.Format(decimal.NewFromFloat(5.5)))
		assert.Equal(t, "Rs 0.00", f.Format(decimal.Zero))
	})

	t.Run("rounds beyond two decimals", func(t *testing.T) {
		assert.Equal(t, "Rs 10.57", f.Format(decimal.NewFromFloat(10.567)))
	})

	t.Run("negative amounts", func(t *testing.T) {
		assert.Equal(t, "Rs -42.00", f.Format(decimal.NewFromInt(-42)))
	})

	t.Run("empty prefix omits separator", func(t *testing.T) {
		bare := NewFormatter("")
		assert.Equal(t, "1,234.50", bare.Format(decimal.NewFromFloat(1234.5)))
	})

	t.Run("float convenience", func(t *testing.T) {
		assert.Equal(t, "Rs 99.90", f.FormatFloat(99.9))
	})
}
