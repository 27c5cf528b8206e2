package document

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: 59, G: 130, B: 246, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestNewPDF(t *testing.T) {
	doc := NewPDF()

	w, h := doc.PageSize()
	assert.InDelta(t, 180.0, w, 0.5) // A4 width 210mm minus 2x15mm margin
	assert.InDelta(t, 297.0, h, 0.5)
	assert.Equal(t, 15.0, doc.Margin())
	assert.Equal(t, 1, doc.CurrentPage())
}

func TestImageHeightKeepsAspectRatio(t *testing.T) {
	doc := NewPDF()
	data := testPNG(t, 1200, 300)

	h, err := doc.ImageHeight(data, 180)
	require.NoError(t, err)
	assert.InDelta(t, 45.0, h, 0.01)

	_, err = doc.ImageHeight([]byte("not a png"), 180)
	assert.Error(t, err)
}

func TestImageDraws(t *testing.T) {
	t.Run("aspect height when none given", func(t *testing.T) {
		doc := NewPDF()
		data := testPNG(t, 400, 200)

		h, err := doc.Image(data, 15, 20, 100, 0)
		require.NoError(t, err)
		assert.InDelta(t, 50.0, h, 0.01)

		out, err := doc.Bytes()
		require.NoError(t, err)
		assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
	})

	t.Run("explicit height wins over aspect", func(t *testing.T) {
		doc := NewPDF()
		data := testPNG(t, 400, 200)

		h, err := doc.Image(data, 15, 20, 100, 30)
		require.NoError(t, err)
		assert.InDelta(t, 30.0, h, 0.01)
	})
}

func TestTable(t *testing.T) {
	t.Run("returns y after last row", func(t *testing.T) {
		doc := NewPDF()
		style := DefaultTableStyle()
		endY := doc.Table(
			[]string{"Day", "Revenue"},
			[]float64{90, 90},
			[][]string{{"2026-08-01", "Rs 100.00"}},
			50, style)
		assert.InDelta(t, 50+2*style.RowHeight, endY, 0.01)
		assert.Equal(t, 1, doc.CurrentPage())
	})

	t.Run("breaks page and repeats header", func(t *testing.T) {
		doc := NewPDF()
		style := DefaultTableStyle()
		rows := make([][]string, 60)
		for i := range rows {
			rows[i] = []string{"2026-08-01", "Rs 1.00"}
		}
		doc.Table([]string{"Day", "Revenue"}, []float64{90, 90}, rows, 200, style)
		assert.Greater(t, doc.CurrentPage(), 1)
	})

	t.Run("pdf output stays valid after pagination", func(t *testing.T) {
		doc := NewPDF()
		rows := make([][]string, 80)
		for i := range rows {
			rows[i] = []string{"x", "y", "z"}
		}
		doc.Table([]string{"A", "B", "C"}, []float64{60, 60, 60}, rows, 15, DefaultTableStyle())
		out, err := doc.Bytes()
		require.NoError(t, err)
		assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
	})
}
