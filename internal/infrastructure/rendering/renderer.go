// Package rendering turns report regions (HTML fragments) into raster
// images that the document assembler embeds into the final PDF.
package rendering

import "context"

// Region is a self-contained HTML document to rasterize at a fixed
// viewport width. Height is a hint; the capture follows the element's
// actual layout height.
type Region struct {
	// Name identifies the region in logs and errors.
	Name string
	// HTML is a complete document (styles inlined, no external assets).
	HTML string
	// Width is the viewport width in CSS pixels.
	Width int64
	// Height is the initial viewport height in CSS pixels.
	Height int64
}

// RenderResult carries the captured image and its pixel dimensions.
type RenderResult struct {
	PNG    []byte
	Width  int
	Height int
}

// RegionRenderer rasterizes a region into a PNG image.
type RegionRenderer interface {
	RenderRegion(ctx context.Context, region Region) (*RenderResult, error)
	Close() error
}

// Error codes for render failures.
const (
	ErrCodeBrowserStart  = "BROWSER_START_FAILED"
	ErrCodeNavigation    = "NAVIGATION_FAILED"
	ErrCodeCapture       = "CAPTURE_FAILED"
	ErrCodeTimeout       = "RENDER_TIMEOUT"
	ErrCodeInvalidRegion = "INVALID_REGION"
)

// RenderError describes a render failure with a stable code.
type RenderError struct {
	Code    string
	Message string
	Cause   error
}

func (e *RenderError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *RenderError) Unwrap() error {
	return e.Cause
}

// NewRenderError creates a RenderError with the given code and message.
func NewRenderError(code, message string, cause error) *RenderError {
	return &RenderError{Code: code, Message: message, Cause: cause}
}
