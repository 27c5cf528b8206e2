package rendering

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image/png"
	"strings"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
)

const (
	defaultChromeTimeout = 30 * time.Second
	defaultRegionWidth   = 1200
	defaultRegionHeight  = 500
)

// ChromedpConfig contains configuration for the chromedp renderer
type ChromedpConfig struct {
	// DefaultTimeout for capture operations
	DefaultTimeout time.Duration
	// RemoteURL is the URL of a remote Chrome/Chromium instance (optional)
	// If empty, chromedp will launch a new browser instance
	RemoteURL string
	// NoSandbox runs Chrome without sandbox (required for Docker/root)
	NoSandbox bool
	// Logger for debug output
	Logger *zap.Logger
}

// ChromedpRenderer captures report regions as PNG images using the
// Chrome DevTools Protocol.
type ChromedpRenderer struct {
	config      *ChromedpConfig
	logger      *zap.Logger
	allocCtx    context.Context
	allocCancel context.CancelFunc
}

// NewChromedpRenderer creates a new chromedp-based region renderer
func NewChromedpRenderer(config *ChromedpConfig) (*ChromedpRenderer, error) {
	if config == nil {
		config = &ChromedpConfig{}
	}
	if config.DefaultTimeout == 0 {
		config.DefaultTimeout = defaultChromeTimeout
	}

	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	renderer := &ChromedpRenderer{
		config: config,
		logger: logger,
	}
	renderer.initAllocator()
	return renderer, nil
}

func (r *ChromedpRenderer) initAllocator() {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-first-run", true),
		chromedp.Flag("disable-default-apps", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-dev-shm-usage", true), // Important for Docker
		chromedp.Flag("disable-background-networking", true),
		chromedp.Flag("disable-sync", true),
		chromedp.Flag("disable-translate", true),
		// Font rendering
		chromedp.Flag("font-render-hinting", "none"),
	)

	if r.config.NoSandbox {
		opts = append(opts, chromedp.Flag("no-sandbox", true))
	}

	if r.config.RemoteURL != "" {
		r.allocCtx, r.allocCancel = chromedp.NewRemoteAllocator(context.Background(), r.config.RemoteURL)
	} else {
		r.allocCtx, r.allocCancel = chromedp.NewExecAllocator(context.Background(), opts...)
	}
}

// RenderRegion loads the region HTML into a fresh tab and captures the
// #region element as a PNG.
func (r *ChromedpRenderer) RenderRegion(ctx context.Context, region Region) (*RenderResult, error) {
	if strings.TrimSpace(region.HTML) == "" {
		return nil, NewRenderError(ErrCodeInvalidRegion, "region HTML is empty", nil)
	}

	width := region.Width
	if width <= 0 {
		width = defaultRegionWidth
	}
	height := region.Height
	if height <= 0 {
		height = defaultRegionHeight
	}

	startTime := time.Now()

	ctx, cancel := context.WithTimeout(ctx, r.config.DefaultTimeout)
	defer cancel()

	browserCtx, browserCancel := chromedp.NewContext(r.allocCtx,
		chromedp.WithLogf(func(format string, args ...interface{}) {
			r.logger.Debug(fmt.Sprintf(format, args...))
		}),
	)
	defer browserCancel()

	// The browser context descends from the allocator, not the request,
	// so cancellation and the timeout must be forwarded by hand.
	stop := context.AfterFunc(ctx, browserCancel)
	defer stop()

	var shot []byte

	err := chromedp.Run(browserCtx,
		chromedp.EmulateViewport(width, height),
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			frameTree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(frameTree.Frame.ID, region.HTML).Do(ctx)
		}),
		chromedp.WaitVisible("#region", chromedp.ByID),
		chromedp.Screenshot("#region", &shot, chromedp.ByID),
	)

	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, NewRenderError(ErrCodeTimeout,
				fmt.Sprintf("region %q timed out after %v", region.Name, r.config.DefaultTimeout), err)
		}
		r.logger.Error("region capture failed",
			zap.String("region", region.Name),
			zap.Error(err))
		return nil, NewRenderError(ErrCodeCapture, "chromedp execution failed for region "+region.Name, err)
	}

	if len(shot) == 0 {
		return nil, NewRenderError(ErrCodeCapture, "captured image is empty for region "+region.Name, nil)
	}

	cfg, err := png.DecodeConfig(bytes.NewReader(shot))
	if err != nil {
		return nil, NewRenderError(ErrCodeCapture, "captured image is not a valid PNG", err)
	}

	r.logger.Debug("region captured",
		zap.String("region", region.Name),
		zap.Int("bytes", len(shot)),
		zap.Int("width", cfg.Width),
		zap.Int("height", cfg.Height),
		zap.Duration("duration", time.Since(startTime)))

	return &RenderResult{
		PNG:    shot,
		Width:  cfg.Width,
		Height: cfg.Height,
	}, nil
}

// Close releases resources held by the renderer
func (r *ChromedpRenderer) Close() error {
	if r.allocCancel != nil {
		r.allocCancel()
	}
	return nil
}

// Ensure ChromedpRenderer implements RegionRenderer
var _ RegionRenderer = (*ChromedpRenderer)(nil)
