package evaluator

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/use-agent/nuxtinfo/config"
	"github.com/use-agent/nuxtinfo/models"
)

// Browser evaluates expressions inside about:blank pages of a headless
// Chromium launched by rod. Pages are reused through a rod page pool.
type Browser struct {
	browser  *rod.Browser
	pagePool rod.Pool[rod.Page]
	timeout  time.Duration
}

// NewBrowser launches Chromium and connects to it.
func NewBrowser(cfg config.EvaluatorConfig) (*Browser, error) {
	l := launcher.New().
		Headless(true).
		NoSandbox(cfg.NoSandbox)
	if cfg.BrowserBin != "" {
		l = l.Bin(cfg.BrowserBin)
	}

	controlURL, err := l.Launch()
	if err != nil {
		return nil, models.NewScrapeError(
			models.ErrCodeRuntimeMissing,
			"failed to launch browser",
			err,
		)
	}
	slog.Info("browser launched", "controlURL", controlURL)

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		return nil, models.NewScrapeError(
			models.ErrCodeRuntimeMissing,
			"failed to connect to browser",
			err,
		)
	}

	pages := cfg.BrowserPages
	if pages <= 0 {
		pages = 1
	}

	return &Browser{
		browser:  browser,
		pagePool: rod.NewPagePool(pages),
		timeout:  cfg.Timeout,
	}, nil
}

func (b *Browser) Name() string { return "browser" }

func (b *Browser) Evaluate(ctx context.Context, expr string) ([]byte, error) {
	if b.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.timeout)
		defer cancel()
	}

	page, err := b.pagePool.Get(func() (*rod.Page, error) {
		return b.browser.Page(proto.TargetCreateTarget{URL: "about:blank"})
	})
	if err != nil {
		return nil, models.NewScrapeError(
			models.ErrCodeRuntimeMissing,
			"failed to acquire browser page",
			err,
		)
	}
	defer b.pagePool.Put(page)

	res, err := page.Context(ctx).Eval(`() => JSON.stringify(` + expr + "\n)")
	if err != nil {
		return nil, models.NewScrapeError(
			models.ErrCodeEvaluation,
			fmt.Sprintf("browser script evaluation failed: %v", err),
			err,
		)
	}
	if res.Type != proto.RuntimeRemoteObjectTypeString {
		return checkOutput(nil)
	}
	return checkOutput([]byte(res.Value.Str()))
}

// Close drains the page pool and kills the browser process.
func (b *Browser) Close() error {
	b.pagePool.Cleanup(func(p *rod.Page) {
		_ = p.Close()
	})
	return b.browser.Close()
}
