package ui

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/phrazzld/users-qa/internal/config"
	"github.com/phrazzld/users-qa/internal/platform/logger"
)

// ChromeDriver runs a Chrome instance through the DevTools protocol. One
// ChromeDriver is one browser session and belongs to a single scenario.
type ChromeDriver struct {
	browserCtx context.Context
	cancel     context.CancelFunc
	wait       time.Duration
	logger     *slog.Logger
}

var _ Driver = (*ChromeDriver)(nil)

// NewChromeDriver starts Chrome as configured by cfg. Close must be called
// to stop it.
func NewChromeDriver(ctx context.Context, cfg config.UIConfig, l *slog.Logger) (*ChromeDriver, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.WindowSize(1920, 1080),
	)
	if !cfg.Headless {
		opts = append(opts, chromedp.Flag("headless", false))
	}
	if cfg.ChromePath != "" {
		opts = append(opts, chromedp.ExecPath(cfg.ChromePath))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, opts...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)
	cancel := func() {
		browserCancel()
		allocCancel()
	}

	// The first Run starts the browser.
	if err := chromedp.Run(browserCtx); err != nil {
		cancel()
		return nil, fmt.Errorf("failed to start chrome: %w", err)
	}

	d := &ChromeDriver{
		browserCtx: browserCtx,
		cancel:     cancel,
		wait:       cfg.WaitTimeout(),
		logger:     logger.Component(l, "ui"),
	}
	d.logger.Info("browser started", "headless", cfg.Headless)
	return d, nil
}

// Close stops the browser.
func (d *ChromeDriver) Close() {
	d.cancel()
	d.logger.Info("browser stopped")
}

// run executes actions with the element wait timeout, stopping early when
// ctx is done.
func (d *ChromeDriver) run(ctx context.Context, actions ...chromedp.Action) error {
	tctx, cancel := context.WithTimeout(d.browserCtx, d.wait)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()
	return chromedp.Run(tctx, actions...)
}

// Navigate implements Driver.
func (d *ChromeDriver) Navigate(ctx context.Context, url string) error {
	logger.FromContextOrDefault(ctx, d.logger).Debug("navigating", "url", url)
	if err := d.run(ctx, chromedp.Navigate(url)); err != nil {
		return fmt.Errorf("navigate to %s: %w", url, err)
	}
	return nil
}

// Click implements Driver. It waits for the element to be visible.
func (d *ChromeDriver) Click(ctx context.Context, selector string) error {
	logger.FromContextOrDefault(ctx, d.logger).Debug("clicking element", "selector", selector)
	if err := d.run(ctx, chromedp.Click(selector, chromedp.BySearch)); err != nil {
		return fmt.Errorf("click %s: %w", selector, err)
	}
	return nil
}

// SetValue implements Driver.
func (d *ChromeDriver) SetValue(ctx context.Context, selector, value string) error {
	err := d.run(ctx,
		chromedp.WaitVisible(selector, chromedp.BySearch),
		chromedp.Clear(selector, chromedp.BySearch),
		chromedp.SendKeys(selector, value, chromedp.BySearch),
	)
	if err != nil {
		return fmt.Errorf("type into %s: %w", selector, err)
	}
	return nil
}

// Text implements Driver.
func (d *ChromeDriver) Text(ctx context.Context, selector string) (string, error) {
	var text string
	if err := d.run(ctx, chromedp.Text(selector, &text, chromedp.BySearch)); err != nil {
		return "", fmt.Errorf("read text of %s: %w", selector, err)
	}
	return text, nil
}

// Evaluate implements Driver.
func (d *ChromeDriver) Evaluate(ctx context.Context, script string, out any) error {
	if err := d.run(ctx, chromedp.Evaluate(script, out)); err != nil {
		return fmt.Errorf("evaluate script: %w", err)
	}
	return nil
}

// ScrollIntoView implements Driver.
func (d *ChromeDriver) ScrollIntoView(ctx context.Context, selector string) error {
	if err := d.run(ctx, chromedp.ScrollIntoView(selector, chromedp.BySearch)); err != nil {
		return fmt.Errorf("scroll to %s: %w", selector, err)
	}
	return nil
}
