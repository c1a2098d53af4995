// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"

	"github.com/pdiddy/filechores/pkg/types"
)

// ChromeConverter prints spreadsheets to PDF with one headless Chrome
// process. Each workbook is rendered to HTML, loaded in a fresh tab, and
// printed through the DevTools Page.printToPDF command.
type ChromeConverter struct {
	browserCtx    context.Context
	cancelBrowser context.CancelFunc
	cancelAlloc   context.CancelFunc
	workDir       string
	cfg           types.ChromeConfig
	closed        bool
}

// NewChromeHost launches headless Chrome. Callers must Close the returned
// host to stop the browser.
func NewChromeHost(ctx context.Context, cfg types.ChromeConfig) (*ChromeConverter, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
	)
	if cfg.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(cfg.ExecPath))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)

	// An empty Run starts the browser so launch failures surface here.
	if err := chromedp.Run(browserCtx); err != nil {
		cancelBrowser()
		cancelAlloc()
		return nil, fmt.Errorf("launching headless chrome: %w", err)
	}

	dir, err := os.MkdirTemp("", "filechores-chrome-")
	if err != nil {
		cancelBrowser()
		cancelAlloc()
		return nil, fmt.Errorf("creating chrome work directory: %w", err)
	}

	return &ChromeConverter{
		browserCtx:    browserCtx,
		cancelBrowser: cancelBrowser,
		cancelAlloc:   cancelAlloc,
		workDir:       dir,
		cfg:           cfg,
	}, nil
}

// Convert renders srcPath and prints it to dstPath.
func (c *ChromeConverter) Convert(ctx context.Context, srcPath, dstPath string) error {
	if c.closed {
		return errors.New("chrome host is closed")
	}

	html, err := RenderWorkbook(srcPath, c.cfg.IncludeHidden)
	if err != nil {
		return err
	}

	base := strings.TrimSuffix(filepath.Base(srcPath), filepath.Ext(srcPath))
	htmlPath := filepath.Join(c.workDir, base+".html")
	if err := os.WriteFile(htmlPath, html, 0o600); err != nil {
		return fmt.Errorf("writing rendered workbook: %w", err)
	}
	defer os.Remove(htmlPath)

	target, err := fileURL(htmlPath)
	if err != nil {
		return err
	}

	tabCtx, cancelTab := chromedp.NewContext(c.browserCtx)
	defer cancelTab()
	stop := context.AfterFunc(ctx, cancelTab)
	defer stop()

	var pdf []byte
	err = chromedp.Run(tabCtx,
		chromedp.Navigate(target),
		chromedp.ActionFunc(func(ctx context.Context) error {
			buf, _, err := page.PrintToPDF().
				WithPrintBackground(true).
				WithLandscape(c.cfg.Landscape).
				WithPreferCSSPageSize(true).
				Do(ctx)
			pdf = buf
			return err
		}),
	)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("printing %s: %w", filepath.Base(srcPath), ctxErr)
		}
		return fmt.Errorf("printing %s: %w", filepath.Base(srcPath), err)
	}

	if err := os.WriteFile(dstPath, pdf, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", dstPath, err)
	}
	return nil
}

// Close stops the browser and removes rendered pages. Calling Close more
// than once is a no-op.
func (c *ChromeConverter) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	c.cancelBrowser()
	c.cancelAlloc()
	if err := os.RemoveAll(c.workDir); err != nil {
		return fmt.Errorf("removing chrome work directory %s: %w", c.workDir, err)
	}
	return nil
}
