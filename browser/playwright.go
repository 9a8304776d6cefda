package browser

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/playwright-community/playwright-go"

	"github.com/BigNoodles/carlot/config"
	"github.com/BigNoodles/carlot/utils"
)

// Playwright opens every page in its own tab of one Playwright Chromium.
type Playwright struct {
	cfg     *config.Config
	log     *utils.Logger
	pw      *playwright.Playwright
	browser playwright.Browser
}

func NewPlaywright(cfg *config.Config, log *utils.Logger) (*Playwright, error) {
	log.Info("Launching Playwright Chromium...")

	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("playwright run: %w", err)
	}
	b, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(cfg.Headless),
		Args: []string{
			"--no-sandbox",
			"--disable-dev-shm-usage",
			"--no-first-run",
		},
	})
	if err != nil {
		_ = pw.Stop()
		return nil, fmt.Errorf("launch: %w", err)
	}

	log.Success("Browser ready")
	return &Playwright{cfg: cfg, log: log, pw: pw, browser: b}, nil
}

func (p *Playwright) Close() {
	p.log.Info("Closing browser...")
	if err := p.browser.Close(); err != nil {
		p.log.Error("Error closing browser: %v", err)
	}
	if err := p.pw.Stop(); err != nil {
		p.log.Error("Error stopping playwright: %v", err)
	}
}

func (p *Playwright) Open(ctx context.Context, url string) (Page, error) {
	p.log.Info("Opening page: %s ...", url)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	opts := playwright.BrowserNewPageOptions{}
	if p.cfg.UserAgent != "" {
		opts.UserAgent = playwright.String(p.cfg.UserAgent)
	}
	page, err := p.browser.NewPage(opts)
	if err != nil {
		return nil, fmt.Errorf("new page: %w", err)
	}

	_, err = page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateLoad,
		Timeout:   playwright.Float(millis(p.cfg.RequestTimeout)),
	})
	if err != nil {
		_ = page.Close()
		return nil, fmt.Errorf("navigate %s: %w", url, err)
	}
	return &pwPage{page: page}, nil
}

type pwPage struct {
	page playwright.Page
}

func (p *pwPage) URL() string { return p.page.URL() }

func (p *pwPage) Find(ctx context.Context, selector string) (Element, error) {
	return FindIn(ctx, p, selector)
}

func (p *pwPage) FindAll(ctx context.Context, selector string) ([]Element, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	handles, err := p.page.QuerySelectorAll(selector)
	if err != nil {
		return nil, fmt.Errorf("query %q: %w", selector, err)
	}
	return p.wrap(handles), nil
}

func (p *pwPage) wrap(handles []playwright.ElementHandle) []Element {
	els := make([]Element, len(handles))
	for i, h := range handles {
		els[i] = &pwElement{page: p, handle: h}
	}
	return els
}

func (p *pwPage) Click(ctx context.Context, el Element) error {
	pe, err := p.own(el)
	if err != nil {
		return err
	}
	if _, err := pe.handle.Evaluate(`e => e.click()`); err != nil {
		return fmt.Errorf("click: %w", err)
	}
	return nil
}

func (p *pwPage) WaitStale(ctx context.Context, el Element, timeout time.Duration) error {
	pe, err := p.own(el)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	_, err = p.page.WaitForFunction(`e => !e.isConnected`, pe.handle, playwright.PageWaitForFunctionOptions{
		Timeout: playwright.Float(millis(timeout)),
	})
	switch {
	case err == nil, handleGone(err):
		return nil
	case errors.Is(err, playwright.ErrTimeout):
		return &TimeoutError{Op: "wait for page change", Timeout: timeout}
	default:
		return fmt.Errorf("wait for page change: %w", err)
	}
}

// goneMessages are the failures playwright reports when a navigation has
// destroyed the document a handle belonged to.
var goneMessages = []string{
	"Execution context was destroyed",
	"Element is not attached to the DOM",
	"JSHandle is disposed",
}

func handleGone(err error) bool {
	msg := err.Error()
	for _, m := range goneMessages {
		if strings.Contains(msg, m) {
			return true
		}
	}
	return false
}

func (p *pwPage) Close() error {
	return p.page.Close()
}

func (p *pwPage) own(el Element) (*pwElement, error) {
	pe, ok := el.(*pwElement)
	if !ok || pe.page != p {
		return nil, errors.New("element does not belong to this page")
	}
	return pe, nil
}

type pwElement struct {
	page   *pwPage
	handle playwright.ElementHandle
}

func (e *pwElement) Find(ctx context.Context, selector string) (Element, error) {
	return FindIn(ctx, e, selector)
}

func (e *pwElement) FindAll(ctx context.Context, selector string) ([]Element, error) {
	handles, err := e.handle.QuerySelectorAll(selector)
	if err != nil {
		return nil, fmt.Errorf("query %q: %w", selector, err)
	}
	return e.page.wrap(handles), nil
}

func (e *pwElement) Text(ctx context.Context) (string, error) {
	v, err := e.handle.Evaluate(`e => (e.innerText === undefined ? e.textContent : e.innerText) || ''`)
	if err != nil {
		return "", fmt.Errorf("read text: %w", err)
	}
	s, _ := v.(string)
	return strings.Join(strings.Fields(s), " "), nil
}

func (e *pwElement) Attr(ctx context.Context, name string) (string, bool, error) {
	v, err := e.handle.Evaluate(`(e, name) => e.getAttribute(name)`, name)
	if err != nil {
		return "", false, fmt.Errorf("read attribute %s: %w", name, err)
	}
	s, ok := v.(string)
	return s, ok, nil
}

func (e *pwElement) InnerHTML(ctx context.Context) (string, error) {
	s, err := e.handle.InnerHTML()
	if err != nil {
		return "", fmt.Errorf("read markup: %w", err)
	}
	return s, nil
}

func millis(d time.Duration) float64 {
	return float64(d / time.Millisecond)
}
