package browser

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/dom"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	"github.com/go-json-experiment/json"

	"github.com/BigNoodles/carlot/config"
	"github.com/BigNoodles/carlot/utils"
)

const staleInterval = 250 * time.Millisecond

const (
	jsText      = `function() { return (this.innerText === undefined ? this.textContent : this.innerText) || ''; }`
	jsInnerHTML = `function() { return this.innerHTML || ''; }`
	jsClick     = `function() { this.click(); }`
	jsDetached  = `function() { return !this.isConnected; }`
)

// Chrome opens every page in its own tab of one headless Chrome process.
type Chrome struct {
	cfg         *config.Config
	log         *utils.Logger
	allocCtx    context.Context
	allocCancel context.CancelFunc
}

func NewChrome(cfg *config.Config, log *utils.Logger) *Chrome {
	log.Info("Launching Chrome browser...")
	allocCtx, allocCancel := chromedp.NewExecAllocator(
		context.Background(),
		ChromeOpts(cfg)...,
	)
	log.Success("Browser ready")
	return &Chrome{
		cfg:         cfg,
		log:         log,
		allocCtx:    allocCtx,
		allocCancel: allocCancel,
	}
}

// ChromeOpts returns the ChromeDP launch options for cfg.
func ChromeOpts(cfg *config.Config) []chromedp.ExecAllocatorOption {
	opts := []chromedp.ExecAllocatorOption{
		chromedp.NoFirstRun,
		chromedp.NoDefaultBrowserCheck,
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.WindowSize(1920, 1080),
	}

	if cfg.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(cfg.UserAgent))
	}
	if cfg.Headless {
		opts = append(opts, chromedp.Flag("headless", "new"))
	}

	return opts
}

func (c *Chrome) Close() {
	c.log.Info("Closing browser...")
	c.allocCancel()
}

func (c *Chrome) Open(ctx context.Context, url string) (Page, error) {
	c.log.Info("Opening page: %s ...", url)

	tabCtx, tabCancel := chromedp.NewContext(c.allocCtx)

	// The first Run allocates the tab; timeouts must be derived after it or
	// their cancellation would close the tab.
	if err := chromedp.Run(tabCtx); err != nil {
		tabCancel()
		return nil, fmt.Errorf("start tab: %w", err)
	}

	p := &chromePage{ctx: tabCtx, cancel: tabCancel, url: url, timeout: c.cfg.RequestTimeout}
	if err := p.run(ctx, chromedp.Navigate(url)); err != nil {
		tabCancel()
		return nil, fmt.Errorf("navigate %s: %w", url, err)
	}
	return p, nil
}

type chromePage struct {
	ctx     context.Context
	cancel  context.CancelFunc
	url     string
	timeout time.Duration
}

// run executes actions on the tab, bounded by the request timeout and by
// the caller's ctx.
func (p *chromePage) run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithTimeout(p.ctx, p.timeout)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	if err := chromedp.Run(runCtx, actions...); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return err
	}
	return nil
}

func (p *chromePage) URL() string { return p.url }

func (p *chromePage) Find(ctx context.Context, selector string) (Element, error) {
	return FindIn(ctx, p, selector)
}

func (p *chromePage) FindAll(ctx context.Context, selector string) ([]Element, error) {
	return p.query(ctx, selector, nil)
}

func (p *chromePage) query(ctx context.Context, selector string, from *cdp.Node) ([]Element, error) {
	opts := []chromedp.QueryOption{chromedp.ByQueryAll, chromedp.AtLeast(0)}
	if from != nil {
		opts = append(opts, chromedp.FromNode(from))
	}

	var nodes []*cdp.Node
	if err := p.run(ctx, chromedp.Nodes(selector, &nodes, opts...)); err != nil {
		return nil, fmt.Errorf("query %q: %w", selector, err)
	}

	els := make([]Element, len(nodes))
	for i, n := range nodes {
		els[i] = &chromeElement{page: p, node: n}
	}
	return els, nil
}

func (p *chromePage) Click(ctx context.Context, el Element) error {
	ce, err := p.own(el)
	if err != nil {
		return err
	}
	if err := ce.call(ctx, jsClick, nil); err != nil {
		return fmt.Errorf("click: %w", err)
	}
	return nil
}

func (p *chromePage) WaitStale(ctx context.Context, el Element, timeout time.Duration) error {
	ce, err := p.own(el)
	if err != nil {
		return err
	}

	var obj *runtime.RemoteObject
	err = p.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		var err error
		obj, err = dom.ResolveNode().WithNodeID(ce.node.NodeID).Do(ctx)
		return err
	}))
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if err != nil {
		// The node can no longer be resolved, so it is already gone.
		return nil
	}

	deadline := time.Now().Add(timeout)
	ticker := time.NewTicker(staleInterval)
	defer ticker.Stop()

	for {
		var detached bool
		err := p.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
			return callOn(ctx, obj.ObjectID, jsDetached, &detached)
		}))
		if ctx.Err() != nil {
			return ctx.Err()
		}
		// A navigation destroys the object's execution context, which
		// also means the element is gone.
		if err != nil || detached {
			return nil
		}
		if time.Now().After(deadline) {
			return &TimeoutError{Op: "wait for page change", Timeout: timeout}
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (p *chromePage) Close() error {
	err := chromedp.Cancel(p.ctx)
	p.cancel()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func (p *chromePage) own(el Element) (*chromeElement, error) {
	ce, ok := el.(*chromeElement)
	if !ok || ce.page != p {
		return nil, errors.New("element does not belong to this page")
	}
	return ce, nil
}

type chromeElement struct {
	page *chromePage
	node *cdp.Node
}

func (e *chromeElement) Find(ctx context.Context, selector string) (Element, error) {
	return FindIn(ctx, e, selector)
}

func (e *chromeElement) FindAll(ctx context.Context, selector string) ([]Element, error) {
	return e.page.query(ctx, selector, e.node)
}

func (e *chromeElement) Text(ctx context.Context) (string, error) {
	var s string
	if err := e.call(ctx, jsText, &s); err != nil {
		return "", fmt.Errorf("read text: %w", err)
	}
	return strings.Join(strings.Fields(s), " "), nil
}

func (e *chromeElement) Attr(ctx context.Context, name string) (string, bool, error) {
	var v *string
	fn := fmt.Sprintf(`function() { return this.getAttribute(%q); }`, name)
	if err := e.call(ctx, fn, &v); err != nil {
		return "", false, fmt.Errorf("read attribute %s: %w", name, err)
	}
	if v == nil {
		return "", false, nil
	}
	return *v, true, nil
}

func (e *chromeElement) InnerHTML(ctx context.Context) (string, error) {
	var s string
	if err := e.call(ctx, jsInnerHTML, &s); err != nil {
		return "", fmt.Errorf("read markup: %w", err)
	}
	return s, nil
}

func (e *chromeElement) call(ctx context.Context, fn string, out interface{}) error {
	return e.page.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		obj, err := dom.ResolveNode().WithNodeID(e.node.NodeID).Do(ctx)
		if err != nil {
			return err
		}
		return callOn(ctx, obj.ObjectID, fn, out)
	}))
}

// callOn invokes fn with this bound to the remote object and decodes the
// returned value into out.
func callOn(ctx context.Context, id runtime.RemoteObjectID, fn string, out interface{}) error {
	res, exp, err := runtime.CallFunctionOn(fn).
		WithObjectID(id).
		WithReturnByValue(true).
		Do(ctx)
	if err != nil {
		return err
	}
	if exp != nil {
		return exp
	}
	if out == nil || res == nil || len(res.Value) == 0 {
		return nil
	}
	return json.Unmarshal(res.Value, out)
}
