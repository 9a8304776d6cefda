package browser

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly"

	"github.com/BigNoodles/carlot/config"
	"github.com/BigNoodles/carlot/utils"
)

// Static fetches plain HTML without running scripts. A click follows the
// clicked element's href, replacing the page's document.
type Static struct {
	log       *utils.Logger
	collector *colly.Collector
}

func NewStatic(cfg *config.Config, log *utils.Logger) *Static {
	c := colly.NewCollector(
		colly.AllowURLRevisit(),
		colly.UserAgent(cfg.UserAgent),
	)
	c.SetRequestTimeout(cfg.RequestTimeout)
	return &Static{log: log, collector: c}
}

func (s *Static) Open(ctx context.Context, rawURL string) (Page, error) {
	s.log.Info("Opening page: %s ...", rawURL)

	p := &staticPage{opener: s}
	if err := p.load(ctx, rawURL); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Static) fetch(ctx context.Context, rawURL string) (*goquery.Document, string, error) {
	if err := ctx.Err(); err != nil {
		return nil, "", err
	}

	var (
		body     []byte
		finalURL = rawURL
		fetchErr error
	)

	c := s.collector.Clone()
	c.OnResponse(func(r *colly.Response) {
		body = r.Body
		finalURL = r.Request.URL.String()
	})
	c.OnError(func(r *colly.Response, err error) {
		if r != nil && r.StatusCode != 0 {
			fetchErr = fmt.Errorf("HTTP %d: %w", r.StatusCode, err)
			return
		}
		fetchErr = err
	})

	if err := c.Visit(rawURL); err != nil && fetchErr == nil {
		fetchErr = err
	}
	if fetchErr != nil {
		return nil, "", fmt.Errorf("fetch %s: %w", rawURL, fetchErr)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, "", fmt.Errorf("parse %s: %w", rawURL, err)
	}
	return doc, finalURL, nil
}

type staticPage struct {
	opener *Static
	url    string
	doc    *goquery.Document
	// gen counts document loads; elements from an older generation are stale.
	gen    int
	closed bool
}

func (p *staticPage) load(ctx context.Context, rawURL string) error {
	doc, finalURL, err := p.opener.fetch(ctx, rawURL)
	if err != nil {
		return err
	}
	p.doc = doc
	p.url = finalURL
	p.gen++
	return nil
}

func (p *staticPage) URL() string { return p.url }

func (p *staticPage) Find(ctx context.Context, selector string) (Element, error) {
	return FindIn(ctx, p, selector)
}

func (p *staticPage) FindAll(ctx context.Context, selector string) ([]Element, error) {
	if p.closed {
		return nil, errors.New("page is closed")
	}
	return p.wrap(p.doc.Find(selector)), nil
}

func (p *staticPage) wrap(sel *goquery.Selection) []Element {
	els := make([]Element, 0, sel.Length())
	sel.Each(func(_ int, s *goquery.Selection) {
		els = append(els, &staticElement{page: p, sel: s, gen: p.gen})
	})
	return els
}

func (p *staticPage) Click(ctx context.Context, el Element) error {
	se, ok := el.(*staticElement)
	if !ok || se.page != p {
		return errors.New("element does not belong to this page")
	}
	if se.gen != p.gen {
		return errors.New("click: element is stale")
	}

	href, ok := se.sel.Attr("href")
	if !ok || strings.TrimSpace(href) == "" {
		return errors.New("click: element has no href to follow")
	}
	target, err := resolve(p.url, href)
	if err != nil {
		return fmt.Errorf("click: %w", err)
	}
	return p.load(ctx, target)
}

// WaitStale never sleeps: a static page only changes inside Click, so an
// element that is still current after the click will never go stale.
func (p *staticPage) WaitStale(ctx context.Context, el Element, timeout time.Duration) error {
	se, ok := el.(*staticElement)
	if !ok || se.page != p {
		return errors.New("element does not belong to this page")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if se.gen != p.gen {
		return nil
	}
	return &TimeoutError{Op: "wait for page change", Timeout: timeout}
}

func (p *staticPage) Close() error {
	p.closed = true
	p.doc = nil
	return nil
}

type staticElement struct {
	page *staticPage
	sel  *goquery.Selection
	gen  int
}

func (e *staticElement) Find(ctx context.Context, selector string) (Element, error) {
	return FindIn(ctx, e, selector)
}

func (e *staticElement) FindAll(ctx context.Context, selector string) ([]Element, error) {
	return e.page.wrap(e.sel.Find(selector)), nil
}

func (e *staticElement) Text(ctx context.Context) (string, error) {
	return strings.Join(strings.Fields(e.sel.Text()), " "), nil
}

// Attr also matches namespaced attributes such as xlink:href, which the HTML
// parser splits into namespace and key.
func (e *staticElement) Attr(ctx context.Context, name string) (string, bool, error) {
	if len(e.sel.Nodes) == 0 {
		return "", false, nil
	}
	for _, a := range e.sel.Nodes[0].Attr {
		if a.Key == name || (a.Namespace != "" && a.Namespace+":"+a.Key == name) {
			return a.Val, true, nil
		}
	}
	return "", false, nil
}

func (e *staticElement) InnerHTML(ctx context.Context) (string, error) {
	return e.sel.Html()
}

func resolve(base, href string) (string, error) {
	b, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	ref, err := url.Parse(href)
	if err != nil {
		return "", err
	}
	return b.ResolveReference(ref).String(), nil
}
