package autotrader

import (
	"context"
	"errors"
	"time"

	"github.com/BigNoodles/carlot/browser"
	"github.com/BigNoodles/carlot/config"
	"github.com/BigNoodles/carlot/models"
	"github.com/BigNoodles/carlot/utils"
)

// fakeSearch serves a fixed sequence of result pages. Each page lists card
// ids; the next control is present on every page but the last unless
// noNext is set.
type fakeSearch struct {
	pages    [][]string
	total    string
	noNext   bool
	staleErr error
	openErr  error
	// blockingWaitStale makes WaitStale hang until ctx is done.
	blockingWaitStale bool

	opened  []string
	current int
	reads   int
	clicks  int
	closed  bool
}

func (s *fakeSearch) Open(ctx context.Context, url string) (browser.Page, error) {
	s.opened = append(s.opened, url)
	if s.openErr != nil {
		return nil, s.openErr
	}
	return &fakeSearchPage{s: s, url: url}, nil
}

type fakeSearchPage struct {
	s   *fakeSearch
	url string
}

func (p *fakeSearchPage) URL() string { return p.url }

func (p *fakeSearchPage) Find(ctx context.Context, selector string) (browser.Element, error) {
	return browser.FindIn(ctx, p, selector)
}

func (p *fakeSearchPage) FindAll(ctx context.Context, selector string) ([]browser.Element, error) {
	switch selector {
	case ResultCardSelector:
		p.s.reads++
		var cards []browser.Element
		for _, id := range p.s.pages[p.s.current] {
			cards = append(cards, fakeElement{attrs: map[string]string{ListingIDAttr: id}})
		}
		return cards, nil
	case ResultCountSelector:
		if p.s.total == "" {
			return nil, nil
		}
		return []browser.Element{fakeElement{text: p.s.total}}, nil
	case NextPageSelector:
		if p.s.noNext || p.s.current >= len(p.s.pages)-1 {
			return nil, nil
		}
		return []browser.Element{fakeElement{text: "Next"}}, nil
	}
	return nil, nil
}

func (p *fakeSearchPage) Click(ctx context.Context, el browser.Element) error {
	p.s.clicks++
	p.s.current++
	return nil
}

func (p *fakeSearchPage) WaitStale(ctx context.Context, el browser.Element, timeout time.Duration) error {
	if p.s.blockingWaitStale {
		<-ctx.Done()
		return ctx.Err()
	}
	return p.s.staleErr
}

func (p *fakeSearchPage) Close() error {
	p.s.closed = true
	return nil
}

type fakeElement struct {
	text  string
	attrs map[string]string
}

func (e fakeElement) Find(ctx context.Context, selector string) (browser.Element, error) {
	return nil, browser.ErrNotFound
}

func (e fakeElement) FindAll(ctx context.Context, selector string) ([]browser.Element, error) {
	return nil, nil
}

func (e fakeElement) Text(ctx context.Context) (string, error) { return e.text, nil }

func (e fakeElement) Attr(ctx context.Context, name string) (string, bool, error) {
	v, ok := e.attrs[name]
	return v, ok, nil
}

func (e fakeElement) InnerHTML(ctx context.Context) (string, error) { return e.text, nil }

// fakeHarvester and fakeExtractor drive the pipeline without a browser.
type fakeHarvester struct {
	sets  map[string][]string
	err   error
	calls []models.Query
}

func (h *fakeHarvester) Harvest(ctx context.Context, q models.Query) (models.ListingIDSet, error) {
	h.calls = append(h.calls, q)
	set := models.NewListingIDSet(q.Make, q.Model)
	if h.err != nil {
		return set, h.err
	}
	for _, id := range h.sets[q.String()] {
		set.Add(id)
	}
	return set, nil
}

type fakeExtractor struct {
	failing map[string]bool
	calls   []string
}

func (e *fakeExtractor) Extract(ctx context.Context, id string) (models.Advertisement, error) {
	e.calls = append(e.calls, id)
	if e.failing[id] {
		return models.Advertisement{}, &MissingFieldError{Field: "price", Selector: PriceSelector, ID: id}
	}
	return models.Advertisement{
		Hyperlink:   DetailURL("https://example.test", id),
		Description: models.Known("advert " + id),
		Price:       models.Known("£1,000"),
		SellerType:  models.Known(SellerPrivate),
	}, nil
}

var errBoom = errors.New("boom")

func testConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.BaseURL = "https://example.test"
	cfg.PageWaitTimeout = time.Second
	return cfg
}

func nop() *utils.Logger { return utils.NopLogger() }
