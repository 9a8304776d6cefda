package autotrader

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/BigNoodles/carlot/browser"
	"github.com/BigNoodles/carlot/config"
	"github.com/BigNoodles/carlot/models"
	"github.com/BigNoodles/carlot/utils"
)

// Harvester walks the search result pages for one query and collects
// listing identifiers.
type Harvester struct {
	opener browser.Opener
	cfg    *config.Config
	log    *utils.Logger
}

func NewHarvester(opener browser.Opener, cfg *config.Config, log *utils.Logger) *Harvester {
	return &Harvester{opener: opener, cfg: cfg, log: log}
}

// Harvest returns the unique identifiers found for q, stopping as soon as
// q.ExpectedCount of them have been seen. A search page that cannot be
// opened yields an empty set and no error. On error the returned set is
// always empty.
func (h *Harvester) Harvest(ctx context.Context, q models.Query) (models.ListingIDSet, error) {
	found := models.NewListingIDSet(q.Make, q.Model)
	empty := models.NewListingIDSet(q.Make, q.Model)

	if h.cfg.HarvestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.cfg.HarvestTimeout)
		defer cancel()
	}

	log := h.log.With("query", q.String())
	log.Info("Searching for %s ...", q)

	searchURL := SearchURL(h.cfg.BaseURL, h.cfg.Postcode, q)
	page, err := h.opener.Open(ctx, searchURL)
	if err != nil {
		log.Error("Got nothing back from %s: %v", searchURL, err)
		return empty, nil
	}
	defer closePage(page, log)

	crossCheckTotal(ctx, page, q, log)

	for found.Len() < q.ExpectedCount {
		cards, err := page.FindAll(ctx, ResultCardSelector)
		if err != nil {
			return empty, fmt.Errorf("read results for %s: %w", q, err)
		}
		for _, card := range cards {
			id, ok, err := card.Attr(ctx, ListingIDAttr)
			if err != nil {
				return empty, fmt.Errorf("read listing id for %s: %w", q, err)
			}
			if ok && strings.TrimSpace(id) != "" {
				found.Add(strings.TrimSpace(id))
			}
		}

		if found.Len() >= q.ExpectedCount {
			break
		}

		log.Info("Added %d so far.  Looking for %d ...", found.Len(), q.ExpectedCount)

		next, err := page.Find(ctx, NextPageSelector)
		if err != nil {
			return empty, fmt.Errorf("next page for %s after %d ids: %w", q, found.Len(), err)
		}
		if err := page.Click(ctx, next); err != nil {
			return empty, fmt.Errorf("next page for %s: %w", q, err)
		}
		if err := page.WaitStale(ctx, next, h.cfg.PageWaitTimeout); err != nil {
			return empty, fmt.Errorf("next page for %s: %w", q, err)
		}
	}

	log.Success("Found %d listings for %s", found.Len(), q)
	return found, nil
}

// crossCheckTotal compares the site's own result count with the expected
// count. The site's figure is only logged, never used to stop the loop.
func crossCheckTotal(ctx context.Context, page browser.Page, q models.Query, log *utils.Logger) {
	header, err := page.Find(ctx, ResultCountSelector)
	if err != nil {
		return
	}
	text, err := header.Text(ctx)
	if err != nil {
		return
	}
	total, ok := parseResultCount(text)
	if !ok {
		return
	}
	if total != q.ExpectedCount {
		log.Warn("Site reports %d adverts for %s, expecting %d", total, q, q.ExpectedCount)
	}
}

// parseResultCount reads the leading number of a header like
// "1,234 cars found".
func parseResultCount(text string) (int, bool) {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return 0, false
	}
	n, err := strconv.Atoi(strings.ReplaceAll(fields[0], ",", ""))
	if err != nil {
		return 0, false
	}
	return n, true
}

func closePage(page browser.Page, log *utils.Logger) {
	log.Debug("Closing the page ...")
	if err := page.Close(); err != nil {
		log.Error("Error closing %s: %v", page.URL(), err)
	}
}
