package autotrader

import (
	"context"
	"fmt"

	"github.com/BigNoodles/carlot/models"
	"github.com/BigNoodles/carlot/utils"
)

type harvester interface {
	Harvest(ctx context.Context, q models.Query) (models.ListingIDSet, error)
}

type extractor interface {
	Extract(ctx context.Context, id string) (models.Advertisement, error)
}

// Pipeline harvests every query first and then scrapes each collected
// advert, one page at a time.
type Pipeline struct {
	harvester harvester
	extractor extractor
	log       *utils.Logger
}

func NewPipeline(h harvester, e extractor, log *utils.Logger) *Pipeline {
	return &Pipeline{harvester: h, extractor: e, log: log}
}

// Run returns the adverts scraped for queries. A harvest error stops the run
// and is returned as-is; an advert that fails to scrape is recorded in the
// result's failures and skipped.
func (p *Pipeline) Run(ctx context.Context, queries []models.Query) (models.ScrapeResult, error) {
	p.log.Section("Collecting listing ids")

	sets := make([]models.ListingIDSet, 0, len(queries))
	for _, q := range queries {
		if err := ctx.Err(); err != nil {
			return models.ScrapeResult{}, err
		}
		set, err := p.harvester.Harvest(ctx, q)
		if err != nil {
			return models.ScrapeResult{}, fmt.Errorf("harvest %s: %w", q, err)
		}
		sets = append(sets, set)
	}

	p.log.Section("Scraping adverts")

	var result models.ScrapeResult
	for _, set := range sets {
		for _, id := range set.IDs() {
			if err := ctx.Err(); err != nil {
				return result, err
			}
			ad, err := p.extractor.Extract(ctx, id)
			if err != nil {
				p.log.Error("Advert %s failed: %v", id, err)
				result.Failures = append(result.Failures, models.ScrapeFailure{
					ID:    id,
					Make:  set.Make,
					Model: set.Model,
					Err:   err,
				})
				continue
			}
			ad.Make = models.Known(set.Make)
			ad.Model = models.Known(set.Model)
			result.Adverts = append(result.Adverts, ad)
		}
	}

	p.log.Success("Adverts scraped: %d | Failed: %d", len(result.Adverts), len(result.Failures))
	return result, nil
}
