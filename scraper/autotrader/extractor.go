package autotrader

import (
	"context"
	"errors"
	"fmt"

	"github.com/BigNoodles/carlot/browser"
	"github.com/BigNoodles/carlot/config"
	"github.com/BigNoodles/carlot/models"
	"github.com/BigNoodles/carlot/utils"
)

const (
	SellerDealer  = "Dealer"
	SellerPrivate = "Private"
)

// Extractor reads one advert page into an Advertisement.
type Extractor struct {
	opener browser.Opener
	cfg    *config.Config
	log    *utils.Logger
}

func NewExtractor(opener browser.Opener, cfg *config.Config, log *utils.Logger) *Extractor {
	return &Extractor{opener: opener, cfg: cfg, log: log}
}

// Extract scrapes the advert for id. Description, price and the seller
// paragraph must be present; every other field is left absent when the page
// does not carry it. Make and model are not on the page and stay absent.
func (e *Extractor) Extract(ctx context.Context, id string) (models.Advertisement, error) {
	link := DetailURL(e.cfg.BaseURL, id)

	page, err := e.opener.Open(ctx, link)
	if err != nil {
		return models.Advertisement{}, fmt.Errorf("open advert %s: %w", id, err)
	}
	defer closePage(page, e.log)

	e.log.Info("Scraping data for car# %s ...", id)

	ad := models.Advertisement{Hyperlink: link}

	description, err := requiredText(ctx, page, id, "description", DescriptionSelector)
	if err != nil {
		return models.Advertisement{}, err
	}
	price, err := requiredText(ctx, page, id, "price", PriceSelector)
	if err != nil {
		return models.Advertisement{}, err
	}
	seller, err := sellerType(ctx, page, id)
	if err != nil {
		return models.Advertisement{}, err
	}
	ad.Description = models.Known(description)
	ad.Price = models.Known(price)
	ad.SellerType = models.Known(seller)

	specs, err := readKeySpecs(ctx, page)
	if err != nil {
		return models.Advertisement{}, fmt.Errorf("advert %s key specs: %w", id, err)
	}
	applyKeySpecs(&ad, specs)

	if ad.CO2Emission, err = readEmission(ctx, page); err != nil {
		return models.Advertisement{}, fmt.Errorf("advert %s emissions: %w", id, err)
	}
	if err := readVehicleCheck(ctx, page, &ad); err != nil {
		return models.Advertisement{}, fmt.Errorf("advert %s vehicle check: %w", id, err)
	}

	return ad, nil
}

func requiredText(ctx context.Context, page browser.Finder, id, field, selector string) (string, error) {
	el, err := required(ctx, page, id, field, selector)
	if err != nil {
		return "", err
	}
	text, err := el.Text(ctx)
	if err != nil {
		return "", fmt.Errorf("advert %s %s: %w", id, field, err)
	}
	return text, nil
}

func required(ctx context.Context, page browser.Finder, id, field, selector string) (browser.Element, error) {
	el, err := page.Find(ctx, selector)
	if errors.Is(err, browser.ErrNotFound) {
		return nil, &MissingFieldError{Field: field, Selector: selector, ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("advert %s %s: %w", id, field, err)
	}
	return el, nil
}

// sellerType classifies the seller by structure rather than by a label:
// dealer names are rendered as links, private sellers' are not.
func sellerType(ctx context.Context, page browser.Finder, id string) (string, error) {
	para, err := required(ctx, page, id, "seller type", SellerNameSelector)
	if err != nil {
		return "", err
	}
	linked, err := browser.Exists(ctx, para, "a")
	if err != nil {
		return "", fmt.Errorf("advert %s seller type: %w", id, err)
	}
	if linked {
		return SellerDealer, nil
	}
	return SellerPrivate, nil
}

// readEmission takes the raw markup of the second span in the last row of
// the technical specs list. The markup is kept as-is because the value can
// contain tags that the text accessor would drop.
func readEmission(ctx context.Context, page browser.Finder) (models.Field, error) {
	table, err := page.Find(ctx, TechSpecsSelector)
	if errors.Is(err, browser.ErrNotFound) {
		return models.Field{}, nil
	}
	if err != nil {
		return models.Field{}, err
	}

	rows, err := table.FindAll(ctx, "li")
	if err != nil || len(rows) == 0 {
		return models.Field{}, err
	}
	spans, err := rows[len(rows)-1].FindAll(ctx, "span")
	if err != nil || len(spans) < 2 {
		return models.Field{}, err
	}
	html, err := spans[1].InnerHTML(ctx)
	if err != nil {
		return models.Field{}, err
	}
	return models.Known(html), nil
}

// vehicleCheckFields lists the check list rows in page order.
var vehicleCheckFields = []func(*models.Advertisement) *models.Field{
	func(a *models.Advertisement) *models.Field { return &a.WasStolen },
	func(a *models.Advertisement) *models.Field { return &a.WasScrapped },
	func(a *models.Advertisement) *models.Field { return &a.WasWriteOff },
}

// readVehicleCheck fills stolen, scrapped and write-off from the second span
// of each check list row. "Clear" is a real answer, not a default.
func readVehicleCheck(ctx context.Context, page browser.Finder, ad *models.Advertisement) error {
	list, err := page.Find(ctx, VehicleCheckSelector)
	if errors.Is(err, browser.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	rows, err := list.FindAll(ctx, "li")
	if err != nil {
		return err
	}
	for i, field := range vehicleCheckFields {
		if i >= len(rows) {
			break
		}
		spans, err := rows[i].FindAll(ctx, "span")
		if err != nil {
			return err
		}
		if len(spans) < 2 {
			continue
		}
		text, err := spans[1].Text(ctx)
		if err != nil {
			return err
		}
		*field(ad) = models.Known(text)
	}
	return nil
}
