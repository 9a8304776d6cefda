package autotrader

import (
	"context"
	"errors"
	"strings"

	"github.com/BigNoodles/carlot/browser"
	"github.com/BigNoodles/carlot/models"
)

// KeySpec is one entry of an advert's key specifications list: the icon
// marker that says what the entry is, and the entry's text.
type KeySpec struct {
	Marker string
	Text   string
}

// keySpecFields maps an icon marker to the advert field it fills.
var keySpecFields = map[string]func(*models.Advertisement) *models.Field{
	"ks-manufactured-year": func(a *models.Advertisement) *models.Field { return &a.Year },
	"ks-body-type":         func(a *models.Advertisement) *models.Field { return &a.BodyStyle },
	"ks-mileage":           func(a *models.Advertisement) *models.Field { return &a.Mileage },
	"ks-engine-size":       func(a *models.Advertisement) *models.Field { return &a.EngineSize },
	"ks-transmission":      func(a *models.Advertisement) *models.Field { return &a.Transmission },
	"ks-fuel-type":         func(a *models.Advertisement) *models.Field { return &a.FuelType },
	"ks-doors":             func(a *models.Advertisement) *models.Field { return &a.Doors },
}

// applyKeySpecs fills the fields whose markers appear in specs. Unknown
// markers are ignored and a later entry for the same field wins.
func applyKeySpecs(ad *models.Advertisement, specs []KeySpec) {
	for _, s := range specs {
		field, ok := keySpecFields[s.Marker]
		if !ok {
			continue
		}
		*field(ad) = models.Known(s.Text)
	}
}

// iconMarker returns the segment after the first '#' of an icon reference
// such as "/images/icons.svg#ks-mileage".
func iconMarker(href string) (string, bool) {
	parts := strings.Split(href, "#")
	if len(parts) < 2 || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

// readKeySpecs collects the tagged entries of the key specifications list.
// A missing list yields no entries; entries without an icon are skipped.
func readKeySpecs(ctx context.Context, page browser.Finder) ([]KeySpec, error) {
	list, err := page.Find(ctx, KeySpecsSelector)
	if errors.Is(err, browser.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	items, err := list.FindAll(ctx, "li")
	if err != nil {
		return nil, err
	}

	var specs []KeySpec
	for _, item := range items {
		icon, err := item.Find(ctx, "use")
		if errors.Is(err, browser.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}

		href, ok, err := icon.Attr(ctx, "xlink:href")
		if err != nil {
			return nil, err
		}
		if !ok {
			if href, ok, err = icon.Attr(ctx, "href"); err != nil {
				return nil, err
			}
		}
		marker, ok := iconMarker(href)
		if !ok {
			continue
		}

		text, err := item.Text(ctx)
		if err != nil {
			return nil, err
		}
		specs = append(specs, KeySpec{Marker: marker, Text: text})
	}
	return specs, nil
}
