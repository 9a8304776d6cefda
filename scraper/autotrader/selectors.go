package autotrader

// CSS selectors used across the scraper.
const (
	// Search results page
	ResultCardSelector  = `.search-page__result`
	ResultCountSelector = `.search-form__count.js-results-count`
	NextPageSelector    = `.pagination--right__active`
	ListingIDAttr       = `id`

	// Advert page, required
	DescriptionSelector = `.advert-heading__title.atc-type-insignia.atc-type-insignia--medium`
	PriceSelector       = `.advert-price__cash-price`
	SellerNameSelector  = `.seller-name.atc-type-toledo.atc-type-toledo--medium`

	// Advert page, optional
	KeySpecsSelector     = `.key-specifications`
	TechSpecsSelector    = `.info-list.tech-specs__info-list`
	VehicleCheckSelector = `.basic-check-m__check-list`
)

const (
	searchPath = "/car-search"
	advertPath = "/classified/advert/"
)
