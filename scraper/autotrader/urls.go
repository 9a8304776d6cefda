package autotrader

import (
	"fmt"
	"strings"

	"github.com/BigNoodles/carlot/models"
)

// SearchURL builds the used-car search for q around postcode. Make and model
// are not URL-encoded beyond spaces; the query reader only admits values
// that are safe to embed.
func SearchURL(baseURL, postcode string, q models.Query) string {
	return fmt.Sprintf("%s%s?"+
		"advertising-location=at_cars&"+
		"price-search-type=total-price&"+
		"search-target=usedcars&"+
		"postcode=%s&"+
		"make=%s&"+
		"model=%s",
		trimBase(baseURL), searchPath, postcode, escapeSpaces(q.Make), escapeSpaces(q.Model))
}

// DetailURL is the advert page for one listing identifier.
func DetailURL(baseURL, id string) string {
	return trimBase(baseURL) + advertPath + id
}

func trimBase(baseURL string) string {
	return strings.TrimRight(baseURL, "/")
}

func escapeSpaces(s string) string {
	return strings.ReplaceAll(s, " ", "%20")
}
