package models

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Unknown is rendered for any field that could not be found on a page.
const Unknown = "Unknown"

// Field is a scraped value that is either present or absent.
type Field struct {
	value string
	known bool
}

// Known returns a present Field, or an absent one when s is blank.
func Known(s string) Field {
	s = strings.TrimSpace(s)
	if s == "" {
		return Field{}
	}
	return Field{value: s, known: true}
}

func (f Field) IsKnown() bool { return f.known }

func (f Field) String() string {
	if !f.known {
		return Unknown
	}
	return f.value
}

func (f Field) MarshalJSON() ([]byte, error) {
	return json.Marshal(f.String())
}

type Advertisement struct {
	Hyperlink   string
	Description Field
	SellerType  Field
	Price       Field

	Make    Field
	Model   Field
	Year    Field
	Mileage Field

	BodyStyle    Field
	CO2Emission  Field
	Doors        Field
	Transmission Field

	WasStolen   Field
	WasWriteOff Field
	WasScrapped Field

	EngineSize Field
	FuelType   Field
}

// Columns lists the output column names in the order Values renders them.
var Columns = []string{
	"hyperlink", "description", "seller_type", "price",
	"make", "model", "year", "mileage",
	"body_style", "co2_emission", "doors", "transmission",
	"was_stolen", "was_write_off", "was_scrapped",
	"engine_size", "fuel_type",
}

var labels = []string{
	"Hyperlink", "Description", "Seller Type", "Price",
	"Make", "Model", "Year", "Mileage",
	"Body Style", "Co2 Emissions", "Doors", "Transmission",
	"Was Stolen", "Was Write Off", "Was Scrapped",
	"Engine Size", "Fuel Type",
}

// Fields returns every optional field in column order, hyperlink excluded.
func (a Advertisement) Fields() []Field {
	return []Field{
		a.Description, a.SellerType, a.Price,
		a.Make, a.Model, a.Year, a.Mileage,
		a.BodyStyle, a.CO2Emission, a.Doors, a.Transmission,
		a.WasStolen, a.WasWriteOff, a.WasScrapped,
		a.EngineSize, a.FuelType,
	}
}

// Values renders the advert with absent fields as Unknown.
func (a Advertisement) Values() []string {
	link := a.Hyperlink
	if link == "" {
		link = Unknown
	}
	out := []string{link}
	for _, f := range a.Fields() {
		out = append(out, f.String())
	}
	return out
}

func (a Advertisement) String() string {
	values := a.Values()
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = fmt.Sprintf("%s: %s", labels[i], v)
	}
	return strings.Join(parts, ", ")
}

func (a Advertisement) MarshalJSON() ([]byte, error) {
	values := a.Values()
	m := make(map[string]string, len(values))
	for i, v := range values {
		m[Columns[i]] = v
	}
	return json.Marshal(m)
}
