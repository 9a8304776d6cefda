package models

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestKnown(t *testing.T) {
	cases := []struct {
		in    string
		known bool
		want  string
	}{
		{"2015", true, "2015"},
		{"  Manual \n", true, "Manual"},
		{"", false, Unknown},
		{"   ", false, Unknown},
	}
	for _, tc := range cases {
		f := Known(tc.in)
		if f.IsKnown() != tc.known {
			t.Errorf("Known(%q).IsKnown() = %v", tc.in, f.IsKnown())
		}
		if f.String() != tc.want {
			t.Errorf("Known(%q).String() = %q, want %q", tc.in, f.String(), tc.want)
		}
	}
}

func TestAdvertisement_EmptyRendersUnknown(t *testing.T) {
	ad := Advertisement{}
	values := ad.Values()
	if len(values) != len(Columns) {
		t.Fatalf("want %d values, got %d", len(Columns), len(values))
	}
	for i, v := range values {
		if v != Unknown {
			t.Errorf("column %s: got %q, want %q", Columns[i], v, Unknown)
		}
	}
}

func TestAdvertisement_ValuesNeverBlank(t *testing.T) {
	ad := Advertisement{
		Hyperlink:   "https://example.test/classified/advert/1",
		Description: Known("Ford Fiesta 1.0 Zetec"),
		Price:       Known(""),
		Year:        Known("2018"),
	}
	for i, v := range ad.Values() {
		if strings.TrimSpace(v) == "" {
			t.Errorf("column %s rendered blank", Columns[i])
		}
	}
	if got := ad.Values()[3]; got != Unknown {
		t.Errorf("blank price should render Unknown, got %q", got)
	}
}

func TestAdvertisement_String(t *testing.T) {
	ad := Advertisement{
		Hyperlink:  "https://example.test/classified/advert/1",
		SellerType: Known("Dealer"),
	}
	s := ad.String()
	for _, want := range []string{
		"Hyperlink: https://example.test/classified/advert/1",
		"Seller Type: Dealer",
		"Co2 Emissions: Unknown",
		"Fuel Type: Unknown",
	} {
		if !strings.Contains(s, want) {
			t.Errorf("String() missing %q in %q", want, s)
		}
	}
}

func TestAdvertisement_MarshalJSON(t *testing.T) {
	ad := Advertisement{Hyperlink: "h", Make: Known("Ford")}
	raw, err := json.Marshal(ad)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var got map[string]string
	if err := json.Unmarshal(raw, &got); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got["make"] != "Ford" {
		t.Errorf("make: got %q", got["make"])
	}
	if got["mileage"] != Unknown {
		t.Errorf("mileage: got %q", got["mileage"])
	}
	if len(got) != len(Columns) {
		t.Errorf("want %d keys, got %d", len(Columns), len(got))
	}
}

func TestListingIDSet_DeduplicatesIDs(t *testing.T) {
	set := NewListingIDSet("Ford", "Fiesta")
	for _, id := range []string{"A", "B", "A", "C", "B"} {
		set.Add(id)
	}
	if set.Len() != 3 {
		t.Fatalf("want 3 ids, got %d", set.Len())
	}
	if !set.Has("C") || set.Has("D") {
		t.Error("membership wrong")
	}
	if set.Add("A") {
		t.Error("re-adding A should report false")
	}
}

func TestListingIDSet_ZeroValueAdd(t *testing.T) {
	var set ListingIDSet
	if !set.Add("X") {
		t.Fatal("first add should report true")
	}
	if set.Len() != 1 {
		t.Errorf("want 1, got %d", set.Len())
	}
}
