package autotrader

import (
	"bytes"
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/BigNoodles/carlot/browser"
	"github.com/BigNoodles/carlot/models"
	"github.com/BigNoodles/carlot/utils"
)

func TestHarvest_StopsOnceExpectedCountReached(t *testing.T) {
	search := &fakeSearch{
		pages: [][]string{{"A", "B", "C"}, {"C", "D", "E"}, {"F", "G", "H"}},
		total: "5 cars found",
	}
	h := NewHarvester(search, testConfig(), nop())

	set, err := h.Harvest(context.Background(), models.Query{Make: "Ford", Model: "Fiesta", ExpectedCount: 5})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{"A", "B", "C", "D", "E"}
	if got := set.IDs(); !reflect.DeepEqual(got, want) {
		t.Errorf("ids: got %v, want %v", got, want)
	}
	if set.Make != "Ford" || set.Model != "Fiesta" {
		t.Errorf("set tagged %q %q", set.Make, set.Model)
	}
	if search.reads != 2 {
		t.Errorf("want 2 result pages read, got %d", search.reads)
	}
	if search.clicks != 1 {
		t.Errorf("want 1 next-page click, got %d", search.clicks)
	}
	if !search.closed {
		t.Error("page was not closed")
	}
}

func TestHarvest_ZeroExpectedReadsNothing(t *testing.T) {
	search := &fakeSearch{pages: [][]string{{"A", "B"}}}
	h := NewHarvester(search, testConfig(), nop())

	set, err := h.Harvest(context.Background(), models.Query{Make: "Ford", Model: "Ka", ExpectedCount: 0})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if set.Len() != 0 {
		t.Errorf("want empty set, got %v", set.IDs())
	}
	if search.reads > 1 || search.clicks != 0 {
		t.Errorf("reads=%d clicks=%d", search.reads, search.clicks)
	}
}

func TestHarvest_ThresholdMetOnFirstPage(t *testing.T) {
	search := &fakeSearch{pages: [][]string{{"A", "B", "C", "D"}, {"E"}}}
	h := NewHarvester(search, testConfig(), nop())

	set, err := h.Harvest(context.Background(), models.Query{Make: "Audi", Model: "A3", ExpectedCount: 3})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if set.Len() != 4 {
		t.Errorf("whole first page should be kept, got %v", set.IDs())
	}
	if search.clicks != 0 {
		t.Errorf("no click expected once threshold met, got %d", search.clicks)
	}
}

func TestHarvest_OpenFailureYieldsEmptySet(t *testing.T) {
	search := &fakeSearch{openErr: errBoom}
	h := NewHarvester(search, testConfig(), nop())

	set, err := h.Harvest(context.Background(), models.Query{Make: "Ford", Model: "Focus", ExpectedCount: 3})
	if err != nil {
		t.Fatalf("open failure should not be an error, got %v", err)
	}
	if set.Len() != 0 {
		t.Errorf("want empty set, got %v", set.IDs())
	}
	if set.Make != "Ford" || set.Model != "Focus" {
		t.Errorf("set tagged %q %q", set.Make, set.Model)
	}
}

func TestHarvest_Errors(t *testing.T) {
	cases := []struct {
		name   string
		search *fakeSearch
		check  func(t *testing.T, err error)
	}{
		{
			name: "stale wait times out",
			search: &fakeSearch{
				pages:    [][]string{{"A"}, {"B"}},
				staleErr: &browser.TimeoutError{Op: "wait for page change", Timeout: time.Second},
			},
			check: func(t *testing.T, err error) {
				var te *browser.TimeoutError
				if !errors.As(err, &te) {
					t.Errorf("want TimeoutError, got %v", err)
				}
			},
		},
		{
			name:   "no next page before threshold",
			search: &fakeSearch{pages: [][]string{{"A", "B"}}},
			check: func(t *testing.T, err error) {
				if !errors.Is(err, browser.ErrNotFound) {
					t.Errorf("want ErrNotFound, got %v", err)
				}
			},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := NewHarvester(tc.search, testConfig(), nop())
			set, err := h.Harvest(context.Background(), models.Query{Make: "Ford", Model: "Fiesta", ExpectedCount: 5})
			if err == nil {
				t.Fatal("expected error")
			}
			tc.check(t, err)
			if set.Len() != 0 {
				t.Errorf("partial result leaked: %v", set.IDs())
			}
			if !tc.search.closed {
				t.Error("page was not closed")
			}
		})
	}
}

func TestHarvest_DeadlineDuringPagination(t *testing.T) {
	search := &fakeSearch{
		pages:             [][]string{{"A", "B"}, {"C", "D"}},
		blockingWaitStale: true,
	}
	cfg := testConfig()
	cfg.HarvestTimeout = 50 * time.Millisecond
	h := NewHarvester(search, cfg, nop())

	set, err := h.Harvest(context.Background(), models.Query{Make: "Ford", Model: "Galaxy", ExpectedCount: 4})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("want DeadlineExceeded, got %v", err)
	}
	if set.Len() != 0 {
		t.Errorf("partial result leaked: %v", set.IDs())
	}
	if !search.closed {
		t.Error("page was not closed")
	}
}

func TestHarvest_LogsWithQuery(t *testing.T) {
	var buf bytes.Buffer
	search := &fakeSearch{pages: [][]string{{"A"}}}
	h := NewHarvester(search, testConfig(), utils.NewLogger(&buf, "harvest", "info"))

	h.Harvest(context.Background(), models.Query{Make: "Ford", Model: "Puma", ExpectedCount: 1})

	out := buf.String()
	if !strings.Contains(out, "query=") || !strings.Contains(out, "Ford Puma") {
		t.Errorf("log lines missing query field: %q", out)
	}
}

func TestHarvest_OpensSearchURL(t *testing.T) {
	search := &fakeSearch{pages: [][]string{{"A"}}}
	cfg := testConfig()
	cfg.Postcode = "PO16+7GZ"
	h := NewHarvester(search, cfg, nop())

	h.Harvest(context.Background(), models.Query{Make: "Land Rover", Model: "Defender", ExpectedCount: 1})

	if len(search.opened) != 1 {
		t.Fatalf("want 1 open, got %d", len(search.opened))
	}
	url := search.opened[0]
	for _, part := range []string{
		"https://example.test/car-search?",
		"postcode=PO16+7GZ",
		"make=Land%20Rover",
		"model=Defender",
		"search-target=usedcars",
	} {
		if !strings.Contains(url, part) {
			t.Errorf("url %q missing %q", url, part)
		}
	}
}

func TestParseResultCount(t *testing.T) {
	cases := []struct {
		in   string
		want int
		ok   bool
	}{
		{"1,234 cars found", 1234, true},
		{"  5 cars", 5, true},
		{"", 0, false},
		{"no cars", 0, false},
	}
	for _, tc := range cases {
		got, ok := parseResultCount(tc.in)
		if got != tc.want || ok != tc.ok {
			t.Errorf("parseResultCount(%q) = %d, %v; want %d, %v", tc.in, got, ok, tc.want, tc.ok)
		}
	}
}

func TestDetailURL(t *testing.T) {
	for _, base := range []string{"https://example.test", "https://example.test/"} {
		if got := DetailURL(base, "202101010000001"); got != "https://example.test/classified/advert/202101010000001" {
			t.Errorf("DetailURL(%q) = %q", base, got)
		}
	}
}
