package services

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/BigNoodles/carlot/models"
)

// QueryCount pairs a searched make and model with what came back for it.
type QueryCount struct {
	Query   models.Query
	Scraped int
	Failed  int
}

type Report struct {
	TotalAdverts   int
	DealerAdverts  int
	PrivateAdverts int
	FailedAdverts  int
	ByQuery        []QueryCount
	// UnknownByColumn counts adverts with no value per output column.
	UnknownByColumn map[string]int
	Failures        []models.ScrapeFailure
}

// GenerateReport cleans the scraped adverts and summarises them per query.
func GenerateReport(queries []models.Query, result models.ScrapeResult) Report {
	cleaned := CleanAdverts(result.Adverts)

	report := Report{
		TotalAdverts:    len(cleaned),
		FailedAdverts:   len(result.Failures),
		UnknownByColumn: make(map[string]int),
		Failures:        result.Failures,
	}

	index := make(map[string]int, len(queries))
	for _, q := range queries {
		key := queryKey(q.Make, q.Model)
		if _, ok := index[key]; ok {
			continue
		}
		index[key] = len(report.ByQuery)
		report.ByQuery = append(report.ByQuery, QueryCount{Query: q})
	}

	for _, ad := range cleaned {
		switch ad.SellerType.String() {
		case "Dealer":
			report.DealerAdverts++
		case "Private":
			report.PrivateAdverts++
		}

		for i, v := range ad.Values() {
			if v == models.Unknown {
				report.UnknownByColumn[models.Columns[i]]++
			}
		}

		if i, ok := index[queryKey(ad.Make.String(), ad.Model.String())]; ok {
			report.ByQuery[i].Scraped++
		}
	}

	for _, f := range result.Failures {
		if i, ok := index[queryKey(f.Make, f.Model)]; ok {
			report.ByQuery[i].Failed++
		}
	}

	return report
}

func PrintReport(w io.Writer, report Report) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, "┌──────────────────────────────────────────────────────────────┐")
	fmt.Fprintln(w, "│                    Used Car Advert Summary                   │")
	fmt.Fprintln(w, "├───────────────────────────────┬──────────────────────────────┤")
	fmt.Fprintf(w, "│ %-29s │ %-28d │\n", "Total Adverts Scraped", report.TotalAdverts)
	fmt.Fprintf(w, "│ %-29s │ %-28d │\n", "Dealer Adverts", report.DealerAdverts)
	fmt.Fprintf(w, "│ %-29s │ %-28d │\n", "Private Adverts", report.PrivateAdverts)
	fmt.Fprintf(w, "│ %-29s │ %-28d │\n", "Failed Adverts", report.FailedAdverts)
	fmt.Fprintln(w, "└───────────────────────────────┴──────────────────────────────┘")

	fmt.Fprintln(w)
	fmt.Fprintln(w, "┌──────────────────────────────────┬──────────┬─────────┬────────┐")
	fmt.Fprintln(w, "│ Search                           │ Expected │ Scraped │ Failed │")
	fmt.Fprintln(w, "├──────────────────────────────────┼──────────┼─────────┼────────┤")
	for _, qc := range report.ByQuery {
		fmt.Fprintf(w, "│ %-32s │ %-8d │ %-7d │ %-6d │\n",
			truncateText(qc.Query.String(), 32), qc.Query.ExpectedCount, qc.Scraped, qc.Failed)
	}
	fmt.Fprintln(w, "└──────────────────────────────────┴──────────┴─────────┴────────┘")

	if report.TotalAdverts > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "┌──────────────────────────────────────────────┬───────────────┐")
		fmt.Fprintln(w, "│ Unknown Values per Column                    │ Count         │")
		fmt.Fprintln(w, "├──────────────────────────────────────────────┼───────────────┤")
		for _, col := range models.Columns {
			if n := report.UnknownByColumn[col]; n > 0 {
				fmt.Fprintf(w, "│ %-44s │ %-13d │\n", col, n)
			}
		}
		fmt.Fprintln(w, "└──────────────────────────────────────────────┴───────────────┘")
	}

	if len(report.Failures) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Failed adverts:")
		for _, f := range sortedFailures(report.Failures) {
			fmt.Fprintf(w, "  %s (%s %s): %v\n", f.ID, f.Make, f.Model, f.Err)
		}
	}
}

// CleanAdverts drops adverts without a hyperlink and keeps the first of any
// adverts sharing one.
func CleanAdverts(adverts []models.Advertisement) []models.Advertisement {
	seen := make(map[string]bool)
	cleaned := make([]models.Advertisement, 0, len(adverts))

	for _, ad := range adverts {
		ad.Hyperlink = strings.TrimSpace(ad.Hyperlink)
		if ad.Hyperlink == "" {
			continue
		}

		if seen[ad.Hyperlink] {
			continue
		}

		seen[ad.Hyperlink] = true
		cleaned = append(cleaned, ad)
	}

	return cleaned
}

func queryKey(carMake, carModel string) string {
	return strings.ToLower(carMake) + "\x00" + strings.ToLower(carModel)
}

func sortedFailures(failures []models.ScrapeFailure) []models.ScrapeFailure {
	out := append([]models.ScrapeFailure(nil), failures...)
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func truncateText(s string, max int) string {
	if len(s) <= max {
		return s
	}
	if max <= 3 {
		return s[:max]
	}
	return s[:max-3] + "..."
}
