package models

import (
	"fmt"
	"sort"
)

// Query is one requested (make, model) search and the number of adverts
// expected back from it.
type Query struct {
	Make          string
	Model         string
	ExpectedCount int
}

func (q Query) String() string {
	return fmt.Sprintf("%s %s", q.Make, q.Model)
}

// ListingIDSet holds the unique listing identifiers harvested for one query.
type ListingIDSet struct {
	Make  string
	Model string
	ids   map[string]struct{}
}

func NewListingIDSet(carMake, carModel string) ListingIDSet {
	return ListingIDSet{Make: carMake, Model: carModel, ids: make(map[string]struct{})}
}

// Add records id and reports whether it was new.
func (s *ListingIDSet) Add(id string) bool {
	if s.ids == nil {
		s.ids = make(map[string]struct{})
	}
	if _, ok := s.ids[id]; ok {
		return false
	}
	s.ids[id] = struct{}{}
	return true
}

func (s ListingIDSet) Has(id string) bool {
	_, ok := s.ids[id]
	return ok
}

func (s ListingIDSet) Len() int { return len(s.ids) }

// IDs returns the identifiers sorted. Callers must not rely on the order
// matching the order they were harvested in.
func (s ListingIDSet) IDs() []string {
	out := make([]string, 0, len(s.ids))
	for id := range s.ids {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// ScrapeFailure records a listing that could not be extracted.
type ScrapeFailure struct {
	ID    string
	Make  string
	Model string
	Err   error
}

type ScrapeResult struct {
	Adverts  []Advertisement
	Failures []ScrapeFailure
}
