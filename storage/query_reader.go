package storage

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/BigNoodles/carlot/models"
)

// ErrBadQuery marks a row of the queries file that cannot be searched for.
var ErrBadQuery = errors.New("bad query row")

// Make and model end up in a search URL unescaped apart from spaces.
var safeName = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9 .\-]*$`)

// ReadQueries loads the make, model and expected count from the first three
// columns of each row of a CSV file, skipping the header. offset and limit
// select a slice of the rows; limit 0 means all of them.
func ReadQueries(path string, offset, limit int) ([]models.Query, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("could not open queries file: %w", err)
	}
	defer file.Close()

	queries, err := ParseQueries(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return window(queries, offset, limit), nil
}

// ParseQueries reads queries from CSV data with a header row.
func ParseQueries(r io.Reader) ([]models.Query, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	if _, err := reader.Read(); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("read header: %w", err)
	}

	var queries []models.Query
	for line := 2; ; line++ {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		q, err := parseQuery(rec)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		queries = append(queries, q)
	}
	return queries, nil
}

func parseQuery(rec []string) (models.Query, error) {
	if len(rec) < 3 {
		return models.Query{}, fmt.Errorf("%w: want make, model and count, got %d columns", ErrBadQuery, len(rec))
	}

	carMake := strings.TrimSpace(rec[0])
	carModel := strings.TrimSpace(rec[1])
	for _, name := range []string{carMake, carModel} {
		if !safeName.MatchString(name) {
			return models.Query{}, fmt.Errorf("%w: unsupported name %q", ErrBadQuery, name)
		}
	}

	count, err := strconv.Atoi(strings.TrimSpace(rec[2]))
	if err != nil || count < 0 {
		return models.Query{}, fmt.Errorf("%w: expected count %q is not a whole number", ErrBadQuery, rec[2])
	}

	return models.Query{Make: carMake, Model: carModel, ExpectedCount: count}, nil
}

func window(queries []models.Query, offset, limit int) []models.Query {
	if offset >= len(queries) {
		return nil
	}
	queries = queries[offset:]
	if limit > 0 && limit < len(queries) {
		queries = queries[:limit]
	}
	return queries
}
