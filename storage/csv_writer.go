package storage

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BigNoodles/carlot/models"
	"github.com/BigNoodles/carlot/utils"
)

// CSVWriter saves adverts to a CSV file.
type CSVWriter struct {
	path string
	log  *utils.Logger
}

func NewCSVWriter(path string, log *utils.Logger) *CSVWriter {
	return &CSVWriter{path: path, log: log}
}

// Write saves all adverts to the CSV file, one row per advert in
// models.Columns order with absent fields written as Unknown.
// Creates the output directory if it does not exist.
func (w *CSVWriter) Write(adverts []models.Advertisement) error {
	if len(adverts) == 0 {
		w.log.Warn("No adverts to write")
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(w.path), 0755); err != nil {
		return fmt.Errorf("could not create output dir: %w", err)
	}

	file, err := os.Create(w.path)
	if err != nil {
		return fmt.Errorf("could not create file: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)

	writer.Write(models.Columns)
	for _, ad := range adverts {
		writer.Write(ad.Values())
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("csv write error: %w", err)
	}

	w.log.Success("Saved %d adverts → %s", len(adverts), w.path)
	return nil
}
