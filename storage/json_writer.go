package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BigNoodles/carlot/models"
	"github.com/BigNoodles/carlot/utils"
)

// JSONWriter saves adverts as a single indented JSON array.
type JSONWriter struct {
	path string
	log  *utils.Logger
}

func NewJSONWriter(path string, log *utils.Logger) *JSONWriter {
	return &JSONWriter{path: path, log: log}
}

func (w *JSONWriter) Write(adverts []models.Advertisement) error {
	if adverts == nil {
		adverts = []models.Advertisement{}
	}

	if err := os.MkdirAll(filepath.Dir(w.path), 0755); err != nil {
		return fmt.Errorf("could not create output dir: %w", err)
	}

	f, err := os.Create(w.path)
	if err != nil {
		return fmt.Errorf("could not create file: %w", err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(adverts); err != nil {
		return fmt.Errorf("json write error: %w", err)
	}

	w.log.Success("Saved %d adverts → %s", len(adverts), w.path)
	return nil
}
