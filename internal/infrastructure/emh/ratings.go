package emh

import (
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strconv"

	"github.com/ethicalmeat/backend/internal/domain"
)

// ratingColumns is the header of the ratings CSV, in write order.
var ratingColumns = []string{
	"label", "animal", "tier", "steps_to_go",
	"product_title", "product_url", "label_url",
}

// LoadRatings reads the welfare ratings CSV. A missing file is not an error:
// the pipeline still runs, every product just ends up unrated. Malformed rows
// are skipped with a logged count.
func LoadRatings(path string) ([]domain.RatingRow, error) {
	f, err := os.Open(path)
	if err != nil {
		log.Printf("[RATINGS] Ratings file not found: %s", path)
		return nil, nil
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("reading ratings header: %w", err)
	}

	col := make(map[string]int, len(header))
	for i, name := range header {
		col[name] = i
	}
	for _, required := range []string{"label", "animal", "tier"} {
		if _, ok := col[required]; !ok {
			return nil, fmt.Errorf("ratings file %s missing column %q", path, required)
		}
	}

	field := func(record []string, name string) string {
		i, ok := col[name]
		if !ok || i >= len(record) {
			return ""
		}
		return record[i]
	}

	var rows []domain.RatingRow
	skipped := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			skipped++
			continue
		}
		if len(record) < 3 {
			skipped++
			continue
		}

		row := domain.RatingRow{
			Label:        field(record, "label"),
			Animal:       field(record, "animal"),
			Tier:         domain.Tier(field(record, "tier")),
			ProductTitle: field(record, "product_title"),
			ProductURL:   field(record, "product_url"),
			LabelURL:     field(record, "label_url"),
		}
		if steps, err := strconv.Atoi(field(record, "steps_to_go")); err == nil {
			row.StepsToGo = &steps
		}

		rows = append(rows, row)
	}

	if skipped > 0 {
		log.Printf("[RATINGS] Skipped %d malformed rows in %s", skipped, path)
	}
	log.Printf("[RATINGS] Loaded %d ratings from %s", len(rows), path)
	return rows, nil
}

// WriteRatings saves harvested rating rows as CSV.
func WriteRatings(path string, rows []domain.RatingRow) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating ratings file: %w", err)
	}
	defer f.Close()

	writer := csv.NewWriter(f)
	if err := writer.Write(ratingColumns); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for _, row := range rows {
		steps := ""
		if row.StepsToGo != nil {
			steps = strconv.Itoa(*row.StepsToGo)
		}
		record := []string{
			row.Label, row.Animal, string(row.Tier), steps,
			row.ProductTitle, row.ProductURL, row.LabelURL,
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("writing row: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("flushing ratings file: %w", err)
	}

	log.Printf("[RATINGS] Wrote %d ratings to %s", len(rows), path)
	return nil
}
