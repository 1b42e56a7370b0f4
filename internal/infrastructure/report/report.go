package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"

	"github.com/ethicalmeat/backend/internal/domain"
)

// WriteResults saves a pipeline run in all three output formats next to each
// other: <base>.json with the full records, <base>.csv with the key columns,
// and <base>_mappings.csv with only the mapped barcode to rating rows.
func WriteResults(basePath string, products []domain.RatedProduct) error {
	if err := os.MkdirAll(filepath.Dir(basePath), 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	jsonPath := basePath + ".json"
	if err := writeJSON(jsonPath, products); err != nil {
		return err
	}
	log.Printf("[REPORT] Detailed data: %s", jsonPath)

	csvPath := basePath + ".csv"
	if err := writeSummaryCSV(csvPath, products); err != nil {
		return err
	}
	log.Printf("[REPORT] Summary CSV: %s", csvPath)

	mappingPath := basePath + "_mappings.csv"
	if err := writeMappingsCSV(mappingPath, products); err != nil {
		return err
	}
	log.Printf("[REPORT] Barcode mappings: %s", mappingPath)

	return nil
}

func writeJSON(path string, products []domain.RatedProduct) error {
	data, err := json.MarshalIndent(products, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding results: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// writeSummaryCSV saves the key fields of every processed product.
func writeSummaryCSV(path string, products []domain.RatedProduct) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	header := []string{
		"barcode", "name", "brands", "categories",
		"classified_animal", "classified_label", "classification_confidence",
		"emh_tier", "emh_steps_to_go", "emh_mapping_status",
	}
	if err := w.Write(header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for _, p := range products {
		record := []string{
			p.Barcode, p.Name, p.Brands, p.Categories,
			string(p.ClassifiedAnimal), string(p.ClassifiedLabel),
			strconv.FormatFloat(p.ClassificationConfidence, 'g', -1, 64),
			tierString(p.EMHTier), stepsString(p.EMHStepsToGo), string(p.EMHMappingStatus),
		}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("writing row: %w", err)
		}
	}

	w.Flush()
	return w.Error()
}

// writeMappingsCSV saves only the products that resolved to a rating.
func writeMappingsCSV(path string, products []domain.RatedProduct) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	header := []string{"barcode", "product_name", "animal", "label", "welfare_tier", "steps_to_go"}
	if err := w.Write(header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for _, p := range products {
		if p.EMHMappingStatus != domain.StatusMapped {
			continue
		}
		record := []string{
			p.Barcode, p.Name,
			string(p.ClassifiedAnimal), string(p.ClassifiedLabel),
			tierString(p.EMHTier), stepsString(p.EMHStepsToGo),
		}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("writing row: %w", err)
		}
	}

	w.Flush()
	return w.Error()
}

func tierString(t *domain.Tier) string {
	if t == nil {
		return ""
	}
	return string(*t)
}

func stepsString(s *int) string {
	if s == nil {
		return ""
	}
	return strconv.Itoa(*s)
}
