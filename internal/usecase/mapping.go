package usecase

import (
	"log"
	"strings"

	"github.com/ethicalmeat/backend/internal/domain"
)

// ratingKey is the composite lookup key, both parts lowercased.
type ratingKey struct {
	label  string
	animal string
}

// animalVariations maps known textual variants onto the canonical animal
// categories; canonical values map to themselves.
var animalVariations = map[string]string{
	"rindfleisch":     "rindfleisch",
	"schweinefleisch": "schweinefleisch",
	"kalbfleisch":     "kalbfleisch",
	"poulet":          "poulet",
	"eier":            "eier",
	"milch":           "milch",

	"pouletfleisch": "poulet",
	"beef":          "rindfleisch",
	"pork":          "schweinefleisch",
	"veal":          "kalbfleisch",
	"chicken":       "poulet",
	"eggs":          "eier",
	"milk":          "milch",
}

// labelVariations maps common classifier output variants onto the canonical
// label identifiers of the rating source.
var labelVariations = map[string]string{
	"natura-beef":       "NATURA-BEEF D",
	"natura beef":       "NATURA-BEEF D",
	"naturabeef":        "NATURA-BEEF D",
	"natura-veal":       "NATURA-VEAL DE",
	"natura veal":       "NATURA-VEAL DE",
	"naturaveal":        "NATURA-VEAL DE",
	"migros weide-beef": "MIGROS WEIDE-BEEF D",
	"weide-beef":        "MIGROS WEIDE-BEEF D",
	"bio suisse":        "BIO SUISSE / BIO KNOSPE D",
	"knospe":            "BIO SUISSE / BIO KNOSPE D",
	"bio knospe":        "BIO SUISSE / BIO KNOSPE D",
	"coop naturafarm":   "COOP NATURAFARM D",
	"coop naturaplan":   "COOP NATURAPLAN D",
	"ip-suisse":         "IP-SUISSE D",
	"suisse garantie":   "SUISSE GARANTIE D",
	"agri natura":       "AGRI NATURA D",
	"demeter":           "DEMETER D",
}

// RatingMapper resolves classified (animal, label) pairs against the welfare
// rating table. The table and both normalization mappings are built once at
// construction and are read-only afterwards; Resolve is a pure function of
// its inputs and the tables.
type RatingMapper struct {
	ratings    map[ratingKey]domain.RatingRow
	labelNorm  map[string]string // lowercased input -> canonical source label
	animalNorm map[string]string // lowercased input -> canonical animal
}

// NewRatingMapper builds the lookup and normalization tables from the rating
// source rows. Rows with an empty animal are skipped. Duplicate (label,
// animal) keys resolve last-write-wins; this is a deliberate policy, and
// duplicates are logged as a data-quality signal rather than treated as a
// code bug.
func NewRatingMapper(rows []domain.RatingRow) *RatingMapper {
	m := &RatingMapper{
		ratings:    make(map[ratingKey]domain.RatingRow),
		labelNorm:  make(map[string]string),
		animalNorm: make(map[string]string),
	}

	skipped, duplicates := 0, 0
	for _, row := range rows {
		label := strings.TrimSpace(row.Label)
		animal := strings.TrimSpace(row.Animal)
		if animal == "" {
			skipped++
			continue
		}

		key := ratingKey{label: strings.ToLower(label), animal: strings.ToLower(animal)}
		if _, exists := m.ratings[key]; exists {
			duplicates++
		}
		m.ratings[key] = row
	}

	if skipped > 0 {
		log.Printf("[RATINGS] skipped %d rows with empty animal", skipped)
	}
	if duplicates > 0 {
		log.Printf("[RATINGS] %d duplicate (label, animal) keys resolved last-write-wins", duplicates)
	}

	m.buildNormalizations()
	return m
}

// buildNormalizations constructs the two string -> canonical mappings from
// the closed sets, the loaded table, and the fixed variation lists.
func (m *RatingMapper) buildNormalizations() {
	for variant, canonical := range animalVariations {
		m.animalNorm[variant] = canonical
	}

	// source labels map to themselves
	for key := range m.ratings {
		m.labelNorm[key.label] = m.ratings[key].Label
	}
	for variant, canonical := range labelVariations {
		m.labelNorm[strings.ToLower(variant)] = canonical
	}
}

// NormalizeAnimal maps an animal string to its canonical form: identity for
// canonical values, synonym mapping for known variants, lowercase passthrough
// for anything unrecognized. It never fails.
func (m *RatingMapper) NormalizeAnimal(animal string) string {
	if animal == "" {
		return string(domain.AnimalUnknown)
	}
	normalized := strings.ToLower(strings.TrimSpace(animal))
	if canonical, ok := m.animalNorm[normalized]; ok {
		return canonical
	}
	return normalized
}

// NormalizeLabel maps a label string to the canonical source label. The
// literal "unknown" and the empty string carry no label. An unrecognized
// string that is not verbatim one of the canonical labels yields no result.
func (m *RatingMapper) NormalizeLabel(label string) (string, bool) {
	if label == "" || strings.EqualFold(label, string(domain.LabelUnknown)) {
		return "", false
	}

	if canonical, ok := m.labelNorm[strings.ToLower(label)]; ok {
		return canonical, true
	}

	// classifier may emit a canonical label the loaded table does not contain
	if canonical := domain.LabelFrom(label); canonical != domain.LabelUnknown {
		return string(canonical), true
	}

	return "", false
}

// Resolve maps an (animal, label) pair to a welfare rating. The returned
// status is mapped, no_label, or no_rating; the rating is non-nil only for
// mapped.
func (m *RatingMapper) Resolve(animal, label string) (*domain.Rating, domain.MappingStatus) {
	normAnimal := m.NormalizeAnimal(animal)

	normLabel, ok := m.NormalizeLabel(label)
	if !ok {
		return nil, domain.StatusNoLabel
	}

	key := ratingKey{label: strings.ToLower(normLabel), animal: strings.ToLower(normAnimal)}
	row, found := m.ratings[key]
	if !found {
		return nil, domain.StatusNoRating
	}

	return &domain.Rating{
		Label:     row.Label,
		Animal:    row.Animal,
		Tier:      row.Tier,
		StepsToGo: row.StepsToGo,
	}, domain.StatusMapped
}

// RatingsForLabel returns every rating row for a label across all animals.
func (m *RatingMapper) RatingsForLabel(label string) []domain.RatingRow {
	normLabel, ok := m.NormalizeLabel(label)
	if !ok {
		return nil
	}

	var rows []domain.RatingRow
	for key, row := range m.ratings {
		if key.label == strings.ToLower(normLabel) {
			rows = append(rows, row)
		}
	}
	return rows
}

// RatingsForAnimal returns every rating row for an animal across all labels.
func (m *RatingMapper) RatingsForAnimal(animal string) []domain.RatingRow {
	normAnimal := strings.ToLower(m.NormalizeAnimal(animal))

	var rows []domain.RatingRow
	for key, row := range m.ratings {
		if key.animal == normAnimal {
			rows = append(rows, row)
		}
	}
	return rows
}

// Size returns the number of loaded rating entries.
func (m *RatingMapper) Size() int {
	return len(m.ratings)
}

// MapStats aggregates rating resolution outcomes across a batch. MissedKeys
// records NOT_RATED lookups so gaps in the scraped table stay visible.
type MapStats struct {
	Mapped     int                 `json:"mapped"`
	NoLabel    int                 `json:"no_label"`
	NoRating   int                 `json:"no_rating"`
	ByTier     map[domain.Tier]int `json:"by_tier"`
	MissedKeys map[string]int      `json:"missed_keys,omitempty"`
}

// MapAll resolves a batch of classified products into rated products,
// accumulating aggregate counts per status and tier. The aggregate is
// diagnostic output only; it never feeds back into resolution.
func (m *RatingMapper) MapAll(products []domain.ClassifiedProduct) ([]domain.RatedProduct, MapStats) {
	stats := MapStats{
		ByTier:     make(map[domain.Tier]int),
		MissedKeys: make(map[string]int),
	}

	rated := make([]domain.RatedProduct, 0, len(products))
	for _, product := range products {
		rating, status := m.Resolve(string(product.ClassifiedAnimal), string(product.ClassifiedLabel))

		rp := domain.RatedProduct{
			ClassifiedProduct: product,
			EMHMappingStatus:  status,
		}

		switch status {
		case domain.StatusMapped:
			tier := rating.Tier
			rp.EMHTier = &tier
			rp.EMHStepsToGo = rating.StepsToGo
			rp.EMHLabel = domain.LabelFrom(rating.Label)
			rp.EMHAnimal = domain.AnimalKindFrom(rating.Animal)
			stats.Mapped++
			stats.ByTier[tier]++
		case domain.StatusNoLabel:
			stats.NoLabel++
		case domain.StatusNoRating:
			normLabel, _ := m.NormalizeLabel(string(product.ClassifiedLabel))
			missKey := strings.ToLower(normLabel) + "/" + strings.ToLower(m.NormalizeAnimal(string(product.ClassifiedAnimal)))
			stats.MissedKeys[missKey]++
			stats.NoRating++
		}

		rated = append(rated, rp)
	}

	return rated, stats
}

// TableStats summarizes the loaded rating table.
type TableStats struct {
	TotalRatings  int                 `json:"total_ratings"`
	UniqueLabels  int                 `json:"unique_labels"`
	UniqueAnimals int                 `json:"unique_animals"`
	ByTier        map[domain.Tier]int `json:"by_tier"`
}

// Stats returns statistics about the rating table itself.
func (m *RatingMapper) Stats() TableStats {
	stats := TableStats{
		TotalRatings: len(m.ratings),
		ByTier:       make(map[domain.Tier]int),
	}

	labels := make(map[string]struct{})
	animals := make(map[string]struct{})
	for key, row := range m.ratings {
		labels[key.label] = struct{}{}
		animals[key.animal] = struct{}{}
		stats.ByTier[row.Tier]++
	}
	stats.UniqueLabels = len(labels)
	stats.UniqueAnimals = len(animals)

	return stats
}
