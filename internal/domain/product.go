package domain

// ProductRecord is a raw product as fetched from the FoodRepo API, possibly
// enriched with brand data from Open Food Facts. Records are immutable once
// created; each pipeline stage produces a new augmented record type instead
// of mutating upstream data.
type ProductRecord struct {
	Barcode         string   `json:"barcode"`
	Name            string   `json:"name"`
	Brands          string   `json:"brands,omitempty"`
	Categories      string   `json:"categories,omitempty"`
	IngredientsText string   `json:"ingredients_text,omitempty"`
	Origins         []string `json:"origins,omitempty"`
	Images          []string `json:"images,omitempty"`
	BrandSource     string   `json:"brand_source,omitempty"` // "openfoodfacts" or "none"
}

// ClassificationResult is the classifier's output for one product.
type ClassificationResult struct {
	Animal     AnimalKind `json:"animal"`
	Label      Label      `json:"label"`
	Confidence float64    `json:"confidence"`
	Reasoning  string     `json:"reasoning"`
}

// ClassifiedProduct is a product record augmented with classification fields.
type ClassifiedProduct struct {
	ProductRecord
	ClassifiedAnimal         AnimalKind `json:"classified_animal"`
	ClassifiedLabel          Label      `json:"classified_label"`
	ClassificationConfidence float64    `json:"classification_confidence"`
	ClassificationReasoning  string     `json:"classification_reasoning"`
}

// RatedProduct is a classified product augmented with the welfare rating
// resolution. Tier and StepsToGo are nil unless the status is "mapped".
type RatedProduct struct {
	ClassifiedProduct
	EMHTier          *Tier         `json:"emh_tier"`
	EMHStepsToGo     *int          `json:"emh_steps_to_go"`
	EMHMappingStatus MappingStatus `json:"emh_mapping_status"`
	EMHLabel         Label         `json:"emh_label,omitempty"`
	EMHAnimal        AnimalKind    `json:"emh_animal,omitempty"`
}

// RatingRow is one row of the welfare ratings source table. Label and Animal
// are kept as raw source strings; the provenance columns are preserved but
// never interpreted.
type RatingRow struct {
	Label        string `json:"label"`
	Animal       string `json:"animal"`
	Tier         Tier   `json:"tier"`
	StepsToGo    *int   `json:"steps_to_go"`
	ProductTitle string `json:"product_title,omitempty"`
	ProductURL   string `json:"product_url,omitempty"`
	LabelURL     string `json:"label_url,omitempty"`
}

// Rating is a resolved welfare rating for a (label, animal) pair.
type Rating struct {
	Label     string `json:"label"`
	Animal    string `json:"animal"`
	Tier      Tier   `json:"tier"`
	StepsToGo *int   `json:"steps_to_go"`
}
