package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/ethicalmeat/backend/internal/domain"
)

// jsonObjectRegex extracts the first JSON object from oracle output, which
// may be wrapped in commentary.
var jsonObjectRegex = regexp.MustCompile(`(?s)\{.*\}`)

// Confidence levels of the deterministic policy. The value is a reporting
// bucket (>0.8 rule_classified, >0.5 partial, else unknown) and has no
// effect on rating lookup.
const (
	confidenceFullRuleMatch    = 0.9
	confidencePartialRuleMatch = 0.7
	confidenceNoMatch          = 0.1
)

// ingredientsPrefixLen caps how much ingredient text feeds the rule engine.
const ingredientsPrefixLen = 200

// ClassifierConfig holds configuration for the product classifier.
type ClassifierConfig struct {
	// UseRules enables the deterministic tier-1 rule pass.
	UseRules bool
	// Oracle, when non-nil, is consulted for axes the rules left unresolved.
	Oracle domain.Oracle
	// OracleTimeout bounds a single oracle call. Defaults to 30s.
	OracleTimeout time.Duration
	// EnableDebugLogging logs per-product classification decisions.
	EnableDebugLogging bool
}

// ProductClassifier assigns an (animal, label, confidence, reasoning) tuple
// to each product via ordered pattern rules with an optional oracle fallback.
type ProductClassifier struct {
	useRules           bool
	oracle             domain.Oracle
	oracleTimeout      time.Duration
	enableDebugLogging bool
}

// NewProductClassifier creates a classifier with the given configuration.
func NewProductClassifier(config ClassifierConfig) *ProductClassifier {
	timeout := config.OracleTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &ProductClassifier{
		useRules:           config.UseRules,
		oracle:             config.Oracle,
		oracleTimeout:      timeout,
		enableDebugLogging: config.EnableDebugLogging,
	}
}

// ruleText concatenates the fields the rule engine looks at. Ingredient text
// is truncated; label and animal evidence lives near the front.
func ruleText(product domain.ProductRecord) string {
	ingredients := product.IngredientsText
	if len(ingredients) > ingredientsPrefixLen {
		ingredients = ingredients[:ingredientsPrefixLen]
	}

	fields := []string{product.Name, product.Brands, ingredients}
	var parts []string
	for _, f := range fields {
		if f != "" {
			parts = append(parts, f)
		}
	}
	return strings.Join(parts, " ")
}

// applyRules runs the animal and label rule lists independently over the
// product text. Either axis may resolve without the other.
func (c *ProductClassifier) applyRules(product domain.ProductRecord) (animal domain.AnimalKind, label domain.Label, animalHit, labelHit bool) {
	animal, label = domain.AnimalUnknown, domain.LabelUnknown
	if !c.useRules {
		return animal, label, false, false
	}

	text := ruleText(product)

	if tag, ok := FirstMatch(AnimalRules, text); ok {
		animal = domain.AnimalKindFrom(tag)
		animalHit = true
	}
	if tag, ok := FirstMatch(LabelRules, text); ok {
		label = domain.LabelFrom(tag)
		labelHit = true
	}

	return animal, label, animalHit, labelHit
}

// Classify assigns a classification result to one product. The oracle is
// only consulted when rules leave an axis unresolved; oracle failures fall
// back to whatever the rules produced and never surface as errors.
func (c *ProductClassifier) Classify(ctx context.Context, product domain.ProductRecord) domain.ClassificationResult {
	animal, label, animalHit, labelHit := c.applyRules(product)

	if animalHit && labelHit {
		return domain.ClassificationResult{
			Animal:     animal,
			Label:      label,
			Confidence: confidenceFullRuleMatch,
			Reasoning:  "classified using pattern rules",
		}
	}

	oracleNote := ""
	if c.oracle != nil {
		if result, ok := c.consultOracle(ctx, product); ok {
			if !animalHit && result.Animal != domain.AnimalUnknown {
				animal = result.Animal
			}
			if !labelHit && result.Label != domain.LabelUnknown {
				label = result.Label
			}
			oracleNote = "; oracle fallback consulted"
		}
	}

	if animalHit || labelHit {
		return domain.ClassificationResult{
			Animal:     animal,
			Label:      label,
			Confidence: confidencePartialRuleMatch,
			Reasoning:  "partial classification using pattern rules" + oracleNote,
		}
	}

	return domain.ClassificationResult{
		Animal:     animal,
		Label:      label,
		Confidence: confidenceNoMatch,
		Reasoning:  "no rule match" + oracleNote,
	}
}

// consultOracle builds the prompt, calls the oracle with a bounded timeout
// and parses its response. Any failure yields (zero, false).
func (c *ProductClassifier) consultOracle(ctx context.Context, product domain.ProductRecord) (domain.ClassificationResult, bool) {
	oracleCtx, cancel := context.WithTimeout(ctx, c.oracleTimeout)
	defer cancel()

	response, err := c.oracle.Complete(oracleCtx, c.BuildPrompt(product))
	if err != nil {
		if c.enableDebugLogging {
			log.Printf("[CLASSIFY] oracle call failed for %q: %v", product.Name, err)
		}
		return domain.ClassificationResult{}, false
	}

	result, ok := ParseOracleResponse(response)
	if !ok && c.enableDebugLogging {
		log.Printf("[CLASSIFY] unparseable oracle response for %q", product.Name)
	}
	return result, ok
}

// BuildPrompt produces the oracle prompt describing the closed sets and one
// product's fields.
func (c *ProductClassifier) BuildPrompt(product domain.ProductRecord) string {
	animals := make([]string, 0, len(domain.AllowedAnimals))
	for _, a := range domain.AllowedAnimals {
		animals = append(animals, string(a))
	}
	sort.Strings(animals)

	labels := make([]string, 0, len(domain.AllowedLabels))
	for _, l := range domain.AllowedLabels {
		labels = append(labels, string(l))
	}
	sort.Strings(labels)

	ingredients := product.IngredientsText
	if len(ingredients) > 500 {
		ingredients = ingredients[:500]
	}

	return fmt.Sprintf(`You are a Swiss meat product classifier. Based on the product information below, classify the animal type and Swiss meat label/program.

Product Information:
- Name: %s
- Brands: %s
- Categories: %s
- Ingredients: %s
- Origins: %s

STRICT REQUIREMENTS:
1. Animal type must be one of: %s
2. Label must be one of: %s
3. Use "unknown" when evidence is insufficient
4. Focus on Swiss market labels and programs
5. Consider multilingual terms (German, French, Italian)

Return ONLY a JSON object with this exact format:
{
    "animal": "one of the allowed animal types",
    "label": "one of the allowed labels",
    "confidence": 0.85,
    "reasoning": "Brief explanation of classification"
}`,
		product.Name,
		product.Brands,
		product.Categories,
		ingredients,
		strings.Join(product.Origins, ", "),
		strings.Join(animals, ", "),
		strings.Join(labels, ", "),
	)
}

// ParseOracleResponse extracts the first JSON object from raw oracle output
// and validates it. All four fields must be present; animal and label are
// coerced into their closed sets case-insensitively. Returns (zero, false)
// when no usable result can be extracted.
func ParseOracleResponse(response string) (domain.ClassificationResult, bool) {
	match := jsonObjectRegex.FindString(response)
	if match == "" {
		return domain.ClassificationResult{}, false
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal([]byte(match), &raw); err != nil {
		return domain.ClassificationResult{}, false
	}

	for _, field := range []string{"animal", "label", "confidence", "reasoning"} {
		if _, ok := raw[field]; !ok {
			return domain.ClassificationResult{}, false
		}
	}

	var animal, label, reasoning string
	var confidence float64
	if err := json.Unmarshal(raw["animal"], &animal); err != nil {
		return domain.ClassificationResult{}, false
	}
	if err := json.Unmarshal(raw["label"], &label); err != nil {
		return domain.ClassificationResult{}, false
	}
	if err := json.Unmarshal(raw["confidence"], &confidence); err != nil {
		return domain.ClassificationResult{}, false
	}
	if err := json.Unmarshal(raw["reasoning"], &reasoning); err != nil {
		return domain.ClassificationResult{}, false
	}

	return domain.ClassificationResult{
		Animal:     domain.AnimalKindFrom(animal),
		Label:      domain.LabelFrom(label),
		Confidence: confidence,
		Reasoning:  reasoning,
	}, true
}

// ClassifyStats buckets classification outcomes by confidence for reporting.
type ClassifyStats struct {
	RuleClassified    int `json:"rule_classified"`
	PartialClassified int `json:"partial_classified"`
	Unknown           int `json:"unknown"`
}

// ClassifyAll classifies a batch, producing augmented records and bucket
// counts. Records are independent; order is preserved.
func (c *ProductClassifier) ClassifyAll(ctx context.Context, products []domain.ProductRecord) ([]domain.ClassifiedProduct, ClassifyStats) {
	classified := make([]domain.ClassifiedProduct, 0, len(products))
	var stats ClassifyStats

	for _, product := range products {
		result := c.Classify(ctx, product)

		classified = append(classified, domain.ClassifiedProduct{
			ProductRecord:            product,
			ClassifiedAnimal:         result.Animal,
			ClassifiedLabel:          result.Label,
			ClassificationConfidence: result.Confidence,
			ClassificationReasoning:  result.Reasoning,
		})

		switch {
		case result.Confidence > 0.8:
			stats.RuleClassified++
		case result.Confidence > 0.5:
			stats.PartialClassified++
		default:
			stats.Unknown++
		}
	}

	return classified, stats
}
