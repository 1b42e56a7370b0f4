package usecase

import (
	"regexp"
	"strings"

	"github.com/ethicalmeat/backend/internal/domain"
)

// Multilingual meat category keywords (DE/FR/IT/EN).
var meatCategoryTerms = []string{
	// German
	"fleisch", "rindfleisch", "schweinefleisch", "kalbfleisch", "lammfleisch",
	"geflügel", "poulet", "huhn", "ente", "gans", "truthahn", "pute",
	"wurst", "wurstware", "aufschnitt", "speck", "schinken",
	"hackfleisch", "gehacktes", "bratwurst", "leberwurst",
	// French
	"viande", "boeuf", "porc", "veau", "agneau", "mouton",
	"volaille", "canard", "oie", "dinde", "dindon",
	"charcuterie", "jambon", "saucisse", "saucisson", "pâté",
	"bacon", "lard", "rôti", "escalope", "côtelette",
	// Italian
	"carne", "manzo", "maiale", "vitello", "agnello", "montone",
	"pollame", "pollo", "anatra", "oca", "tacchino",
	"salumi", "prosciutto", "salame", "salsiccia", "pancetta",
	"braciola", "scaloppina", "bistecca",
	// English
	"meat", "beef", "pork", "veal", "lamb", "mutton",
	"poultry", "chicken", "duck", "goose", "turkey",
	"sausage", "ham", "salami", "pepperoni",
	"steak", "chops", "ground", "minced",
}

// Ingredient keywords for meat detection, including fish/seafood and
// processed meats.
var meatIngredientTerms = []string{
	// Specific animals
	"rind", "schwein", "kalb", "lamm", "ziege", "kaninchen",
	"hirsch", "reh", "wildschwein", "bison",
	"boeuf", "porc", "veau", "agneau", "chèvre", "lapin",
	"cerf", "chevreuil", "sanglier",
	"manzo", "maiale", "vitello", "agnello", "capra", "coniglio",
	"cervo", "capriolo", "cinghiale",
	"beef", "pork", "veal", "lamb", "goat", "rabbit",
	"venison", "deer", "boar",
	// Poultry
	"huhn", "hähnchen", "hühnchen", "ente", "gans", "truthahn", "pute",
	"poulet", "canard", "oie", "dinde", "dindon", "caille",
	"pollo", "anatra", "oca", "tacchino", "quaglia",
	"chicken", "duck", "goose", "turkey", "quail", "fowl",
	// Fish and seafood
	"fisch", "lachs", "forelle", "thunfisch", "kabeljau", "hecht",
	"garnele", "krabbe", "hummer", "muschel", "tintenfisch",
	"poisson", "saumon", "truite", "thon", "cabillaud", "brochet",
	"crevette", "crabe", "homard", "moule", "calmar",
	"pesce", "salmone", "trota", "tonno", "merluzzo", "luccio",
	"gambero", "granchio", "aragosta", "cozza", "calamaro",
	"fish", "salmon", "trout", "tuna", "cod", "pike",
	"shrimp", "prawn", "crab", "lobster", "mussel", "squid", "octopus",
	// Processed meats
	"wurst", "schinken", "speck", "leberwurst", "blutwurst",
	"saucisse", "jambon", "lard", "boudin", "pâté", "rillettes",
	"salsiccia", "prosciutto", "pancetta", "mortadella", "salame",
	"sausage", "ham", "bacon", "salami", "pepperoni", "chorizo",
}

// Vegetarian/vegan exclusion terms. Exclusion always wins over any positive
// meat signal.
var exclusionTerms = []string{
	"vegetarisch", "vegan", "pflanzlich", "tofu", "seitan",
	"végétarien", "végétalien", "végétal", "soja",
	"vegetariano", "vegano", "vegetale", "soia",
	"vegetarian", "plant-based", "soy", "soya",
}

// compileWordSet builds a single case-insensitive alternation over terms with
// Unicode-aware word boundaries. RE2's \b is ASCII-only, which breaks on
// terms ending in accented letters ("pâté", "rôti"), so boundaries are
// expressed as non-letter/non-digit context instead.
func compileWordSet(terms []string) *regexp.Regexp {
	quoted := make([]string, len(terms))
	for i, t := range terms {
		quoted[i] = regexp.QuoteMeta(t)
	}
	pattern := `(?i)(?:\A|[^\p{L}\p{N}])(?:` + strings.Join(quoted, "|") + `)(?:[^\p{L}\p{N}]|\z)`
	return regexp.MustCompile(pattern)
}

// MeatFilter decides whether a product record is meat-derived.
type MeatFilter struct {
	categoryPattern   *regexp.Regexp
	ingredientPattern *regexp.Regexp
	exclusionPattern  *regexp.Regexp
}

// NewMeatFilter compiles the keyword sets into matchers once.
func NewMeatFilter() *MeatFilter {
	return &MeatFilter{
		categoryPattern:   compileWordSet(meatCategoryTerms),
		ingredientPattern: compileWordSet(meatIngredientTerms),
		exclusionPattern:  compileWordSet(exclusionTerms),
	}
}

// IsMeat reports whether the product appears to be meat-based. The checks
// form a precedence chain: exclusion terms dominate every positive signal,
// then categories, ingredients, and finally the product name.
func (f *MeatFilter) IsMeat(product domain.ProductRecord) bool {
	if f.hasExclusions(product) {
		return false
	}
	if f.hasMeatCategories(product) {
		return true
	}
	if f.hasMeatIngredients(product) {
		return true
	}
	return f.hasMeatInName(product)
}

func (f *MeatFilter) hasExclusions(product domain.ProductRecord) bool {
	text := product.Name + " " + product.IngredientsText
	return f.exclusionPattern.MatchString(text)
}

func (f *MeatFilter) hasMeatCategories(product domain.ProductRecord) bool {
	if product.Categories == "" {
		return false
	}
	return f.categoryPattern.MatchString(product.Categories)
}

func (f *MeatFilter) hasMeatIngredients(product domain.ProductRecord) bool {
	if product.IngredientsText == "" {
		return false
	}
	return f.ingredientPattern.MatchString(product.IngredientsText)
}

func (f *MeatFilter) hasMeatInName(product domain.ProductRecord) bool {
	if product.Name == "" {
		return false
	}
	return f.categoryPattern.MatchString(product.Name) || f.ingredientPattern.MatchString(product.Name)
}

// FilterMeat returns only the meat products from the input batch.
func (f *MeatFilter) FilterMeat(products []domain.ProductRecord) []domain.ProductRecord {
	var meat []domain.ProductRecord
	for _, p := range products {
		if f.IsMeat(p) {
			meat = append(meat, p)
		}
	}
	return meat
}

// FilterStats reports how the filter decided across a batch. Diagnostic only:
// the per-signal counts overlap because a product can match on several axes.
type FilterStats struct {
	Total        int `json:"total"`
	Meat         int `json:"meat"`
	Excluded     int `json:"excluded"`
	ByCategory   int `json:"by_category"`
	ByIngredient int `json:"by_ingredient"`
	ByName       int `json:"by_name"`
}

// Stats computes filter statistics over a batch without filtering it.
func (f *MeatFilter) Stats(products []domain.ProductRecord) FilterStats {
	stats := FilterStats{Total: len(products)}

	for _, p := range products {
		if f.hasExclusions(p) {
			stats.Excluded++
			continue
		}

		isMeat := false
		if f.hasMeatCategories(p) {
			stats.ByCategory++
			isMeat = true
		}
		if f.hasMeatIngredients(p) {
			stats.ByIngredient++
			isMeat = true
		}
		if f.hasMeatInName(p) {
			stats.ByName++
			isMeat = true
		}
		if isMeat {
			stats.Meat++
		}
	}

	return stats
}
