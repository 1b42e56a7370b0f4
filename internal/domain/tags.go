package domain

import "strings"

// AnimalKind is one of the canonical animal categories used by the welfare
// rating data, plus the explicit "unknown" fallback.
type AnimalKind string

const (
	AnimalEier           AnimalKind = "eier"
	AnimalKalbfleisch    AnimalKind = "kalbfleisch"
	AnimalMilch          AnimalKind = "milch"
	AnimalPoulet         AnimalKind = "poulet"
	AnimalRindfleisch    AnimalKind = "rindfleisch"
	AnimalSchweinefleisch AnimalKind = "schweinefleisch"
	AnimalUnknown        AnimalKind = "unknown"
)

// AllowedAnimals is the closed set of animal categories.
var AllowedAnimals = []AnimalKind{
	AnimalEier, AnimalKalbfleisch, AnimalMilch,
	AnimalPoulet, AnimalRindfleisch, AnimalSchweinefleisch,
	AnimalUnknown,
}

var animalIndex = func() map[string]AnimalKind {
	m := make(map[string]AnimalKind, len(AllowedAnimals))
	for _, a := range AllowedAnimals {
		m[string(a)] = a
	}
	return m
}()

// AnimalKindFrom coerces a raw string into the closed animal set.
// Any value outside the set becomes AnimalUnknown; it never fails.
func AnimalKindFrom(s string) AnimalKind {
	if a, ok := animalIndex[strings.ToLower(strings.TrimSpace(s))]; ok {
		return a
	}
	return AnimalUnknown
}

// Label is one of the canonical welfare program identifiers, plus "unknown".
// Canonical labels keep the source casing (e.g. "NATURA-BEEF D").
type Label string

// LabelUnknown is the fallback when no program could be identified.
const LabelUnknown Label = "unknown"

// AllowedLabels is the closed set of welfare program identifiers.
var AllowedLabels = []Label{
	"AGRI NATURA D", "BIO NATUR PLUS D", "BIO ORGANIC MIT SCHWEIZER KREUZ D",
	"BIO SUISSE / BIO KNOSPE D", "BÜNDNER PUURACHALB D", "COOP NATURAFARM D",
	"COOP NATURAPLAN D", "Coop Milchprogramm D", "Cowpassion D", "DEMETER D",
	"Die Faire Milch", "Fairmilk Aldi  D", "Heidimilch D", "Heumilch D",
	"IP-SUISSE D", "KAGfreiland D", "KRÄUTERSCHWEIN D",
	"MIGROS BIO MIT SCHWEIZERKREUZ D", "MIGROS BIO OHNE SCHWEIZERKREUZ D",
	"MIGROS BIO WEIDE-BEEF D", "MIGROS WEIDE-BEEF D", "Migros nachhaltige Milch D",
	"Milch Grüner Teppich D", "NATURA-BEEF D", "NATURA-VEAL DE",
	"NATURE SUISSE BIO D", "NATURE SUISSE D", "OPTIGAL D", "Pro Montagna D",
	"Retour aux sources D", "SILVESTRI ALPSCHWEIN D", "SILVESTRI BIO-WEIDERIND D",
	"SILVESTRI FREILANDSCHWEIN D", "SILVESTRI WEIDERIND D", "SUISSE GARANTIE D",
	"SWISS BLACK ANGUS D",
	LabelUnknown,
}

var labelIndex = func() map[string]Label {
	m := make(map[string]Label, len(AllowedLabels))
	for _, l := range AllowedLabels {
		m[strings.ToLower(string(l))] = l
	}
	return m
}()

// LabelFrom coerces a raw string into the closed label set. Matching is
// case-insensitive; the canonical casing is returned. Any value outside the
// set becomes LabelUnknown; it never fails.
func LabelFrom(s string) Label {
	if l, ok := labelIndex[strings.ToLower(strings.TrimSpace(s))]; ok {
		return l
	}
	return LabelUnknown
}

// Tier is the coarse welfare rating for a (label, animal) pair.
type Tier string

const (
	TierTop    Tier = "TOP"
	TierOK     Tier = "OK"
	TierUncool Tier = "UNCOOL"
	TierNoGo   Tier = "NO GO"
)

// AllTiers lists tiers from best to worst.
var AllTiers = []Tier{TierTop, TierOK, TierUncool, TierNoGo}

// MappingStatus is the terminal state of a product's rating resolution.
type MappingStatus string

const (
	// StatusMapped means the (label, animal) pair resolved to a rating.
	StatusMapped MappingStatus = "mapped"
	// StatusNoLabel means no welfare program could be identified.
	StatusNoLabel MappingStatus = "no_label"
	// StatusNoRating means a label was identified but the rating table has
	// no entry for the (label, animal) pair.
	StatusNoRating MappingStatus = "no_rating"
)
