package usecase

import "regexp"

// Rule pairs a compiled pattern with the tag it assigns when the pattern
// matches. Rules are evaluated in caller-supplied order with early exit, so
// more specific patterns must come before the generic ones they overlap with
// (e.g. "kalbfleisch" before the bare "rind" alternation). The ordering is a
// correctness invariant owned by the rule list, not the engine.
type Rule struct {
	Pattern *regexp.Regexp
	Tag     string

	// VetoSuffix, when set, cancels a pattern occurrence that it matches
	// immediately after. The rule still fires if any occurrence of the
	// pattern is not followed by the veto suffix. RE2 has no lookahead, so
	// "milk but not milk chocolate" is expressed this way.
	VetoSuffix *regexp.Regexp
}

func rule(pattern, tag string) Rule {
	return Rule{Pattern: regexp.MustCompile(`(?i)` + pattern), Tag: tag}
}

func ruleVeto(pattern, veto, tag string) Rule {
	return Rule{
		Pattern:    regexp.MustCompile(`(?i)` + pattern),
		VetoSuffix: regexp.MustCompile(`(?i)` + veto),
		Tag:        tag,
	}
}

// FirstMatch applies rules in order against text and returns the tag of the
// first rule that matches, stopping at the first hit.
func FirstMatch(rules []Rule, text string) (string, bool) {
	for _, r := range rules {
		if r.matches(text) {
			return r.Tag, true
		}
	}
	return "", false
}

func (r Rule) matches(text string) bool {
	if r.VetoSuffix == nil {
		return r.Pattern.MatchString(text)
	}
	for _, loc := range r.Pattern.FindAllStringIndex(text, -1) {
		if !r.VetoSuffix.MatchString(text[loc[1]:]) {
			return true
		}
	}
	return false
}

// AnimalRules maps multilingual animal terms to the canonical animal
// categories. "kalb" alone never fires on "kalbfleisch": RE2's \b sees no
// word boundary between "kalb" and "fleisch", and the compound rule comes
// first anyway.
var AnimalRules = []Rule{
	rule(`\bkalbfleisch\b`, "kalbfleisch"),
	rule(`\bkalb\b`, "kalbfleisch"),
	rule(`\b(veal|veau|vitello)\b`, "kalbfleisch"),
	rule(`\brindfleisch\b`, "rindfleisch"),
	rule(`\b(rind|beef|boeuf|manzo)\b`, "rindfleisch"),
	rule(`\bschweinefleisch\b`, "schweinefleisch"),
	rule(`\b(schwein|pork|porc|maiale)\b`, "schweinefleisch"),
	rule(`\b(poulet|huhn|chicken|pollo|hähnchen)\b`, "poulet"),
	rule(`\b(eier|eggs|oeufs|uova)\b`, "eier"),
	rule(`\bmilch\b`, "milch"),
	ruleVeto(`\b(milk|lait|latte)\b`, `^\s*chocolate\b`, "milch"),
}

// LabelRules maps program names and their spelling variants to the canonical
// welfare label identifiers. Compound terms ("bio knospe", "nature suisse
// bio") are single patterns so their parts cannot fire independently.
var LabelRules = []Rule{
	rule(`\bnaturaplan\b`, "COOP NATURAPLAN D"),
	rule(`\bnatura[- ]?plan\b`, "COOP NATURAPLAN D"),
	rule(`\bnaturafarm\b`, "COOP NATURAFARM D"),
	rule(`\bnatura[- ]?farm\b`, "COOP NATURAFARM D"),
	rule(`\bnature suisse bio\b`, "NATURE SUISSE BIO D"),
	rule(`\bnature suisse\b`, "NATURE SUISSE D"),
	rule(`\bnatura[- ]?beef\b`, "NATURA-BEEF D"),
	rule(`\bnatura[- ]?veal\b`, "NATURA-VEAL DE"),
	rule(`\b(bio suisse|bio knospe|knospe)\b`, "BIO SUISSE / BIO KNOSPE D"),
	rule(`\bmigros.*bio.*weide[- ]?beef\b`, "MIGROS BIO WEIDE-BEEF D"),
	rule(`\bmigros.*weide[- ]?beef\b`, "MIGROS WEIDE-BEEF D"),
	rule(`\bmigros.*bio.*schweiz`, "MIGROS BIO MIT SCHWEIZERKREUZ D"),
	rule(`\bip[- ]?suisse\b`, "IP-SUISSE D"),
	rule(`\bsuisse\s*garantie\b`, "SUISSE GARANTIE D"),
	rule(`\bagri\s*natura\b`, "AGRI NATURA D"),
	rule(`\bdemeter\b`, "DEMETER D"),
	rule(`\bkag\s*freiland\b`, "KAGfreiland D"),
	rule(`\boptigal\b`, "OPTIGAL D"),
	rule(`\bsilvestri.*bio.*weiderind\b`, "SILVESTRI BIO-WEIDERIND D"),
	rule(`\bsilvestri.*weiderind\b`, "SILVESTRI WEIDERIND D"),
	rule(`\bsilvestri.*freiland\b`, "SILVESTRI FREILANDSCHWEIN D"),
	rule(`\bsilvestri.*alpschwein\b`, "SILVESTRI ALPSCHWEIN D"),
}
