package usecase

import (
	"testing"

	"github.com/ethicalmeat/backend/internal/domain"
)

func intPtr(v int) *int { return &v }

func testRatingRows() []domain.RatingRow {
	return []domain.RatingRow{
		{Label: "NATURA-BEEF D", Animal: "Rindfleisch", Tier: domain.TierTop},
		{Label: "OPTIGAL D", Animal: "Poulet", Tier: domain.TierUncool, StepsToGo: intPtr(3)},
		{Label: "DEMETER D", Animal: "Milch", Tier: domain.TierTop},
		{Label: "IP-SUISSE D", Animal: "Schweinefleisch", Tier: domain.TierOK, StepsToGo: intPtr(1)},
		{Label: "QM SCHWEIZER FLEISCH D", Animal: "", Tier: domain.TierNoGo},
	}
}

func TestNewRatingMapper(t *testing.T) {
	m := NewRatingMapper(testRatingRows())

	// empty-animal row is skipped
	if m.Size() != 4 {
		t.Errorf("Size() = %d, want 4", m.Size())
	}
}

func TestNewRatingMapperDuplicateKeys(t *testing.T) {
	rows := append(testRatingRows(),
		domain.RatingRow{Label: "OPTIGAL D", Animal: "Poulet", Tier: domain.TierOK, StepsToGo: intPtr(1)},
	)
	m := NewRatingMapper(rows)

	if m.Size() != 4 {
		t.Errorf("Size() = %d, want 4 after duplicate collapse", m.Size())
	}

	rating, status := m.Resolve("poulet", "OPTIGAL D")
	if status != domain.StatusMapped {
		t.Fatalf("status = %q, want mapped", status)
	}
	if rating.Tier != domain.TierOK {
		t.Errorf("Tier = %q, want OK from the later row", rating.Tier)
	}
}

func TestNormalizeAnimal(t *testing.T) {
	m := NewRatingMapper(testRatingRows())

	cases := []struct {
		in, want string
	}{
		{"rindfleisch", "rindfleisch"},
		{"Rindfleisch", "rindfleisch"},
		{"beef", "rindfleisch"},
		{"pouletfleisch", "poulet"},
		{"chicken", "poulet"},
		{"veal", "kalbfleisch"},
		{"milk", "milch"},
		{"eggs", "eier"},
		{"  Pork  ", "schweinefleisch"},
		{"strauss", "strauss"}, // unrecognized passes through lowercased
		{"", "unknown"},
	}
	for _, tc := range cases {
		if got := m.NormalizeAnimal(tc.in); got != tc.want {
			t.Errorf("NormalizeAnimal(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestNormalizeLabel(t *testing.T) {
	m := NewRatingMapper(testRatingRows())

	t.Run("table label matches case-insensitively", func(t *testing.T) {
		got, ok := m.NormalizeLabel("optigal d")
		if !ok || got != "OPTIGAL D" {
			t.Errorf("NormalizeLabel = %q, %v; want OPTIGAL D, true", got, ok)
		}
	})

	t.Run("variation maps to canonical", func(t *testing.T) {
		for in, want := range map[string]string{
			"natura beef": "NATURA-BEEF D",
			"naturabeef":  "NATURA-BEEF D",
			"knospe":      "BIO SUISSE / BIO KNOSPE D",
			"Bio Suisse":  "BIO SUISSE / BIO KNOSPE D",
			"weide-beef":  "MIGROS WEIDE-BEEF D",
			"ip-suisse":   "IP-SUISSE D",
		} {
			got, ok := m.NormalizeLabel(in)
			if !ok || got != want {
				t.Errorf("NormalizeLabel(%q) = %q, %v; want %q, true", in, got, ok, want)
			}
		}
	})

	t.Run("canonical label outside the loaded table still resolves", func(t *testing.T) {
		got, ok := m.NormalizeLabel("MIGROS BIO WEIDE-BEEF D")
		if !ok || got != "MIGROS BIO WEIDE-BEEF D" {
			t.Errorf("NormalizeLabel = %q, %v; want identity, true", got, ok)
		}
	})

	t.Run("unknown and empty carry no label", func(t *testing.T) {
		if _, ok := m.NormalizeLabel("unknown"); ok {
			t.Error("literal unknown must not normalize")
		}
		if _, ok := m.NormalizeLabel(""); ok {
			t.Error("empty string must not normalize")
		}
		if _, ok := m.NormalizeLabel("Some Random Brand"); ok {
			t.Error("unrecognized label must not normalize")
		}
	})
}

func TestResolve(t *testing.T) {
	m := NewRatingMapper(testRatingRows())

	t.Run("direct hit", func(t *testing.T) {
		rating, status := m.Resolve("rindfleisch", "NATURA-BEEF D")
		if status != domain.StatusMapped {
			t.Fatalf("status = %q, want mapped", status)
		}
		if rating.Tier != domain.TierTop {
			t.Errorf("Tier = %q, want TOP", rating.Tier)
		}
		if rating.StepsToGo != nil {
			t.Errorf("StepsToGo = %v, want nil for TOP", rating.StepsToGo)
		}
	})

	t.Run("both sides normalized before lookup", func(t *testing.T) {
		rating, status := m.Resolve("beef", "natura beef")
		if status != domain.StatusMapped {
			t.Fatalf("status = %q, want mapped via normalization", status)
		}
		if rating.Label != "NATURA-BEEF D" {
			t.Errorf("Label = %q", rating.Label)
		}
	})

	t.Run("steps to go carried through", func(t *testing.T) {
		rating, status := m.Resolve("pork", "IP-SUISSE D")
		if status != domain.StatusMapped {
			t.Fatalf("status = %q, want mapped", status)
		}
		if rating.StepsToGo == nil || *rating.StepsToGo != 1 {
			t.Errorf("StepsToGo = %v, want 1", rating.StepsToGo)
		}
	})

	t.Run("no label", func(t *testing.T) {
		rating, status := m.Resolve("rindfleisch", "unknown")
		if status != domain.StatusNoLabel {
			t.Errorf("status = %q, want no_label", status)
		}
		if rating != nil {
			t.Errorf("rating = %v, want nil", rating)
		}
	})

	t.Run("label known but pair unrated", func(t *testing.T) {
		rating, status := m.Resolve("rindfleisch", "DEMETER D")
		if status != domain.StatusNoRating {
			t.Errorf("status = %q, want no_rating", status)
		}
		if rating != nil {
			t.Errorf("rating = %v, want nil", rating)
		}
	})

	t.Run("unknown animal with known label is unrated", func(t *testing.T) {
		_, status := m.Resolve("unknown", "OPTIGAL D")
		if status != domain.StatusNoRating {
			t.Errorf("status = %q, want no_rating", status)
		}
	})
}

func TestRatingsForLabelAndAnimal(t *testing.T) {
	rows := append(testRatingRows(),
		domain.RatingRow{Label: "NATURA-BEEF D", Animal: "Kalbfleisch", Tier: domain.TierTop},
	)
	m := NewRatingMapper(rows)

	if got := m.RatingsForLabel("natura beef"); len(got) != 2 {
		t.Errorf("RatingsForLabel = %d rows, want 2", len(got))
	}
	if got := m.RatingsForLabel("unknown"); got != nil {
		t.Errorf("RatingsForLabel(unknown) = %v, want nil", got)
	}
	if got := m.RatingsForAnimal("beef"); len(got) != 1 {
		t.Errorf("RatingsForAnimal = %d rows, want 1", len(got))
	}
}

func TestMapAll(t *testing.T) {
	m := NewRatingMapper(testRatingRows())

	products := []domain.ClassifiedProduct{
		{
			ProductRecord:    domain.ProductRecord{Barcode: "1", Name: "Natura-Beef Entrecôte"},
			ClassifiedAnimal: domain.AnimalRindfleisch,
			ClassifiedLabel:  "NATURA-BEEF D",
		},
		{
			ProductRecord:    domain.ProductRecord{Barcode: "2", Name: "Poulet Optigal"},
			ClassifiedAnimal: domain.AnimalPoulet,
			ClassifiedLabel:  "OPTIGAL D",
		},
		{
			ProductRecord:    domain.ProductRecord{Barcode: "3", Name: "Mystery Snack"},
			ClassifiedAnimal: domain.AnimalUnknown,
			ClassifiedLabel:  domain.LabelUnknown,
		},
		{
			ProductRecord:    domain.ProductRecord{Barcode: "4", Name: "Demeter Burger"},
			ClassifiedAnimal: domain.AnimalRindfleisch,
			ClassifiedLabel:  "DEMETER D",
		},
	}

	rated, stats := m.MapAll(products)

	if len(rated) != 4 {
		t.Fatalf("len(rated) = %d, want 4", len(rated))
	}

	if rated[0].EMHMappingStatus != domain.StatusMapped {
		t.Errorf("status[0] = %q, want mapped", rated[0].EMHMappingStatus)
	}
	if rated[0].EMHTier == nil || *rated[0].EMHTier != domain.TierTop {
		t.Errorf("tier[0] = %v, want TOP", rated[0].EMHTier)
	}
	if rated[0].EMHLabel != "NATURA-BEEF D" || rated[0].EMHAnimal != domain.AnimalRindfleisch {
		t.Errorf("emh label/animal[0] = %q/%q", rated[0].EMHLabel, rated[0].EMHAnimal)
	}

	if rated[1].EMHStepsToGo == nil || *rated[1].EMHStepsToGo != 3 {
		t.Errorf("steps[1] = %v, want 3", rated[1].EMHStepsToGo)
	}

	if rated[2].EMHMappingStatus != domain.StatusNoLabel {
		t.Errorf("status[2] = %q, want no_label", rated[2].EMHMappingStatus)
	}
	if rated[2].EMHTier != nil || rated[2].EMHStepsToGo != nil {
		t.Errorf("unmapped record must carry no rating fields: %+v", rated[2])
	}

	if rated[3].EMHMappingStatus != domain.StatusNoRating {
		t.Errorf("status[3] = %q, want no_rating", rated[3].EMHMappingStatus)
	}

	if stats.Mapped != 2 || stats.NoLabel != 1 || stats.NoRating != 1 {
		t.Errorf("stats = %+v, want 2 mapped / 1 no_label / 1 no_rating", stats)
	}
	if stats.ByTier[domain.TierTop] != 1 || stats.ByTier[domain.TierUncool] != 1 {
		t.Errorf("ByTier = %v", stats.ByTier)
	}
	if stats.MissedKeys["demeter d/rindfleisch"] != 1 {
		t.Errorf("MissedKeys = %v, want demeter d/rindfleisch recorded", stats.MissedKeys)
	}

	// upstream fields preserved on the augmented copy
	if rated[0].Barcode != "1" || rated[0].ClassifiedLabel != "NATURA-BEEF D" {
		t.Errorf("record fields not preserved: %+v", rated[0])
	}
}

func TestTableStats(t *testing.T) {
	m := NewRatingMapper(testRatingRows())
	stats := m.Stats()

	if stats.TotalRatings != 4 {
		t.Errorf("TotalRatings = %d, want 4", stats.TotalRatings)
	}
	if stats.UniqueLabels != 4 {
		t.Errorf("UniqueLabels = %d, want 4", stats.UniqueLabels)
	}
	if stats.UniqueAnimals != 4 {
		t.Errorf("UniqueAnimals = %d, want 4", stats.UniqueAnimals)
	}
	if stats.ByTier[domain.TierTop] != 2 {
		t.Errorf("ByTier[TOP] = %d, want 2", stats.ByTier[domain.TierTop])
	}
}
