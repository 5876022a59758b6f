package wordstat

import (
	"context"
	"log"

	"semantist/internal/config"
	"semantist/internal/models"
)

// seedShows is the canonical score assigned to a seed phrase itself.
const seedShows = 10000

// defaultSuffixes is the built-in expansion table, overridable via
// semantist.yaml.
var defaultSuffixes = []config.MockSuffix{
	{Suffix: "купить", Shows: 5000},
	{Suffix: "цена", Shows: 3000},
	{Suffix: "отзывы", Shows: 1500},
	{Suffix: "москва", Shows: 2000},
	{Suffix: "недорого", Shows: 1000},
	{Suffix: "интернет магазин", Shows: 2500},
	{Suffix: "каталог", Shows: 1200},
	{Suffix: "заказать", Shows: 800},
	{Suffix: "стоимость", Shows: 700},
	{Suffix: "с доставкой", Shows: 600},
}

// MockSource is the deterministic stand-in for the report service, used when
// the real service cannot authenticate or errors out. Same output contract as
// the Collector. The engine always tells the user when mock data is in play;
// it is never substituted silently.
type MockSource struct {
	suffixes []config.MockSuffix
}

// NewMockSource creates a mock source, honoring suffix-table overrides.
func NewMockSource(overrides *config.Overrides) *MockSource {
	suffixes := defaultSuffixes
	if overrides != nil && len(overrides.MockSuffixes) > 0 {
		suffixes = overrides.MockSuffixes
	}
	return &MockSource{suffixes: suffixes}
}

// CollectSemantics expands each seed into the seed itself plus one variation
// per suffix template, each with its fixed canonical score.
func (m *MockSource) CollectSemantics(ctx context.Context, seeds []string) ([]models.PhraseStat, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	log.Printf("🔄 [WORDSTAT-MOCK] Generating mock semantics for %d seed(s)", len(seeds))

	var results []models.PhraseStat
	for _, seed := range seeds {
		for _, s := range m.suffixes {
			results = append(results, models.PhraseStat{Phrase: seed + " " + s.Suffix, Shows: s.Shows})
		}
		results = append(results, models.PhraseStat{Phrase: seed, Shows: seedShows})
	}
	return results, nil
}
