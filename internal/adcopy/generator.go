// Package adcopy turns keyword clusters into ready-to-export ad variants.
package adcopy

import (
	"context"
	"log"

	"semantist/internal/llm"
	"semantist/internal/models"
)

// defaultAdsPerCluster is how many variants are requested per cluster.
const defaultAdsPerCluster = 3

// Completer is the slice of the LLM client ad generation needs.
type Completer interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// Generator produces ad copy for keyword clusters. One LLM call per cluster,
// single attempt, no retries: a cluster that fails simply yields no ads and
// the engine drops it from the bundle.
type Generator struct {
	llm   Completer
	count int
}

// NewGenerator creates an ad-copy generator requesting the default number of
// variants per cluster.
func NewGenerator(completer Completer) *Generator {
	return &Generator{llm: completer, count: defaultAdsPerCluster}
}

// Generate produces ad variants for one cluster. siteContext, when present,
// feeds unique selling points into the prompt. Returns an empty slice on any
// backend or contract failure; cancellation is the only propagated error.
func (g *Generator) Generate(ctx context.Context, cluster models.Cluster, siteContext string) ([]models.AdCopy, error) {
	if len(cluster.Phrases) == 0 {
		return nil, nil
	}

	log.Printf("✍️ [ADCOPY] Generating %d ad(s) for cluster %q (%d keywords)", g.count, cluster.Name, len(cluster.Phrases))

	prompt := llm.BuildAdsPrompt(cluster.Name, cluster.Phrases, g.count, siteContext)
	content, err := g.llm.Complete(ctx, llm.MarketerPersona, prompt)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		log.Printf("⚠️ [ADCOPY] Generation failed for cluster %q: %v", cluster.Name, err)
		return nil, nil
	}

	ads := llm.ParseAds(content)
	if len(ads) == 0 {
		log.Printf("⚠️ [ADCOPY] No usable ads for cluster %q", cluster.Name)
		return nil, nil
	}

	log.Printf("✅ [ADCOPY] Got %d ad(s) for cluster %q", len(ads), cluster.Name)
	return ads, nil
}
