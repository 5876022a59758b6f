// Package cluster partitions a flat keyword set into named semantic groups.
// The backend is the generation capability; whatever it returns is repaired
// into a strict partition before anything downstream sees it.
package cluster

import (
	"context"
	"fmt"
	"log"
	"sort"

	"semantist/internal/llm"
	"semantist/internal/models"
)

// defaultClusterCount is the target group count when the caller gives no hint.
const defaultClusterCount = 5

// fallbackClusterName holds everything when clustering degrades, and catches
// phrases the model dropped.
const fallbackClusterName = "Общая группа"

// Completer is the slice of the LLM client clustering needs.
type Completer interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// Clusterer partitions phrases into named clusters. Implementations must
// return a true partition: every input phrase in exactly one cluster.
type Clusterer interface {
	Cluster(ctx context.Context, phrases []string, kHint int) ([]models.Cluster, error)
}

// LLMClusterer clusters via the generation capability.
type LLMClusterer struct {
	llm Completer
}

// NewLLMClusterer creates the canonical clustering backend.
func NewLLMClusterer(completer Completer) *LLMClusterer {
	return &LLMClusterer{llm: completer}
}

// Cluster partitions phrases into at most kHint named groups.
//
// Clustering failure is never fatal for the pipeline: any backend problem
// collapses all phrases into the single fallback cluster. The only hard error
// is empty input, for which not even the degenerate mapping exists.
func (c *LLMClusterer) Cluster(ctx context.Context, phrases []string, kHint int) ([]models.Cluster, error) {
	phrases = dedupe(phrases)
	if len(phrases) == 0 {
		return nil, fmt.Errorf("no phrases to cluster")
	}

	k := kHint
	if k <= 0 {
		k = defaultClusterCount
	}
	// More clusters than phrases makes no sense; shrink to half the phrase
	// count, minimum one.
	if len(phrases) < k {
		k = len(phrases) / 2
		if k < 1 {
			k = 1
		}
	}

	log.Printf("🧠 [CLUSTER] Clustering %d phrases into ~%d groups", len(phrases), k)

	content, err := c.llm.Complete(ctx, llm.SEOPersona, llm.BuildClusterPrompt(phrases, k))
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		log.Printf("⚠️ [CLUSTER] Backend failed, falling back to single cluster: %v", err)
		return singleCluster(phrases), nil
	}

	groups := llm.ParseGroups(content)
	if len(groups) == 0 {
		log.Printf("⚠️ [CLUSTER] Backend returned no usable groups, falling back to single cluster")
		return singleCluster(phrases), nil
	}

	clusters := repairPartition(phrases, groups)
	log.Printf("✅ [CLUSTER] Produced %d clusters", len(clusters))
	return clusters, nil
}

// repairPartition turns the model's mapping into a strict partition of the
// input: phrases outside the input are discarded, duplicates keep their first
// assignment, and dropped phrases land in the fallback cluster.
func repairPartition(phrases []string, groups map[string][]string) []models.Cluster {
	inputPos := make(map[string]int, len(phrases))
	for i, p := range phrases {
		inputPos[p] = i
	}

	names := make([]string, 0, len(groups))
	for name := range groups {
		names = append(names, name)
	}
	sort.Strings(names)

	assigned := make(map[string]bool, len(phrases))
	byName := make(map[string]*models.Cluster)
	var ordered []*models.Cluster

	for _, name := range names {
		for _, phrase := range groups[name] {
			if _, ok := inputPos[phrase]; !ok || assigned[phrase] {
				continue
			}
			assigned[phrase] = true
			cl := byName[name]
			if cl == nil {
				cl = &models.Cluster{Name: name}
				byName[name] = cl
				ordered = append(ordered, cl)
			}
			cl.Phrases = append(cl.Phrases, phrase)
		}
	}

	var leftovers []string
	for _, p := range phrases {
		if !assigned[p] {
			leftovers = append(leftovers, p)
		}
	}
	if len(leftovers) > 0 {
		log.Printf("⚠️ [CLUSTER] Backend dropped %d phrase(s), moving them to %q", len(leftovers), fallbackClusterName)
		cl := byName[fallbackClusterName]
		if cl == nil {
			cl = &models.Cluster{Name: fallbackClusterName}
			ordered = append(ordered, cl)
		}
		cl.Phrases = append(cl.Phrases, leftovers...)
	}

	// Deterministic output: clusters sorted by the input position of their
	// first phrase.
	sort.SliceStable(ordered, func(i, j int) bool {
		return inputPos[ordered[i].Phrases[0]] < inputPos[ordered[j].Phrases[0]]
	})

	out := make([]models.Cluster, 0, len(ordered))
	for _, cl := range ordered {
		out = append(out, *cl)
	}
	return out
}

func singleCluster(phrases []string) []models.Cluster {
	return []models.Cluster{{Name: fallbackClusterName, Phrases: phrases}}
}

func dedupe(phrases []string) []string {
	seen := make(map[string]bool, len(phrases))
	out := phrases[:0:0]
	for _, p := range phrases {
		if p == "" || seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	return out
}
