package llm

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Prompt-side truncation caps: the model sees representative slices, never
// whole keyword universes or full page dumps.
const (
	maxPromptKeywords = 15
	maxSiteContext    = 1000
	maxSiteText       = 3000
)

// MarketerPersona primes the ad-copy generation calls.
const MarketerPersona = `You are a Senior Internet Marketer with 10 years of experience in Yandex Direct.
Your goal is to create high-converting ad copies (RSYA/Search) based on keyword clusters.
You strictly follow character limits:
- Headline 1: Max 56 chars
- Headline 2: Max 30 chars
- Text: Max 81 chars
- Path (on link): Max 20 chars

Tone: Professional, persuasive, action-oriented.`

// SEOPersona primes the clustering calls.
const SEOPersona = `You are a helpful SEO assistant. Output valid JSON only.`

// PPCPersona primes the seed-suggestion calls.
const PPCPersona = `You are a PPC specialist. Output valid JSON only.`

// BuildAdsPrompt asks for count ad variants for one keyword cluster. The
// keyword list is capped and the site context bounded to respect model
// context limits.
func BuildAdsPrompt(clusterName string, keywords []string, count int, siteContext string) string {
	if len(keywords) > maxPromptKeywords {
		keywords = keywords[:maxPromptKeywords]
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Context: Creating Yandex Direct ads for the following keyword cluster:\n")
	fmt.Fprintf(&b, "Cluster Theme: %s\n", clusterName)
	fmt.Fprintf(&b, "Keywords: %s (and more)\n", strings.Join(keywords, ", "))

	if siteContext != "" {
		if len(siteContext) > maxSiteContext {
			siteContext = siteContext[:maxSiteContext]
		}
		fmt.Fprintf(&b, "\nUse the following website context for unique selling propositions (prices, benefits):\n%s\n", siteContext)
	}

	fmt.Fprintf(&b, "\nTask: Write %d distinct ad variations in Russian.\n", count)
	b.WriteString(`
Output JSON format (MUST be a JSON object with key "ads"):
{
  "ads": [
    {
      "headline_1": "...",
      "headline_2": "...",
      "text": "...",
      "path": "..."
    }
  ]
}`)
	return b.String()
}

// BuildSeedPrompt asks for 3-5 broad seed keywords for a landing page.
func BuildSeedPrompt(siteText string) string {
	if len(siteText) > maxSiteText {
		siteText = siteText[:maxSiteText]
	}

	return fmt.Sprintf(`Analyze the following text from a landing page and suggest 3-5 broad, high-frequency seed keywords (masks) in Russian for Yandex Wordstat parsing.
The keywords should be general enough to collect a semantic core (e.g. 'пластиковые окна', 'ремонт квартир').

Text:
%s

Output JSON format:
{ "phrases": ["keyword1", "keyword2", "keyword3"] }`, siteText)
}

// BuildClusterPrompt asks the model to partition keywords into named groups.
func BuildClusterPrompt(keywords []string, clusterHint int) string {
	encoded, _ := json.Marshal(keywords)

	return fmt.Sprintf(`Cluster the following list of Russian keywords into roughly %d logical groups based on user intent and semantics.
Give each group a clear, short descriptive name in Russian.
Every keyword from the input MUST appear in exactly one group.

Keywords:
%s

Output JSON format: a single object where keys are group names and values are lists of keywords.
Example: { "Купить окна": ["купить окно", "цена окон"], "Ремонт": ["ремонт окон"] }`, clusterHint, encoded)
}
