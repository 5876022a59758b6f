package llm

import (
	"testing"
)

func TestParseAds(t *testing.T) {
	ads := ParseAds(`{"ads": [{"headline_1": "А", "headline_2": "Б", "text": "В", "path": "g"}]}`)
	if len(ads) != 1 {
		t.Fatalf("Expected 1 ad, got %d", len(ads))
	}
	if ads[0].Headline1 != "А" || ads[0].Headline2 != "Б" || ads[0].Text != "В" || ads[0].Path != "g" {
		t.Errorf("Fields mis-parsed: %+v", ads[0])
	}

	if ads := ParseAds(`not json`); ads != nil {
		t.Errorf("Invalid JSON must yield nil, got %v", ads)
	}
	if ads := ParseAds(`{"items": []}`); ads != nil {
		t.Errorf("Missing ads key must yield nil, got %v", ads)
	}
	if ads := ParseAds(`{"ads": []}`); ads == nil || len(ads) != 0 {
		t.Errorf("Present-but-empty ads key must yield empty slice, got %v", ads)
	}
}

func TestParsePhrases(t *testing.T) {
	phrases := ParsePhrases(`{"phrases": ["пластиковые окна", "ремонт квартир"]}`)
	if len(phrases) != 2 {
		t.Fatalf("Expected 2 phrases, got %d", len(phrases))
	}

	if phrases := ParsePhrases(`{"keywords": ["а"]}`); phrases != nil {
		t.Errorf("Missing phrases key must yield nil, got %v", phrases)
	}
	if phrases := ParsePhrases(`garbage`); phrases != nil {
		t.Errorf("Invalid JSON must yield nil, got %v", phrases)
	}
}

func TestParseGroups(t *testing.T) {
	groups := ParseGroups(`{"Купить": ["купить окна"], "Ремонт": ["ремонт окон", "окна ремонт"]}`)
	if len(groups) != 2 {
		t.Fatalf("Expected 2 groups, got %d", len(groups))
	}
	if len(groups["Ремонт"]) != 2 {
		t.Errorf("Group contents mis-parsed: %v", groups["Ремонт"])
	}

	if groups := ParseGroups(`["а", "б"]`); groups != nil {
		t.Errorf("Non-object shape must yield nil, got %v", groups)
	}
}

func TestStripMarkdownCodeBlock(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  string
	}{
		{"no fence", `{"a": 1}`, `{"a": 1}`},
		{"json fence", "```json\n{\"a\": 1}\n```", `{"a": 1}`},
		{"bare fence", "```\n{\"a\": 1}\n```", `{"a": 1}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := stripMarkdownCodeBlock(tc.input); got != tc.want {
				t.Errorf("Expected %q, got %q", tc.want, got)
			}
		})
	}
}

func TestBuildAdsPrompt_CapsKeywordsAndContext(t *testing.T) {
	keywords := make([]string, 30)
	for i := range keywords {
		keywords[i] = "kw"
	}
	longContext := make([]byte, 5000)
	for i := range longContext {
		longContext[i] = 'x'
	}

	prompt := BuildAdsPrompt("Тема", keywords, 3, string(longContext))
	if len(prompt) > 3000 {
		t.Errorf("Prompt not capped, %d chars", len(prompt))
	}
}
