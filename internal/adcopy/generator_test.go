package adcopy

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"semantist/internal/models"
)

type fakeCompleter struct {
	response   string
	err        error
	lastSystem string
	lastUser   string
}

func (f *fakeCompleter) Complete(ctx context.Context, system, user string) (string, error) {
	f.lastSystem = system
	f.lastUser = user
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

func testCluster() models.Cluster {
	return models.Cluster{Name: "Покупка окон", Phrases: []string{"купить окна", "окна цена"}}
}

func TestGenerate_ParsesAds(t *testing.T) {
	completer := &fakeCompleter{
		response: `{"ads": [{"headline_1": "Окна от производителя", "headline_2": "Скидки до 30%", "text": "Монтаж за 1 день. Гарантия 5 лет.", "path": "okna"}]}`,
	}
	generator := NewGenerator(completer)

	ads, err := generator.Generate(context.Background(), testCluster(), "")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if len(ads) != 1 {
		t.Fatalf("Expected 1 ad, got %d", len(ads))
	}
	if ads[0].Headline1 != "Окна от производителя" {
		t.Errorf("Unexpected headline: %q", ads[0].Headline1)
	}
	if ads[0].Path != "okna" {
		t.Errorf("Unexpected path: %q", ads[0].Path)
	}
}

func TestGenerate_PromptCarriesClusterAndContext(t *testing.T) {
	completer := &fakeCompleter{response: `{"ads": []}`}
	generator := NewGenerator(completer)

	generator.Generate(context.Background(), testCluster(), "Окна REHAU от 12000 руб")

	if !strings.Contains(completer.lastUser, "Покупка окон") {
		t.Error("Prompt must carry the cluster name")
	}
	if !strings.Contains(completer.lastUser, "Окна REHAU от 12000 руб") {
		t.Error("Prompt must carry the site context")
	}
	if !strings.Contains(completer.lastSystem, "Senior Internet Marketer") {
		t.Error("Generation must use the marketer persona")
	}
}

func TestGenerate_MalformedResponseYieldsNoAds(t *testing.T) {
	cases := []struct {
		name     string
		response string
	}{
		{"not JSON", "sorry, I can't do that"},
		{"missing ads key", `{"items": []}`},
		{"wrong top-level shape", `[{"headline_1": "x"}]`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			generator := NewGenerator(&fakeCompleter{response: tc.response})
			ads, err := generator.Generate(context.Background(), testCluster(), "")
			if err != nil {
				t.Fatalf("Malformed output must not error: %v", err)
			}
			if len(ads) != 0 {
				t.Errorf("Expected no ads, got %d", len(ads))
			}
		})
	}
}

func TestGenerate_BackendErrorYieldsNoAds(t *testing.T) {
	generator := NewGenerator(&fakeCompleter{err: fmt.Errorf("model unavailable")})

	ads, err := generator.Generate(context.Background(), testCluster(), "")
	if err != nil {
		t.Fatalf("Backend failure must degrade, not error: %v", err)
	}
	if ads != nil {
		t.Errorf("Expected nil ads, got %v", ads)
	}
}

func TestGenerate_CancelledContextPropagates(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	generator := NewGenerator(&fakeCompleter{err: ctx.Err()})

	if _, err := generator.Generate(ctx, testCluster(), ""); err == nil {
		t.Error("Cancellation must propagate as an error")
	}
}

func TestGenerate_EmptyClusterSkipped(t *testing.T) {
	completer := &fakeCompleter{response: `{"ads": []}`}
	generator := NewGenerator(completer)

	ads, err := generator.Generate(context.Background(), models.Cluster{Name: "Пустая"}, "")
	if err != nil || ads != nil {
		t.Errorf("Empty cluster must yield nothing, got ads=%v err=%v", ads, err)
	}
	if completer.lastUser != "" {
		t.Error("Empty cluster must not reach the backend")
	}
}
