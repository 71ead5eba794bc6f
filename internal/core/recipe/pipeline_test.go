package recipe

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"recipe-parser/internal/core/recipe/dom"
	"recipe-parser/internal/core/recipe/heuristic"
	"recipe-parser/internal/core/sanitizer"
	"recipe-parser/internal/infrastructure/config"
	"recipe-parser/internal/pkg/common"
)

func structuredPage(yield string) string {
	yieldField := ""
	if yield != "" {
		yieldField = fmt.Sprintf(`"recipeYield": %q,`, yield)
	}
	return `<html><head><title>Lemon Chicken | Example</title>
<script type="application/ld+json">{
  "@context": "https://schema.org",
  "@type": "Recipe",
  "name": "Lemon Chicken",
  "author": {"@type": "Person", "name": "Sam Cook"},
  ` + yieldField + `
  "prepTime": "PT15M",
  "cookTime": "PT30M",
  "recipeIngredient": ["4 chicken thighs", "2 tbsp olive oil", "1 lemon, juiced", "3 cloves garlic", "1 tsp dried oregano"],
  "recipeInstructions": [
    {"@type": "HowToStep", "text": "Preheat the oven to 200C."},
    {"@type": "HowToStep", "text": "Whisk the oil, lemon juice, garlic and oregano."},
    {"@type": "HowToStep", "text": "Toss the chicken in the marinade and arrange in a dish."},
    {"@type": "HowToStep", "text": "Bake for 30 minutes until golden."}
  ]
}</script></head><body><h1>Lemon Chicken</h1></body></html>`
}

const semanticPage = `<html><head><title>Pancakes</title></head><body>
<ul><li><a href="/">Home</a></li><li><a href="/recipes">Recipes</a></li><li><a href="/about">About us</a></li></ul>
<ul><li>2 cups flour</li><li>1 tsp salt</li><li>3 tbsp butter</li><li>200 ml milk</li><li>2 eggs</li></ul>
<ul><li>Facebook</li><li>Pinterest</li><li>Email</li></ul>
<ol><li>Whisk the flour and salt together.</li><li>Melt the butter in a pan.</li><li>Pour in the batter and cook until golden.</li><li>Enjoy with friends!</li></ol>
</body></html>`

const noRecipePage = `<html><head><title>About us</title></head><body>
<p>We are a small team writing about travel and food culture.</p></body></html>`

type fakeAI struct {
	configured bool
	draft      *common.Draft
	err        error
	htmlCalls  int
	imageCalls int
	lastImage  string
}

func (f *fakeAI) Configured() bool { return f.configured }

func (f *fakeAI) FromHTML(ctx context.Context, cleanedHTML string) (*common.Draft, error) {
	f.htmlCalls++
	return f.draft, f.err
}

func (f *fakeAI) FromImage(ctx context.Context, imageDataURI string) (*common.Draft, error) {
	f.imageCalls++
	f.lastImage = imageDataURI
	return f.draft, f.err
}

func aiDraft(servings int, groups ...common.IngredientGroup) *common.Draft {
	return &common.Draft{
		Title:       "Lemon Chicken",
		Summary:     "Bright roast chicken. Serve with rice.",
		Servings:    servings,
		Ingredients: groups,
		Instructions: []common.RawStep{
			common.ObjectStep(map[string]interface{}{"title": "Heat oven", "detail": "Preheat the oven."}),
			common.ObjectStep(map[string]interface{}{"title": "Marinade", "detail": "Whisk the marinade."}),
			common.ObjectStep(map[string]interface{}{"title": "Coat", "detail": "Coat the chicken."}),
			common.ObjectStep(map[string]interface{}{"title": "Bake", "detail": "Bake the chicken."}),
		},
		Cuisine:      []string{"Greek"},
		StorageGuide: "Refrigerate in a covered container.",
		ServingTemp:  "hot",
	}
}

func twoGroups() []common.IngredientGroup {
	return []common.IngredientGroup{
		{GroupName: "Marinade", Ingredients: []common.Ingredient{
			{Amount: "2", Units: "tbsp", Name: "olive oil", Description: "carries the lemon flavor"},
			{Amount: "1", Units: "whole", Name: "lemon"},
			{Amount: "3", Units: "cloves", Name: "garlic"},
			{Amount: "1", Units: "tsp", Name: "dried oregano"},
		}},
		{GroupName: "Main", Ingredients: []common.Ingredient{
			{Amount: "4", Units: "whole", Name: "chicken thighs"},
		}},
	}
}

func newTestPipeline(ai AIExtractor) *Pipeline {
	return NewPipeline(sanitizer.New(), heuristic.NewChain(), ai, nil, nil)
}

func TestStructuredOnlyWithoutAI(t *testing.T) {
	out := newTestPipeline(&fakeAI{}).ParseFromHTML(context.Background(), structuredPage(""))
	if !out.Success {
		t.Fatalf("expected success, got %s: %s", out.ErrorKind, out.Error)
	}
	if out.ExtractionMethod != common.MethodStructuredOnly {
		t.Errorf("method = %s", out.ExtractionMethod)
	}
	if out.Stage != StageStructured {
		t.Errorf("stage = %s", out.Stage)
	}
	if len(out.Warnings) != 1 || !strings.Contains(out.Warnings[0], "not configured") {
		t.Errorf("warnings = %v", out.Warnings)
	}
	if len(out.Recipe.Ingredients) != 1 || len(out.Recipe.Ingredients[0].Ingredients) != 5 {
		t.Errorf("ingredients = %+v", out.Recipe.Ingredients)
	}
	if len(out.Recipe.Instructions) != 4 {
		t.Errorf("instructions = %d", len(out.Recipe.Instructions))
	}
	if out.Recipe.Cuisine != nil || out.Recipe.StorageGuide != "" {
		t.Error("AI-only fields present without AI")
	}
}

func TestServingsPrecedence(t *testing.T) {
	tests := []struct {
		name  string
		yield string
		want  int
	}{
		{"structured wins", "4 servings", 4},
		{"ai fills gap", "", 6},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ai := &fakeAI{configured: true, draft: aiDraft(6, twoGroups()...)}
			out := newTestPipeline(ai).ParseFromHTML(context.Background(), structuredPage(tt.yield))
			if !out.Success {
				t.Fatalf("expected success, got %s", out.ErrorKind)
			}
			if out.Recipe.Servings != tt.want {
				t.Errorf("servings = %d, want %d", out.Recipe.Servings, tt.want)
			}
			if out.Recipe.PrepTimeMinutes != 15 || out.Recipe.CookTimeMinutes != 30 {
				t.Errorf("times = %d/%d", out.Recipe.PrepTimeMinutes, out.Recipe.CookTimeMinutes)
			}
		})
	}
}

func TestEnrichmentMerge(t *testing.T) {
	ai := &fakeAI{configured: true, draft: aiDraft(0, twoGroups()...)}
	out := newTestPipeline(ai).ParseFromHTML(context.Background(), structuredPage("4"))
	if !out.Success {
		t.Fatalf("expected success, got %s", out.ErrorKind)
	}
	if out.ExtractionMethod != common.MethodStructuredAI {
		t.Errorf("method = %s", out.ExtractionMethod)
	}
	if ai.htmlCalls != 1 {
		t.Errorf("AI calls = %d, want 1", ai.htmlCalls)
	}

	r := out.Recipe
	if len(r.Ingredients) != 2 || r.Ingredients[0].GroupName != "Marinade" {
		t.Errorf("expected AI grouping, got %+v", r.Ingredients)
	}
	if len(r.Cuisine) != 1 || r.Cuisine[0] != "Greek" {
		t.Errorf("cuisine = %v", r.Cuisine)
	}
	if r.StorageGuide == "" || r.ServingTemp != "hot" {
		t.Error("AI-only fields missing")
	}
	if r.Author != "Sam Cook" {
		t.Errorf("author = %q", r.Author)
	}
	// 結構化步驟內文保留，標題來自 AI
	if r.Instructions[0].Detail != "Preheat the oven to 200C." || r.Instructions[0].Title != "Heat oven" {
		t.Errorf("step 1 = %+v", r.Instructions[0])
	}
}

func TestEnrichmentKeepsStructuredGroupWhenAIGenericGroup(t *testing.T) {
	single := []common.IngredientGroup{{GroupName: "Ingredients", Ingredients: []common.Ingredient{
		{Amount: "2", Units: "tbsp", Name: "olive oil", Description: "fruity", Substitutions: []string{"avocado oil"}},
	}}}
	ai := &fakeAI{configured: true, draft: aiDraft(0, single...)}
	out := newTestPipeline(ai).ParseFromHTML(context.Background(), structuredPage(""))
	if !out.Success {
		t.Fatalf("expected success, got %s", out.ErrorKind)
	}

	groups := out.Recipe.Ingredients
	if len(groups) != 1 || len(groups[0].Ingredients) != 5 {
		t.Fatalf("expected the structured group, got %+v", groups)
	}
	oil := groups[0].Ingredients[1]
	if oil.Name != "olive oil" || oil.Description != "fruity" || len(oil.Substitutions) != 1 {
		t.Errorf("olive oil not annotated: %+v", oil)
	}
}

func TestEnrichmentFailureFallsBackToStructured(t *testing.T) {
	ai := &fakeAI{configured: true, err: common.NewRateLimitedError(time.Now().Add(time.Minute), nil)}
	out := newTestPipeline(ai).ParseFromHTML(context.Background(), structuredPage(""))
	if !out.Success {
		t.Fatalf("expected success, got %s", out.ErrorKind)
	}
	if out.ExtractionMethod != common.MethodStructuredOnly {
		t.Errorf("method = %s", out.ExtractionMethod)
	}
	if len(out.Warnings) != 1 || !strings.Contains(out.Warnings[0], common.ErrCodeRateLimited) {
		t.Errorf("warnings = %v", out.Warnings)
	}
}

func TestSemanticFallback(t *testing.T) {
	ai := &fakeAI{configured: true}
	out := newTestPipeline(ai).ParseFromHTML(context.Background(), semanticPage)
	if !out.Success {
		t.Fatalf("expected success, got %s: %s", out.ErrorKind, out.Error)
	}
	if out.ExtractionMethod != common.MethodStructuredOnly || out.Stage != "semantic-html" {
		t.Errorf("method/stage = %s/%s", out.ExtractionMethod, out.Stage)
	}
	if ai.htmlCalls != 0 {
		t.Errorf("AI invoked %d times on a heuristic success", ai.htmlCalls)
	}

	if len(out.Recipe.Ingredients) != 1 {
		t.Fatalf("expected one group, got %d", len(out.Recipe.Ingredients))
	}
	var got []string
	for _, ing := range out.Recipe.Ingredients[0].Ingredients {
		got = append(got, common.FormatIngredient(ing))
	}
	want := []string{"2 cups flour", "1 tsp salt", "3 tbsp butter", "200 ml milk", "2 eggs"}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Errorf("ingredients = %v, want %v", got, want)
	}
	if out.Recipe.Title != "Pancakes" {
		t.Errorf("title = %q", out.Recipe.Title)
	}
}

func TestAIOnlyFallback(t *testing.T) {
	tests := []struct {
		name       string
		ai         *fakeAI
		wantOK     bool
		wantKind   string
		wantMethod common.ExtractionMethod
	}{
		{"success", &fakeAI{configured: true, draft: aiDraft(2, twoGroups()...)}, true, "", common.MethodAIOnly},
		{"not configured", &fakeAI{}, false, common.ErrCodeNoRecipeFound, common.MethodNone},
		{"no recipe signal", &fakeAI{configured: true, err: common.NewNoRecipeError("none")}, false, common.ErrCodeNoRecipeFound, common.MethodNone},
		{"schema violation", &fakeAI{configured: true, err: common.NewSchemaViolationError("bad", nil)}, false, common.ErrCodeSchemaViolation, common.MethodNone},
		{"unavailable", &fakeAI{configured: true, err: common.NewServiceUnavailableError(nil)}, false, common.ErrCodeServiceUnavailable, common.MethodNone},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := newTestPipeline(tt.ai).ParseFromHTML(context.Background(), noRecipePage)
			if out.Success != tt.wantOK {
				t.Fatalf("success = %v (%s)", out.Success, out.Error)
			}
			if out.ErrorKind != tt.wantKind {
				t.Errorf("errorKind = %q, want %q", out.ErrorKind, tt.wantKind)
			}
			if out.ExtractionMethod != tt.wantMethod {
				t.Errorf("method = %s, want %s", out.ExtractionMethod, tt.wantMethod)
			}
			if !tt.wantOK && out.Recipe != nil {
				t.Error("failed outcome carries a recipe")
			}
		})
	}
}

func TestRateLimitOutcome(t *testing.T) {
	retryAt := time.Now().Add(15 * time.Second)
	ai := &fakeAI{configured: true, err: common.NewRateLimitedError(retryAt, nil)}
	out := newTestPipeline(ai).ParseFromHTML(context.Background(), noRecipePage)
	if out.ErrorKind != common.ErrCodeRateLimited {
		t.Fatalf("errorKind = %s", out.ErrorKind)
	}
	if out.RetryAfterEpochMs != retryAt.UnixMilli() {
		t.Errorf("retryAfterEpochMs = %d, want %d", out.RetryAfterEpochMs, retryAt.UnixMilli())
	}
}

type rejectingSanitizer struct{}

func (rejectingSanitizer) Clean(raw string) sanitizer.Result {
	return sanitizer.Result{Error: "blocked"}
}

type countingRunner struct{ calls int }

func (c *countingRunner) Run(page *dom.Page) (*common.Draft, string, bool) {
	c.calls++
	return nil, "", false
}

func TestSanitizerFailureStopsPipeline(t *testing.T) {
	runner := &countingRunner{}
	ai := &fakeAI{configured: true}
	out := NewPipeline(rejectingSanitizer{}, runner, ai, nil, nil).ParseFromHTML(context.Background(), structuredPage(""))
	if out.ErrorKind != common.ErrCodeSanitizerFailed {
		t.Errorf("errorKind = %s", out.ErrorKind)
	}
	if runner.calls != 0 || ai.htmlCalls != 0 {
		t.Error("pipeline continued after sanitizer failure")
	}
}

func TestParseFromHTMLEmpty(t *testing.T) {
	out := newTestPipeline(nil).ParseFromHTML(context.Background(), "  ")
	if out.ErrorKind != common.ErrCodeInvalidInput {
		t.Errorf("errorKind = %s", out.ErrorKind)
	}
}

func testFetcher() *HTTPFetcher {
	return NewHTTPFetcher(config.FetchConfig{Timeout: 2 * time.Second, MinBodyLength: 50})
}

func TestParseFromURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Accept-Language") == "" || !strings.Contains(r.Header.Get("User-Agent"), "Mozilla") {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, structuredPage("4"))
	}))
	defer srv.Close()

	p := NewPipeline(sanitizer.New(), heuristic.NewChain(), nil, testFetcher(), nil)
	out := p.ParseFromURL(context.Background(), srv.URL+"/lemon-chicken")
	if !out.Success {
		t.Fatalf("expected success, got %s: %s", out.ErrorKind, out.Error)
	}
	if out.Recipe.SourceURL != srv.URL+"/lemon-chicken" {
		t.Errorf("sourceUrl = %q", out.Recipe.SourceURL)
	}
}

func TestParseFromURLErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/short":
			fmt.Fprint(w, "<p>hi</p>")
		case "/slow":
			time.Sleep(300 * time.Millisecond)
			fmt.Fprint(w, structuredPage(""))
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))
	defer srv.Close()

	slow := NewHTTPFetcher(config.FetchConfig{Timeout: 100 * time.Millisecond, MinBodyLength: 50})

	tests := []struct {
		name        string
		fetcher     *HTTPFetcher
		url         string
		wantKind    string
		wantTimeout bool
	}{
		{"malformed", testFetcher(), "not a url", common.ErrCodeInvalidInput, false},
		{"ftp", testFetcher(), "ftp://example.com/x", common.ErrCodeInvalidInput, false},
		{"short body", testFetcher(), srv.URL + "/short", common.ErrCodeInvalidInput, false},
		{"server error", testFetcher(), srv.URL + "/broken", common.ErrCodeFetchFailed, false},
		{"timeout", slow, srv.URL + "/slow", common.ErrCodeFetchFailed, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPipeline(nil, heuristic.NewChain(), nil, tt.fetcher, nil)
			out := p.ParseFromURL(context.Background(), tt.url)
			if out.ErrorKind != tt.wantKind {
				t.Errorf("errorKind = %s, want %s (%s)", out.ErrorKind, tt.wantKind, out.Error)
			}
			if out.Timeout != tt.wantTimeout {
				t.Errorf("timeout = %v, want %v", out.Timeout, tt.wantTimeout)
			}
		})
	}
}

func TestFetchFallbackHeaders(t *testing.T) {
	var attempts int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		// 只接受精簡標頭的請求
		if r.Header.Get("Accept-Language") != "" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		fmt.Fprint(w, structuredPage(""))
	}))
	defer srv.Close()

	body, err := testFetcher().Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if attempts != 2 {
		t.Errorf("attempts = %d, want 2", attempts)
	}
	if !strings.Contains(body, "Lemon Chicken") {
		t.Error("unexpected body")
	}
}

type fakeImages struct{ err error }

func (f fakeImages) ProcessImage(data string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return "data:image/jpeg;base64,processed", nil
}

func TestParseFromImage(t *testing.T) {
	ai := &fakeAI{configured: true, draft: aiDraft(2, twoGroups()...)}
	p := NewPipeline(nil, nil, ai, nil, fakeImages{})

	out := p.ParseFromImage(context.Background(), "aGVsbG8=")
	if !out.Success || out.ExtractionMethod != common.MethodAIOnly {
		t.Fatalf("unexpected outcome: %+v", out)
	}
	if ai.lastImage != "data:image/jpeg;base64,processed" {
		t.Errorf("image passed to AI = %q", ai.lastImage)
	}

	tests := []struct {
		name string
		p    *Pipeline
		data string
		want string
	}{
		{"empty", p, "", common.ErrCodeInvalidInput},
		{"not configured", NewPipeline(nil, nil, &fakeAI{}, nil, fakeImages{}), "aGVsbG8=", common.ErrCodeAINotConfigured},
		{"bad image", NewPipeline(nil, nil, ai, nil, fakeImages{err: fmt.Errorf("corrupt")}), "aGVsbG8=", common.ErrCodeInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.p.ParseFromImage(context.Background(), tt.data).ErrorKind; got != tt.want {
				t.Errorf("errorKind = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestToLegacy(t *testing.T) {
	r := &common.Recipe{
		Title: "Toast",
		Ingredients: []common.IngredientGroup{
			{GroupName: "Main", Ingredients: []common.Ingredient{
				{Amount: "2", Units: "slices", Name: "bread"},
				{Amount: common.AsNeeded, Name: "butter"},
				{Amount: "1", Units: "whole", Name: "egg"},
			}},
		},
		Instructions: []common.InstructionStep{{Title: "Step 1", Detail: "Toast the bread."}},
	}
	legacy := ToLegacy(r)
	want := []string{"2 slices bread", "butter", "1 egg"}
	if strings.Join(legacy.Ingredients, "|") != strings.Join(want, "|") {
		t.Errorf("ingredients = %v", legacy.Ingredients)
	}
	if len(legacy.Instructions) != 1 || legacy.Instructions[0] != "Toast the bread." {
		t.Errorf("instructions = %v", legacy.Instructions)
	}
}
