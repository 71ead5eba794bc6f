package heuristic

import (
	"reflect"
	"testing"

	"recipe-parser/internal/core/recipe/dom"
	"recipe-parser/internal/pkg/common"
)

func mustPage(t *testing.T, raw string) *dom.Page {
	t.Helper()
	page, err := dom.Parse(raw)
	if err != nil {
		t.Fatalf("parse html: %v", err)
	}
	return page
}

const wprmPage = `<html><head><title>Weeknight Chili | Example Kitchen</title>
<meta property="og:image" content="https://example.com/chili.jpg"></head><body>
<div class="wprm-recipe-ingredients-container"><ul>
<li class="wprm-recipe-ingredient"><span class="wprm-recipe-ingredient-amount">1</span> <span class="wprm-recipe-ingredient-unit">lb</span> <span class="wprm-recipe-ingredient-name">ground beef</span></li>
<li class="wprm-recipe-ingredient"><span class="wprm-recipe-ingredient-amount">2</span> <span class="wprm-recipe-ingredient-unit">cans</span> <span class="wprm-recipe-ingredient-name">kidney beans</span> <span class="wprm-recipe-ingredient-notes">(drained)</span></li>
<li class="wprm-recipe-ingredient"><span class="wprm-recipe-ingredient-amount">1</span> <span class="wprm-recipe-ingredient-unit">tbsp</span> <span class="wprm-recipe-ingredient-name">chili powder</span></li>
</ul></div>
<div class="wprm-recipe-instructions-container">
<div class="wprm-recipe-instruction-text">Brown the beef in a large pot over medium heat.</div>
<div class="wprm-recipe-instruction-text">Stir in the beans and chili powder, then simmer 20 minutes.</div>
</div></body></html>`

func TestSelectorStageWPRM(t *testing.T) {
	draft, ok := NewSelectorStage(DefaultRules).Extract(mustPage(t, wprmPage))
	if !ok {
		t.Fatal("selector stage did not accept WPRM markup")
	}

	if draft.Title != "Weeknight Chili" {
		t.Errorf("Title = %q, want site suffix stripped", draft.Title)
	}
	if draft.ImageURL != "https://example.com/chili.jpg" {
		t.Errorf("ImageURL = %q", draft.ImageURL)
	}

	want := []common.Ingredient{
		{Amount: "1", Units: "lb", Name: "ground beef"},
		{Amount: "2", Units: "cans", Name: "kidney beans", Description: "drained"},
		{Amount: "1", Units: "tbsp", Name: "chili powder"},
	}
	if !reflect.DeepEqual(draft.Ingredients[0].Ingredients, want) {
		t.Errorf("ingredients = %+v, want %+v", draft.Ingredients[0].Ingredients, want)
	}
	if len(draft.Instructions) != 2 {
		t.Errorf("expected 2 instructions, got %d", len(draft.Instructions))
	}
}

func TestSelectorStageThreshold(t *testing.T) {
	raw := `<ul><li class="ingredient">1 cup rice</li><li class="ingredient">2 cups water</li></ul>
<ol><li class="instruction">Rinse the rice until the water runs clear.</li><li class="instruction">Simmer covered for 18 minutes.</li></ol>`

	if _, ok := NewSelectorStage(DefaultRules).Extract(mustPage(t, raw)); ok {
		t.Error("selector stage accepted only 2 ingredients")
	}
}

type countingStage struct {
	name  string
	calls int
}

func (s *countingStage) Name() string { return s.name }

func (s *countingStage) Extract(page *dom.Page) (*common.Draft, bool) {
	s.calls++
	return nil, false
}

func TestChainShortCircuit(t *testing.T) {
	semantic := &countingStage{name: "semantic-html"}
	content := &countingStage{name: "content-heuristic"}
	chain := NewChainWithStages(NewSelectorStage(DefaultRules), semantic, content)

	draft, stage, ok := chain.Run(mustPage(t, wprmPage))
	if !ok || draft == nil {
		t.Fatal("chain did not accept selector output")
	}
	if stage != "selector-pattern" {
		t.Errorf("stage = %q, want selector-pattern", stage)
	}
	if semantic.calls != 0 || content.calls != 0 {
		t.Errorf("later stages invoked: semantic=%d content=%d", semantic.calls, content.calls)
	}
}

func TestChainExhausted(t *testing.T) {
	first := &countingStage{name: "a"}
	second := &countingStage{name: "b"}
	if _, _, ok := NewChainWithStages(first, second).Run(mustPage(t, "<p>hello</p>")); ok {
		t.Fatal("chain succeeded with failing stages")
	}
	if first.calls != 1 || second.calls != 1 {
		t.Errorf("calls = %d/%d, want 1/1", first.calls, second.calls)
	}
}

const semanticPage = `<html><head><title>Pancakes</title></head><body>
<ul><li><a href="/">Home</a></li><li><a href="/recipes">Recipes</a></li><li><a href="/about">About us</a></li></ul>
<ul><li>2 cups flour</li><li>1 tsp salt</li><li>3 tbsp butter</li><li>200 ml milk</li><li>2 eggs</li></ul>
<ul><li>Facebook</li><li>Pinterest</li><li>Email</li></ul>
<ol><li>Whisk the flour and salt together.</li><li>Melt the butter in a pan.</li><li>Pour in the batter and cook until golden.</li><li>Enjoy with friends!</li></ol>
</body></html>`

func TestSemanticStage(t *testing.T) {
	draft, ok := NewSemanticStage().Extract(mustPage(t, semanticPage))
	if !ok {
		t.Fatal("semantic stage rejected ingredient and instruction lists")
	}

	if len(draft.Ingredients) != 1 {
		t.Fatalf("expected a single group, got %d", len(draft.Ingredients))
	}
	var names []string
	for _, ing := range draft.Ingredients[0].Ingredients {
		names = append(names, ing.Name)
	}
	want := []string{"2 cups flour", "1 tsp salt", "3 tbsp butter", "200 ml milk", "2 eggs"}
	if !reflect.DeepEqual(names, want) {
		t.Errorf("ingredients = %v, want %v", names, want)
	}
	if len(draft.Instructions) != 4 {
		t.Errorf("expected 4 instructions, got %d", len(draft.Instructions))
	}
}

func TestSemanticStageRejectsNavigation(t *testing.T) {
	raw := `<ul><li>Home</li><li>Recipes</li><li>Contact</li></ul><ol><li>First</li><li>Second</li></ol>`
	if _, ok := NewSemanticStage().Extract(mustPage(t, raw)); ok {
		t.Error("semantic stage accepted navigation lists")
	}
}

func TestContentStage(t *testing.T) {
	raw := `<html><body><article>
<p>My grandmother made this every winter.</p>
<p>You need 2 cups of rice, 1 tbsp of oil and a pinch of salt.</p>
<p>3 cups water</p>
<p>1 tsp turmeric</p>
<p>Heat the oil in a heavy pot over medium heat. Add the rice and stir until every grain is coated.</p>
<p>Pour in the water, cover and simmer for 18 minutes.</p>
</article></body></html>`

	draft, ok := NewContentStage().Extract(mustPage(t, raw))
	if !ok {
		t.Fatalf("content stage below threshold: %+v", draft)
	}
	if draft.IngredientCount() != 3 {
		t.Errorf("ingredients = %d, want 3: %+v", draft.IngredientCount(), draft.Ingredients)
	}
	if len(draft.Instructions) != 3 {
		t.Errorf("instructions = %d, want 3: %+v", len(draft.Instructions), draft.Instructions)
	}
}

func TestContentStagePlaceholders(t *testing.T) {
	draft, ok := NewContentStage().Extract(mustPage(t, `<p>Nothing to see here.</p>`))
	if ok {
		t.Error("content stage accepted a page with no candidates")
	}
	if draft == nil {
		t.Fatal("content stage returned no draft")
	}
	if draft.Ingredients[0].Ingredients[0].Name != NoIngredientsPlaceholder {
		t.Errorf("ingredient placeholder = %q", draft.Ingredients[0].Ingredients[0].Name)
	}
	if draft.Instructions[0].Text != NoInstructionsPlaceholder {
		t.Errorf("instruction placeholder = %q", draft.Instructions[0].Text)
	}
}

func TestSentences(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{"decimal", "Add 1.5 cups stock. Stir well!\nServe", []string{"Add 1.5 cups stock.", "Stir well!", "Serve"}},
		{"unit abbreviation", "Add 1 tsp. salt to the pan and stir well.", []string{"Add 1 tsp. salt to the pan and stir well."}},
		{"abbreviation then digit", "Mix 2 tbsp. 3 times. Rest.", []string{"Mix 2 tbsp. 3 times.", "Rest."}},
		{"unit ends sentence", "Pour in 2 cups. Simmer gently.", []string{"Pour in 2 cups.", "Simmer gently."}},
		{"non-unit word", "Chop the onion. then fry it.", []string{"Chop the onion.", "then fry it."}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Sentences(tt.text); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Sentences(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestExtractTitle(t *testing.T) {
	tests := []struct {
		name string
		html string
		want string
	}{
		{"title tag", `<html><head><title>Tomato Soup | Site</title></head><body><h1>Other</h1></body></html>`, "Tomato Soup"},
		{"recipe h1", `<html><body><h1>Site Name</h1><h1 class="recipe-title">Beef Stew</h1></body></html>`, "Beef Stew"},
		{"bare h1", `<html><body><h1>Banana Bread</h1></body></html>`, "Banana Bread"},
		{"og title", `<html><head><meta property="og:title" content="Fish Tacos | Blog"></head><body></body></html>`, "Fish Tacos"},
		{"nothing", `<html><body><p>text</p></body></html>`, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExtractTitle(mustPage(t, tt.html)); got != tt.want {
				t.Errorf("ExtractTitle() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExtractImage(t *testing.T) {
	raw := `<html><body><img src="/logo.png"><img class="recipe-hero" data-src="https://example.com/hero.jpg" src="data:image/gif;base64,R0lGOD"></body></html>`
	if got := ExtractImage(mustPage(t, raw)); got != "https://example.com/hero.jpg" {
		t.Errorf("ExtractImage() = %q", got)
	}
}
