package lexicon

import "testing"

func TestContainsCookingVerb(t *testing.T) {
	tests := []struct {
		text string
		want bool
	}{
		{"Stir until thick", true},
		{"Stirred until thick", true},
		{"Stirring occasionally", true},
		{"Chopped onions go in", true},
		{"Chopping the herbs finely", true},
		{"The cake is baking", true},
		{"Cut the dough, then let it rest", true},
		{"Cutting boards", true},
		{"Sautéed mushrooms", true},
		{"Whisks and spatulas", true},
		{"Mary Berry", false},
		{"Stirrup", false},
		{"Chopstick holder", false},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			if got := ContainsCookingVerb(tt.text); got != tt.want {
				t.Errorf("ContainsCookingVerb(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestStartsWithCookingVerb(t *testing.T) {
	tests := []struct {
		text string
		want bool
	}{
		{"- Preheat the oven.", true},
		{"Stirring constantly, add the milk.", true},
		{"Chopped herbs to finish.", true},
		{"Meanwhile, chop the onion.", false},
		{"2 cups flour", false},
	}
	for _, tt := range tests {
		if got := StartsWithCookingVerb(tt.text); got != tt.want {
			t.Errorf("StartsWithCookingVerb(%q) = %v, want %v", tt.text, got, tt.want)
		}
	}
}

func TestInflections(t *testing.T) {
	has := func(forms []string, want string) bool {
		for _, f := range forms {
			if f == want {
				return true
			}
		}
		return false
	}
	tests := []struct {
		verb string
		want []string
	}{
		{"stir", []string{"stir", "stirs", "stirred", "stirring"}},
		{"chop", []string{"chopped", "chopping"}},
		{"bake", []string{"bakes", "baked", "baking"}},
		{"mix", []string{"mixes", "mixed", "mixing"}},
	}
	for _, tt := range tests {
		forms := Inflections(tt.verb)
		for _, w := range tt.want {
			if !has(forms, w) {
				t.Errorf("Inflections(%q) missing %q: %v", tt.verb, w, forms)
			}
		}
	}
}

func TestIsUnit(t *testing.T) {
	tests := []struct {
		word string
		ok   bool
	}{
		{"tsp.", true},
		{"Tbsp", true},
		{"cups", true},
		{"pinches", true},
		{"g", true},
		{"onion", false},
	}
	for _, tt := range tests {
		if _, ok := IsUnit(tt.word); ok != tt.ok {
			t.Errorf("IsUnit(%q) ok = %v, want %v", tt.word, ok, tt.ok)
		}
	}
}
