package normalize

import "testing"

func TestTag(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		// Basic normalization
		{"lowercase", "COOKING", "cooking"},
		{"spaces to dashes", "slow burn", "slow-burn"},
		{"already normalized", "slow-burn", "slow-burn"},

		// Whitespace handling
		{"trim whitespace", "  cooking  ", "cooking"},
		{"multiple spaces", "home   workout", "home-workout"},
		{"tabs and spaces", "home\t workout", "home-workout"},

		// Special characters
		{"emoji removal", "🎬 Film!", "film"},
		{"punctuation removal", "food/travel", "food-travel"},
		{"apostrophe removal", "don't", "don-t"},
		{"accents folded", "Café Vibes", "cafe-vibes"},

		// Dash handling
		{"multiple dashes", "slow--burn", "slow-burn"},
		{"leading dashes", "--cooking", "cooking"},
		{"trailing dashes", "cooking--", "cooking"},

		// Edge cases
		{"empty string", "", ""},
		{"only spaces", "   ", ""},
		{"only special chars", "!@#$%", ""},
		{"numbers allowed", "top10", "top10"},
		{"mixed case with numbers", "Top 10 Recipes", "top-10-recipes"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Tag(tt.input)
			if result != tt.expected {
				t.Errorf("Tag(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestCollection(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"trims", "  Recipes  ", "Recipes"},
		{"case preserved", "ReCipEs", "ReCipEs"},
		{"empty", "   ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Collection(tt.input); got != tt.expected {
				t.Errorf("Collection(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}
