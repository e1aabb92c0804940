package analyzer

import "testing"

func TestInterpret_Bands(t *testing.T) {
	tests := []struct {
		bodyFat  float64
		category string
		goal     string
		calories int
	}{
		{4.0, "Very lean / athletic", "Maintenance or lean bulk", 2600},
		{11.99, "Very lean / athletic", "Maintenance or lean bulk", 2600},
		{12.0, "Average to fit", "Mild cut or recomposition", 2300},
		{19.99, "Average to fit", "Mild cut or recomposition", 2300},
		{20.0, "Higher bodyfat", "Fat loss (cutting)", 2100},
		{27.9, "Higher bodyfat", "Fat loss (cutting)", 2100},
		{28.0, "Obese range (est.)", "Gradual fat loss", 1900},
		{45.0, "Obese range (est.)", "Gradual fat loss", 1900},
	}

	for _, tt := range tests {
		got := Interpret(tt.bodyFat)
		if got.Category != tt.category {
			t.Errorf("%.2f: category %q, expected %q", tt.bodyFat, got.Category, tt.category)
		}
		if got.GoalSuggestion != tt.goal {
			t.Errorf("%.2f: goal %q, expected %q", tt.bodyFat, got.GoalSuggestion, tt.goal)
		}
		if got.SuggestedCalories != tt.calories {
			t.Errorf("%.2f: calories %d, expected %d", tt.bodyFat, got.SuggestedCalories, tt.calories)
		}
		if len(got.Notes) != 3 {
			t.Errorf("%.2f: expected 3 notes, got %d", tt.bodyFat, len(got.Notes))
		}
	}
}

func TestInterpret_CategoryUsesUnroundedValue(t *testing.T) {
	got := Interpret(11.96)

	if got.BodyFat != 12.0 {
		t.Errorf("Expected rounded body fat 12.0, got %f", got.BodyFat)
	}
	if got.Category != "Very lean / athletic" {
		t.Errorf("Expected category from unrounded value, got %q", got.Category)
	}
}

func TestRoundTenth_TiesToEven(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{22.25, 22.2}, // exact tie, even neighbour kept
		{22.75, 22.8},
		{0.35, 0.3}, // stored just below the tie
		{20.199999999999996, 20.2},
		{16, 16},
		{15.65, 15.7},
	}
	for _, tt := range tests {
		if got := roundTenth(tt.in); got != tt.want {
			t.Errorf("roundTenth(%v) = %v, expected %v", tt.in, got, tt.want)
		}
	}
	if got := Interpret(22.25).BodyFat; got != 22.2 {
		t.Errorf("Expected reported body fat 22.2, got %v", got)
	}
}

func TestInterpret_NoteText(t *testing.T) {
	got := Interpret(8)
	expected := []string{
		"You’re already quite lean—focus on performance and strength.",
		"A small surplus or maintenance calories can help build muscle.",
		"Keep protein high (0.8–1.0 g per lb of body weight).",
	}
	for i, note := range expected {
		if got.Notes[i] != note {
			t.Errorf("note %d: %q, expected %q", i, got.Notes[i], note)
		}
	}

	// results must not share the package-level slices
	got.Notes[0] = "changed"
	if Interpret(8).Notes[0] == "changed" {
		t.Error("Expected notes to be copied per result")
	}
}
