package analyzer

import (
	"math"
	"strconv"

	"go-body-analyzer/pkg/models"
)

type interpretation struct {
	upTo     float64
	category string
	goal     string
	calories int
	notes    []string
}

// Bands are checked in order; the first whose upper bound exceeds the
// estimate applies. The last band is unbounded.
var interpretations = []interpretation{
	{
		upTo:     12,
		category: "Very lean / athletic",
		goal:     "Maintenance or lean bulk",
		calories: 2600,
		notes: []string{
			"You’re already quite lean—focus on performance and strength.",
			"A small surplus or maintenance calories can help build muscle.",
			"Keep protein high (0.8–1.0 g per lb of body weight).",
		},
	},
	{
		upTo:     20,
		category: "Average to fit",
		goal:     "Mild cut or recomposition",
		calories: 2300,
		notes: []string{
			"You’re in a good spot—decide if you want more definition or muscle.",
			"A small deficit with 3–4 days of lifting works well.",
			"Aim for 7–9k steps per day to support fat loss.",
		},
	},
	{
		upTo:     28,
		category: "Higher bodyfat",
		goal:     "Fat loss (cutting)",
		calories: 2100,
		notes: []string{
			"Focus on a moderate calorie deficit you can stick to.",
			"Combine 3–4 lifting sessions with daily walking (7–10k steps).",
			"Try not to lose more than ~1% of bodyweight per week.",
		},
	},
	{
		upTo:     math.Inf(1),
		category: "Obese range (est.)",
		goal:     "Gradual fat loss",
		calories: 1900,
		notes: []string{
			"Start with simple, sustainable changes—no crash diets.",
			"Prioritize walking and light activity to build habits.",
			"Talk with a healthcare provider before aggressive dieting or training.",
		},
	},
}

// Interpret maps an unrounded body-fat estimate to its category, goal,
// calorie suggestion and notes. The returned BodyFat is rounded to one
// decimal; the band is chosen from the unrounded value.
func Interpret(bodyFat float64) models.AnalysisResult {
	band := interpretations[len(interpretations)-1]
	for _, in := range interpretations {
		if bodyFat < in.upTo {
			band = in
			break
		}
	}
	notes := make([]string, len(band.notes))
	copy(notes, band.notes)
	return models.AnalysisResult{
		BodyFat:           roundTenth(bodyFat),
		Category:          band.category,
		GoalSuggestion:    band.goal,
		SuggestedCalories: band.calories,
		Notes:             notes,
	}
}

// roundTenth rounds the exact binary value to one decimal, ties to even,
// so 22.25 gives 22.2 and 0.35 (stored just below) gives 0.3.
func roundTenth(v float64) float64 {
	r, err := strconv.ParseFloat(strconv.FormatFloat(v, 'f', 1, 64), 64)
	if err != nil {
		return v
	}
	return r
}
