// Package nutrition derives daily intake targets from a user's survey
// answers. Pure computation; persisted on the user document whenever
// preferences change.
package nutrition

import (
	"strings"

	"github.com/aktivio/aktivio-server/internal/app/system/apperr"
	"github.com/aktivio/aktivio-server/internal/domain/models"
)

// Harris-Benedict activity multipliers keyed by fitness level.
var activityFactors = map[string]float64{
	"Unfit":   1.2,
	"Average": 1.375,
	"Good":    1.55,
}

// BMR computes the basal metabolic rate (Harris-Benedict). Weight is kg,
// height cm.
func BMR(gender string, weightKg, heightCm float64, age int) (float64, error) {
	switch strings.ToLower(gender) {
	case "male":
		return 66.5 + 13.75*weightKg + 5.003*heightCm - 6.75*float64(age), nil
	case "female":
		return 655.1 + 9.563*weightKg + 1.850*heightCm - 4.676*float64(age), nil
	default:
		return 0, apperr.Validationf("gender must be 'male' or 'female'")
	}
}

// DailyCalories scales BMR by the activity factor for the fitness level.
func DailyCalories(bmr float64, fitnessLevel string) (float64, error) {
	factor, ok := activityFactors[fitnessLevel]
	if !ok {
		return 0, apperr.Validationf("fitness level must be one of 'Unfit', 'Average', 'Good'")
	}
	return bmr * factor, nil
}

// Targets computes the full daily guidance for a preference profile.
//
// Macro ranges follow the standard acceptable distribution: protein
// 10-30% of calories at 4 kcal/g, fat 20-35% at 9 kcal/g, carbohydrate
// 45-65% at 4 kcal/g. Water in ml equals the calorie budget.
func Targets(prefs models.Preferences) (models.NutritionTargets, error) {
	bmr, err := BMR(prefs.Gender, prefs.WeightKg, prefs.HeightCm, prefs.Age)
	if err != nil {
		return models.NutritionTargets{}, err
	}
	daily, err := DailyCalories(bmr, prefs.FitnessLevel)
	if err != nil {
		return models.NutritionTargets{}, err
	}
	return models.NutritionTargets{
		BMR:             bmr,
		DailyCalories:   daily,
		ProteinMin:      0.10 * daily / 4,
		ProteinMax:      0.30 * daily / 4,
		FatMin:          0.20 * daily / 9,
		FatMax:          0.35 * daily / 9,
		CarbohydrateMin: 0.45 * daily / 4,
		CarbohydrateMax: 0.65 * daily / 4,
		Water:           daily,
	}, nil
}
