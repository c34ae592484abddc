// internal/domain/models/user.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User is an account holder. The document id is the opaque identity
// string issued by the external authenticator, not an ObjectID.
//
// NOTE:
//   - JoinedCommunities is denormalized against Community.Members.
//     Every membership mutation must touch both sides; the membership
//     coordinator is the only code allowed to write either.
type User struct {
	ID               string    `bson:"_id" json:"id"`
	DisplayName      string    `bson:"display_name" json:"display_name"`
	Email            string    `bson:"email" json:"email"`
	ProfilePhotoPath string    `bson:"profile_photo_path,omitempty" json:"-"`
	Points           int       `bson:"points" json:"points"`
	DailyCalories    int       `bson:"daily_calories" json:"daily_calories"`
	LastCalorieReset time.Time `bson:"last_calorie_reset,omitempty" json:"-"`

	JoinedCommunities []primitive.ObjectID `bson:"joined_communities" json:"joined_communities"`

	Location    *GeoPoint    `bson:"location,omitempty" json:"location,omitempty"`
	Preferences *Preferences `bson:"preferences,omitempty" json:"preferences,omitempty"`

	SportPlan        []SportPlanStep   `bson:"sport_plan,omitempty" json:"sport_plan,omitempty"`
	NutritionTargets *NutritionTargets `bson:"nutrition_targets,omitempty" json:"nutrition_targets,omitempty"`
	FoodEntries      []FoodEntry       `bson:"food_entries,omitempty" json:"food_entries,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// Preferences holds the survey answers fed to the recommendation service.
type Preferences struct {
	Gender           string   `bson:"gender" json:"gender" validate:"required,oneof=male female Male Female"`
	Age              int      `bson:"age" json:"age" validate:"required,gt=0"`
	WeightKg         float64  `bson:"weight_kg" json:"weightKg" validate:"required,gt=0"`
	HeightCm         float64  `bson:"height_cm" json:"heightCm" validate:"required,gt=0"`
	Equipment        string   `bson:"equipment" json:"equipment" validate:"required"`
	Motivation       string   `bson:"motivation" json:"motivation" validate:"required"`
	AvailableTime    string   `bson:"available_time" json:"availableTime" validate:"required"`
	FitnessLevel     string   `bson:"fitness_level" json:"fitnessLevel" validate:"required,oneof=Unfit Average Good"`
	PlacePreference  string   `bson:"place_preference" json:"placePreference" validate:"required"`
	SocialPreference string   `bson:"social_preference" json:"socialPreference" validate:"required"`
	DiseaseHistory   []string `bson:"disease_history" json:"diseaseHistory" validate:"required"`
}

// SportPlanStep is one step of a user's embedded workout plan.
type SportPlanStep struct {
	Name        string `bson:"name" json:"name"`
	Description string `bson:"description,omitempty" json:"description,omitempty"`
	ElapsedSec  int    `bson:"elapsed_sec" json:"elapsed_sec"`
	Completed   bool   `bson:"completed" json:"completed"`
}

// NutritionTargets is the daily intake guidance derived from a user's
// preferences. All values are per day; macros are grams, water is ml.
type NutritionTargets struct {
	BMR             float64 `bson:"bmr" json:"bmr"`
	DailyCalories   float64 `bson:"daily_calories" json:"daily_calories"`
	ProteinMin      float64 `bson:"protein_min" json:"protein_min"`
	ProteinMax      float64 `bson:"protein_max" json:"protein_max"`
	FatMin          float64 `bson:"fat_min" json:"fat_min"`
	FatMax          float64 `bson:"fat_max" json:"fat_max"`
	CarbohydrateMin float64 `bson:"carbohydrate_min" json:"carbohydrate_min"`
	CarbohydrateMax float64 `bson:"carbohydrate_max" json:"carbohydrate_max"`
	Water           float64 `bson:"water" json:"water"`
}

// FoodEntry is one logged meal. The list on User is append-only.
type FoodEntry struct {
	Name     string    `bson:"name" json:"name"`
	Calories int       `bson:"calories" json:"calories"`
	LoggedAt time.Time `bson:"logged_at" json:"logged_at"`
}
