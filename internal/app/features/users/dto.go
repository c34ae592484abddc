// internal/app/features/users/dto.go
package users

import "github.com/aktivio/aktivio-server/internal/domain/models"

type signUpRequest struct {
	DisplayName string `json:"display_name" validate:"required,min=2,max=64"`
	Email       string `json:"email" validate:"required,email"`
}

type updateProfileRequest struct {
	DisplayName string `json:"display_name" validate:"required,min=2,max=64"`
}

// Lat and Lng are pointers so the equator and the prime meridian
// survive required-field validation.
type locationRequest struct {
	Lat *float64 `json:"lat" validate:"required,latitude"`
	Lng *float64 `json:"lng" validate:"required,longitude"`
}

type mealRequest struct {
	Name     string `json:"name" validate:"required,max=128"`
	Calories int    `json:"calories" validate:"required,gt=0"`
}

type adoptPlanRequest struct {
	PlanID string `json:"plan_id" validate:"required"`
}

type stepProgressRequest struct {
	ElapsedSec *int `json:"elapsed_sec" validate:"required,gte=0"`
	Completed  bool `json:"completed"`
}

// profileResponse is the account document plus the expiring URL for the
// profile photo, when one has been uploaded.
type profileResponse struct {
	models.User
	PhotoURL string `json:"photo_url,omitempty"`
}

type nutritionResponse struct {
	DailyCalories int                      `json:"daily_calories"`
	Targets       *models.NutritionTargets `json:"targets,omitempty"`
	Entries       []models.FoodEntry       `json:"entries"`
}
