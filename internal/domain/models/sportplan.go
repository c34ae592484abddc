// internal/domain/models/sportplan.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SportPlan is a catalog workout plan keyed by sport, served by the
// recommendations lookup.
type SportPlan struct {
	ID          primitive.ObjectID `bson:"_id" json:"id"`
	Sport       string             `bson:"sport" json:"sport"`
	Name        string             `bson:"name" json:"name"`
	Description string             `bson:"description" json:"description"`
	Steps       []SportPlanStep    `bson:"steps,omitempty" json:"steps,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// PlanRecommendation is one ranked plan returned by the external
// recommendation service.
type PlanRecommendation struct {
	Sport string  `json:"sport"`
	Score float64 `json:"score"`
}
