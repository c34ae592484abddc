// internal/app/features/events/dto.go
package events

import "time"

type createRequest struct {
	Name        string    `json:"name" validate:"required,min=2,max=120"`
	Description string    `json:"description" validate:"max=2000"`
	StartTime   time.Time `json:"start_time" validate:"required"`
	EndTime     time.Time `json:"end_time" validate:"required"`
	Points      int       `json:"points" validate:"gte=0,lte=1000"`
}

type updateRequest struct {
	Name        string    `json:"name" validate:"required,min=2,max=120"`
	Description string    `json:"description" validate:"max=2000"`
	StartTime   time.Time `json:"start_time" validate:"required"`
	EndTime     time.Time `json:"end_time" validate:"required"`
	Points      int       `json:"points" validate:"gte=0,lte=1000"`
}
