// Package recommend calls the external sport recommendation service.
//
// The service scores sports against a user's preference profile; the
// sportplans feature turns the top sport into a concrete plan.
package recommend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/aktivio/aktivio-server/internal/app/system/apperr"
	"github.com/aktivio/aktivio-server/internal/domain/models"
)

// Provider abstracts the recommender so handlers can be tested without
// the external service.
type Provider interface {
	Recommend(ctx context.Context, prefs models.Preferences) ([]models.PlanRecommendation, error)
}

// Client talks to the recommender over HTTP.
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

type recommendRequest struct {
	Gender           string   `json:"gender"`
	Age              int      `json:"age"`
	WeightKg         float64  `json:"weightKg"`
	HeightCm         float64  `json:"heightCm"`
	Equipment        string   `json:"equipment"`
	Motivation       string   `json:"motivation"`
	AvailableTime    string   `json:"availableTime"`
	FitnessLevel     string   `json:"fitnessLevel"`
	PlacePreference  string   `json:"placePreference"`
	SocialPreference string   `json:"socialPreference"`
	DiseaseHistory   []string `json:"diseaseHistory"`
}

type recommendResponse struct {
	Recommendations []models.PlanRecommendation `json:"recommendations"`
}

func (c *Client) Recommend(ctx context.Context, prefs models.Preferences) ([]models.PlanRecommendation, error) {
	body, err := json.Marshal(recommendRequest{
		Gender:           prefs.Gender,
		Age:              prefs.Age,
		WeightKg:         prefs.WeightKg,
		HeightCm:         prefs.HeightCm,
		Equipment:        prefs.Equipment,
		Motivation:       prefs.Motivation,
		AvailableTime:    prefs.AvailableTime,
		FitnessLevel:     prefs.FitnessLevel,
		PlacePreference:  prefs.PlacePreference,
		SocialPreference: prefs.SocialPreference,
		DiseaseHistory:   prefs.DiseaseHistory,
	})
	if err != nil {
		return nil, &apperr.Dependency{Service: "recommender", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/recommend", bytes.NewReader(body))
	if err != nil {
		return nil, &apperr.Dependency{Service: "recommender", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &apperr.Dependency{Service: "recommender", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &apperr.Dependency{
			Service: "recommender",
			Err:     fmt.Errorf("unexpected status %d", resp.StatusCode),
		}
	}

	var out recommendResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, &apperr.Dependency{Service: "recommender", Err: err}
	}
	return out.Recommendations, nil
}

var _ Provider = (*Client)(nil)
