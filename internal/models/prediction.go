package models

import (
	"time"

	"github.com/google/uuid"
)

// PredictionEvent records one successful estimate. It is published after the
// response is computed and consumed by the audit worker.
type PredictionEvent struct {
	ID        string    `json:"id"`
	User      string    `json:"user"`
	Location  string    `json:"location"`
	Geohash   string    `json:"geohash,omitempty"`
	Features  []float64 `json:"features"`
	Estimate  float64   `json:"estimate"`
	Scaled    float64   `json:"scaled"`
	Formatted string    `json:"formatted"`
	CreatedAt time.Time `json:"created_at"`
}

// NewPredictionEvent stamps a fresh id and creation time.
func NewPredictionEvent(user, location string, features []float64, estimate, scaled float64, formatted string) PredictionEvent {
	return PredictionEvent{
		ID:        uuid.NewString(),
		User:      user,
		Location:  location,
		Features:  features,
		Estimate:  estimate,
		Scaled:    scaled,
		Formatted: formatted,
		CreatedAt: time.Now().UTC(),
	}
}
