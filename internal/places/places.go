// Package places resolves free text and GPS fixes into named locations by
// wrapping the platform's places API.
package places

import (
	"context"

	"github.com/techwithPranab/ride-offers/internal/models"
)

// MinQueryLen is the shortest query that triggers a provider request.
// Shorter input yields an empty result set without touching the network.
const MinQueryLen = 3

// Resolver turns text or coordinates into named locations.
type Resolver interface {
	Search(ctx context.Context, query string, bias *models.Coordinates) ([]models.Location, error)
	ReverseGeocode(ctx context.Context, lat, lng float64) (models.Location, error)
}
