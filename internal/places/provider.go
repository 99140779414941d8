package places

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/techwithPranab/ride-offers/internal/geo"
	"github.com/techwithPranab/ride-offers/internal/models"
)

// HTTPProvider performs search and reverse-geocode lookups against the
// places API over HTTP.
type HTTPProvider struct {
	Endpoint string
	Client   *http.Client
}

func NewHTTPProvider(endpoint string) *HTTPProvider {
	return &HTTPProvider{Endpoint: endpoint, Client: &http.Client{Timeout: 3 * time.Second}}
}

type placeResult struct {
	Name      string  `json:"name"`
	Address   string  `json:"address"`
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lng"`
	PlaceID   string  `json:"place_id"`
}

// Search queries GET {endpoint}/places/search?q=&lat=&lng=. Queries below
// MinQueryLen return empty without a request. When a bias is given the
// results come back ordered by distance from it; the provider itself does
// not guarantee an ordering.
func (h *HTTPProvider) Search(ctx context.Context, query string, bias *models.Coordinates) ([]models.Location, error) {
	query = strings.TrimSpace(query)
	if len(query) < MinQueryLen {
		return nil, nil
	}

	q := url.Values{}
	q.Set("q", query)
	if bias != nil {
		q.Set("lat", formatCoord(bias.Latitude))
		q.Set("lng", formatCoord(bias.Longitude))
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.Endpoint+"/places/search?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := h.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("places search: status %d", resp.StatusCode)
	}

	var out struct {
		Results []placeResult `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("places search decode: %w", err)
	}

	locs := make([]models.Location, 0, len(out.Results))
	for _, r := range out.Results {
		locs = append(locs, models.Location{
			Name:        r.Name,
			Address:     r.Address,
			Coordinates: models.Coordinates{Latitude: r.Latitude, Longitude: r.Longitude},
			PlaceID:     r.PlaceID,
		})
	}
	if bias != nil {
		sort.SliceStable(locs, func(i, j int) bool {
			return geo.Distance(locs[i].Coordinates, *bias) < geo.Distance(locs[j].Coordinates, *bias)
		})
	}
	return locs, nil
}

// ReverseGeocode queries GET {endpoint}/places/reverse?lat=&lng= and returns
// the formatted address for the fix.
func (h *HTTPProvider) ReverseGeocode(ctx context.Context, lat, lng float64) (models.Location, error) {
	q := url.Values{}
	q.Set("lat", formatCoord(lat))
	q.Set("lng", formatCoord(lng))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.Endpoint+"/places/reverse?"+q.Encode(), nil)
	if err != nil {
		return models.Location{}, err
	}
	resp, err := h.Client.Do(req)
	if err != nil {
		return models.Location{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return models.Location{}, fmt.Errorf("places reverse: status %d", resp.StatusCode)
	}

	var r placeResult
	if err := json.NewDecoder(resp.Body).Decode(&r); err != nil {
		return models.Location{}, fmt.Errorf("places reverse decode: %w", err)
	}
	return models.Location{
		Name:        r.Name,
		Address:     r.Address,
		Coordinates: models.Coordinates{Latitude: r.Latitude, Longitude: r.Longitude},
		PlaceID:     r.PlaceID,
	}, nil
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}
