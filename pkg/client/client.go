// Package client is the Go SDK for the ride-offers API. It carries the
// submitter used by the offer wizard's review step and plain wrappers for
// the list and cancel endpoints.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/techwithPranab/ride-offers/internal/models"
	"github.com/techwithPranab/ride-offers/internal/places"
	"github.com/techwithPranab/ride-offers/internal/wire"
)

// User-facing error taxonomy. Every failure is terminal for the in-flight
// call; nothing is retried automatically, the user re-triggers the action.
var (
	// ErrReauthenticate maps HTTP 401: only the external login flow recovers.
	ErrReauthenticate = errors.New("session expired, please log in again")
	// ErrCheckDetails maps HTTP 400: the offer needs corrected input.
	ErrCheckDetails = errors.New("the server rejected the offer, please check the details")
	// ErrCheckConnection covers transport failures and timeouts.
	ErrCheckConnection = errors.New("could not reach the server, please check your connection")
	// ErrServer covers everything else.
	ErrServer = errors.New("something went wrong, please try again")
)

// Client talks to the ride-offers API on behalf of one authenticated driver.
type Client struct {
	BaseURL    string
	Token      string
	HTTPClient *http.Client
}

func New(baseURL, token string) *Client {
	return &Client{BaseURL: baseURL, Token: token, HTTPClient: &http.Client{Timeout: 10 * time.Second}}
}

// CreateOffer posts a serialized draft and returns the created offer.
func (c *Client) CreateOffer(ctx context.Context, payload wire.OfferPayload) (wire.Offer, error) {
	var out wire.Offer
	err := c.do(ctx, http.MethodPost, "/api/v1/ride-offers", payload, &out)
	return out, err
}

// ListOffers fetches the driver's offers, newest first.
func (c *Client) ListOffers(ctx context.Context) ([]wire.Offer, error) {
	var out struct {
		Offers []wire.Offer `json:"offers"`
	}
	err := c.do(ctx, http.MethodGet, "/api/v1/ride-offers", nil, &out)
	return out.Offers, err
}

// CancelOffer cancels one of the driver's offers with a reason.
func (c *Client) CancelOffer(ctx context.Context, offerID, reason string) error {
	path := "/api/v1/ride-offers/" + offerID + "/cancel"
	return c.do(ctx, http.MethodPatch, path, wire.CancelRequest{Reason: reason}, nil)
}

// Search queries the place search endpoint. Together with ReverseGeocode
// this makes Client a places.Resolver, so the debounced Searcher can ride
// on the SDK.
func (c *Client) Search(ctx context.Context, query string, bias *models.Coordinates) ([]models.Location, error) {
	if len(query) < places.MinQueryLen {
		return nil, nil
	}
	q := url.Values{}
	q.Set("q", query)
	if bias != nil {
		q.Set("lat", strconv.FormatFloat(bias.Latitude, 'f', 6, 64))
		q.Set("lng", strconv.FormatFloat(bias.Longitude, 'f', 6, 64))
	}
	var out struct {
		Results []models.Location `json:"results"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/v1/places/search?"+q.Encode(), nil, &out); err != nil {
		return nil, err
	}
	return out.Results, nil
}

// ReverseGeocode resolves a GPS fix into a named location.
func (c *Client) ReverseGeocode(ctx context.Context, lat, lng float64) (models.Location, error) {
	q := url.Values{}
	q.Set("lat", strconv.FormatFloat(lat, 'f', 6, 64))
	q.Set("lng", strconv.FormatFloat(lng, 'f', 6, 64))
	var out models.Location
	err := c.do(ctx, http.MethodGet, "/api/v1/places/reverse?"+q.Encode(), nil, &out)
	return out, err
}

// NewSearcher builds the debounced, stale-response-guarded search helper
// over this client. deliver receives only the latest query's results.
func (c *Client) NewSearcher(debounce time.Duration, deliver func(string, []models.Location, error)) *places.Searcher {
	return places.NewSearcher(c, debounce, deliver)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var rd *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rd = bytes.NewReader(b)
	} else {
		rd = bytes.NewReader(nil)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, rd)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrCheckConnection, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return classifyStatus(resp)
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

func classifyStatus(resp *http.Response) error {
	var detail struct {
		Error string `json:"error"`
	}
	_ = json.NewDecoder(resp.Body).Decode(&detail)

	var base error
	switch resp.StatusCode {
	case http.StatusUnauthorized:
		base = ErrReauthenticate
	case http.StatusBadRequest:
		base = ErrCheckDetails
	default:
		base = ErrServer
	}
	if detail.Error != "" {
		return fmt.Errorf("%w: %s", base, detail.Error)
	}
	return fmt.Errorf("%w: status %d", base, resp.StatusCode)
}
