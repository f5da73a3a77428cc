package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// meterResponse is the distribution company's reading payload
type meterResponse struct {
	UnitsStart *float64 `json:"units_start"`
	UnitsEnd   *float64 `json:"units_end"`
	Balance    *float64 `json:"balance"`
}

// APISource reads the meter from the distribution company's HTTP API
type APISource struct {
	httpClient *resty.Client
	meterID    string
}

// NewAPISource creates a Resty-backed meter client
func NewAPISource(baseURL, meterID, token string) *APISource {
	client := resty.New().
		SetBaseURL(baseURL).
		SetHeader("Accept", "application/json").
		SetTimeout(30 * time.Second)
	if token != "" {
		client.SetAuthToken(token)
	}
	return &APISource{httpClient: client, meterID: meterID}
}

// Read calls GET /meters/{id}/reading
func (s *APISource) Read(ctx context.Context) (Reading, error) {
	if s.meterID == "" {
		return Reading{}, fmt.Errorf("meter id is required")
	}

	var body meterResponse
	resp, err := s.httpClient.R().
		SetContext(ctx).
		SetPathParam("id", s.meterID).
		SetResult(&body).
		Get("/meters/{id}/reading")
	if err != nil {
		return Reading{}, fmt.Errorf("requesting meter reading: %w", err)
	}
	if resp.IsError() {
		return Reading{}, fmt.Errorf("meter api error: status %d, response: %s", resp.StatusCode(), resp.String())
	}

	switch {
	case body.UnitsEnd != nil && body.UnitsStart != nil:
		return Reading{UnitsStart: *body.UnitsStart, UnitsEnd: *body.UnitsEnd, HasStart: true}, nil
	case body.UnitsEnd != nil:
		return Reading{UnitsEnd: *body.UnitsEnd}, nil
	case body.Balance != nil:
		return Reading{UnitsEnd: *body.Balance}, nil
	default:
		return Reading{}, fmt.Errorf("meter api response has no units")
	}
}
