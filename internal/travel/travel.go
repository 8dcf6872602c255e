package travel

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/Jackob-K/personal-ai-infra/internal/config"
	"github.com/Jackob-K/personal-ai-infra/internal/errors"
	"github.com/Jackob-K/personal-ai-infra/internal/logger"
	"github.com/Jackob-K/personal-ai-infra/internal/models"
)

const googleBaseURL = "https://maps.googleapis.com/maps/api/distancematrix/json"

// Request describes a single one-way trip to estimate.
type Request struct {
	Origin        string     `json:"origin"`
	Destination   string     `json:"destination"`
	Mode          string     `json:"mode"`
	DepartureTime *time.Time `json:"departure_time,omitempty"`
}

// Estimator computes travel durations via the Google Distance Matrix API
// when a key is configured, falling back to the planner's configured one-way
// default otherwise.
type Estimator struct {
	cfg        *config.Loader
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

func New(cfg *config.Loader) *Estimator {
	return &Estimator{
		cfg:        cfg,
		apiKey:     os.Getenv("GOOGLE_MAPS_API_KEY"),
		baseURL:    googleBaseURL,
		httpClient: &http.Client{Timeout: 8 * time.Second},
	}
}

// Estimate never fails on provider trouble. A missing key, unreachable API,
// or malformed response all degrade to the configured fallback duration.
func (e *Estimator) Estimate(ctx context.Context, req Request) (models.TravelEstimate, error) {
	if req.Origin == "" || req.Destination == "" {
		return models.TravelEstimate{}, errors.InvalidRequestf("origin and destination are required")
	}
	if req.Mode == "" {
		req.Mode = "transit"
	}

	if e.apiKey != "" {
		if estimate, ok := e.estimateViaGoogle(ctx, req); ok {
			return estimate, nil
		}
	}

	return e.fallback(), nil
}

func (e *Estimator) fallback() models.TravelEstimate {
	minutes := 30
	if cfg, err := e.cfg.Load(); err == nil && cfg.TravelDefaults.OneWayMinutes > 0 {
		minutes = cfg.TravelDefaults.OneWayMinutes
	}
	return models.TravelEstimate{
		Provider:    "fallback",
		DurationMin: minutes,
		Status:      "estimated",
		Detail:      "Routing API not configured or unavailable. Used planner default.",
	}
}

type googleDuration struct {
	Value int    `json:"value"`
	Text  string `json:"text"`
}

type googleResponse struct {
	Rows []struct {
		Elements []struct {
			Duration          *googleDuration `json:"duration"`
			DurationInTraffic *googleDuration `json:"duration_in_traffic"`
		} `json:"elements"`
	} `json:"rows"`
}

func (e *Estimator) estimateViaGoogle(ctx context.Context, req Request) (models.TravelEstimate, bool) {
	departure := time.Now()
	if req.DepartureTime != nil {
		departure = *req.DepartureTime
	}

	query := url.Values{}
	query.Set("origins", req.Origin)
	query.Set("destinations", req.Destination)
	query.Set("mode", req.Mode)
	query.Set("departure_time", strconv.FormatInt(departure.Unix(), 10))
	query.Set("key", e.apiKey)
	query.Set("language", "cs")

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s?%s", e.baseURL, query.Encode()), nil)
	if err != nil {
		return models.TravelEstimate{}, false
	}

	resp, err := e.httpClient.Do(httpReq)
	if err != nil {
		logger.Debug("distance matrix request failed", "error", err)
		return models.TravelEstimate{}, false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return models.TravelEstimate{}, false
	}

	var parsed googleResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return models.TravelEstimate{}, false
	}

	if len(parsed.Rows) == 0 || len(parsed.Rows[0].Elements) == 0 {
		return models.TravelEstimate{}, false
	}

	element := parsed.Rows[0].Elements[0]
	duration := element.Duration
	if duration == nil {
		duration = element.DurationInTraffic
	}
	if duration == nil || duration.Value <= 0 {
		return models.TravelEstimate{}, false
	}

	minutes := int(math.Round(float64(duration.Value) / 60))
	if minutes < 1 {
		minutes = 1
	}

	return models.TravelEstimate{
		Provider:    "google_maps",
		DurationMin: minutes,
		Status:      "estimated",
		Detail:      duration.Text,
	}, true
}
