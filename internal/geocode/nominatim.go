package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/mr1hm/disaster-scout/internal/models"
)

const DefaultNominatimURL = "https://nominatim.openstreetmap.org"

type NominatimOptions struct {
	BaseURL   string
	UserAgent string
	// RequestsPerSecond throttles outbound lookups. The public instance
	// allows at most one per second.
	RequestsPerSecond float64
	Timeout           time.Duration
}

type Nominatim struct {
	opts       NominatimOptions
	limiter    *rate.Limiter
	httpClient *http.Client
}

type nominatimPlace struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

func NewNominatim(opts NominatimOptions) (*Nominatim, error) {
	if opts.UserAgent == "" {
		return nil, errors.New("geocode: user agent is required by the nominatim usage policy")
	}
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultNominatimURL
	}
	if opts.RequestsPerSecond <= 0 {
		opts.RequestsPerSecond = 1
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	return &Nominatim{
		opts:       opts,
		limiter:    rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 1),
		httpClient: &http.Client{Timeout: opts.Timeout},
	}, nil
}

func (n *Nominatim) Geocode(ctx context.Context, name string) (models.Coordinates, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return models.Coordinates{}, &Error{Kind: ErrNotFound, Name: name}
	}

	if err := n.limiter.Wait(ctx); err != nil {
		return models.Coordinates{}, &Error{Kind: ErrService, Name: name, Err: err}
	}

	params := url.Values{}
	params.Set("q", name)
	params.Set("format", "jsonv2")
	params.Set("limit", "1")

	endpoint := strings.TrimRight(n.opts.BaseURL, "/") + "/search?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return models.Coordinates{}, &Error{Kind: ErrService, Name: name, Err: fmt.Errorf("error creating request: %w", err)}
	}
	req.Header.Set("User-Agent", n.opts.UserAgent)

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return models.Coordinates{}, &Error{Kind: ErrService, Name: name, Err: fmt.Errorf("error while doing request: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return models.Coordinates{}, &Error{Kind: ErrService, Name: name, Err: fmt.Errorf("unexpected status code: %d - status: %s", resp.StatusCode, resp.Status)}
	}

	var places []nominatimPlace
	if err := json.NewDecoder(resp.Body).Decode(&places); err != nil {
		return models.Coordinates{}, &Error{Kind: ErrService, Name: name, Err: fmt.Errorf("error decoding resp.Body: %w", err)}
	}
	if len(places) == 0 {
		return models.Coordinates{}, &Error{Kind: ErrNotFound, Name: name}
	}

	lat, err := strconv.ParseFloat(places[0].Lat, 64)
	if err != nil {
		return models.Coordinates{}, &Error{Kind: ErrService, Name: name, Err: fmt.Errorf("invalid latitude %q: %w", places[0].Lat, err)}
	}
	lon, err := strconv.ParseFloat(places[0].Lon, 64)
	if err != nil {
		return models.Coordinates{}, &Error{Kind: ErrService, Name: name, Err: fmt.Errorf("invalid longitude %q: %w", places[0].Lon, err)}
	}

	return models.Coordinates{Latitude: lat, Longitude: lon}, nil
}
