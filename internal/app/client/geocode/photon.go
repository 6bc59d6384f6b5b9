// Package geocode переводит адреса в координаты и чинит карточки без координат.
package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/exp/slog"
	"golang.org/x/time/rate"
)

const (
	DefaultPhotonURL = "https://photon.komoot.io/api/"

	// maxCandidates - сколько вариантов адреса пробуем, отбрасывая начало
	maxCandidates = 3
)

// Point - пара координат
type Point struct {
	Lat float64
	Lng float64
}

// Geocoder возвращает лучшее совпадение или nil, nil если адрес не найден
type Geocoder interface {
	Geocode(ctx context.Context, address string) (*Point, error)
}

type PhotonOption func(*Photon)

func WithHTTPClient(c *http.Client) PhotonOption {
	return func(p *Photon) {
		p.client = c
	}
}

// WithRateLimit ограничивает число запросов в секунду
func WithRateLimit(rps float64) PhotonOption {
	return func(p *Photon) {
		if rps > 0 {
			p.limiter = rate.NewLimiter(rate.Limit(rps), 1)
		}
	}
}

// Photon - геокодер поверх photon.komoot.io (GeoJSON, координаты [lng, lat])
type Photon struct {
	client  *http.Client
	baseURL string
	limiter *rate.Limiter
	log     *slog.Logger
}

var _ Geocoder = (*Photon)(nil)

func NewPhoton(baseURL string, log *slog.Logger, opts ...PhotonOption) *Photon {
	if baseURL == "" {
		baseURL = DefaultPhotonURL
	}

	p := &Photon{
		client:  &http.Client{Timeout: 10 * time.Second},
		baseURL: baseURL,
		limiter: rate.NewLimiter(rate.Limit(1), 1),
		log:     log.With("component", "photon"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Geocode перебирает варианты адреса от полного к более общему
func (p *Photon) Geocode(ctx context.Context, address string) (*Point, error) {
	candidates := Candidates(address)
	if len(candidates) == 0 {
		return nil, nil
	}

	var lastErr error
	answered := false
	for _, q := range candidates {
		pt, err := p.lookup(ctx, q)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			p.log.Warn("geocode request failed", "query", q, "error", err)
			lastErr = err
			continue
		}
		answered = true
		if pt != nil {
			return pt, nil
		}
		p.log.Debug("no match", "query", q)
	}

	if !answered {
		return nil, lastErr
	}
	return nil, nil
}

type photonResponse struct {
	Features []struct {
		Geometry struct {
			Coordinates []float64 `json:"coordinates"`
		} `json:"geometry"`
	} `json:"features"`
}

func (p *Photon) lookup(ctx context.Context, query string) (*Point, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("q", query)
	q.Set("limit", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("geocoder returned status %d", resp.StatusCode)
	}

	var body photonResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if len(body.Features) == 0 {
		return nil, nil
	}

	coords := body.Features[0].Geometry.Coordinates
	if len(coords) < 2 {
		return nil, errors.New("malformed geometry")
	}
	pt := &Point{Lat: coords[1], Lng: coords[0]}
	if math.IsNaN(pt.Lat) || math.IsNaN(pt.Lng) {
		return nil, errors.New("malformed geometry")
	}

	return pt, nil
}

// Candidates - полный адрес, затем адрес без первой части до запятой, и так далее
func Candidates(address string) []string {
	var parts []string
	for _, part := range strings.Split(address, ",") {
		if part = strings.TrimSpace(part); part != "" {
			parts = append(parts, part)
		}
	}

	out := make([]string, 0, maxCandidates)
	for i := 0; i < len(parts) && len(out) < maxCandidates; i++ {
		out = append(out, strings.Join(parts[i:], ", "))
	}
	return out
}
