package app

import (
	"context"
	"strings"
	"time"

	"review_hero/internal/domain"
)

const maxPlaceResults = 5

type PlacesService struct {
	client   domain.PlacesClient
	cache    domain.Cache
	cacheTTL time.Duration
}

// NewPlacesService accepts a nil client and then serves fixed mock results,
// which keeps onboarding usable without a Places API key.
func NewPlacesService(c domain.PlacesClient, cache domain.Cache, ttl time.Duration) *PlacesService {
	return &PlacesService{client: c, cache: cache, cacheTTL: ttl}
}

func mockPlaces(q string) []domain.PlaceResult {
	return []domain.PlaceResult{
		{PlaceID: "mock_place_id_1", Name: q, Address: "123 Main Street, New York, NY", Rating: ptr(4.5), ReviewCount: ptr(47)},
		{PlaceID: "mock_place_id_2", Name: q + " - Downtown", Address: "456 Broadway, New York, NY", Rating: ptr(4.2), ReviewCount: ptr(23)},
	}
}

func (s *PlacesService) Search(ctx context.Context, q string) ([]domain.PlaceResult, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return nil, domain.NewValidationError("q", "is required")
	}
	if s.client == nil {
		return mockPlaces(q), nil
	}

	key := "places:" + strings.ToLower(q)
	var out []domain.PlaceResult
	if s.cache != nil {
		if ok, _ := s.cache.Get(ctx, key, &out); ok {
			return out, nil
		}
	}
	raw, err := s.client.TextSearch(ctx, q)
	if err != nil {
		return nil, err
	}
	out = mapPlaces(raw, maxPlaceResults)
	if s.cache != nil {
		_ = s.cache.Set(ctx, key, out, int(s.cacheTTL.Seconds()))
	}
	return out, nil
}
