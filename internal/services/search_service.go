package services

import (
	"context"

	"chalfim/internal/models"
	"chalfim/internal/registry"
	"chalfim/internal/repositories"
)

// SearchService matches catalog parts against a vehicle looked up in the
// external registry.
type SearchService struct {
	registry registry.Registry
	parts    repositories.PartRepository
}

// NewSearchService creates a new SearchService.
func NewSearchService(reg registry.Registry, parts repositories.PartRepository) *SearchService {
	return &SearchService{registry: reg, parts: parts}
}

// SearchResult pairs the vehicle summary with the parts that fit it.
type SearchResult struct {
	Vehicle models.Vehicle
	Parts   []models.Part
}

// SearchByVehicle looks up the identifier in the registry and filters the
// catalog with the match rule. A nil result with a nil error means the
// registry has no record for the identifier.
func (s *SearchService) SearchByVehicle(ctx context.Context, identifier string) (*SearchResult, error) {
	vehicle, err := s.registry.Lookup(ctx, identifier)
	if err != nil {
		return nil, err
	}
	if vehicle == nil {
		return nil, nil
	}

	parts, err := s.parts.GetAll()
	if err != nil {
		return nil, err
	}

	matched := []models.Part{}
	for _, p := range parts {
		if p.MatchesVehicle(vehicle.Make, vehicle.Year) {
			matched = append(matched, p)
		}
	}
	return &SearchResult{Vehicle: *vehicle, Parts: matched}, nil
}
