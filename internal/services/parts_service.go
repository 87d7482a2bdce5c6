package services

import (
	"chalfim/internal/models"
	"chalfim/internal/repositories"
)

// PartsService handles business logic for the parts catalog.
type PartsService struct {
	repo   repositories.PartRepository
	events EventPublisher
}

// NewPartsService creates a new PartsService.
func NewPartsService(repo repositories.PartRepository, events EventPublisher) *PartsService {
	return &PartsService{repo: repo, events: events}
}

// ListParts retrieves all parts.
func (s *PartsService) ListParts() ([]models.Part, error) {
	return s.repo.GetAll()
}

// AddPart stores a listing with whatever fields the client sent and a
// server-assigned id.
func (s *PartsService) AddPart(fields map[string]interface{}) (models.Part, error) {
	part := models.NewPart(fields)
	if err := s.repo.Create(&part); err != nil {
		return models.Part{}, err
	}
	publish(s.events, EventPartCreated, map[string]interface{}{"partId": part.ID})
	return part, nil
}

// UpdatePart replaces a listing's fields, preserving its id.
func (s *PartsService) UpdatePart(id int64, fields map[string]interface{}) error {
	if err := s.repo.Update(id, fields); err != nil {
		return err
	}
	publish(s.events, EventPartUpdated, map[string]interface{}{"partId": id})
	return nil
}

// DeletePart removes a listing. Deleting an unknown id still succeeds.
func (s *PartsService) DeletePart(id int64) error {
	if err := s.repo.Delete(id); err != nil {
		return err
	}
	publish(s.events, EventPartDeleted, map[string]interface{}{"partId": id})
	return nil
}
