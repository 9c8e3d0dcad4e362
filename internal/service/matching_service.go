package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/gpexpress/backend/internal/model"
	"github.com/gpexpress/backend/internal/repository"
)

type MatchingService interface {
	// FindMatches returns every annonce whose origin and destination cities
	// contain the given cities as case-insensitive substrings and whose
	// departure date matches exactly. An empty result is not an error; the
	// caller decides how to signal "no match".
	FindMatches(ctx context.Context, originCity, destinationCity, departureDate string) ([]model.Annonce, error)
}

type matchingService struct {
	annonceRepo repository.AnnonceRepository
}

func NewMatchingService(annonceRepo repository.AnnonceRepository) MatchingService {
	return &matchingService{annonceRepo: annonceRepo}
}

func (s *matchingService) FindMatches(ctx context.Context, originCity, destinationCity, departureDate string) ([]model.Annonce, error) {
	if strings.TrimSpace(originCity) == "" || strings.TrimSpace(destinationCity) == "" || strings.TrimSpace(departureDate) == "" {
		return nil, fmt.Errorf("%w: origin, destination and date are required", ErrValidation)
	}
	return s.annonceRepo.FindMatching(ctx, originCity, destinationCity, departureDate)
}
