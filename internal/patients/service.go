package patients

import (
	"context"
	"fmt"

	"github.com/klinika-id/klinika/internal/shared"
)

// RepositoryPort defines data access methods for patients.
type RepositoryPort interface {
	ListPatients(ctx context.Context, page, perPage int) ([]Patient, int, error)
	GetPatient(ctx context.Context, id int64) (Patient, error)
}

// Listing is one page of patients with pagination metadata.
type Listing struct {
	Data       []Patient         `json:"data"`
	Pagination shared.Pagination `json:"pagination"`
}

// Service handles patient read flows. Listings are cached briefly since the
// registry changes far less often than it is read.
type Service struct {
	repo  RepositoryPort
	cache *Cache
}

// NewService builds Service instance. cache may be nil.
func NewService(repo RepositoryPort, cache *Cache) *Service {
	return &Service{repo: repo, cache: cache}
}

// ListPatients returns one page of patients.
func (s *Service) ListPatients(ctx context.Context, page, perPage int) (Listing, error) {
	key := fmt.Sprintf("patients:list:%d:%d", page, perPage)
	var listing Listing
	err := s.cache.FetchJSON(ctx, key, &listing, func(ctx context.Context) (any, error) {
		data, total, err := s.repo.ListPatients(ctx, page, perPage)
		if err != nil {
			return nil, err
		}
		if data == nil {
			data = []Patient{}
		}
		return Listing{Data: data, Pagination: shared.NewPagination(page, perPage, total)}, nil
	})
	return listing, err
}

// GetPatient fetches a patient by ID.
func (s *Service) GetPatient(ctx context.Context, id int64) (Patient, error) {
	return s.repo.GetPatient(ctx, id)
}
