// Package refdata serves the static reference lists the storefront needs:
// countries, states per country, and product categories. Results are cached
// for the process lifetime; concurrent misses for the same key collapse into
// one backend call.
package refdata

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/avelis/shopfront/internal/domain"
)

// Source is the backend subset this service reads from.
type Source interface {
	Countries(ctx context.Context) ([]domain.Country, error)
	States(ctx context.Context, countryCode string) ([]domain.State, error)
	ProductCategories(ctx context.Context) ([]domain.ProductCategory, error)
}

type Service struct {
	source Source
	sfg    singleflight.Group // Prevents duplicate fetches for the same key

	mu         sync.RWMutex
	countries  []domain.Country
	categories []domain.ProductCategory
	states     map[string][]domain.State
}

func NewService(source Source) *Service {
	return &Service{
		source: source,
		states: make(map[string][]domain.State),
	}
}

func (s *Service) Countries(ctx context.Context) ([]domain.Country, error) {
	s.mu.RLock()
	cached := s.countries
	s.mu.RUnlock()
	if cached != nil {
		return cached, nil
	}

	v, err, _ := s.sfg.Do("countries", func() (interface{}, error) {
		countries, err := s.source.Countries(ctx)
		if err != nil {
			return nil, err
		}
		s.mu.Lock()
		s.countries = countries
		s.mu.Unlock()
		return countries, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]domain.Country), nil
}

func (s *Service) States(ctx context.Context, countryCode string) ([]domain.State, error) {
	s.mu.RLock()
	cached, exists := s.states[countryCode]
	s.mu.RUnlock()
	if exists {
		return cached, nil
	}

	v, err, _ := s.sfg.Do("states:"+countryCode, func() (interface{}, error) {
		states, err := s.source.States(ctx, countryCode)
		if err != nil {
			return nil, err
		}
		s.mu.Lock()
		s.states[countryCode] = states
		s.mu.Unlock()
		return states, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]domain.State), nil
}

func (s *Service) ProductCategories(ctx context.Context) ([]domain.ProductCategory, error) {
	s.mu.RLock()
	cached := s.categories
	s.mu.RUnlock()
	if cached != nil {
		return cached, nil
	}

	v, err, _ := s.sfg.Do("categories", func() (interface{}, error) {
		categories, err := s.source.ProductCategories(ctx)
		if err != nil {
			return nil, err
		}
		s.mu.Lock()
		s.categories = categories
		s.mu.Unlock()
		return categories, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]domain.ProductCategory), nil
}

// Country resolves a country by code from the cached list.
func (s *Service) Country(ctx context.Context, code string) (*domain.Country, error) {
	countries, err := s.Countries(ctx)
	if err != nil {
		return nil, err
	}
	for i := range countries {
		if countries[i].Code == code {
			return &countries[i], nil
		}
	}
	return nil, nil
}
