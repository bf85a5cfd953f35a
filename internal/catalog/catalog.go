// Package catalog serves the product listing the storefront's catalog
// pages read through this service.
package catalog

import (
	"context"
	"fmt"
)

type Product struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Currency string  `json:"currency"`
	Image    string  `json:"image,omitempty"`
	Brand    string  `json:"brand,omitempty"`
	Category string  `json:"category,omitempty"`
}

type DocStore interface {
	List(ctx context.Context, collection string, out any) error
}

type Service struct {
	store      DocStore
	collection string
}

func NewService(store DocStore, collection string) *Service {
	return &Service{store: store, collection: collection}
}

func (s *Service) List(ctx context.Context) ([]Product, error) {
	var products []Product
	if err := s.store.List(ctx, s.collection, &products); err != nil {
		return nil, fmt.Errorf("load products: %w", err)
	}
	return products, nil
}
