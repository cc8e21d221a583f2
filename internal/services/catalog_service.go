package services

import (
	"context"

	"shopfront/internal/domain"
	"shopfront/internal/repos"
)

type CatalogService struct {
	Prods      *repos.ProductRepo
	BusinessID string
}

func NewCatalogService(prods *repos.ProductRepo, businessID string) *CatalogService {
	return &CatalogService{Prods: prods, BusinessID: businessID}
}

func (s *CatalogService) ListProducts(ctx context.Context) ([]domain.Product, error) {
	return s.Prods.ListByBusiness(ctx, s.BusinessID)
}

func (s *CatalogService) GetProduct(ctx context.Context, id string) (domain.Product, error) {
	return s.Prods.Get(ctx, s.BusinessID, id)
}
