package catalog

import (
	"context"
	"fmt"

	"stockfeed/internal/model"
)

type ProductReader interface {
	Find(ctx context.Context, filter model.ProductFilter, page model.Page) ([]model.ProductVariant, error)
	Count(ctx context.Context, filter model.ProductFilter) (int64, error)
	Categories(ctx context.Context) ([]string, error)
}

// PageResult is one grouped page. TotalProducts and TotalPages count stored
// variant rows, not groups: a page of 10 rows may hold fewer than 10 groups,
// and a product's variants may be split across two pages.
type PageResult struct {
	Groups        []model.ProductGroup
	CurrentPage   int
	PageSize      int
	TotalPages    int
	TotalProducts int64
}

// Service serves grouped product reads. It has no state of its own and is
// safe for concurrent use.
type Service struct {
	Products ProductReader
}

func NewService(products ProductReader) *Service {
	return &Service{Products: products}
}

func (s *Service) All(ctx context.Context) ([]model.ProductGroup, error) {
	rows, err := s.Products.Find(ctx, model.ProductFilter{}, model.Page{})
	if err != nil {
		return nil, err
	}
	return Group(rows), nil
}

func (s *Service) Paginated(ctx context.Context, req PageRequest) (PageResult, error) {
	return s.page(ctx, model.ProductFilter{}, req)
}

// ByID groups the variants of one external product id. An unknown id yields
// an empty slice.
func (s *Service) ByID(ctx context.Context, productID string) ([]model.ProductGroup, error) {
	rows, err := s.Products.Find(ctx, model.ProductFilter{ProductID: productID}, model.Page{})
	if err != nil {
		return nil, err
	}
	return Group(rows), nil
}

func (s *Service) ByCategory(ctx context.Context, category string, req PageRequest) (PageResult, error) {
	return s.page(ctx, model.ProductFilter{Category: category}, req)
}

func (s *Service) Categories(ctx context.Context) ([]string, error) {
	return s.Products.Categories(ctx)
}

func (s *Service) page(ctx context.Context, filter model.ProductFilter, req PageRequest) (PageResult, error) {
	if err := req.validate(); err != nil {
		return PageResult{}, err
	}
	req = req.normalized()

	rows, err := s.Products.Find(ctx, filter, req.Window())
	if err != nil {
		return PageResult{}, err
	}
	total, err := s.Products.Count(ctx, filter)
	if err != nil {
		return PageResult{}, fmt.Errorf("count products: %w", err)
	}

	return PageResult{
		Groups:        Group(rows),
		CurrentPage:   req.Page,
		PageSize:      req.PageSize,
		TotalPages:    TotalPages(total, req.PageSize),
		TotalProducts: total,
	}, nil
}
