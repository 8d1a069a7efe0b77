package service

import (
	"context"
	"strings"

	"reviewhub/internal/microservices/http-api/dto"
	"reviewhub/internal/microservices/http-api/models"
	"reviewhub/internal/microservices/http-api/repository"
	"reviewhub/pkg/apperror"
)

type CategoryService interface {
	List(ctx context.Context, params dto.ListParams) ([]dto.SlugResponse, int64, error)
	Create(ctx context.Context, req dto.SlugRequest) (*dto.SlugResponse, error)
	Delete(ctx context.Context, slug string) error
}

type categoryService struct {
	repo *repository.CategoryRepo
}

func NewCategoryService(r *repository.CategoryRepo) CategoryService {
	return &categoryService{repo: r}
}

func (s *categoryService) List(ctx context.Context, params dto.ListParams) ([]dto.SlugResponse, int64, error) {
	categories, total, err := s.repo.List(ctx, strings.TrimSpace(params.Search), limitOrAll(params), params.Offset)
	if err != nil {
		return nil, 0, apperror.Internal(err)
	}
	return dto.FromCategories(categories), total, nil
}

func (s *categoryService) Create(ctx context.Context, req dto.SlugRequest) (*dto.SlugResponse, error) {
	c := &models.Category{Name: strings.TrimSpace(req.Name), Slug: req.Slug}
	if c.Name == "" {
		return nil, apperror.Validation("name", "This field may not be blank.")
	}
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, duplicateOr(err, map[string]string{"slug": req.Slug}, slugTaken)
	}
	resp := dto.FromCategory(c)
	return &resp, nil
}

// Delete removes the category; its titles lose their category but survive.
func (s *categoryService) Delete(ctx context.Context, slug string) error {
	if err := s.repo.Delete(ctx, slug); err != nil {
		return notFoundOr(err, "category not found")
	}
	return nil
}
