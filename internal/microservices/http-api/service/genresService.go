package service

import (
	"context"
	"strings"

	"reviewhub/internal/microservices/http-api/dto"
	"reviewhub/internal/microservices/http-api/models"
	"reviewhub/internal/microservices/http-api/repository"
	"reviewhub/pkg/apperror"
)

const slugTaken = "Slug %s уже используется."

type GenreService interface {
	List(ctx context.Context, params dto.ListParams) ([]dto.SlugResponse, int64, error)
	Create(ctx context.Context, req dto.SlugRequest) (*dto.SlugResponse, error)
	Delete(ctx context.Context, slug string) error
}

type genreService struct {
	repo *repository.GenreRepo
}

func NewGenreService(r *repository.GenreRepo) GenreService {
	return &genreService{repo: r}
}

func (s *genreService) List(ctx context.Context, params dto.ListParams) ([]dto.SlugResponse, int64, error) {
	genres, total, err := s.repo.List(ctx, strings.TrimSpace(params.Search), limitOrAll(params), params.Offset)
	if err != nil {
		return nil, 0, apperror.Internal(err)
	}
	return dto.FromGenres(genres), total, nil
}

func (s *genreService) Create(ctx context.Context, req dto.SlugRequest) (*dto.SlugResponse, error) {
	g := &models.Genre{Name: strings.TrimSpace(req.Name), Slug: req.Slug}
	if g.Name == "" {
		return nil, apperror.Validation("name", "This field may not be blank.")
	}
	if err := s.repo.Create(ctx, g); err != nil {
		return nil, duplicateOr(err, map[string]string{"slug": req.Slug}, slugTaken)
	}
	resp := dto.FromGenre(g)
	return &resp, nil
}

func (s *genreService) Delete(ctx context.Context, slug string) error {
	if err := s.repo.Delete(ctx, slug); err != nil {
		return notFoundOr(err, "genre not found")
	}
	return nil
}

// limitOrAll turns an absent limit into the repository's "no limit" value.
func limitOrAll(params dto.ListParams) int {
	if params.Limit == nil {
		return -1
	}
	return *params.Limit
}
