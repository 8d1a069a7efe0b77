package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"reviewhub/internal/microservices/http-api/dto"
	"reviewhub/internal/microservices/http-api/models"
	"reviewhub/internal/microservices/http-api/repository"
	"reviewhub/pkg/apperror"
)

const slugDoesNotExist = "Object with slug=%s does not exist."

type TitleService interface {
	List(ctx context.Context, filter repository.TitleFilter, page dto.PageParams) ([]dto.TitleResponse, int64, error)
	Get(ctx context.Context, id int64) (*dto.TitleResponse, error)
	Create(ctx context.Context, req dto.TitleRequest) (*dto.TitleResponse, error)
	Replace(ctx context.Context, id int64, req dto.TitleRequest) (*dto.TitleResponse, error)
	Patch(ctx context.Context, id int64, patch dto.TitlePatch) (*dto.TitleResponse, error)
	Delete(ctx context.Context, id int64) error
}

type titleService struct {
	titles     *repository.TitleRepo
	genres     *repository.GenreRepo
	categories *repository.CategoryRepo
	now        func() time.Time
}

func NewTitleService(titles *repository.TitleRepo, genres *repository.GenreRepo, categories *repository.CategoryRepo) TitleService {
	return &titleService{titles: titles, genres: genres, categories: categories, now: time.Now}
}

func (s *titleService) List(ctx context.Context, filter repository.TitleFilter, page dto.PageParams) ([]dto.TitleResponse, int64, error) {
	titles, total, err := s.titles.List(ctx, filter, page.PageSize, page.Offset())
	if err != nil {
		return nil, 0, apperror.Internal(err)
	}
	return dto.FromModelsToTitleResponses(titles), total, nil
}

func (s *titleService) Get(ctx context.Context, id int64) (*dto.TitleResponse, error) {
	title, err := s.titles.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "title not found")
	}
	resp := dto.FromModelToTitleResponse(title)
	return &resp, nil
}

func (s *titleService) Create(ctx context.Context, req dto.TitleRequest) (*dto.TitleResponse, error) {
	title := &models.Title{}
	genres, err := s.applyRequest(ctx, title, req)
	if err != nil {
		return nil, err
	}
	if err := s.titles.Create(ctx, title, genres); err != nil {
		return nil, apperror.Internal(err)
	}
	return s.Get(ctx, title.ID)
}

// Replace overwrites the title (PUT); genres are required as on create.
func (s *titleService) Replace(ctx context.Context, id int64, req dto.TitleRequest) (*dto.TitleResponse, error) {
	title, err := s.titles.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "title not found")
	}
	genres, err := s.applyRequest(ctx, title, req)
	if err != nil {
		return nil, err
	}
	if err := s.titles.Update(ctx, title, genres); err != nil {
		return nil, apperror.Internal(err)
	}
	return s.Get(ctx, id)
}

func (s *titleService) Patch(ctx context.Context, id int64, patch dto.TitlePatch) (*dto.TitleResponse, error) {
	title, err := s.titles.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "title not found")
	}

	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return nil, apperror.Validation("name", "This field may not be blank.")
		}
		title.Name = name
	}
	if patch.Year != nil {
		if err := s.validateYear(patch.Year); err != nil {
			return nil, err
		}
		title.Year = patch.Year
	}
	if patch.Description != nil {
		title.Description = *patch.Description
	}
	if patch.Category != nil {
		categoryID, err := s.resolveCategory(ctx, patch.Category)
		if err != nil {
			return nil, err
		}
		title.CategoryID = categoryID
	}

	var genres []models.Genre
	if patch.Genre != nil {
		if len(*patch.Genre) == 0 {
			return nil, apperror.Validation("genre", "Ensure this field has at least 1 items.")
		}
		if genres, err = s.resolveGenres(ctx, *patch.Genre); err != nil {
			return nil, err
		}
	}

	title.Category = nil
	if err := s.titles.Update(ctx, title, genres); err != nil {
		return nil, apperror.Internal(err)
	}
	return s.Get(ctx, id)
}

func (s *titleService) Delete(ctx context.Context, id int64) error {
	if err := s.titles.Delete(ctx, id); err != nil {
		return notFoundOr(err, "title not found")
	}
	return nil
}

// applyRequest validates req and copies it onto title, returning the resolved genres.
func (s *titleService) applyRequest(ctx context.Context, title *models.Title, req dto.TitleRequest) ([]models.Genre, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, apperror.Validation("name", "This field may not be blank.")
	}
	if err := s.validateYear(req.Year); err != nil {
		return nil, err
	}
	categoryID, err := s.resolveCategory(ctx, req.Category)
	if err != nil {
		return nil, err
	}
	genres, err := s.resolveGenres(ctx, req.Genre)
	if err != nil {
		return nil, err
	}

	title.Name = name
	title.Year = req.Year
	title.Description = req.Description
	title.CategoryID = categoryID
	title.Category = nil
	return genres, nil
}

func (s *titleService) validateYear(year *int) error {
	if year != nil && *year > s.now().Year() {
		return apperror.Validation("year", "Year cannot be later than the current year.")
	}
	return nil
}

func (s *titleService) resolveCategory(ctx context.Context, slug *string) (*int64, error) {
	if slug == nil || *slug == "" {
		return nil, nil
	}
	category, err := s.categories.GetBySlug(ctx, *slug)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperror.Validation("category", fmt.Sprintf(slugDoesNotExist, *slug))
	}
	if err != nil {
		return nil, apperror.Internal(err)
	}
	return &category.ID, nil
}

func (s *titleService) resolveGenres(ctx context.Context, slugs []string) ([]models.Genre, error) {
	if len(slugs) == 0 {
		return nil, apperror.Validation("genre", "This field is required.")
	}
	found, err := s.genres.GetBySlugs(ctx, slugs)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	bySlug := make(map[string]models.Genre, len(found))
	for _, g := range found {
		bySlug[g.Slug] = g
	}

	genres := make([]models.Genre, 0, len(slugs))
	seen := make(map[string]bool, len(slugs))
	for _, slug := range slugs {
		g, ok := bySlug[slug]
		if !ok {
			return nil, apperror.Validation("genre", fmt.Sprintf(slugDoesNotExist, slug))
		}
		if !seen[slug] {
			seen[slug] = true
			genres = append(genres, g)
		}
	}
	return genres, nil
}
