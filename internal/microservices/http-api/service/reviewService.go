package service

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"reviewhub/internal/microservices/http-api/dto"
	"reviewhub/internal/microservices/http-api/models"
	"reviewhub/internal/microservices/http-api/repository"
	"reviewhub/internal/permission"
	"reviewhub/pkg/apperror"
)

const reviewExists = "Можно оставить только один отзыв на произведение."

// TitleLookup is the slice of the title repository reviews need.
type TitleLookup interface {
	Exists(ctx context.Context, id int64) error
}

type ReviewService interface {
	List(ctx context.Context, titleID int64, params dto.ListParams) ([]dto.ReviewResponse, int64, error)
	Get(ctx context.Context, titleID, reviewID int64) (*dto.ReviewResponse, error)
	Create(ctx context.Context, actor *models.User, titleID int64, req dto.ReviewRequest) (*dto.ReviewResponse, error)
	Update(ctx context.Context, actor *models.User, titleID, reviewID int64, patch dto.ReviewPatch) (*dto.ReviewResponse, error)
	Delete(ctx context.Context, actor *models.User, titleID, reviewID int64) error
}

type reviewService struct {
	reviews repository.ReviewRepository
	titles  TitleLookup
}

func NewReviewService(reviews repository.ReviewRepository, titles TitleLookup) ReviewService {
	return &reviewService{reviews: reviews, titles: titles}
}

func (s *reviewService) requireTitle(ctx context.Context, titleID int64) error {
	if err := s.titles.Exists(ctx, titleID); err != nil {
		return notFoundOr(err, "title not found")
	}
	return nil
}

// resolve loads a review through its title; a review of another title is a 404.
func (s *reviewService) resolve(ctx context.Context, titleID, reviewID int64) (*models.Review, error) {
	if err := s.requireTitle(ctx, titleID); err != nil {
		return nil, err
	}
	review, err := s.reviews.GetByTitle(ctx, titleID, reviewID)
	if err != nil {
		return nil, notFoundOr(err, "review not found")
	}
	return review, nil
}

func (s *reviewService) List(ctx context.Context, titleID int64, params dto.ListParams) ([]dto.ReviewResponse, int64, error) {
	if err := s.requireTitle(ctx, titleID); err != nil {
		return nil, 0, err
	}
	reviews, total, err := s.reviews.ListByTitle(ctx, titleID, limitOrAll(params), params.Offset)
	if err != nil {
		return nil, 0, apperror.Internal(err)
	}
	return dto.FromModelsToReviewResponses(reviews), total, nil
}

func (s *reviewService) Get(ctx context.Context, titleID, reviewID int64) (*dto.ReviewResponse, error) {
	review, err := s.resolve(ctx, titleID, reviewID)
	if err != nil {
		return nil, err
	}
	resp := dto.FromModelToReviewResponse(review)
	return &resp, nil
}

// Create stores a review by actor for the title. The unique index rejects a
// second review by the same author; there is no read-before-write.
func (s *reviewService) Create(ctx context.Context, actor *models.User, titleID int64, req dto.ReviewRequest) (*dto.ReviewResponse, error) {
	if err := permission.Evaluate(permission.AuthorOrModeratorOrReadOnly, actor, http.MethodPost, "").Err(); err != nil {
		return nil, err
	}
	if err := s.requireTitle(ctx, titleID); err != nil {
		return nil, err
	}
	text := strings.TrimSpace(req.Text)
	if text == "" {
		return nil, apperror.Validation("text", "This field may not be blank.")
	}
	if req.Score == nil {
		return nil, apperror.Validation("score", "This field is required.")
	}

	review := &models.Review{
		TitleID:  titleID,
		AuthorID: actor.ID,
		Text:     text,
		Score:    *req.Score,
	}
	if err := s.reviews.Create(ctx, review); err != nil {
		var dup *repository.DuplicateError
		if errors.As(err, &dup) {
			return nil, apperror.Conflict("non_field_errors", reviewExists)
		}
		return nil, apperror.Internal(err)
	}
	review.Author = *actor

	resp := dto.FromModelToReviewResponse(review)
	return &resp, nil
}

func (s *reviewService) Update(ctx context.Context, actor *models.User, titleID, reviewID int64, patch dto.ReviewPatch) (*dto.ReviewResponse, error) {
	review, err := s.resolve(ctx, titleID, reviewID)
	if err != nil {
		return nil, err
	}
	if err := permission.Evaluate(permission.AuthorOrModeratorOrReadOnly, actor, http.MethodPatch, review.AuthorID).Err(); err != nil {
		return nil, err
	}

	if patch.Text != nil {
		text := strings.TrimSpace(*patch.Text)
		if text == "" {
			return nil, apperror.Validation("text", "This field may not be blank.")
		}
		review.Text = text
	}
	if patch.Score != nil {
		review.Score = *patch.Score
	}
	if err := s.reviews.Update(ctx, review); err != nil {
		return nil, apperror.Internal(err)
	}

	resp := dto.FromModelToReviewResponse(review)
	return &resp, nil
}

func (s *reviewService) Delete(ctx context.Context, actor *models.User, titleID, reviewID int64) error {
	review, err := s.resolve(ctx, titleID, reviewID)
	if err != nil {
		return err
	}
	if err := permission.Evaluate(permission.AuthorOrModeratorOrReadOnly, actor, http.MethodDelete, review.AuthorID).Err(); err != nil {
		return err
	}
	if err := s.reviews.Delete(ctx, review.ID); err != nil {
		return notFoundOr(err, "review not found")
	}
	return nil
}
