package service

import (
	"context"
	"net/http"
	"strings"

	"reviewhub/internal/microservices/http-api/dto"
	"reviewhub/internal/microservices/http-api/models"
	"reviewhub/internal/microservices/http-api/repository"
	"reviewhub/internal/permission"
	"reviewhub/pkg/apperror"
)

type CommentService interface {
	List(ctx context.Context, titleID, reviewID int64, params dto.ListParams) ([]dto.CommentResponse, int64, error)
	Get(ctx context.Context, titleID, reviewID, commentID int64) (*dto.CommentResponse, error)
	Create(ctx context.Context, actor *models.User, titleID, reviewID int64, req dto.CommentRequest) (*dto.CommentResponse, error)
	Update(ctx context.Context, actor *models.User, titleID, reviewID, commentID int64, patch dto.CommentPatch) (*dto.CommentResponse, error)
	Delete(ctx context.Context, actor *models.User, titleID, reviewID, commentID int64) error
}

type commentService struct {
	comments repository.CommentRepository
	reviews  repository.ReviewRepository
	titles   TitleLookup
}

func NewCommentService(comments repository.CommentRepository, reviews repository.ReviewRepository, titles TitleLookup) CommentService {
	return &commentService{comments: comments, reviews: reviews, titles: titles}
}

// resolveReview walks title -> review; either missing, or a review of another title, is a 404.
func (s *commentService) resolveReview(ctx context.Context, titleID, reviewID int64) (*models.Review, error) {
	if err := s.titles.Exists(ctx, titleID); err != nil {
		return nil, notFoundOr(err, "title not found")
	}
	review, err := s.reviews.GetByTitle(ctx, titleID, reviewID)
	if err != nil {
		return nil, notFoundOr(err, "review not found")
	}
	return review, nil
}

func (s *commentService) resolve(ctx context.Context, titleID, reviewID, commentID int64) (*models.Comment, error) {
	review, err := s.resolveReview(ctx, titleID, reviewID)
	if err != nil {
		return nil, err
	}
	comment, err := s.comments.GetByReview(ctx, review.ID, commentID)
	if err != nil {
		return nil, notFoundOr(err, "comment not found")
	}
	return comment, nil
}

func (s *commentService) List(ctx context.Context, titleID, reviewID int64, params dto.ListParams) ([]dto.CommentResponse, int64, error) {
	review, err := s.resolveReview(ctx, titleID, reviewID)
	if err != nil {
		return nil, 0, err
	}
	comments, total, err := s.comments.ListByReview(ctx, review.ID, limitOrAll(params), params.Offset)
	if err != nil {
		return nil, 0, apperror.Internal(err)
	}
	return dto.FromModelsToCommentResponses(comments), total, nil
}

func (s *commentService) Get(ctx context.Context, titleID, reviewID, commentID int64) (*dto.CommentResponse, error) {
	comment, err := s.resolve(ctx, titleID, reviewID, commentID)
	if err != nil {
		return nil, err
	}
	resp := dto.FromModelToCommentResponse(comment)
	return &resp, nil
}

func (s *commentService) Create(ctx context.Context, actor *models.User, titleID, reviewID int64, req dto.CommentRequest) (*dto.CommentResponse, error) {
	if err := permission.Evaluate(permission.AuthorOrModeratorOrReadOnly, actor, http.MethodPost, "").Err(); err != nil {
		return nil, err
	}
	review, err := s.resolveReview(ctx, titleID, reviewID)
	if err != nil {
		return nil, err
	}
	text := strings.TrimSpace(req.Text)
	if text == "" {
		return nil, apperror.Validation("text", "This field may not be blank.")
	}

	comment := &models.Comment{ReviewID: review.ID, AuthorID: actor.ID, Text: text}
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, apperror.Internal(err)
	}
	comment.Author = *actor

	resp := dto.FromModelToCommentResponse(comment)
	return &resp, nil
}

func (s *commentService) Update(ctx context.Context, actor *models.User, titleID, reviewID, commentID int64, patch dto.CommentPatch) (*dto.CommentResponse, error) {
	comment, err := s.resolve(ctx, titleID, reviewID, commentID)
	if err != nil {
		return nil, err
	}
	if err := permission.Evaluate(permission.AuthorOrModeratorOrReadOnly, actor, http.MethodPatch, comment.AuthorID).Err(); err != nil {
		return nil, err
	}
	if patch.Text != nil {
		text := strings.TrimSpace(*patch.Text)
		if text == "" {
			return nil, apperror.Validation("text", "This field may not be blank.")
		}
		comment.Text = text
		if err := s.comments.Update(ctx, comment); err != nil {
			return nil, apperror.Internal(err)
		}
	}

	resp := dto.FromModelToCommentResponse(comment)
	return &resp, nil
}

func (s *commentService) Delete(ctx context.Context, actor *models.User, titleID, reviewID, commentID int64) error {
	comment, err := s.resolve(ctx, titleID, reviewID, commentID)
	if err != nil {
		return err
	}
	if err := permission.Evaluate(permission.AuthorOrModeratorOrReadOnly, actor, http.MethodDelete, comment.AuthorID).Err(); err != nil {
		return err
	}
	if err := s.comments.Delete(ctx, comment.ID); err != nil {
		return notFoundOr(err, "comment not found")
	}
	return nil
}
