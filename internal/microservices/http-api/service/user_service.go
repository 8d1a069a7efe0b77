package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"reviewhub/internal/microservices/http-api/dto"
	"reviewhub/internal/microservices/http-api/models"
	"reviewhub/internal/microservices/http-api/repository"
	"reviewhub/pkg/apperror"
)

// /users/me reports conflicts without the trailing period
const alreadyRegisteredMe = "%s уже зарегистрирован"

type UserService interface {
	Me(ctx context.Context, actor *models.User) dto.UserResponse
	UpdateMe(ctx context.Context, actor *models.User, patch dto.UserPatch) (*dto.UserResponse, error)

	List(ctx context.Context, params dto.ListParams) ([]dto.UserResponse, int64, error)
	Get(ctx context.Context, username string) (*dto.UserResponse, error)
	Create(ctx context.Context, req dto.UserRequest) (*dto.UserResponse, error)
	Replace(ctx context.Context, username string, req dto.UserRequest) (*dto.UserResponse, error)
	Patch(ctx context.Context, username string, patch dto.UserPatch) (*dto.UserResponse, error)
	Delete(ctx context.Context, username string) error
}

type userService struct {
	userRepo repository.UserRepository
}

func NewUserService(userRepo repository.UserRepository) UserService {
	return &userService{userRepo: userRepo}
}

func (s *userService) Me(_ context.Context, actor *models.User) dto.UserResponse {
	return dto.FromModelToUserResponse(actor)
}

// UpdateMe applies a partial update to the actor's own profile. Checks run in
// order: email owner, username owner, then role changes by plain users.
func (s *userService) UpdateMe(ctx context.Context, actor *models.User, patch dto.UserPatch) (*dto.UserResponse, error) {
	if patch.Email != nil {
		if err := s.ensureFree(ctx, actor, "email", *patch.Email, s.userRepo.FindByEmail, alreadyRegisteredMe); err != nil {
			return nil, err
		}
	}
	if patch.Username != nil {
		if err := s.ensureFree(ctx, actor, "username", *patch.Username, s.userRepo.FindByUsername, alreadyRegisteredMe); err != nil {
			return nil, err
		}
	}
	if patch.HasRole() && !actor.CanModerate() {
		return nil, apperror.Validation("role", models.RoleUser.String())
	}

	updated := *actor
	if err := applyPatch(&updated, patch); err != nil {
		return nil, err
	}
	if err := s.userRepo.Update(ctx, &updated); err != nil {
		return nil, duplicateOr(err, userValues(&updated), alreadyRegisteredMe)
	}
	*actor = updated

	resp := dto.FromModelToUserResponse(actor)
	return &resp, nil
}

// ensureFree fails when value is owned by a user other than actor.
func (s *userService) ensureFree(
	ctx context.Context,
	actor *models.User,
	field, value string,
	find func(context.Context, string) (*models.User, error),
	format string,
) error {
	owner, err := find(ctx, value)
	if errors.Is(err, repository.ErrNotFound) {
		return nil
	}
	if err != nil {
		return apperror.Internal(err)
	}
	if actor != nil && owner.ID == actor.ID {
		return nil
	}
	return apperror.Conflict(field, fmt.Sprintf(format, value))
}

func (s *userService) List(ctx context.Context, params dto.ListParams) ([]dto.UserResponse, int64, error) {
	users, total, err := s.userRepo.List(ctx, strings.TrimSpace(params.Search), limitOrAll(params), params.Offset)
	if err != nil {
		return nil, 0, apperror.Internal(err)
	}
	return dto.FromModelsToUserResponses(users), total, nil
}

func (s *userService) Get(ctx context.Context, username string) (*dto.UserResponse, error) {
	user, err := s.userRepo.FindByUsername(ctx, username)
	if err != nil {
		return nil, notFoundOr(err, "user not found")
	}
	resp := dto.FromModelToUserResponse(user)
	return &resp, nil
}

func (s *userService) Create(ctx context.Context, req dto.UserRequest) (*dto.UserResponse, error) {
	if err := s.ensureFree(ctx, nil, "username", req.Username, s.userRepo.FindByUsername, alreadyRegistered); err != nil {
		return nil, err
	}
	if err := s.ensureFree(ctx, nil, "email", req.Email, s.userRepo.FindByEmail, alreadyRegistered); err != nil {
		return nil, err
	}

	user := &models.User{}
	if err := applyRequest(user, req); err != nil {
		return nil, err
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, duplicateOr(err, userValues(user), alreadyRegistered)
	}
	resp := dto.FromModelToUserResponse(user)
	return &resp, nil
}

// Replace overwrites every writable field (PUT). An omitted role resets to user.
func (s *userService) Replace(ctx context.Context, username string, req dto.UserRequest) (*dto.UserResponse, error) {
	user, err := s.userRepo.FindByUsername(ctx, username)
	if err != nil {
		return nil, notFoundOr(err, "user not found")
	}
	if err := s.ensureFree(ctx, user, "username", req.Username, s.userRepo.FindByUsername, alreadyRegistered); err != nil {
		return nil, err
	}
	if err := s.ensureFree(ctx, user, "email", req.Email, s.userRepo.FindByEmail, alreadyRegistered); err != nil {
		return nil, err
	}
	if err := applyRequest(user, req); err != nil {
		return nil, err
	}
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, duplicateOr(err, userValues(user), alreadyRegistered)
	}
	resp := dto.FromModelToUserResponse(user)
	return &resp, nil
}

func (s *userService) Patch(ctx context.Context, username string, patch dto.UserPatch) (*dto.UserResponse, error) {
	user, err := s.userRepo.FindByUsername(ctx, username)
	if err != nil {
		return nil, notFoundOr(err, "user not found")
	}
	if patch.Username != nil {
		if err := s.ensureFree(ctx, user, "username", *patch.Username, s.userRepo.FindByUsername, alreadyRegistered); err != nil {
			return nil, err
		}
	}
	if patch.Email != nil {
		if err := s.ensureFree(ctx, user, "email", *patch.Email, s.userRepo.FindByEmail, alreadyRegistered); err != nil {
			return nil, err
		}
	}
	if err := applyPatch(user, patch); err != nil {
		return nil, err
	}
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, duplicateOr(err, userValues(user), alreadyRegistered)
	}
	resp := dto.FromModelToUserResponse(user)
	return &resp, nil
}

func (s *userService) Delete(ctx context.Context, username string) error {
	user, err := s.userRepo.FindByUsername(ctx, username)
	if err != nil {
		return notFoundOr(err, "user not found")
	}
	if err := s.userRepo.Delete(ctx, user.ID); err != nil {
		return notFoundOr(err, "user not found")
	}
	return nil
}

func applyRequest(user *models.User, req dto.UserRequest) error {
	role := models.RoleUser
	if req.Role != nil {
		parsed, err := models.ParseRole(*req.Role)
		if err != nil {
			return apperror.Validation("role", err.Error())
		}
		role = parsed
	}
	user.Username = req.Username
	user.Email = req.Email
	user.FirstName = req.FirstName
	user.LastName = req.LastName
	user.Bio = req.Bio
	user.Role = role
	return nil
}

func applyPatch(user *models.User, patch dto.UserPatch) error {
	if patch.Role != nil {
		role, err := models.ParseRole(*patch.Role)
		if err != nil {
			return apperror.Validation("role", err.Error())
		}
		user.Role = role
	}
	if patch.Username != nil {
		user.Username = *patch.Username
	}
	if patch.Email != nil {
		user.Email = *patch.Email
	}
	if patch.FirstName != nil {
		user.FirstName = *patch.FirstName
	}
	if patch.LastName != nil {
		user.LastName = *patch.LastName
	}
	if patch.Bio != nil {
		user.Bio = *patch.Bio
	}
	return nil
}

func userValues(user *models.User) map[string]string {
	return map[string]string{"username": user.Username, "email": user.Email}
}
