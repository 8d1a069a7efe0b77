package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"reviewhub/internal/config"
	"reviewhub/internal/mailer"
	"reviewhub/internal/microservices/http-api/dto"
	"reviewhub/internal/microservices/http-api/models"
	"reviewhub/internal/microservices/http-api/repository"
	"reviewhub/internal/middleware/auth"
	"reviewhub/internal/shared"
	"reviewhub/pkg/apperror"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token has expired")
)

const invalidConfirmationCode = "Неверный код подтверждения"

type AuthService interface {
	Signup(ctx context.Context, req dto.SignupRequest) (*dto.SignupResponse, error)
	Token(ctx context.Context, req dto.TokenRequest) (*dto.TokenResponse, error)
	ValidateToken(tokenString string) (*shared.AuthClaims, error)
}

type authService struct {
	userRepo       repository.UserRepository
	sender         mailer.Sender
	codes          *auth.CodeGenerator
	signingKey     []byte
	accessTokenTTL time.Duration
	singleUse      bool
	logger         *slog.Logger
	now            func() time.Time
}

func NewAuthService(
	userRepo repository.UserRepository,
	sender mailer.Sender,
	keys auth.Keys,
	cfg *config.Config,
	logger *slog.Logger,
) AuthService {
	return &authService{
		userRepo:       userRepo,
		sender:         sender,
		codes:          auth.NewCodeGenerator(keys.Code, cfg.ConfirmationCodeTTL),
		signingKey:     keys.Signing,
		accessTokenTTL: cfg.AccessTokenTTL,
		singleUse:      cfg.ConfirmationSingleUse,
		logger:         logger,
		now:            time.Now,
	}
}

// codeState binds a confirmation code to the identity it was issued for.
func codeState(user *models.User) string {
	return user.ID + "|" + user.Username + "|" + user.Email
}

// Signup registers a user and sends a confirmation code. The user row and the
// code dispatch share one transaction, so a delivery failure leaves no user behind.
func (s *authService) Signup(ctx context.Context, req dto.SignupRequest) (*dto.SignupResponse, error) {
	// Pre-checks only produce friendlier errors; the unique indexes decide.
	if _, err := s.userRepo.FindByUsername(ctx, req.Username); err == nil {
		return nil, apperror.Conflict("username", fmt.Sprintf(alreadyRegistered, req.Username))
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, apperror.Internal(err)
	}
	if _, err := s.userRepo.FindByEmail(ctx, req.Email); err == nil {
		return nil, apperror.Conflict("email", fmt.Sprintf(alreadyRegistered, req.Email))
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, apperror.Internal(err)
	}

	user := &models.User{
		Username: req.Username,
		Email:    req.Email,
		Role:     models.RoleUser,
	}

	err := s.userRepo.Transaction(ctx, func(repo repository.UserRepository) error {
		if err := repo.Create(ctx, user); err != nil {
			return duplicateOr(err, map[string]string{"username": req.Username, "email": req.Email}, alreadyRegistered)
		}
		return s.issueCode(ctx, repo, user)
	})
	if err != nil {
		var appErr *apperror.Error
		if !errors.As(err, &appErr) {
			err = apperror.Internal(err)
		}
		return nil, err
	}

	s.logger.InfoContext(ctx, "user signed up", "user_id", user.ID, "username", user.Username)
	return &dto.SignupResponse{Email: user.Email, Username: user.Username}, nil
}

func (s *authService) issueCode(ctx context.Context, repo repository.UserRepository, user *models.User) error {
	code := s.codes.Generate(codeState(user))
	hash, err := auth.HashCode(code)
	if err != nil {
		return fmt.Errorf("hash confirmation code: %w", err)
	}
	if err := repo.SetConfirmationCode(ctx, user.ID, hash); err != nil {
		return fmt.Errorf("store confirmation code: %w", err)
	}
	user.ConfirmationCode = hash
	if err := s.sender.Send(ctx, mailer.ConfirmationMessage(user.Email, code)); err != nil {
		return fmt.Errorf("send confirmation code: %w", err)
	}
	return nil
}

// Token exchanges a username and confirmation code for an access token.
func (s *authService) Token(ctx context.Context, req dto.TokenRequest) (*dto.TokenResponse, error) {
	user, err := s.userRepo.FindByUsername(ctx, req.Username)
	if err != nil {
		return nil, notFoundOr(err, "user not found")
	}

	if !s.checkCode(user, req.ConfirmationCode) {
		return nil, apperror.Validation("confirmation_code", invalidConfirmationCode)
	}

	if s.singleUse {
		if err := s.userRepo.SetConfirmationCode(ctx, user.ID, ""); err != nil {
			return nil, apperror.Internal(err)
		}
	}

	token, err := s.generateAccessToken(user)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	return &dto.TokenResponse{Token: token}, nil
}

// checkCode runs the MAC and age check first, then compares against the
// hash of the most recently issued code.
func (s *authService) checkCode(user *models.User, code string) bool {
	if user.ConfirmationCode == "" {
		return false
	}
	if err := s.codes.Check(code, codeState(user)); err != nil {
		return false
	}
	return auth.VerifyCode(user.ConfirmationCode, code) == nil
}

func (s *authService) generateAccessToken(user *models.User) (string, error) {
	now := s.now()
	claims := shared.AuthClaims{
		Username: user.Username,
		Type:     shared.TokenTypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.accessTokenTTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.signingKey)
}

func (s *authService) ValidateToken(tokenString string) (*shared.AuthClaims, error) {
	claims := &shared.AuthClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return s.signingKey, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	if !token.Valid || claims.Type != shared.TokenTypeAccess || claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
