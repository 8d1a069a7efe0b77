package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"reviewhub/internal/config"
	"reviewhub/internal/microservices/http-api/dto"
	"reviewhub/internal/microservices/http-api/models"
	"reviewhub/internal/microservices/http-api/repository"
	"reviewhub/internal/middleware/auth"
	"reviewhub/pkg/apperror"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-with-at-least-32-characters!"

func newTestAuthService(t *testing.T, repo *MockUserRepository, sender *recordingSender, singleUse bool) *authService {
	t.Helper()
	keys, err := auth.DeriveKeys(testSecret)
	require.NoError(t, err)
	cfg := &config.Config{
		AccessTokenTTL:        time.Hour,
		ConfirmationCodeTTL:   72 * time.Hour,
		ConfirmationSingleUse: singleUse,
	}
	return NewAuthService(repo, sender, keys, cfg, slog.New(slog.NewTextHandler(io.Discard, nil))).(*authService)
}

// codeFrom extracts the code from the body "Ваш код подтверждения: <code>".
func codeFrom(t *testing.T, body string) string {
	t.Helper()
	_, code, ok := strings.Cut(body, ": ")
	require.True(t, ok, body)
	return code
}

// signupBob runs a successful signup and returns the stored user and the mailed code.
func signupBob(t *testing.T, svc *authService, repo *MockUserRepository, sender *recordingSender) (*models.User, string) {
	t.Helper()
	ctx := context.Background()
	var created *models.User

	repo.On("FindByUsername", ctx, "bob").Return(nil, repository.ErrNotFound).Once()
	repo.On("FindByEmail", ctx, "a@a.com").Return(nil, repository.ErrNotFound).Once()
	repo.On("Create", ctx, mock.AnythingOfType("*models.User")).Run(func(args mock.Arguments) {
		created = args.Get(1).(*models.User)
		created.ID = "0b7c1f1e-8d7a-4d42-9d7e-6f3f9f1b2c3d"
	}).Return(nil).Once()
	repo.On("SetConfirmationCode", ctx, "0b7c1f1e-8d7a-4d42-9d7e-6f3f9f1b2c3d", mock.AnythingOfType("string")).Return(nil).Once()

	resp, err := svc.Signup(ctx, dto.SignupRequest{Username: "bob", Email: "a@a.com"})
	require.NoError(t, err)
	assert.Equal(t, &dto.SignupResponse{Email: "a@a.com", Username: "bob"}, resp)
	require.Len(t, sender.sent, 1)
	return created, codeFrom(t, sender.sent[0].Body)
}

func TestSignupCreatesUserAndSendsOneCode(t *testing.T) {
	repo := new(MockUserRepository)
	sender := &recordingSender{}
	svc := newTestAuthService(t, repo, sender, false)

	user, code := signupBob(t, svc, repo, sender)

	assert.Equal(t, models.RoleUser, user.Role)
	assert.Equal(t, "a@a.com", sender.sent[0].To)
	assert.NotEmpty(t, user.ConfirmationCode)
	assert.NotEqual(t, code, user.ConfirmationCode, "only the hash is stored")
	assert.NoError(t, auth.VerifyCode(user.ConfirmationCode, code))
	repo.AssertExpectations(t)
}

func TestSignupConflicts(t *testing.T) {
	ctx := context.Background()
	existing := &models.User{ID: "1", Username: "bob", Email: "a@a.com"}

	t.Run("username taken", func(t *testing.T) {
		repo := new(MockUserRepository)
		sender := &recordingSender{}
		svc := newTestAuthService(t, repo, sender, false)
		repo.On("FindByUsername", ctx, "bob").Return(existing, nil)

		_, err := svc.Signup(ctx, dto.SignupRequest{Username: "bob", Email: "a@a.com"})
		appErr := apperror.As(err)
		assert.Equal(t, apperror.KindConflict, appErr.Kind)
		assert.Equal(t, map[string]string{"username": "bob уже зарегистрирован."}, appErr.Body())
		assert.Empty(t, sender.sent)
	})

	t.Run("email taken", func(t *testing.T) {
		repo := new(MockUserRepository)
		sender := &recordingSender{}
		svc := newTestAuthService(t, repo, sender, false)
		repo.On("FindByUsername", ctx, "alice").Return(nil, repository.ErrNotFound)
		repo.On("FindByEmail", ctx, "a@a.com").Return(existing, nil)

		_, err := svc.Signup(ctx, dto.SignupRequest{Username: "alice", Email: "a@a.com"})
		assert.Equal(t, map[string]string{"email": "a@a.com уже зарегистрирован."}, apperror.As(err).Body())
		assert.Empty(t, sender.sent)
	})

	t.Run("lost race on unique index", func(t *testing.T) {
		repo := new(MockUserRepository)
		sender := &recordingSender{}
		svc := newTestAuthService(t, repo, sender, false)
		repo.On("FindByUsername", ctx, "bob").Return(nil, repository.ErrNotFound)
		repo.On("FindByEmail", ctx, "a@a.com").Return(nil, repository.ErrNotFound)
		repo.On("Create", ctx, mock.Anything).Return(&repository.DuplicateError{Field: "username", Err: errors.New("dup")})

		_, err := svc.Signup(ctx, dto.SignupRequest{Username: "bob", Email: "a@a.com"})
		assert.Equal(t, map[string]string{"username": "bob уже зарегистрирован."}, apperror.As(err).Body())
	})
}

func TestSignupDeliveryFailure(t *testing.T) {
	ctx := context.Background()
	repo := new(MockUserRepository)
	sender := &recordingSender{err: errors.New("smtp down")}
	svc := newTestAuthService(t, repo, sender, false)

	repo.On("FindByUsername", ctx, "bob").Return(nil, repository.ErrNotFound)
	repo.On("FindByEmail", ctx, "a@a.com").Return(nil, repository.ErrNotFound)
	repo.On("Create", ctx, mock.Anything).Return(nil)
	repo.On("SetConfirmationCode", ctx, mock.Anything, mock.Anything).Return(nil)

	_, err := svc.Signup(ctx, dto.SignupRequest{Username: "bob", Email: "a@a.com"})
	assert.Equal(t, apperror.KindInternal, apperror.As(err).Kind)
}

func TestTokenExchange(t *testing.T) {
	ctx := context.Background()
	repo := new(MockUserRepository)
	sender := &recordingSender{}
	svc := newTestAuthService(t, repo, sender, false)
	user, code := signupBob(t, svc, repo, sender)

	repo.On("FindByUsername", ctx, "bob").Return(user, nil)

	t.Run("wrong code", func(t *testing.T) {
		_, err := svc.Token(ctx, dto.TokenRequest{Username: "bob", ConfirmationCode: "000000"})
		assert.Equal(t, map[string]string{"confirmation_code": "Неверный код подтверждения"}, apperror.As(err).Body())
	})

	t.Run("right code", func(t *testing.T) {
		resp, err := svc.Token(ctx, dto.TokenRequest{Username: "bob", ConfirmationCode: code})
		require.NoError(t, err)

		claims, err := svc.ValidateToken(resp.Token)
		require.NoError(t, err)
		assert.Equal(t, user.ID, claims.Subject)
		assert.Equal(t, "bob", claims.Username)
	})

	t.Run("code is reusable by default", func(t *testing.T) {
		_, err := svc.Token(ctx, dto.TokenRequest{Username: "bob", ConfirmationCode: code})
		assert.NoError(t, err)
	})

	t.Run("code bound to email", func(t *testing.T) {
		moved := *user
		moved.Email = "new@a.com"
		repo := new(MockUserRepository)
		repo.On("FindByUsername", ctx, "bob").Return(&moved, nil)
		svc := newTestAuthService(t, repo, &recordingSender{}, false)

		_, err := svc.Token(ctx, dto.TokenRequest{Username: "bob", ConfirmationCode: code})
		assert.Equal(t, apperror.KindValidation, apperror.As(err).Kind)
	})
}

func TestTokenUnknownUser(t *testing.T) {
	ctx := context.Background()
	repo := new(MockUserRepository)
	svc := newTestAuthService(t, repo, &recordingSender{}, false)
	repo.On("FindByUsername", ctx, "ghost").Return(nil, repository.ErrNotFound)

	_, err := svc.Token(ctx, dto.TokenRequest{Username: "ghost", ConfirmationCode: "x"})
	assert.True(t, errors.Is(err, apperror.ErrNotFound))
}

func TestTokenSingleUse(t *testing.T) {
	ctx := context.Background()
	repo := new(MockUserRepository)
	sender := &recordingSender{}
	svc := newTestAuthService(t, repo, sender, true)
	user, code := signupBob(t, svc, repo, sender)

	repo.On("FindByUsername", ctx, "bob").Return(user, nil)
	repo.On("SetConfirmationCode", ctx, user.ID, "").Run(func(mock.Arguments) {
		user.ConfirmationCode = ""
	}).Return(nil).Once()

	_, err := svc.Token(ctx, dto.TokenRequest{Username: "bob", ConfirmationCode: code})
	require.NoError(t, err)

	_, err = svc.Token(ctx, dto.TokenRequest{Username: "bob", ConfirmationCode: code})
	assert.Equal(t, apperror.KindValidation, apperror.As(err).Kind)
	repo.AssertExpectations(t)
}

func TestValidateToken(t *testing.T) {
	svc := newTestAuthService(t, new(MockUserRepository), &recordingSender{}, false)
	user := &models.User{ID: "u-1", Username: "bob"}

	token, err := svc.generateAccessToken(user)
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "access", claims.Type)

	t.Run("tampered", func(t *testing.T) {
		_, err := svc.ValidateToken(token[:len(token)-2] + "xx")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("other secret", func(t *testing.T) {
		forged := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
			"sub": "u-1", "type": "access", "exp": time.Now().Add(time.Hour).Unix(),
		})
		signed, err := forged.SignedString([]byte(testSecret))
		require.NoError(t, err)
		_, err = svc.ValidateToken(signed)
		assert.ErrorIs(t, err, ErrInvalidToken, "raw JWT_SECRET is not the signing key")
	})

	t.Run("expired", func(t *testing.T) {
		svc.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
		defer func() { svc.now = time.Now }()
		_, err := svc.ValidateToken(token)
		assert.ErrorIs(t, err, ErrExpiredToken)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := svc.ValidateToken("not-a-jwt")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}
