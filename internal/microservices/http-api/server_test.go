package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"reviewhub/internal/config"
	"reviewhub/internal/mailer"
	"reviewhub/internal/microservices/http-api/models"
	"reviewhub/internal/middleware/auth"
	"reviewhub/internal/testutil"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type outbox struct {
	mu   sync.Mutex
	sent []mailer.Message
}

func (o *outbox) Send(_ context.Context, msg mailer.Message) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.sent = append(o.sent, msg)
	return nil
}

// codeFor returns the last code mailed to addr.
func (o *outbox) codeFor(addr string) string {
	o.mu.Lock()
	defer o.mu.Unlock()
	for i := len(o.sent) - 1; i >= 0; i-- {
		if o.sent[i].To == addr {
			return strings.TrimPrefix(o.sent[i].Body, "Ваш код подтверждения: ")
		}
	}
	return ""
}

type apiFixture struct {
	t       *testing.T
	db      *gorm.DB
	outbox  *outbox
	handler http.Handler
}

func newAPI(t *testing.T) *apiFixture {
	t.Helper()
	db := testutil.NewTestDB(t)
	keys, err := auth.DeriveKeys("test-secret-that-is-long-enough-for-hkdf")
	require.NoError(t, err)

	box := &outbox{}
	cfg := &config.Config{
		AccessTokenTTL:      time.Hour,
		ConfirmationCodeTTL: time.Hour,
		SignupRateLimit:     100,
		SignupRateWindow:    time.Minute,
		PrometheusEnabled:   true,
		CORSOrigins:         []string{"http://localhost:3000"},
	}
	srv := NewServer(Deps{
		Config: cfg,
		DB:     db,
		Mailer: box,
		Keys:   keys,
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	return &apiFixture{t: t, db: db, outbox: box, handler: srv.Handler()}
}

func (f *apiFixture) do(method, path, token string, body any) *httptest.ResponseRecorder {
	f.t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(f.t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	f.handler.ServeHTTP(w, req)
	return w
}

// login signs up username and redeems the mailed code.
func (f *apiFixture) login(username string) string {
	f.t.Helper()
	email := username + "@example.com"
	w := f.do(http.MethodPost, "/api/v1/auth/signup/", "", gin.H{"username": username, "email": email})
	require.Equal(f.t, http.StatusOK, w.Code, w.Body.String())

	w = f.do(http.MethodPost, "/api/v1/auth/token/", "", gin.H{"username": username, "confirmation_code": f.outbox.codeFor(email)})
	require.Equal(f.t, http.StatusOK, w.Code, w.Body.String())
	var resp struct {
		Token string `json:"token"`
	}
	require.NoError(f.t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Token
}

func (f *apiFixture) setRole(username string, role models.Role) {
	f.t.Helper()
	require.NoError(f.t, f.db.Model(&models.User{}).Where("username = ?", username).Update("role", role).Error)
}

func TestSignupAndToken(t *testing.T) {
	api := newAPI(t)

	w := api.do(http.MethodPost, "/api/v1/auth/signup/", "", gin.H{"username": "bob", "email": "bob@example.com"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"email":"bob@example.com","username":"bob"}`, w.Body.String())
	require.Len(t, api.outbox.sent, 1)

	w = api.do(http.MethodPost, "/api/v1/auth/signup/", "", gin.H{"username": "bob", "email": "other@example.com"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"username":"bob уже зарегистрирован."}`, w.Body.String())

	w = api.do(http.MethodPost, "/api/v1/auth/signup/", "", gin.H{"username": "robert", "email": "bob@example.com"})
	assert.JSONEq(t, `{"email":"bob@example.com уже зарегистрирован."}`, w.Body.String())

	w = api.do(http.MethodPost, "/api/v1/auth/signup", "", gin.H{"username": "me", "email": "me@example.com"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "username")

	w = api.do(http.MethodPost, "/api/v1/auth/token/", "", gin.H{"username": "bob", "confirmation_code": "0-deadbeef"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"confirmation_code":"Неверный код подтверждения"}`, w.Body.String())

	w = api.do(http.MethodPost, "/api/v1/auth/token/", "", gin.H{"username": "nobody", "confirmation_code": "x"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = api.do(http.MethodPost, "/api/v1/auth/token/", "", gin.H{"username": "bob", "confirmation_code": api.outbox.codeFor("bob@example.com")})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"token"`)
}

func TestUsersMe(t *testing.T) {
	api := newAPI(t)
	bob := api.login("bob")
	api.login("alice")

	assert.Equal(t, http.StatusUnauthorized, api.do(http.MethodGet, "/api/v1/users/me/", "", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, api.do(http.MethodGet, "/api/v1/users/me/", "garbage", nil).Code)

	w := api.do(http.MethodGet, "/api/v1/users/me/", bob, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"username":"bob","email":"bob@example.com","first_name":"","last_name":"","bio":"","role":"user"}`, w.Body.String())

	w = api.do(http.MethodPatch, "/api/v1/users/me/", bob, gin.H{"role": "admin"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"role":"user"}`, w.Body.String())

	// an explicit null still counts as a role change
	w = api.do(http.MethodPatch, "/api/v1/users/me/", bob, gin.H{"role": nil, "bio": "x"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"role":"user"}`, w.Body.String())

	w = api.do(http.MethodPatch, "/api/v1/users/me/", bob, gin.H{"email": "alice@example.com"})
	assert.JSONEq(t, `{"email":"alice@example.com уже зарегистрирован"}`, w.Body.String())

	w = api.do(http.MethodPatch, "/api/v1/users/me/", bob, gin.H{"bio": "reader"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"bio":"reader"`)

	// the user collection is admin-only
	assert.Equal(t, http.StatusForbidden, api.do(http.MethodGet, "/api/v1/users/", bob, nil).Code)
	admin := api.login("root")
	api.setRole("root", models.RoleAdmin)

	w = api.do(http.MethodGet, "/api/v1/users/?search=BO&limit=1", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"count":1`)

	w = api.do(http.MethodPatch, "/api/v1/users/bob/", admin, gin.H{"role": "moderator"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"role":"moderator"`)

	assert.Equal(t, http.StatusNoContent, api.do(http.MethodDelete, "/api/v1/users/alice/", admin, nil).Code)
	assert.Equal(t, http.StatusNotFound, api.do(http.MethodGet, "/api/v1/users/alice/", admin, nil).Code)
}

func TestCatalogAndReviews(t *testing.T) {
	api := newAPI(t)
	bob := api.login("bob")
	eve := api.login("eve")
	admin := api.login("root")
	api.setRole("root", models.RoleAdmin)

	// catalog writes need an admin
	assert.Equal(t, http.StatusUnauthorized, api.do(http.MethodPost, "/api/v1/genres/", "", gin.H{"name": "Drama", "slug": "drama"}).Code)
	assert.Equal(t, http.StatusForbidden, api.do(http.MethodPost, "/api/v1/genres/", bob, gin.H{"name": "Drama", "slug": "drama"}).Code)
	require.Equal(t, http.StatusCreated, api.do(http.MethodPost, "/api/v1/genres/", admin, gin.H{"name": "Drama", "slug": "drama"}).Code)
	require.Equal(t, http.StatusCreated, api.do(http.MethodPost, "/api/v1/categories/", admin, gin.H{"name": "Книги", "slug": "books"}).Code)

	w := api.do(http.MethodPost, "/api/v1/titles/", admin, gin.H{"name": "Гамлет", "year": 1600, "category": "books", "genre": []string{"drama"}})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var title struct {
		ID int64 `json:"id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &title))
	titlePath := "/api/v1/titles/" + itoa(title.ID)

	w = api.do(http.MethodGet, "/api/v1/titles/?genre=drama", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var page struct {
		Count    int64             `json:"count"`
		Next     *string           `json:"next"`
		Previous *string           `json:"previous"`
		Results  []json.RawMessage `json:"results"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
	assert.Equal(t, int64(1), page.Count)
	assert.Nil(t, page.Next)
	assert.Contains(t, string(page.Results[0]), `"rating":null`)
	assert.Contains(t, string(page.Results[0]), `"category":{"name":"Книги","slug":"books"}`)

	assert.Equal(t, http.StatusNotFound, api.do(http.MethodGet, "/api/v1/titles/?page=5", "", nil).Code)

	// reviews
	assert.Equal(t, http.StatusUnauthorized, api.do(http.MethodPost, titlePath+"/reviews/", "", gin.H{"text": "x", "score": 5}).Code)
	w = api.do(http.MethodPost, titlePath+"/reviews/", bob, gin.H{"text": "great", "score": 8})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var review struct {
		ID     int64  `json:"id"`
		Author string `json:"author"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &review))
	assert.Equal(t, "bob", review.Author)
	reviewPath := titlePath + "/reviews/" + itoa(review.ID)

	w = api.do(http.MethodPost, titlePath+"/reviews/", bob, gin.H{"text": "again", "score": 2})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "non_field_errors")

	w = api.do(http.MethodPost, titlePath+"/reviews/", eve, gin.H{"text": "meh", "score": 11})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "score")

	require.Equal(t, http.StatusCreated, api.do(http.MethodPost, titlePath+"/reviews/", eve, gin.H{"text": "ok", "score": 3}).Code)
	w = api.do(http.MethodGet, titlePath, "", nil)
	assert.Contains(t, w.Body.String(), `"rating":5.5`)

	// object-level permissions
	assert.Equal(t, http.StatusForbidden, api.do(http.MethodPatch, reviewPath, eve, gin.H{"text": "hijack"}).Code)
	assert.Equal(t, http.StatusOK, api.do(http.MethodPatch, reviewPath, bob, gin.H{"score": 9}).Code)
	api.setRole("eve", models.RoleModerator)
	w = api.do(http.MethodPut, reviewPath, eve, gin.H{"text": "moderated", "score": 9})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"author":"bob"`)

	assert.Equal(t, http.StatusNotFound, api.do(http.MethodGet, "/api/v1/titles/999/reviews/"+itoa(review.ID), "", nil).Code)
	assert.Equal(t, http.StatusNotFound, api.do(http.MethodGet, "/api/v1/titles/abc", "", nil).Code)

	// comments
	w = api.do(http.MethodPost, reviewPath+"/comments/", bob, gin.H{"text": "thanks"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	require.Equal(t, http.StatusCreated, api.do(http.MethodPost, reviewPath+"/comments", eve, gin.H{"text": "agreed"}).Code)

	w = api.do(http.MethodGet, reviewPath+"/comments/", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.HasPrefix(w.Body.String(), "["), "bare array without limit")

	w = api.do(http.MethodGet, reviewPath+"/comments/?limit=1", "", nil)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
	assert.Equal(t, int64(2), page.Count)
	require.NotNil(t, page.Next)
	assert.Contains(t, *page.Next, "offset=1")
	assert.Nil(t, page.Previous)

	// deleting the review frees the slot for a new one
	assert.Equal(t, http.StatusNoContent, api.do(http.MethodDelete, reviewPath, bob, nil).Code)
	assert.Equal(t, http.StatusNotFound, api.do(http.MethodGet, reviewPath+"/comments/", "", nil).Code)
	assert.Equal(t, http.StatusCreated, api.do(http.MethodPost, titlePath+"/reviews/", bob, gin.H{"text": "second try", "score": 7}).Code)
}

func TestHealthAndMetrics(t *testing.T) {
	api := newAPI(t)

	w := api.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())

	w = api.do(http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `http_requests_total{method="GET",route="/health",status="200"} 1`)
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
