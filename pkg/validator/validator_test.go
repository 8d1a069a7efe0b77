package validator

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"reviewhub/pkg/apperror"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type signupPayload struct {
	Username string `json:"username" binding:"required,max=150,username"`
	Email    string `json:"email" binding:"required,email"`
	Slug     string `json:"slug" binding:"omitempty,slug"`
	Score    int    `json:"score" binding:"omitempty,min=1,max=10"`
}

func bind(t *testing.T, body string) *apperror.Error {
	t.Helper()
	gin.SetMode(gin.TestMode)
	Register()

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(body))
	c.Request.Header.Set("Content-Type", "application/json")

	var payload signupPayload
	err := c.ShouldBindJSON(&payload)
	if err == nil {
		return nil
	}
	return BindingError(err)
}

func TestBindingErrorUsesJSONNames(t *testing.T) {
	appErr := bind(t, `{"email":"nope"}`)
	require.NotNil(t, appErr)
	assert.Equal(t, apperror.KindValidation, appErr.Kind)
	assert.Equal(t, "This field is required.", appErr.Fields["username"])
	assert.Equal(t, "Enter a valid email address.", appErr.Fields["email"])
}

func TestCustomTags(t *testing.T) {
	assert.Nil(t, bind(t, `{"username":"bob.smith+1@x","email":"a@a.com","slug":"sci-fi_2"}`))

	appErr := bind(t, `{"username":"me","email":"a@a.com"}`)
	require.NotNil(t, appErr)
	assert.Contains(t, appErr.Fields["username"], "reserved")

	appErr = bind(t, `{"username":"bad name","email":"a@a.com","slug":"no spaces"}`)
	require.NotNil(t, appErr)
	assert.Contains(t, appErr.Fields, "username")
	assert.Contains(t, appErr.Fields, "slug")
}

func TestBindingErrorDecodeFailures(t *testing.T) {
	appErr := bind(t, `{"username":"bob","email":"a@a.com","score":"ten"}`)
	require.NotNil(t, appErr)
	assert.Contains(t, appErr.Fields, "score")

	appErr = bind(t, `{"username":`)
	require.NotNil(t, appErr)
	assert.Equal(t, apperror.KindValidation, appErr.Kind)
}

func TestIsUsernameAllowsUnicode(t *testing.T) {
	assert.True(t, IsUsername("Пётр_1"))
	assert.False(t, IsUsername(ReservedUsername))
	assert.False(t, IsUsername(""))
}
