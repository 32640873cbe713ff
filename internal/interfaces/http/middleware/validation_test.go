package middleware

import (
	"errors"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type signupForm struct {
	Email string `json:"email" binding:"required,email"`
	Name  string `json:"name" binding:"max=5"`
	Role  string `json:"role" binding:"omitempty,oneof=OWNER STAFF"`
	Page  int    `form:"page" binding:"omitempty,min=1"`
}

func bindForm(t *testing.T, body string) error {
	t.Helper()
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("POST", "/x", strings.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
	var form signupForm
	return c.ShouldBindJSON(&form)
}

func TestFormatValidationError(t *testing.T) {
	SetupValidator()

	err := bindForm(t, `{"name":"too long name","role":"ADMIN"}`)
	require.Error(t, err)
	msg := FormatValidationError(err)
	assert.Contains(t, msg, "email: This field is required")
	assert.Contains(t, msg, "name: Must be at most 5 characters")
	assert.Contains(t, msg, "role: Must be one of: OWNER STAFF")

	err = bindForm(t, `{"email":"nope"}`)
	require.Error(t, err)
	assert.Equal(t, "email: Invalid email format", FormatValidationError(err))

	assert.NoError(t, bindForm(t, `{"email":"a@b.io","name":"Ann"}`))
}

func TestFormatValidationError_PassesThroughOtherErrors(t *testing.T) {
	SetupValidator()

	err := bindForm(t, `{"email":`)
	require.Error(t, err)
	assert.Equal(t, err.Error(), FormatValidationError(err))

	plain := errors.New("boom")
	assert.Equal(t, "boom", FormatValidationError(plain))
}
