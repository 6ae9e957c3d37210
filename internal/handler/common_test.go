package handler

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"app/internal/middleware"
	"app/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestContext(target string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestWriteError_HTTPError(t *testing.T) {
	c, rec := newTestContext("/")

	err := usecase.NewHTTPError(http.StatusBadRequest, usecase.CodeInsufficientStock, "Only 2 items available for Keyboard")
	require.NoError(t, writeError(c, err))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t,
		`{"success":false,"code":"INSUFFICIENT_STOCK","message":"Only 2 items available for Keyboard"}`,
		rec.Body.String())
}

// 素のerrorは詳細を漏らさず500 INTERNALにする
func TestWriteError_PlainError(t *testing.T) {
	c, rec := newTestContext("/")

	require.NoError(t, writeError(c, errors.New("pq: connection refused")))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t,
		`{"success":false,"code":"INTERNAL","message":"internal error"}`,
		rec.Body.String())
}

func TestGetUserIDFromContext(t *testing.T) {
	c, _ := newTestContext("/")

	_, ok := getUserIDFromContext(c)
	assert.False(t, ok)

	c.Set(middleware.CtxUserIDKey, int64(7))
	id, ok := getUserIDFromContext(c)
	assert.True(t, ok)
	assert.Equal(t, int64(7), id)

	//型違いは未認証扱い
	c.Set(middleware.CtxUserIDKey, "7")
	_, ok = getUserIDFromContext(c)
	assert.False(t, ok)
}

func TestQueryInt(t *testing.T) {
	c, _ := newTestContext("/products?page=3&limit=abc")

	assert.Equal(t, 3, queryInt(c, "page", 1))
	assert.Equal(t, 20, queryInt(c, "limit", 20))
	assert.Equal(t, 1, queryInt(c, "missing", 1))
}

func TestParamID(t *testing.T) {
	c, _ := newTestContext("/")
	c.SetParamNames("id")
	c.SetParamValues("42")

	id, err := paramID(c, "id")
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)

	c.SetParamValues("not-a-number")
	_, err = paramID(c, "id")
	assert.Error(t, err)
}
