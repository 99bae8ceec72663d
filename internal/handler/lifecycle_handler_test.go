package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type LifecycleMock struct {
	mock.Mock
}

func (m *LifecycleMock) VisibilityChanged(visible bool) {
	m.Called(visible)
}

func (m *LifecycleMock) Unload() {
	m.Called()
}

func (m *LifecycleMock) CaptureError(err error) {
	m.Called(err)
}

func postJSON(e *echo.Echo, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestLifecycleHandler(t *testing.T) {
	lc := new(LifecycleMock)
	lc.On("VisibilityChanged", false).Once()
	lc.On("Unload").Once()
	lc.On("CaptureError", mock.MatchedBy(func(err error) bool {
		return err != nil && err.Error() == "script failed"
	})).Once()

	e := echo.New()
	NewLifecycleHandler(lc).RegisterRoutes(e)

	assert.Equal(t, http.StatusNoContent, postJSON(e, "/api/lifecycle/visibility", `{"visible":false}`).Code)
	assert.Equal(t, http.StatusNoContent, postJSON(e, "/api/lifecycle/unload", "").Code)
	assert.Equal(t, http.StatusNoContent, postJSON(e, "/api/lifecycle/error", `{"message":"script failed"}`).Code)

	lc.AssertExpectations(t)
}

func TestLifecycleHandler_BadRequests(t *testing.T) {
	lc := new(LifecycleMock)
	e := echo.New()
	NewLifecycleHandler(lc).RegisterRoutes(e)

	assert.Equal(t, http.StatusBadRequest, postJSON(e, "/api/lifecycle/visibility", `{}`).Code)
	assert.Equal(t, http.StatusBadRequest, postJSON(e, "/api/lifecycle/error", `{"message":"  "}`).Code)

	lc.AssertNotCalled(t, "VisibilityChanged", mock.Anything)
	lc.AssertNotCalled(t, "CaptureError", mock.Anything)
}

func TestFatalHandler(t *testing.T) {
	e := echo.New()
	NewFatalHandler(errors.New("load catalog: boom"), nil).RegisterRoutes(e)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "Failed to load application")
	assert.Contains(t, rec.Body.String(), "load catalog: boom")

	// 操作系のルートは無い
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/cart/items", strings.NewReader(`{"id":1}`)))
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.JSONEq(t, `{"error":"load catalog: boom"}`, rec.Body.String())
}

func TestFatalHandler_ReloadRetries(t *testing.T) {
	attempts := 0
	retry := func(ctx context.Context) error {
		attempts++
		if attempts == 1 {
			return errors.New("load catalog: still down")
		}
		return nil
	}

	e := echo.New()
	NewFatalHandler(errors.New("load catalog: boom"), retry).RegisterRoutes(e)

	// 1回目は失敗、新しい理由を表示
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "load catalog: still down")

	// 2回目は成功して / にリダイレクト
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get(echo.HeaderLocation))
	assert.Equal(t, 2, attempts)

	// API では再起動しない
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/view", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, 2, attempts)
}
