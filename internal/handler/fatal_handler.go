package handler

import (
	"bytes"
	"context"
	"net/http"
	"sync"

	"bookstore/internal/ui"

	"github.com/labstack/echo/v4"
)

// Retry は起動をやり直す。成功すれば通常の画面に切り替わっている。
type Retry func(ctx context.Context) error

// 起動に失敗したときはこの画面だけを返す。
// 再読み込み（GET /）で retry があれば起動をやり直す。
type FatalHandler struct {
	retry Retry

	mu      sync.Mutex
	message string
}

// DI
func NewFatalHandler(err error, retry Retry) *FatalHandler {
	return &FatalHandler{message: messageOf(err), retry: retry}
}

func (h *FatalHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/", h.reload)
	e.Any("/api/*", h.api)
	e.Any("/actions/*", h.page)
}

func (h *FatalHandler) reload(c echo.Context) error {
	if h.retry != nil {
		err := h.retry(c.Request().Context())
		if err == nil {
			// 新しいハンドラで画面を出し直す
			return c.Redirect(http.StatusSeeOther, "/")
		}
		h.mu.Lock()
		h.message = messageOf(err)
		h.mu.Unlock()
	}
	return h.page(c)
}

func (h *FatalHandler) page(c echo.Context) error {
	var buf bytes.Buffer
	if err := ui.RenderFatal(&buf, h.currentMessage()); err != nil {
		return err
	}
	return c.HTMLBlob(http.StatusServiceUnavailable, buf.Bytes())
}

func (h *FatalHandler) api(c echo.Context) error {
	return c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: h.currentMessage()})
}

func (h *FatalHandler) currentMessage() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.message
}

func messageOf(err error) string {
	if err == nil {
		return "unknown error"
	}
	return err.Error()
}
