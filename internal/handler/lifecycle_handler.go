package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// ページのライフサイクル通知の受け先（app.Orchestrator が満たす）
type Lifecycle interface {
	VisibilityChanged(visible bool)
	Unload()
	CaptureError(err error)
}

// /api/lifecycle のHTTP
type LifecycleHandler struct {
	lc Lifecycle
}

// DI
func NewLifecycleHandler(lc Lifecycle) *LifecycleHandler {
	return &LifecycleHandler{lc: lc}
}

type VisibilityRequest struct {
	Visible *bool `json:"visible"`
}

type ClientErrorRequest struct {
	Message string `json:"message"`
}

func (h *LifecycleHandler) RegisterRoutes(e *echo.Echo, mw ...echo.MiddlewareFunc) {
	g := e.Group("/api/lifecycle", mw...)
	g.POST("/visibility", h.visibility)
	g.POST("/unload", h.unload)
	g.POST("/error", h.clientError)
}

func (h *LifecycleHandler) visibility(c echo.Context) error {
	var req VisibilityRequest
	if err := c.Bind(&req); err != nil || req.Visible == nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	h.lc.VisibilityChanged(*req.Visible)
	return c.NoContent(http.StatusNoContent)
}

func (h *LifecycleHandler) unload(c echo.Context) error {
	h.lc.Unload()
	return c.NoContent(http.StatusNoContent)
}

// クライアント側で起きたエラー
func (h *LifecycleHandler) clientError(c echo.Context) error {
	var req ClientErrorRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	msg := strings.TrimSpace(req.Message)
	if msg == "" {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "message is required"})
	}
	h.lc.CaptureError(errors.New(msg))
	return c.NoContent(http.StatusNoContent)
}
