package handler

import (
	"bytes"
	"net/http"
	"strconv"

	"bookstore/internal/domain/model"
	"bookstore/internal/ui"
	"bookstore/internal/usecase"

	"github.com/labstack/echo/v4"
)

// カートの読み取り（usecase.CartEngine が満たす）
type CartReader interface {
	Summary() model.CartSummary
}

// 画面と操作のHTTP
// /api/* はJSON、/actions/* はフォーム送信で / にリダイレクトする。
type UIHandler struct {
	sync *ui.Synchronizer
	cart CartReader
}

// DI
func NewUIHandler(sync *ui.Synchronizer, cart CartReader) *UIHandler {
	return &UIHandler{sync: sync, cart: cart}
}

type AddItemRequest struct {
	ID int64 `json:"id"`
}

type UpdateQuantityRequest struct {
	Quantity *int `json:"quantity"`
}

type FilterRequest struct {
	Filter string `json:"filter"`
}

type ModeResponse struct {
	Mode ui.Mode `json:"mode"`
}

type CartResponse struct {
	Items      []model.CartLine `json:"items"`
	ItemCount  int              `json:"itemCount"`
	TotalPrice string           `json:"totalPrice"`
	Total      string           `json:"total"`
	IsEmpty    bool             `json:"isEmpty"`
}

// 画面・API・フォーム操作のルートを登録
func (h *UIHandler) RegisterRoutes(e *echo.Echo, mw ...echo.MiddlewareFunc) {
	e.GET("/", h.page, mw...)

	api := e.Group("/api", mw...)
	api.GET("/view", h.view)
	api.GET("/cart", h.getCart)
	api.POST("/cart/items", h.addItem)
	api.PATCH("/cart/items/:id", h.patchItem)
	api.DELETE("/cart/items/:id", h.deleteItem)
	api.DELETE("/cart", h.clearCart)
	api.POST("/ui/toggle", h.toggle)
	api.POST("/ui/filter", h.setFilter)
	api.POST("/checkout/open", h.openCheckout)
	api.POST("/checkout/close", h.closeCheckout)
	api.POST("/checkout/complete", h.completePurchase)

	act := e.Group("/actions", mw...)
	act.POST("/toggle", h.actToggle)
	act.POST("/add", h.actAdd)
	act.POST("/remove", h.actRemove)
	act.POST("/clear", h.actClear)
	act.POST("/checkout", h.actCheckout)
	act.POST("/close", h.actClose)
	act.POST("/complete", h.actComplete)
}

func (h *UIHandler) page(c echo.Context) error {
	if f := c.QueryParam("filter"); f != "" {
		h.sync.SetFilter(model.BookFilter(f))
	}

	var buf bytes.Buffer
	if err := ui.RenderPage(&buf, h.sync.View()); err != nil {
		return err
	}
	return c.HTMLBlob(http.StatusOK, buf.Bytes())
}

func (h *UIHandler) view(c echo.Context) error {
	return c.JSON(http.StatusOK, h.sync.View())
}

func (h *UIHandler) getCart(c echo.Context) error {
	sum := h.cart.Summary()
	return c.JSON(http.StatusOK, CartResponse{
		Items:      sum.Items,
		ItemCount:  sum.ItemCount,
		TotalPrice: sum.TotalPrice.String(),
		Total:      usecase.FormatPrice(sum.TotalPrice),
		IsEmpty:    sum.IsEmpty,
	})
}

func (h *UIHandler) addItem(c echo.Context) error {
	var req AddItemRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if err := h.sync.AddToCart(c.Request().Context(), req.ID); err != nil {
		return writeError(c, err)
	}
	return h.view(c)
}

func (h *UIHandler) patchItem(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid id"})
	}

	var req UpdateQuantityRequest
	if err := c.Bind(&req); err != nil || req.Quantity == nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	if err := h.sync.ChangeQuantity(c.Request().Context(), id, *req.Quantity); err != nil {
		return writeError(c, err)
	}
	return h.view(c)
}

func (h *UIHandler) deleteItem(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid id"})
	}
	if err := h.sync.RemoveFromCart(c.Request().Context(), id); err != nil {
		return writeError(c, err)
	}
	return h.view(c)
}

func (h *UIHandler) clearCart(c echo.Context) error {
	h.sync.ClearCart(c.Request().Context())
	return h.view(c)
}

func (h *UIHandler) toggle(c echo.Context) error {
	return c.JSON(http.StatusOK, ModeResponse{Mode: h.sync.ToggleCart()})
}

func (h *UIHandler) setFilter(c echo.Context) error {
	var req FilterRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	h.sync.SetFilter(model.BookFilter(req.Filter))
	return h.view(c)
}

func (h *UIHandler) openCheckout(c echo.Context) error {
	if err := h.sync.OpenCheckout(); err != nil {
		return writeError(c, err)
	}
	return h.view(c)
}

func (h *UIHandler) closeCheckout(c echo.Context) error {
	h.sync.CloseCheckout()
	return h.view(c)
}

func (h *UIHandler) completePurchase(c echo.Context) error {
	if err := h.sync.CompletePurchase(c.Request().Context()); err != nil {
		return writeError(c, err)
	}
	return h.view(c)
}

// フォーム操作。失敗は画面の通知で伝わるので常に / に戻す。

func (h *UIHandler) actToggle(c echo.Context) error {
	h.sync.ToggleCart()
	return back(c)
}

func (h *UIHandler) actAdd(c echo.Context) error {
	id, ok := formID(c)
	if !ok {
		h.sync.ShowMessage(ui.IndicatorError, "Book not found!")
		return back(c)
	}
	_ = h.sync.AddToCart(c.Request().Context(), id)
	return back(c)
}

func (h *UIHandler) actRemove(c echo.Context) error {
	id, ok := formID(c)
	if !ok {
		h.sync.ShowMessage(ui.IndicatorError, "Failed to remove item.")
		return back(c)
	}
	_ = h.sync.RemoveFromCart(c.Request().Context(), id)
	return back(c)
}

func (h *UIHandler) actClear(c echo.Context) error {
	h.sync.ClearCart(c.Request().Context())
	return back(c)
}

func (h *UIHandler) actCheckout(c echo.Context) error {
	_ = h.sync.OpenCheckout()
	return back(c)
}

func (h *UIHandler) actClose(c echo.Context) error {
	h.sync.CloseCheckout()
	return back(c)
}

func (h *UIHandler) actComplete(c echo.Context) error {
	_ = h.sync.CompletePurchase(c.Request().Context())
	return back(c)
}

func back(c echo.Context) error {
	return c.Redirect(http.StatusSeeOther, "/")
}

func formID(c echo.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.FormValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
