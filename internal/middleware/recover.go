package middleware

import (
	"errors"
	"fmt"
	"net/http"

	"bookstore/internal/usecase"

	"github.com/labstack/echo/v4"
)

type errorResponse struct {
	Error string `json:"error"`
}

func errorJSON(msg string) errorResponse {
	return errorResponse{Error: msg}
}

// ハンドラ内のpanicを受け取る先（Orchestrator.CaptureError）
type ErrorSink func(err error)

// CaptureErrors はpanicと想定外のエラーを sink に渡す。サーバーは止めない。
// panicは500を返し、返されたエラーはそのままechoのエラーハンドラに渡す。
// 操作の失敗（usecase.HTTPError）とechoのHTTPErrorは対象外。
func CaptureErrors(sink ErrorSink) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) (err error) {
			defer func() {
				r := recover()
				if r == nil {
					return
				}
				perr, ok := r.(error)
				if !ok {
					perr = fmt.Errorf("%v", r)
				}
				report(sink, c, perr)
				err = c.JSON(http.StatusInternalServerError, errorJSON("internal error"))
			}()

			err = next(c)
			if unexpected(err) {
				report(sink, c, err)
			}
			return err
		}
	}
}

func report(sink ErrorSink, c echo.Context, err error) {
	if sink == nil {
		return
	}
	sink(fmt.Errorf("%s %s: %w", c.Request().Method, c.Path(), err))
}

func unexpected(err error) bool {
	if err == nil {
		return false
	}
	if _, ok := usecase.AsHTTPError(err); ok {
		return false
	}
	var he *echo.HTTPError
	return !errors.As(err, &he)
}
