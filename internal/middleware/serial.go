package middleware

import (
	"sync"

	"github.com/labstack/echo/v4"
)

// Serial は画面操作を1件ずつ処理する（同時に2つの操作を走らせない）。
func Serial() echo.MiddlewareFunc {
	var mu sync.Mutex
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			mu.Lock()
			defer mu.Unlock()
			return next(c)
		}
	}
}
