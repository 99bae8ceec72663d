package ui

import (
	"embed"
	"html/template"
	"io"
)

//go:embed templates/*.html
var templateFS embed.FS

var (
	pageTemplate  = template.Must(template.ParseFS(templateFS, "templates/page.html"))
	fatalTemplate = template.Must(template.ParseFS(templateFS, "templates/fatal.html"))
)

// RenderPage はページ全体を書き出す（文字列はテンプレートがエスケープする）
func RenderPage(w io.Writer, v View) error {
	return pageTemplate.Execute(w, v)
}

// RenderFatal は起動失敗時の画面（再読み込みのみ）
func RenderFatal(w io.Writer, message string) error {
	return fatalTemplate.Execute(w, message)
}
