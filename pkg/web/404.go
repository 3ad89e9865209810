package web

import (
	"net/http"
)

func NotFoundHandler() http.HandlerFunc {
	return renderNotFound
}

func renderNotFound(w http.ResponseWriter, r *http.Request) {
	page := NewPage(
		"Not Found",
		"The page you requested could not be found.",
		"",
		[]string{
			"templates/pages/404.html",
		},
		nil,
		nil,
	)
	page.Status = http.StatusNotFound

	page.Render(w, r)
}
