package web

import (
	"html/template"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/getzep/sprig/v3"
)

func add(a, b int64) int64 {
	return a + b
}

// ratingClass maps a fact rating to the css class used to colour it.
func ratingClass(rating int) string {
	switch {
	case rating > 0:
		return "rating-positive"
	case rating < 0:
		return "rating-negative"
	default:
		return "rating-neutral"
	}
}

// signed formats a rating with an explicit sign and thousands separators.
func signed(rating int) string {
	if rating > 0 {
		return "+" + humanize.Comma(int64(rating))
	}
	return humanize.Comma(int64(rating))
}

func templateFuncs() template.FuncMap {
	own := template.FuncMap{
		"ToLower":     strings.ToLower,
		"Add":         add,
		"Comma":       humanize.Comma,
		"RatingClass": ratingClass,
		"Signed":      signed,
	}

	funcs := template.FuncMap(sprig.FuncMap())
	for name, fn := range own {
		funcs[name] = fn
	}
	return funcs
}
